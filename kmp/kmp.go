// Package kmp implements Galil's real-time variant of the Knuth-Morris-Pratt exact matcher.
//
// Classical KMP can, in the worst case, spend O(n) failure-function steps responding to a
// single mismatched character (e.g. matching "aaaa...a" against "aaaa...ab"). That violates the
// one-character-at-a-time real-time contract this module needs: every ReadChar call must do
// O(1) amortized work. Galil's trick is to cap the number of failure-function steps performed
// synchronously (two per arriving character) and defer whatever work is left over into a
// circular buffer, processing two more steps' worth of deferred characters on every subsequent
// arrival until the buffer drains. Total work through stream position i stays O(i).
package kmp

// pending is a byte captured off the stream together with the position it was read at, so that
// a match completed while draining the deferred-work buffer can still be reported against the
// position it actually belongs to rather than the position of whatever character happens to be
// arriving when the drain finishes.
type pending struct {
	b   byte
	pos int
}

// Matcher is a real-time KMP matcher for one fixed pattern.
//
// The pattern and its failure table are immutable once built; offset, the deferred-work buffer,
// and the loop/buffer flags are the only mutable state ReadChar touches.
type Matcher struct {
	pattern []byte
	failure []int // length len(pattern)+1

	offset int

	buf        []pending // circular, capacity len(pattern)
	bufStart   int
	bufEnd     int // index of the last occupied slot, valid only if haveBuffer
	haveBuffer bool
	loopFail   bool

	nextPos int
}

// BuildFailureTable builds the classical KMP failure table for pattern, of length
// len(pattern)+1, in O(len(pattern)).
func BuildFailureTable(pattern []byte) []int {
	n := len(pattern)
	failure := make([]int, n+1)
	if n == 0 {
		return failure
	}
	pos, cnd := 2, 0
	for pos < n+1 {
		switch {
		case pattern[pos-1] == pattern[cnd]:
			failure[pos] = cnd + 1
			pos++
			cnd++
		case cnd > 0:
			cnd = failure[cnd]
		default:
			failure[pos] = 0
			pos++
		}
	}
	return failure
}

// Period returns the period of pattern: period(P) = m - fail[m], the distance a prefix of P
// repeats itself at.
func Period(pattern []byte) int {
	failure := BuildFailureTable(pattern)
	return len(pattern) - failure[len(pattern)]
}

// PeriodFromFailureTable returns the period of pattern[0:i] given the full pattern's failure
// table, without rebuilding it - for a caller that already has the table for a longer pattern
// and needs the period of one of its prefixes.
func PeriodFromFailureTable(failure []int, i int) int {
	return i - failure[i]
}

// SyncMatcher is a classical (non-deferred) KMP matcher: every ReadChar call fully resolves its
// failure-function retries before returning, so a reported match is always attributed to the
// byte physically being processed on that call, never an earlier one. Classical KMP's retry
// chain is only amortized O(1) per character over a whole stream, not O(1) worst-case per call -
// unsuitable as the general real-time matcher Matcher provides - but for a short enough pattern
// the worst-case chain length is bounded by the pattern's own length, a constant, so the
// distinction disappears and the deferred-buffer machinery buys nothing.
type SyncMatcher struct {
	pattern []byte
	failure []int

	offset int
	pos    int
}

// NewSync builds a synchronous KMP matcher for pattern. pattern must be non-empty.
func NewSync(pattern []byte) *SyncMatcher {
	p := make([]byte, len(pattern))
	copy(p, pattern)
	return &SyncMatcher{
		pattern: p,
		failure: BuildFailureTable(p),
	}
}

// Len returns the pattern length.
func (m *SyncMatcher) Len() int {
	return len(m.pattern)
}

// TotalMem returns an honest byte count of this matcher's owned allocations.
func (m *SyncMatcher) TotalMem() int {
	return len(m.pattern) + len(m.failure)*8
}

// Reset returns the matcher to its freshly-constructed state.
func (m *SyncMatcher) Reset() {
	m.offset = 0
	m.pos = 0
}

// ReadChar feeds the next stream byte to the matcher and reports whether a pattern match ended
// with it. matchPos always equals the position of c itself, counting ReadChar calls since the
// last Reset.
func (m *SyncMatcher) ReadChar(c byte) (matched bool, matchPos int) {
	pos := m.pos
	m.pos++
	for {
		if m.pattern[m.offset] == c {
			m.offset++
			if m.offset == len(m.pattern) {
				m.offset = m.failure[len(m.pattern)]
				return true, pos
			}
			return false, 0
		}
		if m.offset == 0 {
			return false, 0
		}
		m.offset = m.failure[m.offset]
	}
}

// New builds a real-time KMP matcher for pattern. pattern must be non-empty.
func New(pattern []byte) *Matcher {
	p := make([]byte, len(pattern))
	copy(p, pattern)
	return &Matcher{
		pattern: p,
		failure: BuildFailureTable(p),
		buf:     make([]pending, len(p)),
	}
}

// Len returns the pattern length.
func (m *Matcher) Len() int {
	return len(m.pattern)
}

// TotalMem returns an honest byte count of this matcher's owned allocations.
func (m *Matcher) TotalMem() int {
	return len(m.pattern) + len(m.failure)*8 + len(m.buf)*(1+8)
}

// Reset returns the matcher to its freshly-constructed state.
func (m *Matcher) Reset() {
	m.offset = 0
	m.bufStart = 0
	m.bufEnd = 0
	m.haveBuffer = false
	m.loopFail = false
	m.nextPos = 0
}

// moveFailureFunction performs one failure-function retry against mismatch byte c, advancing
// offset. It returns true once the retry loop has resolved (either a new match against c was
// found, or offset fell back to 0) — not when a full pattern match has occurred.
func (m *Matcher) moveFailureFunction(c byte) bool {
	m.offset = m.failure[m.offset]
	if m.pattern[m.offset] == c {
		m.offset++
		return true
	}
	return m.offset == 0
}

func (m *Matcher) pushFront(p pending) {
	if m.haveBuffer {
		n := len(m.buf)
		m.bufStart = (m.bufStart - 1 + n) % n
		m.buf[m.bufStart] = p
	} else {
		m.bufStart, m.bufEnd = 0, 0
		m.buf[0] = p
		m.haveBuffer = true
	}
}

func (m *Matcher) pushBack(p pending) {
	if m.haveBuffer {
		m.bufEnd = (m.bufEnd + 1) % len(m.buf)
		m.buf[m.bufEnd] = p
	} else {
		m.bufStart, m.bufEnd = 0, 0
		m.buf[0] = p
		m.haveBuffer = true
	}
}

func (m *Matcher) popFront() pending {
	p := m.buf[m.bufStart]
	if m.bufStart == m.bufEnd {
		m.haveBuffer = false
	}
	m.bufStart = (m.bufStart + 1) % len(m.buf)
	return p
}

// fastProcess is the non-deferred fast path: advance offset on a pattern match, or kick off
// (at most two steps of) the failure-function retry on a mismatch, deferring the rest.
func (m *Matcher) fastProcess(c byte, pos int) (matched bool, matchPos int) {
	if m.pattern[m.offset] == c {
		m.offset++
		if m.offset == len(m.pattern) {
			m.offset = m.failure[len(m.pattern)]
			return true, pos
		}
		return false, 0
	}
	if m.offset == 0 {
		return false, 0
	}
	for i := 0; i < 2; i++ {
		if m.moveFailureFunction(c) {
			return false, 0
		}
	}
	m.loopFail = true
	m.pushFront(pending{b: c, pos: pos})
	return false, 0
}

// ReadChar feeds the next stream byte to the matcher and reports whether a pattern match ended
// with it. When matched is true, matchPos is the stream position (0-based, counting ReadChar
// calls since the last Reset) of the byte that completed the match — which may be earlier than
// the byte physically being processed on this call, if the matcher is still draining deferred
// work from an earlier mismatch.
func (m *Matcher) ReadChar(c byte) (matched bool, matchPos int) {
	pos := m.nextPos
	m.nextPos++

	switch {
	case m.loopFail:
		m.pushBack(pending{b: c, pos: pos})
		for i := 0; i < 2; i++ {
			head := m.buf[m.bufStart]
			if m.moveFailureFunction(head.b) {
				m.popFront()
				m.loopFail = false
				break
			}
		}
		return false, 0

	case m.haveBuffer:
		m.pushBack(pending{b: c, pos: pos})
		for i := 0; i < 2; i++ {
			p := m.popFront()
			if ok, mp := m.fastProcess(p.b, p.pos); ok {
				return true, mp
			}
			if m.loopFail {
				// fastProcess deferred p itself back onto the buffer; the remaining
				// buffered bytes (if any) still need their turn once this resolves.
				break
			}
		}
		return false, 0

	default:
		return m.fastProcess(c, pos)
	}
}
