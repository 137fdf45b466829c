// Package mpbg implements the multi-pattern Breslauer-Galil engine: one single-pattern BG matcher
// per dictionary entry, fanned out on every byte, reporting the longest pattern among those that
// just matched.
//
// The struct shapes here follow the header this was specified against
// (MPBGPatternInfoList/MPBGPatternInfo, the linked-list-then-array union), whose implementation
// was left as a stub ("TODO implement all the functions here") - this is a first complete
// implementation of it.
package mpbg

import (
	"math/rand"
	"time"

	"github.com/coregx/matchbench/bg"
	"github.com/coregx/matchbench/field"
	"github.com/coregx/matchbench/patternstree"
)

// DefaultPrime is the Karp-Rabin field modulus every BG matcher in an Engine shares: 2^31-1, a
// Mersenne prime comfortably inside uint64 arithmetic for products of two field values.
const DefaultPrime uint64 = 2147483647

// patternInfo pairs one compiled BG matcher with the dictionary pattern it was built from.
type patternInfo struct {
	matcher *bg.Matcher
	id      patternstree.ID
	n       int // pattern length, cached so read_char doesn't re-derive it from matcher
}

// patternNode is one link of the accumulation-phase list (MPBGPatternInfoList's Go twin).
type patternNode struct {
	info patternInfo
	next *patternNode
}

// Engine holds one bg.Matcher per pattern, fanned out on every byte.
type Engine struct {
	p   uint64
	rng *rand.Rand

	head *patternNode // accumulation-phase list; nil after Compile
	n    int

	pats []patternInfo // compiled array; nil before Compile
	pos  int           // stream position of the next ReadChar call
}

// New returns an empty Engine. Every BG matcher it creates shares DefaultPrime as the field
// modulus, but draws an independent random multiplier r - the source re-seeded its RNG from the
// wall clock inside every single bg_new call (srand(time(NULL)) followed immediately by
// rand()%p), which across patterns constructed within the same clock tick silently handed out
// the *same* r to matchers that should have been independently randomized. Engine seeds one RNG
// once, at construction, and draws every pattern's r from it.
func New() *Engine {
	return &Engine{
		p:   DefaultPrime,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddPattern builds a fresh BG matcher for pattern and links it into the accumulation list. Must
// be called before Compile.
func (e *Engine) AddPattern(pattern []byte, id patternstree.ID) {
	r := e.randomR()
	e.head = &patternNode{
		info: patternInfo{matcher: bg.New(pattern, r, e.p), id: id, n: len(pattern)},
		next: e.head,
	}
	e.n++
}

// randomR draws a uniformly random element of [1, p-1], the valid range for a Karp-Rabin
// multiplier (0 has no multiplicative inverse).
func (e *Engine) randomR() field.Value {
	v := uint64(e.rng.Int63n(int64(e.p-1))) + 1
	r, err := field.New(v, e.p)
	if err != nil {
		// e.p is prime and 0 < v < p, so every v has an inverse; this cannot happen.
		panic(err)
	}
	return r
}

// Compile flattens the accumulation list into a contiguous array for cache-friendly iteration.
// After Compile, AddPattern must not be called again.
func (e *Engine) Compile() {
	pats := make([]patternInfo, e.n)
	i := e.n - 1
	for node := e.head; node != nil; node = node.next {
		pats[i] = node.info
		i--
	}
	e.pats = pats
	e.head = nil
}

// ReadChar fans c out to every pattern's matcher and returns the identity of the longest pattern
// among those that matched on this byte, or patternstree.Null if none did. Every bg.Matcher in
// pats reports matches synchronously (even the short-pattern case, which delegates to a
// synchronous KMP matcher rather than the real-time deferred one), so a match position is always
// this call's own position; that is asserted here rather than trusted blindly, since a single
// deferred match slipping through would otherwise attribute the hit to the wrong stream position.
func (e *Engine) ReadChar(c byte) patternstree.ID {
	pos := e.pos
	e.pos++
	best := patternstree.Null
	bestLen := -1
	for i := range e.pats {
		matched, matchPos := e.pats[i].matcher.ReadChar(c)
		if matched && matchPos != pos {
			panic("mpbg: bg.Matcher reported a match at a non-current position")
		}
		if matched && e.pats[i].n > bestLen {
			best = e.pats[i].id
			bestLen = e.pats[i].n
		}
	}
	return best
}

// Reset returns every pattern's matcher to its post-Compile initial state.
func (e *Engine) Reset() {
	for i := range e.pats {
		e.pats[i].matcher.Reset()
	}
	e.pos = 0
}

// TotalMem returns an honest byte count of every matcher this engine owns.
func (e *Engine) TotalMem() int {
	total := 0
	for i := range e.pats {
		total += e.pats[i].matcher.TotalMem()
	}
	for node := e.head; node != nil; node = node.next {
		total += node.info.matcher.TotalMem()
	}
	return total
}
