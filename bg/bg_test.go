package bg

import (
	"math/rand"
	"testing"

	"github.com/coregx/matchbench/field"
)

const testPrime = 2147483647 // 2^31 - 1

func testR(t *testing.T) field.Value {
	t.Helper()
	v, err := field.New(999331, testPrime)
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return v
}

func naiveMatches(pattern, text []byte) []int {
	var out []int
	n := len(pattern)
	for i := 0; i+n <= len(text); i++ {
		if string(text[i:i+n]) == string(pattern) {
			out = append(out, i+n-1)
		}
	}
	return out
}

func streamMatches(t *testing.T, pattern, text []byte) []int {
	t.Helper()
	m := New(pattern, testR(t), testPrime)
	var out []int
	for _, c := range text {
		if ok, pos := m.ReadChar(c); ok {
			out = append(out, pos)
		}
	}
	return out
}

func intSlicesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestShortPatternDelegation(t *testing.T) {
	got := streamMatches(t, []byte("AAAAA"), []byte("AAAAABAAAAAA"))
	want := []int{4, 10, 11}
	if !intSlicesEqual(got, want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
}

// TestLadderEquivalence exercises the full stage-ladder path (patterns longer than the
// short-pattern cutoff) against brute-force matching.
func TestLadderEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	alphabet := []byte("ab")

	for trial := 0; trial < 200; trial++ {
		patLen := shortPatternLength + 1 + rng.Intn(30)
		textLen := patLen + rng.Intn(200)

		pattern := make([]byte, patLen)
		for i := range pattern {
			pattern[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := make([]byte, textLen)
		for i := range text {
			text[i] = alphabet[rng.Intn(len(alphabet))]
		}

		got := streamMatches(t, pattern, text)
		want := naiveMatches(pattern, text)
		if !intSlicesEqual(got, want) {
			t.Fatalf("trial %d: pattern=%q (len %d) text=%q\ngot=%v\nwant=%v", trial, pattern, patLen, text, got, want)
		}
	}
}

// TestLadderEquivalenceLargerAlphabet checks that the ladder also holds up on a less repetitive
// alphabet, where VOs are sparser.
func TestLadderEquivalenceLargerAlphabet(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	alphabet := []byte("abcdefgh")

	for trial := 0; trial < 100; trial++ {
		patLen := shortPatternLength + 1 + rng.Intn(20)
		textLen := patLen + rng.Intn(500)

		pattern := make([]byte, patLen)
		for i := range pattern {
			pattern[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := make([]byte, textLen)
		for i := range text {
			text[i] = alphabet[rng.Intn(len(alphabet))]
		}
		// Plant a guaranteed occurrence so not every trial is a trivial all-miss run.
		if textLen >= patLen && rng.Intn(2) == 0 {
			at := rng.Intn(textLen - patLen + 1)
			copy(text[at:at+patLen], pattern)
		}

		got := streamMatches(t, pattern, text)
		want := naiveMatches(pattern, text)
		if !intSlicesEqual(got, want) {
			t.Fatalf("trial %d: pattern=%q (len %d) text=%q\ngot=%v\nwant=%v", trial, pattern, patLen, text, got, want)
		}
	}
}

func TestResetMatchesFreshMatcher(t *testing.T) {
	pattern := []byte("abcabcabcxyzabcabcabc")
	text := []byte("zzzabcabcabcxyzabcabcabcqq")

	m := New(pattern, testR(t), testPrime)
	for _, c := range text {
		m.ReadChar(c)
	}
	m.Reset()

	var afterReset []int
	for _, c := range text {
		if ok, pos := m.ReadChar(c); ok {
			afterReset = append(afterReset, pos)
		}
	}

	fresh := streamMatches(t, pattern, text)
	if !intSlicesEqual(fresh, afterReset) {
		t.Fatalf("reset matcher diverged from fresh matcher: %v vs %v", afterReset, fresh)
	}
}

func TestTotalMemPositive(t *testing.T) {
	for _, pattern := range [][]byte{[]byte("short"), []byte("a long enough pattern to build the ladder")} {
		m := New(pattern, testR(t), testPrime)
		if m.TotalMem() <= 0 {
			t.Errorf("TotalMem(%q) = %d, want > 0", pattern, m.TotalMem())
		}
	}
}
