package kmp

import (
	"math/rand"
	"testing"
)

// naiveMatches returns every end position (0-based, inclusive) at which pattern occurs in text.
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

func streamMatches(pattern, text []byte) []int {
	m := New(pattern)
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

// TestPeriodicPattern matches the periodic-pattern scenario: "AAAAA" over "AAAAABAAAAAA" must
// report matches ending at positions 4, 10, 11.
func TestPeriodicPattern(t *testing.T) {
	pattern := []byte("AAAAA")
	text := []byte("AAAAABAAAAAA")

	got := streamMatches(pattern, text)
	want := []int{4, 10, 11}
	if !intSlicesEqual(got, want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
}

// TestClassicPattern matches the textbook KMP scenario: "ABCDABD" over
// "ABCABCDABABCDABCDABDE" must report a match ending at position 19.
func TestClassicPattern(t *testing.T) {
	pattern := []byte("ABCDABD")
	text := []byte("ABCABCDABABCDABCDABDE")

	got := streamMatches(pattern, text)
	want := []int{19}
	if !intSlicesEqual(got, want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
}

// TestEquivalenceToNaive is the core correctness property: on random patterns and random text,
// the real-time matcher must report exactly the same end positions, in the same order, as a
// brute-force scan.
func TestEquivalenceToNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("ab")

	for trial := 0; trial < 300; trial++ {
		patLen := rng.Intn(6) + 1
		textLen := rng.Intn(60) + patLen

		pattern := make([]byte, patLen)
		for i := range pattern {
			pattern[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := make([]byte, textLen)
		for i := range text {
			text[i] = alphabet[rng.Intn(len(alphabet))]
		}

		got := streamMatches(pattern, text)
		want := naiveMatches(pattern, text)
		if !intSlicesEqual(got, want) {
			t.Fatalf("trial %d: pattern=%q text=%q got=%v want=%v", trial, pattern, text, got, want)
		}
	}
}

func TestReset(t *testing.T) {
	m := New([]byte("AAAAA"))
	for _, c := range []byte("AAAAAB") {
		m.ReadChar(c)
	}
	m.Reset()

	got := streamMatches([]byte("AAAAA"), []byte("AAAAABAAAAAA"))
	var again []int
	for _, c := range []byte("AAAAABAAAAAA") {
		if ok, pos := m.ReadChar(c); ok {
			again = append(again, pos)
		}
	}
	if !intSlicesEqual(got, again) {
		t.Fatalf("fresh matcher and reset matcher diverged: %v vs %v", got, again)
	}
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"AAAAA", 1},
		{"ABCDABD", 7}, // aperiodic: period equals its own length
		{"ABCABC", 3},
		{"A", 1},
	}
	for _, tt := range tests {
		if got := Period([]byte(tt.pattern)); got != tt.want {
			t.Errorf("Period(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
	}
}

func TestTotalMemPositive(t *testing.T) {
	m := New([]byte("hello"))
	if m.TotalMem() <= 0 {
		t.Errorf("TotalMem() = %d, want > 0", m.TotalMem())
	}
}

func syncStreamMatches(pattern, text []byte) []int {
	m := NewSync(pattern)
	var out []int
	for _, c := range text {
		if ok, pos := m.ReadChar(c); ok {
			out = append(out, pos)
		}
	}
	return out
}

// TestSyncEquivalenceToNaive checks SyncMatcher against the same brute-force oracle as the
// deferred Matcher: same positions, reported immediately rather than possibly delayed.
func TestSyncEquivalenceToNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	alphabet := []byte("ab")

	for trial := 0; trial < 300; trial++ {
		patLen := rng.Intn(6) + 1
		textLen := rng.Intn(60) + patLen

		pattern := make([]byte, patLen)
		for i := range pattern {
			pattern[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := make([]byte, textLen)
		for i := range text {
			text[i] = alphabet[rng.Intn(len(alphabet))]
		}

		got := syncStreamMatches(pattern, text)
		want := naiveMatches(pattern, text)
		if !intSlicesEqual(got, want) {
			t.Fatalf("trial %d: pattern=%q text=%q got=%v want=%v", trial, pattern, text, got, want)
		}
	}
}

// TestSyncMatchPositionIsAlwaysCurrent confirms SyncMatcher never defers: on a periodic pattern
// that would force the deferred Matcher to buffer, every match must still be attributed to the
// byte of the call it completes on.
func TestSyncMatchPositionIsAlwaysCurrent(t *testing.T) {
	pattern := []byte("AAAAA")
	text := []byte("AAAAABAAAAAA")
	m := NewSync(pattern)
	for i, c := range text {
		if ok, pos := m.ReadChar(c); ok && pos != i {
			t.Fatalf("match at call %d reported position %d, want %d", i, pos, i)
		}
	}
}

func TestSyncReset(t *testing.T) {
	m := NewSync([]byte("AAAAA"))
	for _, c := range []byte("AAAAAB") {
		m.ReadChar(c)
	}
	m.Reset()

	got := syncStreamMatches([]byte("AAAAA"), []byte("AAAAABAAAAAA"))
	var again []int
	for _, c := range []byte("AAAAABAAAAAA") {
		if ok, pos := m.ReadChar(c); ok {
			again = append(again, pos)
		}
	}
	if !intSlicesEqual(got, again) {
		t.Fatalf("fresh matcher and reset matcher diverged: %v vs %v", got, again)
	}
}

func TestSyncTotalMemPositive(t *testing.T) {
	m := NewSync([]byte("hello"))
	if m.TotalMem() <= 0 {
		t.Errorf("TotalMem() = %d, want > 0", m.TotalMem())
	}
}
