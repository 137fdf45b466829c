package mpbg

import (
	"testing"

	"github.com/coregx/matchbench/patternstree"
)

func buildEngine(t *testing.T, patterns []string) (*Engine, map[string]patternstree.ID) {
	t.Helper()
	e := New()
	ids := make(map[string]patternstree.ID)
	for i, p := range patterns {
		id := patternstree.ID(i + 1)
		ids[p] = id
		e.AddPattern([]byte(p), id)
	}
	e.Compile()
	return e, ids
}

func TestLongestAmongMatches(t *testing.T) {
	// "bc" is a suffix of "abc"; both should match at the same position, and ReadChar must
	// report the longer one.
	e, ids := buildEngine(t, []string{"abc", "bc"})

	var got patternstree.ID
	for _, c := range []byte("xabc") {
		if id := e.ReadChar(c); id != patternstree.Null {
			got = id
		}
	}
	if got != ids["abc"] {
		t.Errorf("got %v, want the longer pattern's id %v", got, ids["abc"])
	}
}

func TestNoMatchReturnsNull(t *testing.T) {
	e, _ := buildEngine(t, []string{"xyz"})
	for _, c := range []byte("abcdef") {
		if id := e.ReadChar(c); id != patternstree.Null {
			t.Errorf("unexpected match id %v", id)
		}
	}
}

func TestResetReusesMatchers(t *testing.T) {
	e, ids := buildEngine(t, []string{"abc"})
	for _, c := range []byte("xabc") {
		e.ReadChar(c)
	}
	e.Reset()

	var got patternstree.ID
	for _, c := range []byte("xabc") {
		if id := e.ReadChar(c); id != patternstree.Null {
			got = id
		}
	}
	if got != ids["abc"] {
		t.Errorf("after reset: got %v, want %v", got, ids["abc"])
	}
}

func TestMultiplePatternsIndependentMatches(t *testing.T) {
	e, ids := buildEngine(t, []string{"cat", "dog"})
	text := []byte("xxcatxxdog")
	var matches []patternstree.ID
	for _, c := range text {
		if id := e.ReadChar(c); id != patternstree.Null {
			matches = append(matches, id)
		}
	}
	want := []patternstree.ID{ids["cat"], ids["dog"]}
	if len(matches) != len(want) {
		t.Fatalf("matches = %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("matches[%d] = %v, want %v", i, matches[i], want[i])
		}
	}
}

func TestShortPatternMatchPositionExact(t *testing.T) {
	// "aaab" is short enough (<= 8 bytes) that bg.Matcher delegates to the short-pattern path.
	// Scanning it against "aaaaaab" exercises repeated failure-function retries (runs of "aaa"
	// before the final mismatch), the same shape of input that forces a real-time KMP matcher to
	// defer work into its buffer. A position-exact report must land the match at the byte index
	// where the occurrence actually ends, not a later call.
	e, ids := buildEngine(t, []string{"aaab"})
	text := []byte("aaaaaab")
	var matchIdx = -1
	for i, c := range text {
		if id := e.ReadChar(c); id != patternstree.Null {
			if id != ids["aaab"] {
				t.Fatalf("unexpected id %v at index %d", id, i)
			}
			matchIdx = i
		}
	}
	const want = 6 // "aaab" ends at index 6 in "aaaaaab"
	if matchIdx != want {
		t.Errorf("match reported at index %d, want %d", matchIdx, want)
	}
}

func TestTotalMemPositive(t *testing.T) {
	e, _ := buildEngine(t, []string{"hello", "world"})
	if e.TotalMem() <= 0 {
		t.Errorf("TotalMem() <= 0")
	}
}
