package perfcounter

import "testing"

func TestDefaultGroupNames(t *testing.T) {
	want := []string{"software", "hardware"}
	if len(DefaultGroupNames) != len(want) {
		t.Fatalf("got %v, want %v", DefaultGroupNames, want)
	}
	for i, name := range want {
		if DefaultGroupNames[i] != name {
			t.Errorf("DefaultGroupNames[%d] = %q, want %q", i, DefaultGroupNames[i], name)
		}
	}
}

// TestOpenDefaultGroups exercises whatever this platform provides: on linux it opens real
// perf_event_open groups (skipped if the environment denies perf access, e.g. a sandboxed CI
// runner without CAP_PERFMON); elsewhere OpenDefaultGroups returns ErrUnsupported and the test
// is skipped the same way.
func TestOpenDefaultGroups(t *testing.T) {
	groups, err := OpenDefaultGroups()
	if err != nil {
		t.Skipf("perf counters unavailable in this environment: %v", err)
	}
	defer func() {
		for _, g := range groups {
			g.Close()
		}
	}()
	for i, name := range DefaultGroupNames {
		if groups[i].Name() != name {
			t.Errorf("groups[%d].Name() = %q, want %q", i, groups[i].Name(), name)
		}
		if len(groups[i].Events()) == 0 {
			t.Errorf("groups[%d] has no events", i)
		}
	}
	for _, g := range groups {
		if err := g.Reset(); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		if err := g.Enable(); err != nil {
			t.Fatalf("Enable: %v", err)
		}
		if err := g.Disable(); err != nil {
			t.Fatalf("Disable: %v", err)
		}
		values, err := g.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if len(values) != len(g.Events()) {
			t.Errorf("Read returned %d values, want %d", len(values), len(g.Events()))
		}
	}
}
