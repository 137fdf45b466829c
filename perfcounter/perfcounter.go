// Package perfcounter provides event-group performance counters for the measurement driver: open
// a named group of hardware/software counters, enable/disable/reset it as a unit around a
// measured region, and read back per-event counts with stable names.
//
// Two groups are measured by default - software (page faults, CPU clock, task clock) and hardware
// (instructions, branch instructions, CPU cycles, bus cycles, reference cycles) - but the core
// treats this as an opaque collaborator: the measurement driver's semantics never depend on which
// events are configured.
package perfcounter

// Event names an individual counter within a Group, in the order Read reports it.
type Event struct {
	Name string
}

// Group is one set of counters armed and disarmed together.
type Group interface {
	// Name identifies this group (e.g. "software", "hardware").
	Name() string
	// Events lists this group's counters, in Read's reporting order.
	Events() []Event
	// Enable arms the group; counts accumulate from this point.
	Enable() error
	// Disable freezes the group; counts stop accumulating until the next Enable.
	Disable() error
	// Reset zeroes every counter in the group.
	Reset() error
	// Read returns the current value of every counter, indexed the same as Events().
	Read() ([]uint64, error)
	// Close releases the group's underlying resources.
	Close() error
}

// DefaultGroupNames are the two groups OpenDefaultGroups configures, in the order they're
// measured.
var DefaultGroupNames = []string{"software", "hardware"}
