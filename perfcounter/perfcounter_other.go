//go:build !linux

package perfcounter

import "errors"

// ErrUnsupported is returned by OpenDefaultGroups on platforms without perf_event_open.
var ErrUnsupported = errors.New("perfcounter: hardware counters are only supported on linux")

// OpenDefaultGroups is unavailable outside linux and always returns ErrUnsupported;
// cmd/matchbench then prints a warning and measures without performance counters.
func OpenDefaultGroups() ([]Group, error) {
	return nil, ErrUnsupported
}
