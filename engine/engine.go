// Package engine defines the capability set every multi-pattern matching algorithm in this module
// exposes, and a name-keyed registry for constructing them - the Go analogue of the source's
// function-table-per-algorithm dispatch.
package engine

import (
	"errors"
	"fmt"

	"github.com/coregx/matchbench/patternstree"
)

// Engine is the capability set required of every multi-pattern matcher: accumulate patterns,
// compile once, then stream bytes through ReadChar. After Compile, AddPattern must not be called
// again. ReadChar returns the identity of the longest dictionary pattern whose last byte is the
// byte just consumed, or patternstree.Null if none.
type Engine interface {
	// AddPattern registers pattern under id. Valid only before Compile.
	AddPattern(pattern []byte, id patternstree.ID)

	// Compile finalizes the engine's internal structures for streaming. Idempotent misuse (a
	// second Compile, or AddPattern after Compile) is not guarded against here; callers follow
	// the create/add/compile/read/reset/free lifecycle themselves.
	Compile()

	// ReadChar advances the engine's state by one byte and returns the resulting identity.
	ReadChar(c byte) patternstree.ID

	// Reset returns the engine to its post-Compile initial state.
	Reset()

	// TotalMem returns an honest byte count of this engine's owned allocations.
	TotalMem() int
}

// Factory constructs a fresh, empty Engine instance.
type Factory func() Engine

// ErrUnknownEngineName is returned by ByName when no engine is registered under the given name.
var ErrUnknownEngineName = errors.New("unknown engine name")

// UnknownEngineError names the engine name that had no registered factory.
type UnknownEngineError struct {
	Name string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown engine name %q", e.Name)
}

func (e *UnknownEngineError) Unwrap() error {
	return ErrUnknownEngineName
}

// Registry maps engine names to their factories. Register is called once per engine variant at
// program startup, mirroring the source's mps_table_setup populating mps_table.
var Registry = map[string]Factory{}

// Register adds name to the registry. Registering the same name twice overwrites the prior
// factory; callers that want last-registration-wins (e.g. tests overriding a real engine with a
// stub) get that behavior for free.
func Register(name string, factory Factory) {
	Registry[name] = factory
}

// ByName constructs a fresh engine for the given registered name, or ErrUnknownEngineName
// (wrapped in *UnknownEngineError) if nothing is registered under it.
func ByName(name string) (Engine, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, &UnknownEngineError{Name: name}
	}
	return factory(), nil
}

// Names returns every currently registered engine name, in no particular order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	return names
}
