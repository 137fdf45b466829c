// Package measure drives a measured engine and a trusted oracle engine lock-step over the same
// stream, classifying every byte's result against the oracle's and collecting hardware/software
// performance counters around the measured engine's run.
package measure

import (
	"fmt"
	"io"

	"github.com/coregx/matchbench/engine"
	"github.com/coregx/matchbench/patternstree"
	"github.com/coregx/matchbench/perfcounter"
)

// streamBufferSize is the chunk size streams are read in - large enough that syscall overhead
// doesn't dominate, small enough the whole chunk comfortably fits in memory alongside its
// per-byte result arrays.
const streamBufferSize = 100 * 1024

// Classification tallies how a measured engine's per-byte results compared against the oracle's
// across every stream.
type Classification struct {
	Success        uint64 // identical identity
	PartialSuccess uint64 // measured identity is a strict suffix-ancestor of the oracle's (shorter correct match)
	FalseNegative  uint64 // measured reported no match where the oracle found one
	FalsePositive  uint64 // measured reported a match unrelated to the oracle's (or a match where the oracle found none)
}

// classify updates c for one position's (measured, oracle) identity pair.
func (c *Classification) classify(tree *patternstree.Tree, measured, oracle patternstree.ID) {
	switch {
	case measured == oracle:
		c.Success++
	case tree.Suffix(measured, oracle):
		c.PartialSuccess++
	case measured == patternstree.Null:
		c.FalseNegative++
	default:
		c.FalsePositive++
	}
}

// PerfCounters holds the perf_event_open readings for every measured group, keyed by group name,
// in that group's Events() order.
type PerfCounters map[string][]uint64

// InstanceStats is everything measured about running one engine over the configured streams.
type InstanceStats struct {
	Name           string
	TotalMem       int
	Classification Classification
	Perf           PerfCounters
}

// StreamOpener returns a fresh, independently-positioned reader for one configured stream, called
// once per instance (measurement resets both engines, so each instance rereads every stream from
// its start).
type StreamOpener func() (io.ReadCloser, error)

// RunInstance runs one engine over every stream in order, comparing each byte's result against
// the oracle's result for the same stream contents, with perf counter groups armed only around
// the measured engine's ReadChar calls (the oracle's own pass is unmeasured, matching the
// reliable/measured split of the original driver).
//
// groups is typically perfcounter.OpenDefaultGroups()'s result; pass nil to skip performance
// counters entirely (e.g. on a platform where they're unavailable).
func RunInstance(name string, eng engine.Engine, oracle engine.Engine, tree *patternstree.Tree, streams []StreamOpener, groups []perfcounter.Group) (InstanceStats, error) {
	stats := InstanceStats{Name: name, Perf: PerfCounters{}}

	for _, g := range groups {
		if err := g.Reset(); err != nil {
			return stats, fmt.Errorf("measure: reset %s: %w", g.Name(), err)
		}
	}

	buf := make([]byte, streamBufferSize)
	measuredResults := make([]patternstree.ID, streamBufferSize)
	oracleResults := make([]patternstree.ID, streamBufferSize)

	for i, open := range streams {
		eng.Reset()
		oracle.Reset()

		r, err := open()
		if err != nil {
			return stats, fmt.Errorf("measure: open stream %d: %w", i, err)
		}
		if err := runStream(r, buf, measuredResults, oracleResults, eng, oracle, tree, &stats.Classification, groups); err != nil {
			r.Close()
			return stats, fmt.Errorf("measure: stream %d: %w", i, err)
		}
		if err := r.Close(); err != nil {
			return stats, fmt.Errorf("measure: close stream %d: %w", i, err)
		}
	}

	for _, g := range groups {
		values, err := g.Read()
		if err != nil {
			return stats, fmt.Errorf("measure: read %s: %w", g.Name(), err)
		}
		stats.Perf[g.Name()] = values
	}
	stats.TotalMem = eng.TotalMem()
	return stats, nil
}

// runStream reads r in streamBufferSize chunks, feeding each chunk through eng (with the perf
// counter groups armed) and then through oracle (unmeasured), classifying every byte's pair of
// results as it goes.
func runStream(r io.Reader, buf []byte, measuredResults, oracleResults []patternstree.ID, eng, oracle engine.Engine, tree *patternstree.Tree, class *Classification, groups []perfcounter.Group) error {
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			for _, g := range groups {
				if err := g.Enable(); err != nil {
					return fmt.Errorf("enable %s: %w", g.Name(), err)
				}
			}
			for j := 0; j < n; j++ {
				measuredResults[j] = eng.ReadChar(buf[j])
			}
			for _, g := range groups {
				if err := g.Disable(); err != nil {
					return fmt.Errorf("disable %s: %w", g.Name(), err)
				}
			}

			for j := 0; j < n; j++ {
				oracleResults[j] = oracle.ReadChar(buf[j])
			}
			for j := 0; j < n; j++ {
				class.classify(tree, measuredResults[j], oracleResults[j])
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// NamedEngine pairs an engine with the display name to report it under.
type NamedEngine struct {
	Name   string
	Engine engine.Engine
}

// RunAll measures every named instance in turn against the same oracle, tree, streams and perf
// counter groups, in the order instances is given.
func RunAll(instances []NamedEngine, oracle engine.Engine, tree *patternstree.Tree, streams []StreamOpener, groups []perfcounter.Group) ([]InstanceStats, error) {
	out := make([]InstanceStats, 0, len(instances))
	for _, inst := range instances {
		stats, err := RunInstance(inst.Name, inst.Engine, oracle, tree, streams, groups)
		if err != nil {
			return out, err
		}
		out = append(out, stats)
	}
	return out, nil
}
