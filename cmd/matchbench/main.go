// Command matchbench runs every registered multi-pattern search engine over a set of dictionary
// and stream files, measures each against an Aho-Corasick oracle, and reports per-engine memory
// use, match-classification counts and performance-counter readings.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/coregx/matchbench/dictionary"
	"github.com/coregx/matchbench/engine"
	"github.com/coregx/matchbench/measure"
	"github.com/coregx/matchbench/patternstree"
	"github.com/coregx/matchbench/perfcounter"
)

// oracleName is the engine always used as the reliable reference the rest are measured against,
// the same role MPS_AC plays as the hardcoded reliable_mps_instance in the original driver.
const oracleName = "ahocorasick-dense"

// stringList collects every occurrence of a repeatable flag, in the order given on the command
// line.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// singleString accepts a flag at most once, rejecting a second occurrence the way the original
// parser rejects a second -o.
type singleString struct {
	val string
	set bool
}

func (s *singleString) String() string { return s.val }
func (s *singleString) Set(v string) error {
	if s.set {
		return fmt.Errorf("-o may only be given once")
	}
	s.val = v
	s.set = true
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: %s -d DICT [-d DICT ...] -s STREAM [-s STREAM ...] [-o OUTPUT]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var dictFiles, streamFiles stringList
	var outputFile singleString

	flag.Var(&dictFiles, "d", "dictionary file (repeatable)")
	flag.Var(&streamFiles, "s", "stream file (repeatable)")
	flag.Var(&outputFile, "o", "output file (default stdout)")
	flag.Usage = printUsage
	flag.Parse()

	if len(dictFiles) == 0 || len(streamFiles) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one -d and one -s are required")
		printUsage()
		os.Exit(2)
	}

	if err := run(dictFiles, streamFiles, outputFile.val); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(dictFiles, streamFiles []string, outputPath string) error {
	var patterns []dictionary.Pattern
	for i, path := range dictFiles {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open dictionary %s: %w", path, err)
		}
		filePatterns, err := dictionary.ParseFile(f, i)
		f.Close()
		if err != nil {
			return fmt.Errorf("read dictionary %s: %w", path, err)
		}
		patterns = append(patterns, filePatterns...)
	}

	names := append([]string(nil), engine.Names()...)
	sort.Strings(names)

	instances := make([]measure.NamedEngine, 0, len(names))
	for _, name := range names {
		eng, err := engine.ByName(name)
		if err != nil {
			return err
		}
		instances = append(instances, measure.NamedEngine{Name: name, Engine: eng})
	}
	oracle, err := engine.ByName(oracleName)
	if err != nil {
		return fmt.Errorf("construct oracle: %w", err)
	}

	builder := patternstree.NewBuilder()
	for _, p := range patterns {
		builder.Insert(p.Bytes, p.Source)
	}
	tree := builder.Compile(func(pattern []byte, id patternstree.ID) {
		for _, inst := range instances {
			inst.Engine.AddPattern(pattern, id)
		}
		oracle.AddPattern(pattern, id)
	})
	for _, inst := range instances {
		inst.Engine.Compile()
	}
	oracle.Compile()

	streams := make([]measure.StreamOpener, len(streamFiles))
	for i, path := range streamFiles {
		streams[i] = func() (io.ReadCloser, error) { return os.Open(path) }
	}

	groups, err := perfcounter.OpenDefaultGroups()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: performance counters unavailable: %v\n", err)
		groups = nil
	}
	defer func() {
		for _, g := range groups {
			g.Close()
		}
	}()

	results, err := measure.RunAll(instances, oracle, tree, streams, groups)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}
	return writeResults(out, results, groups)
}

// perfEventValue names one counter reading within a group, so the JSON report carries the event
// name alongside its value instead of a bare positional array.
type perfEventValue struct {
	Event string `json:"event"`
	Value uint64 `json:"value"`
}

// engineReport is one engine's measured results, shaped per spec §6: name, total_mem, the four
// classification counters, and per-group per-event counter values.
type engineReport struct {
	Name           string                      `json:"name"`
	TotalMem       int                         `json:"total_mem"`
	Success        uint64                      `json:"success"`
	FalsePositive  uint64                      `json:"false_positive"`
	FalseNegative  uint64                      `json:"false_negative"`
	PartialSuccess uint64                      `json:"partial_success"`
	PerfGroups     map[string][]perfEventValue `json:"perf_groups,omitempty"`
}

// writeResults serializes one report per engine as JSON - name, total memory, classification
// counts and every performance-counter group's per-event values - matching write_stats_to_file's
// field list (which the original left as a printf-based stub) in an implementation-chosen,
// machine-readable format.
func writeResults(w io.Writer, results []measure.InstanceStats, groups []perfcounter.Group) error {
	eventNames := make(map[string][]string, len(groups))
	for _, g := range groups {
		names := make([]string, len(g.Events()))
		for i, e := range g.Events() {
			names[i] = e.Name
		}
		eventNames[g.Name()] = names
	}

	reports := make([]engineReport, len(results))
	for i, r := range results {
		report := engineReport{
			Name:           r.Name,
			TotalMem:       r.TotalMem,
			Success:        r.Classification.Success,
			FalsePositive:  r.Classification.FalsePositive,
			FalseNegative:  r.Classification.FalseNegative,
			PartialSuccess: r.Classification.PartialSuccess,
		}
		if len(r.Perf) > 0 {
			report.PerfGroups = make(map[string][]perfEventValue, len(r.Perf))
			groupNames := make([]string, 0, len(r.Perf))
			for name := range r.Perf {
				groupNames = append(groupNames, name)
			}
			sort.Strings(groupNames)
			for _, name := range groupNames {
				values := r.Perf[name]
				names := eventNames[name]
				entries := make([]perfEventValue, len(values))
				for j, v := range values {
					eventName := fmt.Sprintf("event-%d", j)
					if j < len(names) {
						eventName = names[j]
					}
					entries[j] = perfEventValue{Event: eventName, Value: v}
				}
				report.PerfGroups[name] = entries
			}
		}
		reports[i] = report
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
