package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/danielpatrickdp/stress-dost/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to a replay fixture (.json, .yaml or .yml)")
	asJSON := flag.Bool("json", false, "print results as JSON instead of a table")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--json]")
		os.Exit(2)
	}
	os.Exit(run(*fixturePath, *asJSON))
}

func run(path string, asJSON bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	config, err := f.Config.ToReplayConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture config: %v\n", err)
		return 2
	}
	start, err := f.Start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start vector: %v\n", err)
		return 2
	}

	results, summary := replay.Replay(start, f.ToInteractions(), config)
	mismatches := replay.Compare(f, results, summary)

	if asJSON {
		printJSON(results, summary, mismatches)
	} else {
		printTable(f, results, summary, mismatches)
	}
	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

// #endregion main

// #region output

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	diffMark = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printTable(f *replay.Fixture, results []replay.ReplayResult, summary replay.ReplaySummary, mismatches []replay.Mismatch) {
	diverged := make(map[string]bool, len(mismatches))
	for _, m := range mismatches {
		diverged[m.TurnID] = true
	}
	expected := make(map[string]string, len(f.ExpectedResults))
	for _, e := range f.ExpectedResults {
		expected[e.TurnID] = e.Action
	}

	fmt.Printf("%-8s| %-10s| %-10s| %-20s| %-10s| %s\n", "Turn", "Expected", "Replayed", "Fear/Thought/Frust", "Difficulty", "Match")
	fmt.Printf("%-8s+%-11s+%-11s+%-21s+%-11s+%s\n",
		"--------", "-----------", "-----------", "---------------------", "-----------", "------")
	for _, r := range results {
		match := okMark("OK")
		if diverged[r.TurnID] {
			match = diffMark("DIFF")
		}
		meters := fmt.Sprintf("%.3f/%.3f/%.3f", r.Meters.Fear, r.Meters.Thoughts, r.Meters.Frustration)
		fmt.Printf("%-8s| %-10s| %-10s| %-20s| %-10.2f| %s\n",
			r.TurnID, expected[r.TurnID], r.Action, meters, r.Difficulty.Multiplier, match)
	}

	fmt.Printf("\nSummary: %d total, %d scored, %d rejected, %d vector commits, %d mismatches\n",
		summary.TotalTurns, summary.Scored, summary.Rejected, summary.VectorCommits, len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  %s\n", m)
	}
}

type jsonOutput struct {
	Results    []replay.ReplayResult `json:"results"`
	Summary    replay.ReplaySummary  `json:"summary"`
	Mismatches []string              `json:"mismatches"`
}

func printJSON(results []replay.ReplayResult, summary replay.ReplaySummary, mismatches []replay.Mismatch) {
	out := jsonOutput{Results: results, Summary: summary, Mismatches: make([]string, 0, len(mismatches))}
	for _, m := range mismatches {
		out.Mismatches = append(out.Mismatches, m.String())
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
	}
}

// #endregion output
