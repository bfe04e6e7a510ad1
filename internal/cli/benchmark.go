package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kamalyes/go-toolbox/pkg/units"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/logging"
	"github.com/infodungeon/keyforge/internal/scoring"
)

func defaultWeights() config.ScoringWeights { return config.DefaultScoringWeights() }

// driftTolerance bounds how far a benchmark run's score may stray from the
// reference score taken on the same canned fixture before it's treated as
// a regression rather than floating-point noise (spec §6: "exit 2 on
// score drift beyond tolerance").
const driftTolerance = 1e-6

// Benchmark runs internal/scoring.Score repeatedly against the canned
// fixture, reporting throughput and a score breakdown (spec §6).
func Benchmark(args []string, log logging.ILogger) int {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	iterations := fs.Int("iterations", 10000, "number of scoring passes to run")
	trigramLimit := fs.Int("trigram-limit", 0, "trigram cap passed to the Scoring Engine (0 = unlimited)")
	jsonOut := fs.Bool("json", false, "emit the final report as JSON instead of plain text")
	if err := fs.Parse(args); err != nil {
		return ExitUserInput
	}
	if *iterations <= 0 {
		fmt.Fprintln(os.Stderr, "benchmark: --iterations must be positive")
		return ExitUserInput
	}

	fixture := buildCannedFixture()

	var (
		score scoring.Score
		err   error
	)

	start := time.Now()
	for i := 0; i < *iterations; i++ {
		score, err = scoring.Score(fixture.perm, fixture.corp, defaultWeights(), fixture.geom, fixture.defs, *trigramLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "benchmark: scoring error on iteration %d: %v\n", i, err)
			return ExitInternal
		}
	}
	elapsed := time.Since(start)

	reference, err := scoring.Score(fixture.perm, fixture.corp, defaultWeights(), fixture.geom, fixture.defs, *trigramLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "benchmark: reference scoring error: %v\n", err)
		return ExitInternal
	}
	if diff := score.LayoutScore - reference.LayoutScore; diff > driftTolerance || diff < -driftTolerance {
		fmt.Fprintf(os.Stderr, "benchmark: score drift detected: %v vs reference %v\n", score.LayoutScore, reference.LayoutScore)
		return ExitSemantic
	}

	opsPerSec := float64(*iterations) / elapsed.Seconds()
	report := benchmarkReport{
		Iterations: *iterations,
		Elapsed:    elapsed.String(),
		OpsPerSec:  opsPerSec,
		Score:      score,
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "benchmark: encode report: %v\n", err)
			return ExitInternal
		}
		return ExitSuccess
	}

	log.InfoKV("benchmark complete",
		"iterations", *iterations,
		"elapsed", elapsed,
		"ops_per_sec", fmt.Sprintf("%.1f", opsPerSec),
		"layout_score", score.LayoutScore,
	)
	fmt.Printf("scored %d permutations in %s (%.0f ops/sec) against a %s in-memory corpus\n",
		*iterations, elapsed, opsPerSec, units.BytesSize(float64(fixture.corp.InMemorySize())))
	fmt.Printf("layout_score=%.4f geo_dist=%.4f mech_sfb=%.4f flow_cost=%.4f tier_penalty=%.4f\n",
		score.LayoutScore, score.GeoDist, score.MechSFB, score.FlowCost, score.TierPenalty)
	return ExitSuccess
}

type benchmarkReport struct {
	Iterations int           `json:"iterations"`
	Elapsed    string        `json:"elapsed"`
	OpsPerSec  float64       `json:"ops_per_sec"`
	Score      scoring.Score `json:"score"`
}
