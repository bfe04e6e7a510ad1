package search

import (
	"math"

	"github.com/kamalyes/go-toolbox/pkg/syncx"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
	"github.com/infodungeon/keyforge/internal/scoring"
)

// candidatesPerStep is how many independent tiered-mutation candidates one
// annealing step draws before picking the best-accepted one (the "keeps the
// parallelism, applies it inside a step" supplemental feature).
const candidatesPerStep = 4

// candidateResult is one sampled-and-scored neighbor.
type candidateResult struct {
	perm  *layout.Permutation
	score scoring.Score
	err   error
}

// sampleStep draws candidatesPerStep independent mutated clones of current
// (RNG draws happen here, sequentially, so the resulting clones are fully
// determined by the RNG stream regardless of how the scoring below is
// scheduled), then scores all of them concurrently across the compute pool
// using the same fan-out shape as teacher's
// `distributed/master/health.go::checkAll` (syncx.ParallelForEachSlice).
// It returns the best-accepted candidate, or nil if none was accepted.
func sampleStep(
	current *layout.Permutation,
	currentScore scoring.Score,
	fp *freeSlotPicker,
	rng *RNG,
	temp, tempMin, tempMax float64,
	corp *corpus.Corpus,
	weights config.ScoringWeights,
	geom *geometry.Geometry,
	defs config.LayoutDefinitions,
	trigramLimit int,
	critical [][2]int,
) *candidateResult {
	clones := make([]*layout.Permutation, candidatesPerStep)
	for i := range clones {
		c := current.Clone()
		applyMutation(c, fp, rng, temp, tempMin, tempMax)
		clones[i] = c
	}

	results := make([]candidateResult, candidatesPerStep)
	syncx.ParallelForEachSlice(clones, func(idx int, c *layout.Permutation) {
		s, err := scoring.Score(c, corp, weights, geom, defs, trigramLimit)
		results[idx] = candidateResult{perm: c, score: s, err: err}
	})

	var best *candidateResult
	for i := range results {
		r := results[i]
		if r.err != nil {
			continue
		}
		delta := r.score.LayoutScore - currentScore.LayoutScore
		accept := delta < 0 || rng.Float64() < math.Exp(-delta/math.Max(temp, 1e-9))
		if !accept {
			continue
		}
		if failsSanity(r.perm, geom, critical) {
			continue
		}
		if best == nil || r.score.LayoutScore < best.score.LayoutScore {
			best = &r
		}
	}
	return best
}
