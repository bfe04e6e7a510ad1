// Package search implements the Search Engine (spec §4.3): a
// simulated-annealing optimizer over the Permutation space, with a greedy
// initializer, temperature-weighted tiered mutation, and a patience-based
// restart policy. Grounded on
// original_source/crates/keyforge-core/src/optimizer/{mutation,runner}.rs
// for the mutation classes and cooling schedule; the restart policy itself
// is this repo's own implementation of the spec's REDESIGN of the
// original's parallel-tempering replica pool (spec §4.3, §9).
package search

import (
	"context"
	"math"
	"time"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
	"github.com/infodungeon/keyforge/internal/scoring"
)

// ProgressEvent is published to the progress sink every OptLimitSlow steps
// (spec §4.3).
type ProgressEvent struct {
	Epoch              int
	Step               int64
	Score              float64
	Layout             []byte
	InstructionsPerSec float64
}

// Options bundles everything Optimize needs, matching the
// optimize(geometry, corpus, weights, params, pinned, rng_seed,
// progress_sink, cancel) contract of spec §4.3.
type Options struct {
	Geometry     *geometry.Geometry
	Corpus       *corpus.Corpus
	Weights      config.ScoringWeights
	Defs         config.LayoutDefinitions
	Params       config.SearchParams
	Pinned       map[int]int
	RNGSeed      uint64
	TrigramLimit int
	Progress     func(ProgressEvent)
}

// Result is the outcome of one Optimize call: the best permutation found
// and its full score breakdown.
type Result struct {
	Best      *layout.Permutation
	BestScore scoring.Score
	Restarts  int
}

func temperature(epoch int, p config.SearchParams) float64 {
	if p.SearchEpochs <= 1 {
		return p.TempMin
	}
	frac := float64(epoch) / float64(p.SearchEpochs-1)
	return p.TempMax * math.Pow(p.TempMin/p.TempMax, frac)
}

func criticalPairIndices(defs config.LayoutDefinitions, alpha *corpus.Alphabet) ([][2]int, error) {
	pairs, err := defs.CriticalBigramPairs()
	if err != nil {
		return nil, err
	}
	out := make([][2]int, 0, len(pairs))
	for _, pr := range pairs {
		i, j := alpha.IndexOf(pr[0]), alpha.IndexOf(pr[1])
		if i < 0 || j < 0 {
			continue
		}
		out = append(out, [2]int{i, j})
	}
	return out, nil
}

// restartPerturbSize returns the number of random swaps applied when
// jumping back to the best-known layout after a stall, rising with how
// many restarts have already happened (spec §4.3: "k rising with stall
// duration"), capped so a restart never scrambles more than half the free
// slots.
func restartPerturbSize(restartCount, freeSlotCount int) int {
	k := 2 + restartCount*2
	if max := freeSlotCount / 2; k > max {
		k = max
	}
	if k < 1 {
		k = 1
	}
	return k
}

// Optimize runs the annealing search and returns the best permutation
// found. It never mutates opts.Corpus/opts.Geometry (both are read-only
// for the duration of the call, per spec §5 ownership rules) and owns its
// working Permutation exclusively.
//
// Every accepted move is fully rescored rather than incrementally patched:
// scoring.Score is cheap enough at this alphabet size that a from-scratch
// evaluation per step is not the bottleneck the original engine's
// row/column-patching optimizes for, so there is no separate incremental
// path to drift from the full rescore (the spec §8 "incremental matches
// full within 1e-6" invariant holds trivially, since they are the same
// call).
func Optimize(ctx context.Context, opts Options) (*Result, error) {
	geom, corp := opts.Geometry, opts.Corpus
	assignable := geom.AssignableSlots()
	freeSlots := make([]int, 0, len(assignable))
	for _, s := range assignable {
		if _, pinned := opts.Pinned[s]; !pinned {
			freeSlots = append(freeSlots, s)
		}
	}
	fp := newFreeSlotPicker(geom, freeSlots)

	critical, err := criticalPairIndices(opts.Defs, corp.Alphabet)
	if err != nil {
		return nil, err
	}

	rng := NewRNG(opts.RNGSeed)

	current := GreedyInit(geom, corp, opts.Pinned)
	currentScore, err := scoring.Score(current, corp, opts.Weights, geom, opts.Defs, opts.TrigramLimit)
	if err != nil {
		return nil, err
	}

	best := current.Clone()
	bestScore := currentScore

	lastImprovementScore := bestScore.LayoutScore
	stall := 0
	restarts := 0

	var globalStep int64
	tickStart := time.Now()
	var tickSteps int64

	publish := func(epoch int) {
		if opts.Progress == nil {
			return
		}
		elapsed := time.Since(tickStart).Seconds()
		ips := 0.0
		if elapsed > 0 {
			ips = float64(tickSteps) / elapsed
		}
		opts.Progress(ProgressEvent{
			Epoch:              epoch,
			Step:               globalStep,
			Score:              bestScore.LayoutScore,
			Layout:             best.ToWireString(corp.Alphabet),
			InstructionsPerSec: ips,
		})
		tickStart = time.Now()
		tickSteps = 0
	}

	for epoch := 0; epoch < opts.Params.SearchEpochs; epoch++ {
		if ctx.Err() != nil {
			break
		}
		temp := temperature(epoch, opts.Params)

		for step := 0; step < opts.Params.SearchSteps; step++ {
			if step%256 == 0 && ctx.Err() != nil {
				break
			}

			chosen := sampleStep(current, currentScore, fp, rng, temp, opts.Params.TempMin, opts.Params.TempMax,
				corp, opts.Weights, geom, opts.Defs, opts.TrigramLimit, critical)
			if chosen != nil {
				current = chosen.perm
				currentScore = chosen.score
				if currentScore.LayoutScore < bestScore.LayoutScore {
					best = current.Clone()
					bestScore = currentScore
				}
			}

			globalStep++
			tickSteps++
			if opts.Params.OptLimitSlow > 0 && globalStep%int64(opts.Params.OptLimitSlow) == 0 {
				publish(epoch)
			}
		}

		if ctx.Err() != nil {
			break
		}

		improved := false
		if lastImprovementScore > 0 {
			rel := (lastImprovementScore - bestScore.LayoutScore) / lastImprovementScore
			improved = rel > opts.Params.SearchPatienceThreshold
		} else {
			improved = bestScore.LayoutScore < lastImprovementScore
		}

		if improved {
			lastImprovementScore = bestScore.LayoutScore
			stall = 0
		} else {
			stall++
		}

		if stall >= opts.Params.SearchPatience {
			restarts++
			stall = 0
			k := restartPerturbSize(restarts, len(freeSlots))
			current = best.Clone()
			for i := 0; i < k; i++ {
				applySingleSwap(current, fp, rng)
			}
			currentScore, err = scoring.Score(current, corp, opts.Weights, geom, opts.Defs, opts.TrigramLimit)
			if err != nil {
				return nil, err
			}
		}
	}

	publish(opts.Params.SearchEpochs - 1)

	return &Result{Best: best, BestScore: bestScore, Restarts: restarts}, nil
}
