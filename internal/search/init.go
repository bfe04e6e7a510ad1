package search

import (
	"sort"

	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
)

// slotCentrality returns, for each assignable slot, the row sum of the cost
// matrix restricted to other assignable slots on the same hand: a cheap
// proxy for "how central/reachable is this slot relative to its neighbors"
// (spec §4.3's greedy initializer). Lower is better.
func slotCentrality(geom *geometry.Geometry, corp *corpus.Corpus, assignable []int) map[int]float64 {
	out := make(map[int]float64, len(assignable))
	for _, s1 := range assignable {
		var sum float64
		for _, s2 := range assignable {
			if s1 == s2 || geom.Keys[s1].Hand != geom.Keys[s2].Hand {
				continue
			}
			sum += corp.SlotCost(geom, s1, s2)
		}
		out[s1] = sum
	}
	return out
}

// GreedyInit builds a starting Permutation by seeding pinned characters
// first, then placing the highest-frequency remaining characters into the
// best-ranked (lowest cost-centrality) remaining slots, ties broken by
// ascending slot index (spec §4.3's Greedy Initializer). Grounded on
// original_source/crates/keyforge-core/src/optimizer/mutation.rs's
// generate_tiered_layout for the pinned-first / tier-pool shape, but
// replaces that file's randomized pool draw with the spec's deterministic
// frequency-rank/centrality-rank pairing.
func GreedyInit(geom *geometry.Geometry, corp *corpus.Corpus, pinned map[int]int) *layout.Permutation {
	perm := layout.NewPermutation(geom, corp.Alphabet)

	pinnedChar := make(map[int]bool, len(pinned))
	for slot, charIdx := range pinned {
		perm.Place(slot, charIdx)
		pinnedChar[charIdx] = true
	}

	assignable := geom.AssignableSlots()
	freeSlots := make([]int, 0, len(assignable))
	for _, s := range assignable {
		if _, isPinned := pinned[s]; !isPinned {
			freeSlots = append(freeSlots, s)
		}
	}

	centrality := slotCentrality(geom, corp, assignable)
	sort.Slice(freeSlots, func(i, j int) bool {
		ci, cj := centrality[freeSlots[i]], centrality[freeSlots[j]]
		if ci != cj {
			return ci < cj
		}
		return freeSlots[i] < freeSlots[j]
	})

	freeChars := make([]int, 0, corp.Alphabet.Size())
	for c := 0; c < corp.Alphabet.Size(); c++ {
		if !pinnedChar[c] {
			freeChars = append(freeChars, c)
		}
	}
	sort.Slice(freeChars, func(i, j int) bool {
		fi, fj := corp.Freq1[freeChars[i]], corp.Freq1[freeChars[j]]
		if fi != fj {
			return fi > fj
		}
		return freeChars[i] < freeChars[j]
	})

	for i := 0; i < len(freeSlots) && i < len(freeChars); i++ {
		perm.Place(freeSlots[i], freeChars[i])
	}

	return perm
}
