package search

import (
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
)

// mutationKind tags the four tiered mutation classes of spec §4.3.
type mutationKind int

const (
	mutSingleSwap mutationKind = iota
	mutFingerColumnSwap
	mutCrossTierSwap
	mutRotate3
)

// mutationWeights returns the unnormalized selection weight for each of the
// four classes at the given temperature (spec §4.3: "at high temperature
// the distribution favors 1 and 4 ... as T decays, 2 and 3 dominate").
func mutationWeights(temp, tempMin, tempMax float64) [4]float64 {
	frac := 0.0
	if tempMax > tempMin {
		frac = (temp - tempMin) / (tempMax - tempMin)
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	var w [4]float64
	w[mutSingleSwap] = 0.1 + 0.4*frac
	w[mutFingerColumnSwap] = 0.05 + 0.3*(1-frac)
	w[mutCrossTierSwap] = 0.1 + 0.3*(1-frac)
	w[mutRotate3] = 0.05 + 0.3*frac
	return w
}

func pickMutationKind(rng *RNG, w [4]float64) mutationKind {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		return mutSingleSwap
	}
	target := rng.Float64() * total
	var running float64
	for k, v := range w {
		running += v
		if running >= target {
			return mutationKind(k)
		}
	}
	return mutRotate3
}

// freeSlotPicker draws indices into a caller-owned free-slot slice, used by
// every mutation class below to stay off pinned slots.
type freeSlotPicker struct {
	slots []int
	geom  *geometry.Geometry
	prime map[int]bool
}

func newFreeSlotPicker(geom *geometry.Geometry, freeSlots []int) *freeSlotPicker {
	prime := make(map[int]bool, len(geom.PrimeSlots))
	for _, s := range geom.PrimeSlots {
		prime[s] = true
	}
	return &freeSlotPicker{slots: freeSlots, geom: geom, prime: prime}
}

func rotate3(perm *layout.Permutation, a, b, c int) {
	ca, cb, cc := perm.SlotToChar[a], perm.SlotToChar[b], perm.SlotToChar[c]
	perm.Place(b, ca)
	perm.Place(c, cb)
	perm.Place(a, cc)
}

// applySingleSwap implements class 1: two non-pinned slots chosen uniformly
// at random.
func applySingleSwap(perm *layout.Permutation, fp *freeSlotPicker, rng *RNG) bool {
	if len(fp.slots) < 2 {
		return false
	}
	a := fp.slots[rng.Intn(len(fp.slots))]
	b := a
	for b == a {
		b = fp.slots[rng.Intn(len(fp.slots))]
	}
	perm.Swap(a, b)
	return true
}

// applyFingerColumnSwap implements class 2: swap two slots on the same
// finger of the same hand.
func applyFingerColumnSwap(perm *layout.Permutation, fp *freeSlotPicker, rng *RNG) bool {
	if len(fp.slots) < 2 {
		return false
	}
	a := fp.slots[rng.Intn(len(fp.slots))]
	ka := fp.geom.Keys[a]
	var candidates []int
	for _, s := range fp.slots {
		if s == a {
			continue
		}
		ks := fp.geom.Keys[s]
		if ks.Hand == ka.Hand && ks.Finger == ka.Finger {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	b := candidates[rng.Intn(len(candidates))]
	perm.Swap(a, b)
	return true
}

// applyCrossTierSwap implements class 3: swap a prime-tier slot with a
// med/low-tier slot.
func applyCrossTierSwap(perm *layout.Permutation, fp *freeSlotPicker, rng *RNG) bool {
	var primeSlots, otherSlots []int
	for _, s := range fp.slots {
		if fp.prime[s] {
			primeSlots = append(primeSlots, s)
		} else {
			otherSlots = append(otherSlots, s)
		}
	}
	if len(primeSlots) == 0 || len(otherSlots) == 0 {
		return false
	}
	a := primeSlots[rng.Intn(len(primeSlots))]
	b := otherSlots[rng.Intn(len(otherSlots))]
	perm.Swap(a, b)
	return true
}

// applyRotate3 implements class 4: a three-way rotation on three non-pinned
// slots.
func applyRotate3(perm *layout.Permutation, fp *freeSlotPicker, rng *RNG) bool {
	if len(fp.slots) < 3 {
		return false
	}
	a := fp.slots[rng.Intn(len(fp.slots))]
	b := a
	for b == a {
		b = fp.slots[rng.Intn(len(fp.slots))]
	}
	c := a
	for c == a || c == b {
		c = fp.slots[rng.Intn(len(fp.slots))]
	}
	rotate3(perm, a, b, c)
	return true
}

// applyMutation draws a class by temperature-weighted selection and applies
// it in place to perm, retrying a different draw if the chosen class had no
// eligible candidates (e.g. no finger-mate slot free). Returns false only
// if no class could find any legal move at all.
func applyMutation(perm *layout.Permutation, fp *freeSlotPicker, rng *RNG, temp, tempMin, tempMax float64) bool {
	w := mutationWeights(temp, tempMin, tempMax)
	for attempt := 0; attempt < 8; attempt++ {
		switch pickMutationKind(rng, w) {
		case mutSingleSwap:
			if applySingleSwap(perm, fp, rng) {
				return true
			}
		case mutFingerColumnSwap:
			if applyFingerColumnSwap(perm, fp, rng) {
				return true
			}
		case mutCrossTierSwap:
			if applyCrossTierSwap(perm, fp, rng) {
				return true
			}
		case mutRotate3:
			if applyRotate3(perm, fp, rng) {
				return true
			}
		}
	}
	return applySingleSwap(perm, fp, rng)
}

// failsSanity reports whether any critical bigram (given as a pair of
// alphabet indices) now lands on the same hand and finger, i.e. has become
// an SFB. Grounded on
// original_source/crates/keyforge-core/src/optimizer/mutation.rs's
// fails_sanity, used here as the parallel candidate sampler's cheap
// post-mutation reject check rather than a full rescore.
func failsSanity(perm *layout.Permutation, geom *geometry.Geometry, criticalPairs [][2]int) bool {
	for _, pair := range criticalPairs {
		s1, s2 := perm.CharToSlot[pair[0]], perm.CharToSlot[pair[1]]
		if s1 == layout.NoChar || s2 == layout.NoChar || s1 == s2 {
			continue
		}
		k1, k2 := geom.Keys[s1], geom.Keys[s2]
		if k1.Hand == k2.Hand && k1.Finger == k2.Finger {
			return true
		}
	}
	return false
}
