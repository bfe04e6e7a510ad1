package cli

import (
	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
	"github.com/infodungeon/keyforge/internal/search"
)

// cannedFixture builds the geometry/corpus/layout triple benchmark scores
// repeatedly, independent of KEYFORGE_DATA_DIR. It's a 30-key ortholinear
// split geometry with the reference tier definitions, built the way
// internal/scoring/engine_test.go's fixtureGeometry builds its test
// geometry, just sized to look like a real keyboard rather than a minimal
// repro.
type cannedFixture struct {
	geom  *geometry.Geometry
	corp  *corpus.Corpus
	defs  config.LayoutDefinitions
	perm  *layout.Permutation
}

func buildCannedFixture() *cannedFixture {
	defs := config.DefaultLayoutDefinitions()
	geom := cannedGeometry()
	alpha := corpus.BuildAlphabet(defs)

	n := alpha.Size()
	mono := make([]float64, n)
	bi := make([][]float64, n)
	for i := range bi {
		bi[i] = make([]float64, n)
	}

	// Monogram weight falls off as 1/(i+1) with the character's index in the
	// byte-sorted alphabet (so the punctuation characters, which sort first,
	// weigh most), independent of tier: enough spread to exercise every
	// scoring pass without needing a real corpus file on disk.
	for i := 0; i < n; i++ {
		mono[i] = 1.0 / float64(i+1)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			bi[i][j] = mono[i] * mono[j] * 4
		}
	}

	cost := corpus.UniformCostMatrix(geom.SlotCount(), config.DefaultScoringWeights().DefaultCostMS)
	corp := corpus.NewCorpus(alpha, mono, bi, nil, 0, cost)

	perm := search.GreedyInit(geom, corp, nil)

	return &cannedFixture{geom: geom, corp: corp, defs: defs, perm: perm}
}

// cannedGeometry is a 3x5 per-hand ortholinear split, home row 1, with the
// outer column of each hand classified as low-tier and everything else
// prime, matching the kind of tier split a real keyboard JSON would carry.
func cannedGeometry() *geometry.Geometry {
	var keys []geometry.KeyNode
	var prime, low []int

	fingers := [5]uint8{geometry.FingerPinky, geometry.FingerRing, geometry.FingerMiddle, geometry.FingerIndex, geometry.FingerIndex}
	slot := 0
	for _, hand := range []uint8{geometry.HandLeft, geometry.HandRight} {
		for row := 0; row < 3; row++ {
			for col := 0; col < 5; col++ {
				finger := fingers[col]
				x := float64(col)
				if hand == geometry.HandRight {
					x = float64(4 - col)
				}
				keys = append(keys, geometry.KeyNode{
					X: x, Y: float64(row), Row: row, Col: col,
					Hand: hand, Finger: finger,
				})
				if col == 0 {
					low = append(low, slot)
				} else {
					prime = append(prime, slot)
				}
				slot++
			}
		}
	}

	g := &geometry.Geometry{
		Keys:       keys,
		PrimeSlots: prime,
		LowSlots:   low,
		HomeRow:    1,
	}
	if err := g.Validate(); err != nil {
		panic("cli: canned benchmark geometry is invalid: " + err.Error())
	}
	return g
}
