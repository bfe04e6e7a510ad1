package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
)

// Two hands of three fingers each, single home row, all prime tier.
func fixtureGeometry(t *testing.T) *geometry.Geometry {
	t.Helper()
	g := &geometry.Geometry{
		Keys: []geometry.KeyNode{
			{X: 0, Y: 0, Row: 0, Col: 0, Hand: geometry.HandLeft, Finger: geometry.FingerIndex},
			{X: 1, Y: 0, Row: 0, Col: 1, Hand: geometry.HandLeft, Finger: geometry.FingerMiddle},
			{X: 2, Y: 0, Row: 0, Col: 2, Hand: geometry.HandLeft, Finger: geometry.FingerRing},
			{X: 3, Y: 0, Row: 0, Col: 3, Hand: geometry.HandRight, Finger: geometry.FingerIndex},
			{X: 4, Y: 0, Row: 0, Col: 4, Hand: geometry.HandRight, Finger: geometry.FingerMiddle},
			{X: 5, Y: 0, Row: 0, Col: 5, Hand: geometry.HandRight, Finger: geometry.FingerRing},
		},
		PrimeSlots: []int{0, 1, 2, 3, 4, 5},
		HomeRow:    0,
	}
	require.NoError(t, g.Validate())
	return g
}

func fixtureDefs() config.LayoutDefinitions {
	return config.LayoutDefinitions{
		TierHighChars:     "ab",
		TierMedChars:      "cd",
		TierLowChars:      "ef",
		CriticalBigrams:   "",
		FingerRepeatScale: "1.0,1.0,1.0,1.2,1.5",
	}
}

func fixtureCorpusWithBigram(t *testing.T, geom *geometry.Geometry, defs config.LayoutDefinitions, c1, c2 byte, weight float64) *corpus.Corpus {
	t.Helper()
	alpha := corpus.BuildAlphabet(defs)
	n := alpha.Size()
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		mono[i] = 1
	}
	bi := make([][]float64, n)
	for i := range bi {
		bi[i] = make([]float64, n)
	}
	bi[alpha.IndexOf(c1)][alpha.IndexOf(c2)] = weight
	cost := corpus.UniformCostMatrix(geom.SlotCount(), 120.0)
	return corpus.NewCorpus(alpha, mono, bi, nil, 0, cost)
}

func place(t *testing.T, geom *geometry.Geometry, alpha *corpus.Alphabet, assignment map[int]byte) *layout.Permutation {
	t.Helper()
	p := layout.NewPermutation(geom, alpha)
	for slot, c := range assignment {
		p.Place(slot, alpha.IndexOf(c))
	}
	return p
}

func TestScoreSameHandBigramPaysMoreGeoDistThanCrossHand(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpusWithBigram(t, geom, defs, 'a', 'b', 50)
	weights := config.DefaultScoringWeights()

	// Every slot of this fixture has its own finger, so no placement makes
	// a,b an SFB; this compares a same-hand, different-finger placement
	// (left index, left middle) with a cross-hand one.
	sameHand := place(t, geom, corp.Alphabet, map[int]byte{0: 'a', 1: 'b'})
	crossHand := place(t, geom, corp.Alphabet, map[int]byte{0: 'a', 3: 'b'})

	sameScore, err := Score(sameHand, corp, weights, geom, defs, 0)
	require.NoError(t, err)
	crossScore, err := Score(crossHand, corp, weights, geom, defs, 0)
	require.NoError(t, err)

	// Same-hand bigrams pay GeoDist; cross-hand bigrams score 0 travel
	// cost for that pair since analyzeInteraction short-circuits on
	// differing hands.
	assert.Greater(t, sameScore.GeoDist, crossScore.GeoDist)
}

func TestScoreDetectsSFBOnSameFingerDifferentSlot(t *testing.T) {
	// Two slots sharing a finger so a,b on them is a genuine SFB.
	geom := &geometry.Geometry{
		Keys: []geometry.KeyNode{
			{X: 0, Y: 0, Row: 0, Col: 0, Hand: geometry.HandLeft, Finger: geometry.FingerIndex},
			{X: 0, Y: 1, Row: 1, Col: 0, Hand: geometry.HandLeft, Finger: geometry.FingerIndex},
			{X: 1, Y: 0, Row: 0, Col: 1, Hand: geometry.HandLeft, Finger: geometry.FingerMiddle},
		},
		PrimeSlots: []int{0, 1, 2},
		HomeRow:    0,
	}
	require.NoError(t, geom.Validate())

	defs := fixtureDefs()
	corp := fixtureCorpusWithBigram(t, geom, defs, 'a', 'b', 50)
	weights := config.DefaultScoringWeights()

	sfb := place(t, geom, corp.Alphabet, map[int]byte{0: 'a', 1: 'b', 2: 'c'})
	noSFB := place(t, geom, corp.Alphabet, map[int]byte{0: 'a', 2: 'b', 1: 'c'})

	sfbScore, err := Score(sfb, corp, weights, geom, defs, 0)
	require.NoError(t, err)
	noSFBScore, err := Score(noSFB, corp, weights, geom, defs, 0)
	require.NoError(t, err)

	assert.Greater(t, sfbScore.StatSFB, 0.0)
	assert.Equal(t, 0.0, noSFBScore.StatSFB)
	assert.Greater(t, sfbScore.MechSFB+sfbScore.MechSFBDiag+sfbScore.MechSFBLong+sfbScore.MechSFBBot+sfbScore.MechSFBLat+sfbScore.MechSFBLatWeak, 0.0)
	assert.Greater(t, sfbScore.LayoutScore, noSFBScore.LayoutScore)
}

func TestScoreTierPenaltyPunishesHighCharOnLowSlot(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := config.LayoutDefinitions{
		TierHighChars:     "a",
		TierMedChars:      "b",
		TierLowChars:      "c",
		FingerRepeatScale: "1.0,1.0,1.0,1.2,1.5",
	}
	geom.LowSlots = []int{5}
	geom.PrimeSlots = []int{0, 1, 2, 3, 4}
	require.NoError(t, geom.Validate())

	corp := fixtureCorpusWithBigram(t, geom, defs, 'a', 'b', 0)
	weights := config.DefaultScoringWeights()

	highOnLow := place(t, geom, corp.Alphabet, map[int]byte{5: 'a', 0: 'b', 1: 'c'})
	highOnPrime := place(t, geom, corp.Alphabet, map[int]byte{0: 'a', 1: 'b', 5: 'c'})

	lowScore, err := Score(highOnLow, corp, weights, geom, defs, 0)
	require.NoError(t, err)
	primeScore, err := Score(highOnPrime, corp, weights, geom, defs, 0)
	require.NoError(t, err)

	assert.Greater(t, lowScore.TierPenalty, primeScore.TierPenalty)
}

func TestScoreIsDeterministic(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpusWithBigram(t, geom, defs, 'a', 'b', 50)
	weights := config.DefaultScoringWeights()
	perm := place(t, geom, corp.Alphabet, map[int]byte{0: 'a', 1: 'b', 2: 'c', 3: 'd', 4: 'e', 5: 'f'})

	s1, err := Score(perm, corp, weights, geom, defs, 0)
	require.NoError(t, err)
	s2, err := Score(perm, corp, weights, geom, defs, 0)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}
