package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
)

// fixtureGeometry builds a minimal two-hand, three-finger, single-row
// keyboard: slots 0-2 on the left hand (index, middle, ring), 3-5 on the
// right hand (index, middle, ring), all prime tier.
func fixtureGeometry(t *testing.T) *geometry.Geometry {
	t.Helper()
	g := &geometry.Geometry{
		Keys: []geometry.KeyNode{
			{Row: 0, Col: 0, Hand: geometry.HandLeft, Finger: geometry.FingerIndex},
			{Row: 0, Col: 1, Hand: geometry.HandLeft, Finger: geometry.FingerMiddle},
			{Row: 0, Col: 2, Hand: geometry.HandLeft, Finger: geometry.FingerRing},
			{Row: 0, Col: 3, Hand: geometry.HandRight, Finger: geometry.FingerIndex},
			{Row: 0, Col: 4, Hand: geometry.HandRight, Finger: geometry.FingerMiddle},
			{Row: 0, Col: 5, Hand: geometry.HandRight, Finger: geometry.FingerRing},
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
		CriticalBigrams:   "ab,cd",
		FingerRepeatScale: "1.0,1.0,1.0,1.2,1.5",
	}
}

func fixtureCorpus(t *testing.T, geom *geometry.Geometry, defs config.LayoutDefinitions) *corpus.Corpus {
	t.Helper()
	alpha := corpus.BuildAlphabet(defs)
	n := alpha.Size()

	mono := make([]float64, n)
	freqs := map[byte]float64{'a': 100, 'b': 90, 'c': 10, 'd': 5, 'e': 1, 'f': 0.5}
	for i := 0; i < n; i++ {
		mono[i] = freqs[alpha.CharAt(i)]
	}

	bi := make([][]float64, n)
	for i := range bi {
		bi[i] = make([]float64, n)
	}
	// a->b is the dominant bigram: a same-finger assignment should be
	// heavily penalized relative to a cross-hand one.
	bi[alpha.IndexOf('a')][alpha.IndexOf('b')] = 50

	cost := corpus.UniformCostMatrix(geom.SlotCount(), 120.0)
	return corpus.NewCorpus(alpha, mono, bi, nil, 0, cost)
}

func TestGreedyInitPlacesHighestFrequencyOnBestSlots(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpus(t, geom, defs)

	perm := GreedyInit(geom, corp, nil)
	require.NoError(t, layout.ValidateBijection(perm, geom.AssignableSlots(), corp.Alphabet, nil))

	for _, c := range perm.SlotToChar {
		assert.NotEqual(t, layout.NoChar, c)
	}

	// A uniform cost matrix gives every slot the same centrality, so slots
	// are filled in index order: the two most frequent characters, a and b,
	// land on slots 0 and 1.
	assert.Equal(t, corp.Alphabet.IndexOf('a'), perm.SlotToChar[0])
	assert.Equal(t, corp.Alphabet.IndexOf('b'), perm.SlotToChar[1])
}

func TestGreedyInitRespectsPinned(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpus(t, geom, defs)

	pinned := map[int]int{0: corp.Alphabet.IndexOf('f')}
	perm := GreedyInit(geom, corp, pinned)

	assert.Equal(t, pinned[0], perm.SlotToChar[0])
	require.NoError(t, layout.ValidateBijection(perm, geom.AssignableSlots(), corp.Alphabet, pinned))
}

func TestRNGIsDeterministic(t *testing.T) {
	a := NewRNG(1337)
	b := NewRNG(1337)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestRNGDiffersAcrossSeeds(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)
	same := true
	for i := 0; i < 16; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestFailsSanityDetectsSameFingerCriticalBigram(t *testing.T) {
	// Two slots sharing a finger, so placing a critical pair on them turns
	// the pair into an SFB.
	geom := &geometry.Geometry{
		Keys: []geometry.KeyNode{
			{Row: 0, Col: 0, Hand: geometry.HandLeft, Finger: geometry.FingerIndex},
			{Row: 1, Col: 0, Hand: geometry.HandLeft, Finger: geometry.FingerIndex},
			{Row: 0, Col: 1, Hand: geometry.HandLeft, Finger: geometry.FingerMiddle},
		},
		PrimeSlots: []int{0, 1, 2},
		HomeRow:    0,
	}
	require.NoError(t, geom.Validate())

	defs := fixtureDefs()
	corp := fixtureCorpus(t, geom, defs)
	critical, err := criticalPairIndices(defs, corp.Alphabet)
	require.NoError(t, err)

	perm := layout.NewPermutation(geom, corp.Alphabet)
	perm.Place(0, corp.Alphabet.IndexOf('a'))
	perm.Place(1, corp.Alphabet.IndexOf('b'))
	perm.Place(2, corp.Alphabet.IndexOf('c'))
	assert.True(t, failsSanity(perm, geom, critical))

	perm.Swap(1, 2)
	assert.False(t, failsSanity(perm, geom, critical))
}

func TestOptimizeProducesValidBijectionAndRespectsPinned(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpus(t, geom, defs)
	weights := config.DefaultScoringWeights()

	pinned := map[int]int{5: corp.Alphabet.IndexOf('f')}
	params := config.SearchParams{
		SearchEpochs:            5,
		SearchSteps:             20,
		SearchPatience:          2,
		SearchPatienceThreshold: 0.1,
		TempMin:                 0.08,
		TempMax:                 50,
		OptLimitFast:            10,
		OptLimitSlow:            5,
	}

	result, err := Optimize(context.Background(), Options{
		Geometry:     geom,
		Corpus:       corp,
		Weights:      weights,
		Defs:         defs,
		Params:       params,
		Pinned:       pinned,
		RNGSeed:      42,
		TrigramLimit: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Best)

	require.NoError(t, layout.ValidateBijection(result.Best, geom.AssignableSlots(), corp.Alphabet, pinned))
	assert.Equal(t, pinned[5], result.Best.SlotToChar[5])
}

func TestOptimizeIsDeterministicForFixedSeed(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpus(t, geom, defs)
	weights := config.DefaultScoringWeights()
	params := config.SearchParams{
		SearchEpochs: 3, SearchSteps: 15, SearchPatience: 2, SearchPatienceThreshold: 0.1,
		TempMin: 0.08, TempMax: 50, OptLimitFast: 10, OptLimitSlow: 5,
	}

	run := func() *Result {
		r, err := Optimize(context.Background(), Options{
			Geometry: geom, Corpus: corp, Weights: weights, Defs: defs,
			Params: params, RNGSeed: 7,
		})
		require.NoError(t, err)
		return r
	}

	r1, r2 := run(), run()
	assert.Equal(t, r1.BestScore.LayoutScore, r2.BestScore.LayoutScore)
	assert.Equal(t, r1.Best.SlotToChar, r2.Best.SlotToChar)
}

func TestOptimizeRespectsCancellation(t *testing.T) {
	geom := fixtureGeometry(t)
	defs := fixtureDefs()
	corp := fixtureCorpus(t, geom, defs)
	weights := config.DefaultScoringWeights()
	params := config.SearchParams{
		SearchEpochs: 1000, SearchSteps: 100000, SearchPatience: 500, SearchPatienceThreshold: 0.1,
		TempMin: 0.08, TempMax: 1000, OptLimitFast: 600, OptLimitSlow: 3000,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := Optimize(ctx, Options{
		Geometry: geom, Corpus: corp, Weights: weights, Defs: defs,
		Params: params, RNGSeed: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
}
