package cli

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodungeon/keyforge/internal/scoring"
	"github.com/infodungeon/keyforge/internal/wire"
)

func fixtureDataset() (*dataset, string) {
	fx := buildCannedFixture()
	ds := &dataset{
		geom:    fx.geom,
		corp:    fx.corp,
		weights: defaultWeights(),
		defs:    fx.defs,
	}
	s := wire.FormatLayout(fx.perm.ToWireString(fx.corp.Alphabet))
	return ds, s
}

func TestParsePermutationRoundTrips(t *testing.T) {
	ds, s := fixtureDataset()

	perm, err := parsePermutation(s, ds)
	require.NoError(t, err)

	score, err := scoring.Score(perm, ds.corp, ds.weights, ds.geom, ds.defs, 0)
	require.NoError(t, err)
	assert.True(t, finiteScore(score))
}

func TestParsePermutationRejectsWrongSlotCount(t *testing.T) {
	ds, _ := fixtureDataset()

	_, err := parsePermutation("KC_A KC_B", ds)
	assert.Error(t, err)
}

func TestParsePermutationRejectsUnknownCharacter(t *testing.T) {
	ds, s := fixtureDataset()

	fields := strings.Fields(s)
	fields[0] = "KC_9"
	broken := strings.Join(fields, " ")

	_, err := parsePermutation(broken, ds)
	assert.Error(t, err)
}

func TestParsePermutationRejectsMalformedToken(t *testing.T) {
	ds, _ := fixtureDataset()

	_, err := parsePermutation("not a valid layout string at all", ds)
	assert.Error(t, err)
}

func TestFiniteScoreRejectsNaN(t *testing.T) {
	s := scoring.Score{}
	s.LayoutScore = math.NaN()
	assert.False(t, finiteScore(s))
}

func TestFiniteScoreRejectsInf(t *testing.T) {
	s := scoring.Score{}
	s.MechSFB = math.Inf(1)
	assert.False(t, finiteScore(s))
}

func TestFiniteScoreAcceptsZeroScore(t *testing.T) {
	assert.True(t, finiteScore(scoring.Score{}))
}
