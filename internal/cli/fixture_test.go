package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodungeon/keyforge/internal/scoring"
)

func TestBuildCannedFixtureIsScoreable(t *testing.T) {
	fx := buildCannedFixture()
	require.NotNil(t, fx.geom)
	require.NotNil(t, fx.corp)
	require.NotNil(t, fx.perm)

	assert.Equal(t, fx.geom.SlotCount(), len(fx.geom.AssignableSlots()))

	score, err := scoring.Score(fx.perm, fx.corp, defaultWeights(), fx.geom, fx.defs, 0)
	require.NoError(t, err)
	assert.True(t, isFinite(score.LayoutScore))
}

func TestBuildCannedFixtureIsDeterministic(t *testing.T) {
	a := buildCannedFixture()
	b := buildCannedFixture()

	scoreA, err := scoring.Score(a.perm, a.corp, defaultWeights(), a.geom, a.defs, 0)
	require.NoError(t, err)
	scoreB, err := scoring.Score(b.perm, b.corp, defaultWeights(), b.geom, b.defs, 0)
	require.NoError(t, err)

	assert.Equal(t, scoreA, scoreB)
}
