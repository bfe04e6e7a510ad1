package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
)

func TestRNGSeedDeterministic(t *testing.T) {
	a := rngSeed("node-1", "job-1", 0)
	b := rngSeed("node-1", "job-1", 0)
	assert.Equal(t, a, b)
}

func TestRNGSeedVariesByInput(t *testing.T) {
	base := rngSeed("node-1", "job-1", 0)
	assert.NotEqual(t, base, rngSeed("node-2", "job-1", 0), "different node_id must change the seed")
	assert.NotEqual(t, base, rngSeed("node-1", "job-2", 0), "different job_id must change the seed")
	assert.NotEqual(t, base, rngSeed("node-1", "job-1", 1), "different restart_count must change the seed")
}

func TestDecodePinned(t *testing.T) {
	defs := config.DefaultLayoutDefinitions()
	alpha := corpus.BuildAlphabet(defs)

	wantChar := defs.TierHighChars[0]
	got, err := decodePinned(map[string]string{"3": string(wantChar)}, alpha)
	require.NoError(t, err)

	wantIdx := alpha.IndexOf(wantChar)
	require.Equal(t, wantIdx, got[3])
}

func TestDecodePinnedRejectsUnknownCharacter(t *testing.T) {
	defs := config.DefaultLayoutDefinitions()
	alpha := corpus.BuildAlphabet(defs)

	_, err := decodePinned(map[string]string{"0": "\x01"}, alpha)
	require.Error(t, err)
}

func TestJobParamsFoldsDefsIntoParamsBlob(t *testing.T) {
	jp := jobParams{
		SearchParams: config.DefaultSearchParams(),
		Defs:         config.DefaultLayoutDefinitions(),
	}
	data, err := json.Marshal(jp)
	require.NoError(t, err)

	var roundTripped jobParams
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	assert.Equal(t, jp.SearchParams, roundTripped.SearchParams)
	assert.Equal(t, jp.Defs, roundTripped.Defs)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "search_epochs", "SearchParams fields must be flattened, not nested")
	assert.Contains(t, raw, "defs")
}
