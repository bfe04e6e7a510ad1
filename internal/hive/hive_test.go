package hive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodungeon/keyforge/internal/errs"
)

func newTestHive(t *testing.T) *Hive {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.DBPath = filepath.Join(dir, "hive.db")
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))

	h, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func sampleDesc() JobDescription {
	return JobDescription{
		Keyboard:       []byte(`{"keys":[{"id":"a"}]}`),
		Weights:        []byte(`{"weight_sfb":1.0,"weight_effort":0.5}`),
		Params:         []byte(`{"search_steps":1000}`),
		PinnedKeys:     map[string]string{"0": "a"},
		CorpusName:     "default",
		CostMatrixName: "uniform",
	}
}

func TestRegisterJobDedupDespiteKeyOrder(t *testing.T) {
	h := newTestHive(t)

	descA := sampleDesc()
	descA.Weights = []byte(`{"weight_sfb":1.0,"weight_effort":0.5}`)

	descB := sampleDesc()
	descB.Weights = []byte(`{"weight_effort":0.5,"weight_sfb":1.0}`)

	idA, err := h.RegisterJob(descA)
	require.NoError(t, err)
	idB, err := h.RegisterJob(descB)
	require.NoError(t, err)

	assert.Equal(t, idA, idB, "differently-ordered JSON keys must hash to the same job_id")

	_, jobID, err := h.GetActiveJob()
	require.NoError(t, err)
	assert.Equal(t, idA, jobID)
}

func TestGetActiveJobReturnsFullContent(t *testing.T) {
	h := newTestHive(t)
	desc := sampleDesc()

	jobID, err := h.RegisterJob(desc)
	require.NoError(t, err)

	got, gotID, err := h.GetActiveJob()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, jobID, gotID)
	assert.JSONEq(t, string(desc.Keyboard), string(got.Keyboard))
	assert.JSONEq(t, string(desc.Weights), string(got.Weights))
	assert.JSONEq(t, string(desc.Params), string(got.Params))
	assert.Equal(t, desc.PinnedKeys, got.PinnedKeys)
	assert.Equal(t, desc.CorpusName, got.CorpusName)
	assert.Equal(t, desc.CostMatrixName, got.CostMatrixName)
}

func TestSubmitResultAndStatus(t *testing.T) {
	h := newTestHive(t)
	jobID, err := h.RegisterJob(sampleDesc())
	require.NoError(t, err)

	accepted, err := h.SubmitResult(jobID, "KC_A KC_B", 500, "node-1")
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, err = h.SubmitResult(jobID, "KC_B KC_A", 510, "node-1")
	require.NoError(t, err)
	assert.False(t, accepted)

	status, err := h.GetStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, status.BestScore)
	assert.Equal(t, "KC_A KC_B", status.BestLayout)
}

func TestSubmitResultRejectsNonFiniteScore(t *testing.T) {
	h := newTestHive(t)
	jobID, err := h.RegisterJob(sampleDesc())
	require.NoError(t, err)

	_, err = h.SubmitResult(jobID, "KC_A", nan(), "node-1")
	require.Error(t, err)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestHeartbeatTracksActiveNodes(t *testing.T) {
	h := newTestHive(t)
	jobID, err := h.RegisterJob(sampleDesc())
	require.NoError(t, err)

	require.NoError(t, h.Heartbeat("node-1", "cpu-sig", 8, 1000, jobID))

	status, err := h.GetStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.ActiveNodes)
}

func TestSubmitCommunity(t *testing.T) {
	h := newTestHive(t)
	id, err := h.SubmitCommunity("my-layout", "KC_A KC_B", "ada")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

// TestFetchDataPathJail matches spec §8 scenario 6.
func TestFetchDataPathJail(t *testing.T) {
	h := newTestHive(t)

	require.NoError(t, os.MkdirAll(filepath.Join(h.cfg.DataDir, "keyboards"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.cfg.DataDir, "keyboards", "corne.json"), []byte(`{}`), 0o644))

	data, err := h.FetchData("keyboards/corne.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	_, err = h.FetchData("../etc/passwd")
	require.Error(t, err)
	escErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.Integrity, escErr.Kind)

	_, err = h.FetchData("keyboards/../../etc/passwd")
	require.Error(t, err)
	escErr, ok = errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.Integrity, escErr.Kind)
}

func TestSyncDataListsFiles(t *testing.T) {
	h := newTestHive(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.cfg.DataDir, "corpus.tsv"), []byte("the\t100\n"), 0o644))

	files, err := h.SyncData()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "corpus.tsv", files[0].Path)
	assert.NotEmpty(t, files[0].SHA256)
}
