package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "hive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRegisterJobIdempotent(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)

	existed, err := s.RegisterJob("job-1", []byte(`{"keys":[]}`), []byte(`{"w":1}`), []byte(`{"p":1}`), []byte(`{}`), "default", "uniform", now)
	require.NoError(t, err)
	assert.False(t, existed)

	existed, err = s.RegisterJob("job-1", []byte(`{"keys":[]}`), []byte(`{"w":1}`), []byte(`{"p":1}`), []byte(`{}`), "default", "uniform", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, existed)

	rows, err := s.ActiveJobs()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "job-1", rows[0].ID)
}

func TestRegisterJobContentRoundTrips(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)
	keyboard := []byte(`{"keys":[1,2,3]}`)
	weights := []byte(`{"w":42}`)
	params := []byte(`{"p":7}`)

	_, err := s.RegisterJob("job-content", keyboard, weights, params, []byte(`{}`), "default", "uniform", now)
	require.NoError(t, err)

	row, err := s.GetJob("job-content")
	require.NoError(t, err)
	require.NotNil(t, row)

	gotKeyboard, gotWeights, gotParams, err := s.GetJobContent(row)
	require.NoError(t, err)
	assert.JSONEq(t, string(keyboard), string(gotKeyboard))
	assert.JSONEq(t, string(weights), string(gotWeights))
	assert.JSONEq(t, string(params), string(gotParams))
}

// TestSubmitResultMonotoneLeaderboard matches spec §8 scenario 5: scores
// [500, 480, 500, 470, 485] submitted in order for one job from one node
// produce a best_score trace of [500, 480, 480, 470, 470].
func TestSubmitResultMonotoneLeaderboard(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)
	_, err := s.RegisterJob("job-lb", []byte(`{}`), []byte(`{}`), []byte(`{}`), []byte(`{}`), "default", "uniform", now)
	require.NoError(t, err)

	scores := []float64{500, 480, 500, 470, 485}
	wantAccepted := []bool{true, true, false, true, false}
	wantTrace := []float64{500, 480, 480, 470, 470}

	for i, score := range scores {
		accepted, err := s.SubmitResult("job-lb", "layout-"+string(rune('a'+i)), score, "node-1", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, wantAccepted[i], accepted, "submission %d", i)

		best, _, _, ok, err := s.BestResult("job-lb")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, wantTrace[i], best, "trace index %d", i)
	}
}

func TestSubmitResultNoBestIsAccepted(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)
	_, err := s.RegisterJob("job-first", []byte(`{}`), []byte(`{}`), []byte(`{}`), []byte(`{}`), "default", "uniform", now)
	require.NoError(t, err)

	accepted, err := s.SubmitResult("job-first", "any-layout", 999.0, "node-1", now)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestUpsertNodeMergesMaxOpsPerSec(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)

	require.NoError(t, s.UpsertNode("node-1", "sig-a", 8, 1000, "job-1", now))
	require.NoError(t, s.UpsertNode("node-1", "sig-b", 8, 500, "job-1", now.Add(time.Second)))

	n, err := s.ActiveNodeCount("job-1", 120*time.Second, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var ops float64
	require.NoError(t, s.db.QueryRow(`SELECT ops_per_sec FROM hardware_profiles WHERE node_id = ?`, "node-1").Scan(&ops))
	assert.Equal(t, 1000.0, ops)
}

func TestActiveNodeCountExcludesStaleAndOtherJobs(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)

	require.NoError(t, s.UpsertNode("node-a", "sig", 4, 100, "job-x", now))
	require.NoError(t, s.UpsertNode("node-b", "sig", 4, 100, "job-y", now))

	n, err := s.ActiveNodeCount("job-x", 120*time.Second, now.Add(121*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, n, "stale heartbeat should not count")

	n, err = s.ActiveNodeCount("job-x", 120*time.Second, now.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "node-b's heartbeat referenced a different job")
}

func TestInsertSubmissionGeneratesID(t *testing.T) {
	s := openTestStore(t)
	id, err := s.InsertSubmission("my-layout", "KC_A KC_B", "someone", time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
