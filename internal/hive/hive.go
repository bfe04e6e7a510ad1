package hive

import (
	"encoding/json"
	"time"

	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/hive/store"
	"github.com/infodungeon/keyforge/internal/hive/validate"
	"github.com/infodungeon/keyforge/internal/jobid"
	"github.com/infodungeon/keyforge/internal/logging"
)

// Config controls the Hive-level knobs spec §4.5/§9 name as Hive config
// rather than part of the job hash.
type Config struct {
	DataDir            string
	DBPath             string
	Secret             string // HIVE_SECRET; empty disables auth
	ResultSaturation   int    // default 20
	StalenessThreshold time.Duration
	MaxPayloadBytes    int64 // default 64 MiB
}

// DefaultConfig returns Hive defaults per SPEC_FULL.md's MODULE DETAIL.
func DefaultConfig() Config {
	return Config{
		DataDir:            "data",
		DBPath:             "hive.db",
		ResultSaturation:   20,
		StalenessThreshold: 120 * time.Second,
		MaxPayloadBytes:    64 << 20,
	}
}

// Hive is the coordinator from spec §4.5.
type Hive struct {
	cfg   Config
	store *store.Store
	jail  *dataJail
	sm    *jobStateMachines
	rr    *roundRobin
	log   logging.ILogger
}

// New wires a Hive over an open SQLite store and a jailed data directory.
func New(cfg Config, log logging.ILogger) (*Hive, error) {
	if log == nil {
		log = logging.New("HIVE")
	}
	s, err := store.Open(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}
	jail, err := newDataJail(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Hive{cfg: cfg, store: s, jail: jail, sm: newJobStateMachines(), rr: newRoundRobin(), log: log}, nil
}

func (h *Hive) Close() error { return h.store.Close() }

// RegisterJob computes the canonical job_id and upserts the job, never
// overwriting existing content (spec §4.5).
func (h *Hive) RegisterJob(desc JobDescription) (jobID string, err error) {
	jobID, err = jobid.Of(jobid.JobDescription{
		Keyboard:       desc.Keyboard,
		Weights:        desc.Weights,
		Params:         desc.Params,
		PinnedKeys:     desc.PinnedKeys,
		CorpusName:     desc.CorpusName,
		CostMatrixName: desc.CostMatrixName,
	})
	if err != nil {
		return "", errs.Wrap(errs.Validation, "compute job_id", err)
	}

	pinnedJSON, err := store.MarshalPinned(desc.PinnedKeys)
	if err != nil {
		return "", errs.Wrap(errs.Validation, "marshal pinned_keys", err)
	}

	existed, err := h.store.RegisterJob(jobID, desc.Keyboard, desc.Weights, desc.Params, pinnedJSON, desc.CorpusName, desc.CostMatrixName, time.Now())
	if err != nil {
		return "", err
	}
	if !existed {
		h.sm.register(jobID)
	}
	return jobID, nil
}

// GetActiveJob implements the round-robin assignment policy: active jobs
// with fewer than ResultSaturation accepted improvements in the trailing
// hour, ties broken by created_at (spec §4.5, SPEC_FULL.md MODULE DETAIL).
func (h *Hive) GetActiveJob() (*JobDescription, string, error) {
	rows, err := h.store.ActiveJobs()
	if err != nil {
		return nil, "", err
	}
	cutoff := time.Now().Add(-time.Hour)

	var eligible []*JobRowView
	byID := make(map[string]*store.JobRow, len(rows))
	for _, r := range rows {
		n, err := h.store.AcceptedCountSince(r.ID, cutoff)
		if err != nil {
			return nil, "", err
		}
		if n < h.cfg.ResultSaturation {
			eligible = append(eligible, &JobRowView{JobID: r.ID})
			byID[r.ID] = r
		}
	}
	pick := h.rr.next(eligible)
	if pick == nil {
		return nil, "", nil
	}
	row := byID[pick.JobID]

	var pinned map[string]string
	_ = json.Unmarshal(row.PinnedKeys, &pinned)

	keyboard, weights, params, err := h.store.GetJobContent(row)
	if err != nil {
		return nil, "", err
	}

	return &JobDescription{
		Keyboard:       keyboard,
		Weights:        weights,
		Params:         params,
		PinnedKeys:     pinned,
		CorpusName:     row.CorpusName,
		CostMatrixName: row.CostMatrixName,
	}, row.ID, nil
}

// SubmitResult forwards to the store's conditional best-score upsert.
func (h *Hive) SubmitResult(jobID, layout string, score float64, nodeID string) (accepted bool, err error) {
	if err := validate.Finite("score", score); err != nil {
		return false, err
	}
	return h.store.SubmitResult(jobID, layout, score, nodeID, time.Now())
}

// GetStatus returns the leaderboard entry plus active-node count for a job.
func (h *Hive) GetStatus(jobID string) (Status, error) {
	score, layout, _, ok, err := h.store.BestResult(jobID)
	if err != nil {
		return Status{}, err
	}
	activeNodes, err := h.store.ActiveNodeCount(jobID, h.cfg.StalenessThreshold, time.Now())
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{ActiveNodes: activeNodes}, nil
	}
	return Status{ActiveNodes: activeNodes, BestScore: score, BestLayout: layout}, nil
}

// Heartbeat upserts a node row and merges its CPU profile (spec §4.5).
func (h *Hive) Heartbeat(nodeID, cpuSignature string, cpuCores int, opsPerSec float64, currentJobID string) error {
	if err := validate.Finite("ops_per_sec", opsPerSec); err != nil {
		return err
	}
	return h.store.UpsertNode(nodeID, cpuSignature, cpuCores, opsPerSec, currentJobID, time.Now())
}

// SubmitCommunity records a user-authored layout submission, unscored.
func (h *Hive) SubmitCommunity(name, layoutStr, author string) (string, error) {
	return h.store.InsertSubmission(name, layoutStr, author, time.Now())
}

// SyncData lists every file under the jailed data directory.
func (h *Hive) SyncData() ([]FileEntry, error) {
	return h.jail.list()
}

// FetchData reads one jailed file by relative path.
func (h *Hive) FetchData(relPath string) ([]byte, error) {
	return h.jail.fetch(relPath)
}

