// Package hive implements the coordinator from spec §4.5: a persistent job
// store, per-job leaderboard, node heartbeat registry, community submission
// inbox, and a jailed data-file sync surface.
package hive

import "time"

// JobStatus is the lifecycle state of a registered Job (spec §3).
type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobPaused   JobStatus = "paused"
	JobComplete JobStatus = "complete"
)

// Job mirrors spec §3's Job tuple. Keyboard/Weights/Params/PinnedKeys are
// kept as raw canonical-ready fields rather than re-parsed structs so the
// store can persist and recompute job_id without depending on the
// scoring/geometry packages.
type Job struct {
	JobID          string    `json:"job_id"`
	Keyboard       []byte    `json:"keyboard"`
	Weights        []byte    `json:"weights"`
	Params         []byte    `json:"params"`
	PinnedKeys     []byte    `json:"pinned_keys"`
	CorpusName     string    `json:"corpus_name"`
	CostMatrixName string    `json:"cost_matrix_name"`
	Status         JobStatus `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Result mirrors spec §3's Result tuple.
type Result struct {
	JobID     string    `json:"job_id"`
	Layout    string    `json:"layout"`
	Score     float64   `json:"score"`
	NodeID    string    `json:"node_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Node mirrors spec §3's Node tuple.
type Node struct {
	NodeID            string    `json:"node_id"`
	CPUSignature      string    `json:"cpu_signature"`
	CPUCores          int       `json:"cpu_cores"`
	PerformanceRating float64   `json:"performance_rating"`
	LastSeen          time.Time `json:"last_seen"`
}

// SubmissionStatus is the moderation state of a community Submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission mirrors spec §3's Submission tuple: user-authored, not a
// solver output, so it is kept separate from Result.
type Submission struct {
	SubmissionID string           `json:"submission_id"`
	Name         string           `json:"name"`
	LayoutStr    string           `json:"layout_str"`
	Author       string           `json:"author"`
	Status       SubmissionStatus `json:"status"`
	SubmittedAt  time.Time        `json:"submitted_at"`
}

// JobDescription is the wire shape clients submit to register_job (spec
// §4.4); it is fed to internal/jobid.Of to compute the canonical job_id.
type JobDescription struct {
	Keyboard       []byte            `json:"keyboard"`
	Weights        []byte            `json:"weights"`
	Params         []byte            `json:"params"`
	PinnedKeys     map[string]string `json:"pinned_keys"`
	CorpusName     string            `json:"corpus_name"`
	CostMatrixName string            `json:"cost_matrix_name"`
}

// FileEntry describes one file under the data jail, returned by sync_data.
type FileEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Status is the response shape for get_status.
type Status struct {
	ActiveNodes int     `json:"active_nodes"`
	BestScore   float64 `json:"best_score"`
	BestLayout  string  `json:"best_layout"`
}
