package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/geometry"
)

// JobRow is the persisted shape of a Job, independent of the hive
// package's types to avoid an import cycle (hive depends on store).
type JobRow struct {
	ID             string
	KeyboardHash   string
	WeightsHash    string
	ParamsHash     string
	PinnedKeys     []byte
	CorpusName     string
	CostMatrixName string
	Status         string
	CreatedAt      time.Time
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// RegisterJob upserts the content-hash-deduplicated keyboard/weights/params
// blobs and inserts the job row if it does not already exist. It never
// overwrites an existing job's content (spec §4.5): if jobID is already
// present the call is a no-op and existed=true.
func (s *Store) RegisterJob(jobID string, keyboard, weights, params, pinnedKeys []byte, corpusName, costMatrixName string, now time.Time) (existed bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, errs.Wrap(errs.StoreTransient, "begin register_job tx", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var probe string
	err = tx.QueryRow(`SELECT id FROM jobs WHERE id = ?`, jobID).Scan(&probe)
	if err == nil {
		return true, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return false, errs.Wrap(errs.StoreTransient, "probe existing job", err)
	}
	err = nil

	kHash := contentHash(keyboard)
	wHash := contentHash(weights)
	pHash := contentHash(params)

	if _, e := tx.Exec(`INSERT OR IGNORE INTO keyboards(content_hash, content, created_at) VALUES (?, ?, ?)`, kHash, keyboard, now.Unix()); e != nil {
		err = errs.Wrap(errs.StoreTransient, "insert keyboard content", e)
		return false, err
	}
	if _, e := tx.Exec(`INSERT OR IGNORE INTO scoring_profiles(content_hash, content, created_at) VALUES (?, ?, ?)`, wHash, weights, now.Unix()); e != nil {
		err = errs.Wrap(errs.StoreTransient, "insert weights content", e)
		return false, err
	}
	if _, e := tx.Exec(`INSERT OR IGNORE INTO search_configs(content_hash, content, created_at) VALUES (?, ?, ?)`, pHash, params, now.Unix()); e != nil {
		err = errs.Wrap(errs.StoreTransient, "insert params content", e)
		return false, err
	}

	if kd, perr := geometry.ParseKeyboardDefinition(keyboard); perr == nil {
		keysStmt, serr := tx.Prepare(`INSERT OR IGNORE INTO keyboard_keys(keyboard_hash, slot_index, x, y, row, col, hand, finger, is_stretch) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if serr == nil {
			defer keysStmt.Close()
			for i, k := range kd.Geometry.Keys {
				if _, e := keysStmt.Exec(kHash, i, k.X, k.Y, k.Row, k.Col, int(k.Hand), int(k.Finger), boolToInt(k.IsStretch)); e != nil {
					err = errs.Wrap(errs.StoreTransient, "insert keyboard key", e)
					return false, err
				}
			}
		}
	}

	if _, e := tx.Exec(
		`INSERT INTO jobs(id, keyboard_hash, weights_hash, params_hash, pinned_keys, corpus_name, cost_matrix_name, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, kHash, wHash, pHash, pinnedKeys, corpusName, costMatrixName, "active", now.Unix(),
	); e != nil {
		err = errs.Wrap(errs.StoreTransient, "insert job row", e)
		return false, err
	}

	if e := tx.Commit(); e != nil {
		err = errs.Wrap(errs.StoreTransient, "commit register_job", e)
		return false, err
	}
	return false, nil
}

// GetJob loads a job row by id.
func (s *Store) GetJob(jobID string) (*JobRow, error) {
	row := s.db.QueryRow(`SELECT id, keyboard_hash, weights_hash, params_hash, pinned_keys, corpus_name, cost_matrix_name, status, created_at FROM jobs WHERE id = ?`, jobID)
	var j JobRow
	var createdAt int64
	if err := row.Scan(&j.ID, &j.KeyboardHash, &j.WeightsHash, &j.ParamsHash, &j.PinnedKeys, &j.CorpusName, &j.CostMatrixName, &j.Status, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errs.Wrap(errs.StoreTransient, "get job", err)
	}
	j.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &j, nil
}

// ActiveJobs returns all jobs with status 'active', ordered by created_at
// ascending (earliest first, for round-robin tie-breaking per spec §4.5).
func (s *Store) ActiveJobs() ([]*JobRow, error) {
	rows, err := s.db.Query(`SELECT id, keyboard_hash, weights_hash, params_hash, pinned_keys, corpus_name, cost_matrix_name, status, created_at FROM jobs WHERE status = 'active' ORDER BY created_at ASC`)
	if err != nil {
		return nil, errs.Wrap(errs.StoreTransient, "list active jobs", err)
	}
	defer rows.Close()

	var out []*JobRow
	for rows.Next() {
		var j JobRow
		var createdAt int64
		if err := rows.Scan(&j.ID, &j.KeyboardHash, &j.WeightsHash, &j.ParamsHash, &j.PinnedKeys, &j.CorpusName, &j.CostMatrixName, &j.Status, &createdAt); err != nil {
			return nil, errs.Wrap(errs.StoreTransient, "scan active job", err)
		}
		j.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, &j)
	}
	return out, rows.Err()
}

// GetJobContent re-fetches the content-addressed keyboard/weights/params
// blobs a job row points to, so get_active_job can hand a Node everything
// it needs to reconstruct a runnable job (spec §4.5/§4.6).
func (s *Store) GetJobContent(j *JobRow) (keyboard, weights, params []byte, err error) {
	if err := s.db.QueryRow(`SELECT content FROM keyboards WHERE content_hash = ?`, j.KeyboardHash).Scan(&keyboard); err != nil {
		return nil, nil, nil, errs.Wrap(errs.StoreTransient, "get keyboard content", err)
	}
	if err := s.db.QueryRow(`SELECT content FROM scoring_profiles WHERE content_hash = ?`, j.WeightsHash).Scan(&weights); err != nil {
		return nil, nil, nil, errs.Wrap(errs.StoreTransient, "get weights content", err)
	}
	if err := s.db.QueryRow(`SELECT content FROM search_configs WHERE content_hash = ?`, j.ParamsHash).Scan(&params); err != nil {
		return nil, nil, nil, errs.Wrap(errs.StoreTransient, "get params content", err)
	}
	return keyboard, weights, params, nil
}

// SubmitResult applies the best-per-job conditional update synchronously
// (so accepted reflects the true outcome) and queues the full audit row
// for the batched writer. The conditional update is the literal pattern
// from spec §4.5 expressed as a single SQLite upsert: the WHERE clause on
// the DO UPDATE only fires the write when the new score beats the current
// best, so RowsAffected tells us whether the row actually changed.
func (s *Store) SubmitResult(jobID, layout string, score float64, nodeID string, now time.Time) (accepted bool, err error) {
	res, err := s.db.Exec(
		`INSERT INTO best(job_id, score, layout, node_id, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
		   score = excluded.score,
		   layout = excluded.layout,
		   node_id = excluded.node_id,
		   updated_at = excluded.updated_at
		 WHERE excluded.score < best.score`,
		jobID, score, layout, nodeID, now.Unix(),
	)
	if err != nil {
		return false, errs.Wrap(errs.StoreTransient, "submit_result best upsert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Wrap(errs.StoreTransient, "submit_result rows affected", err)
	}
	accepted = n > 0

	s.enqueueAudit(resultWrite{jobID: jobID, layout: layout, score: score, nodeID: nodeID, accepted: accepted, createdAt: now})
	return accepted, nil
}

// BestResult returns the current leaderboard entry for a job.
func (s *Store) BestResult(jobID string) (score float64, layout, nodeID string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT score, layout, node_id FROM best WHERE job_id = ?`, jobID)
	if e := row.Scan(&score, &layout, &nodeID); e != nil {
		if e == sql.ErrNoRows {
			return 0, "", "", false, nil
		}
		return 0, "", "", false, errs.Wrap(errs.StoreTransient, "get best result", e)
	}
	return score, layout, nodeID, true, nil
}

// AcceptedCountSince counts accepted (improving) results for a job after
// the given cutoff, used by get_active_job's result_saturation gate.
func (s *Store) AcceptedCountSince(jobID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results WHERE job_id = ? AND accepted = 1 AND created_at >= ?`, jobID, since.Unix()).Scan(&n)
	if err != nil {
		return 0, errs.Wrap(errs.StoreTransient, "count accepted results", err)
	}
	return n, nil
}

// UpsertNode records a heartbeat: merges the CPU profile keeping the max
// observed ops_per_sec, and refreshes last_seen/current_job_id on the node
// row (spec §4.5 heartbeat).
func (s *Store) UpsertNode(nodeID, cpuSignature string, cpuCores int, opsPerSec float64, currentJobID string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.StoreTransient, "begin heartbeat tx", err)
	}

	if _, e := tx.Exec(
		`INSERT INTO hardware_profiles(node_id, cpu_signature, cpu_cores, ops_per_sec, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(node_id) DO UPDATE SET
		   cpu_signature = excluded.cpu_signature,
		   cpu_cores = excluded.cpu_cores,
		   ops_per_sec = MAX(hardware_profiles.ops_per_sec, excluded.ops_per_sec),
		   updated_at = excluded.updated_at`,
		nodeID, cpuSignature, cpuCores, opsPerSec, now.Unix(),
	); e != nil {
		tx.Rollback()
		return errs.Wrap(errs.StoreTransient, "upsert hardware profile", e)
	}

	if _, e := tx.Exec(
		`INSERT INTO nodes(node_id, last_seen, performance_rating, current_job_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(node_id) DO UPDATE SET
		   last_seen = excluded.last_seen,
		   performance_rating = MAX(nodes.performance_rating, excluded.performance_rating),
		   current_job_id = excluded.current_job_id`,
		nodeID, now.Unix(), opsPerSec, currentJobID,
	); e != nil {
		tx.Rollback()
		return errs.Wrap(errs.StoreTransient, "upsert node", e)
	}

	if e := tx.Commit(); e != nil {
		return errs.Wrap(errs.StoreTransient, "commit heartbeat", e)
	}
	return nil
}

// ActiveNodeCount counts nodes whose last heartbeat referenced jobID and
// fell within the staleness window ending at now (spec §4.5 get_status).
func (s *Store) ActiveNodeCount(jobID string, staleness time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-staleness).Unix()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE current_job_id = ? AND last_seen >= ?`, jobID, cutoff).Scan(&n)
	if err != nil {
		return 0, errs.Wrap(errs.StoreTransient, "count active nodes", err)
	}
	return n, nil
}

// InsertSubmission records a community layout submission with a
// snowflake-generated id and status=pending (spec §4.5 submit_community).
func (s *Store) InsertSubmission(name, layoutStr, author string, now time.Time) (submissionID string, err error) {
	submissionID = s.idGen.GenerateRequestID()
	_, err = s.db.Exec(
		`INSERT INTO submissions(submission_id, name, layout_str, author, status, submitted_at) VALUES (?, ?, ?, ?, 'pending', ?)`,
		submissionID, name, layoutStr, author, now.Unix(),
	)
	if err != nil {
		return "", errs.Wrap(errs.StoreTransient, "insert submission", err)
	}
	return submissionID, nil
}

// MarshalPinned is a small helper so callers can store map[string]string
// pinned_keys as a JSON blob without depending on jobid's canonical encoder
// (this is storage, not the hash input).
func MarshalPinned(pinned map[string]string) ([]byte, error) {
	if pinned == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(pinned)
}
