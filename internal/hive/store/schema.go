package store

// schema is applied on every Open; every statement is idempotent so
// repeated opens against an existing database file are safe. Table names
// and the best-per-job conditional-update shape come from spec §6/§4.5.
const schema = `
CREATE TABLE IF NOT EXISTS keyboards (
	content_hash TEXT PRIMARY KEY,
	content      BLOB NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS keyboard_keys (
	keyboard_hash TEXT NOT NULL,
	slot_index    INTEGER NOT NULL,
	x             REAL NOT NULL,
	y             REAL NOT NULL,
	row           INTEGER NOT NULL,
	col           INTEGER NOT NULL,
	hand          INTEGER NOT NULL,
	finger        INTEGER NOT NULL,
	is_stretch    INTEGER NOT NULL,
	PRIMARY KEY (keyboard_hash, slot_index)
);

CREATE TABLE IF NOT EXISTS scoring_profiles (
	content_hash TEXT PRIMARY KEY,
	content      BLOB NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS search_configs (
	content_hash TEXT PRIMARY KEY,
	content      BLOB NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id               TEXT PRIMARY KEY,
	keyboard_hash    TEXT NOT NULL,
	weights_hash     TEXT NOT NULL,
	params_hash      TEXT NOT NULL,
	pinned_keys      BLOB NOT NULL,
	corpus_name      TEXT NOT NULL,
	cost_matrix_name TEXT NOT NULL,
	status           TEXT NOT NULL,
	created_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id     TEXT NOT NULL,
	layout     TEXT NOT NULL,
	score      REAL NOT NULL,
	node_id    TEXT NOT NULL,
	accepted   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_job_score ON results(job_id, score ASC);
CREATE INDEX IF NOT EXISTS idx_results_job_created ON results(job_id, created_at);

-- Materialized current-best per job; maintained by the conditional update
-- in spec §4.5 so get_status never scans results.
CREATE TABLE IF NOT EXISTS best (
	job_id     TEXT PRIMARY KEY,
	score      REAL NOT NULL,
	layout     TEXT NOT NULL,
	node_id    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	node_id            TEXT PRIMARY KEY,
	last_seen          INTEGER NOT NULL,
	performance_rating REAL NOT NULL DEFAULT 0,
	current_job_id     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS hardware_profiles (
	node_id       TEXT PRIMARY KEY,
	cpu_signature TEXT NOT NULL,
	cpu_cores     INTEGER NOT NULL,
	ops_per_sec   REAL NOT NULL DEFAULT 0,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	submission_id TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	layout_str    TEXT NOT NULL,
	author        TEXT NOT NULL,
	status        TEXT NOT NULL,
	submitted_at  INTEGER NOT NULL
);
`
