// Package store is the SQLite-backed persistent layer behind internal/hive,
// grounded on the teacher's storage/sqlite.go (WAL pragmas, single-writer
// connection, batched async writer) but split into two write paths: the
// best-per-job conditional update runs synchronously as a single upsert
// statement during the caller's request so submit_result can return an
// accurate accepted bool, while the full per-submission audit row (used
// only for diagnostics and the get_active_job saturation count) is queued
// onto a batched writer the same way the teacher batches request_details.
// Unlike storage/sqlite.go's Query/Count, every statement here uses
// parameterized placeholders — the teacher's raw fmt.Sprintf WHERE-clause
// concatenation is not reproduced.
package store

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kamalyes/go-toolbox/pkg/idgen"
	"github.com/kamalyes/go-toolbox/pkg/syncx"

	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/logging"
)

// resultWrite is one audit row queued for the batched writer.
type resultWrite struct {
	jobID     string
	layout    string
	score     float64
	nodeID    string
	accepted  bool
	createdAt time.Time
}

// Store is the Hive's persistent backing store.
type Store struct {
	db     *sql.DB
	log    logging.ILogger
	idGen  *idgen.SnowflakeGenerator
	closed *syncx.Bool

	writeChan chan resultWrite
	batchSize int
	wg        sync.WaitGroup
	dropCount *syncx.Uint64
}

// Open creates/migrates the SQLite database at path and starts the batched
// audit writer, mirroring storage/sqlite.go's WAL pragma set and
// single-writer connection pool sizing (SQLite allows exactly one writer).
func Open(path string, log logging.ILogger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errs.Wrap(errs.StoreTransient, "open sqlite database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA mmap_size=268435456",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.StoreTransient, "apply pragma "+pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.StoreTransient, "apply schema", err)
	}

	if log == nil {
		log = logging.New("HIVE-STORE")
	}

	s := &Store{
		db:        db,
		log:       log,
		idGen:     idgen.NewSnowflakeGenerator(1, 1),
		closed:    syncx.NewBool(false),
		writeChan: make(chan resultWrite, 10000),
		batchSize: 100,
		dropCount: syncx.NewUint64(0),
	}

	s.wg.Add(1)
	go s.batchWriter()

	return s, nil
}

// Close drains the batched writer and closes the database.
func (s *Store) Close() error {
	if !s.closed.CAS(false, true) {
		return nil
	}
	close(s.writeChan)
	s.wg.Wait()
	return s.db.Close()
}

// batchWriter mirrors storage/sqlite.go's batchWriter: drains writeChan into
// a slice, flushed either on reaching batchSize or every second.
func (s *Store) batchWriter() {
	defer s.wg.Done()

	batch := make([]resultWrite, 0, s.batchSize)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.insertAuditBatch(batch); err != nil {
			s.log.ErrorKV("audit batch insert failed", "error", err, "rows", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case w, ok := <-s.writeChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, w)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *Store) insertAuditBatch(batch []resultWrite) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO results(job_id, layout, score, node_id, accepted, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, w := range batch {
		if _, err := stmt.Exec(w.jobID, w.layout, w.score, w.nodeID, boolToInt(w.accepted), w.createdAt.Unix()); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) enqueueAudit(w resultWrite) {
	select {
	case s.writeChan <- w:
	default:
		n := s.dropCount.Add(1)
		if n%100 == 1 {
			s.log.WarnKV("audit write queue full, dropping row", "job_id", w.jobID, "dropped_total", n)
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

