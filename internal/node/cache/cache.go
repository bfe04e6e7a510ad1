// Package cache is the Node's local content-addressed store for data files
// fetched from the Hive (spec §4.6: "ensure the data files referenced by
// the job are present locally by sha256"). Grounded on teacher's
// statistics/badger.go embedded-KV usage, trimmed from that file's
// batched-write/query/GC machinery (built for high-volume request-detail
// logging) down to the much smaller surface a Node actually needs: a
// write-once, read-many cache keyed by content hash.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dgraph-io/badger/v4"

	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/logging"
)

// Cache is a sha256-keyed local store of data-file contents.
type Cache struct {
	db  *badger.DB
	log logging.ILogger
}

// Open opens (creating if absent) a Badger-backed cache at dir.
func Open(dir string, log logging.ILogger) (*Cache, error) {
	if log == nil {
		log = logging.New("NODE-CACHE")
	}
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.WARNING).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithSyncWrites(false)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.Wrap(errs.StoreTransient, "open node cache", err)
	}
	return &Cache{db: db, log: log}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Sum returns the content's sha256 hex digest, the key this cache stores
// data files under.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Has reports whether content matching sha256 is already cached, so the
// Node's data-sync step can skip a redundant fetch_data call.
func (c *Cache) Has(sha256Hex string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(sha256Hex))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.StoreTransient, "cache lookup", err)
	}
	return true, nil
}

// Get returns the cached bytes for sha256Hex, or ok=false if absent.
func (c *Cache) Get(sha256Hex string) (data []byte, ok bool, err error) {
	err = c.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(sha256Hex))
		if e == badger.ErrKeyNotFound {
			return nil
		}
		if e != nil {
			return e
		}
		ok = true
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, errs.Wrap(errs.StoreTransient, "cache get", err)
	}
	return data, ok, nil
}

// Put stores data under its own sha256 digest, returning that digest.
func (c *Cache) Put(data []byte) (sha256Hex string, err error) {
	sum := Sum(data)
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sum), data)
	})
	if err != nil {
		return "", errs.Wrap(errs.StoreTransient, "cache put", err)
	}
	return sum, nil
}

// RunGC reclaims space in the value log, meant to run on a slow periodic
// tick (teacher's badger.go runs this every 5 minutes; the Node's data
// footprint is much smaller, so callers may space it out further).
func (c *Cache) RunGC(ratio float64) {
	for {
		if err := c.db.RunValueLogGC(ratio); err != nil {
			if err != badger.ErrNoRewrite {
				c.log.WarnKV("node cache gc warning", "error", err)
			}
			return
		}
	}
}
