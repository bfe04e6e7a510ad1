package node

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/infodungeon/keyforge/internal/errs"
)

// resolveInDataDir mirrors internal/hive's dataJail.resolve: it rejects any
// relative path that normalizes outside dataDir after cleaning, so a
// malicious or buggy sync_data listing can never make the Node write
// outside its own data directory (spec §4.6: "the Node ... never executes
// fetched content" and refuses to write outside its cache directory).
func resolveInDataDir(dataDir, relPath string) (string, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return "", errs.Wrap(errs.Fatal, "resolve node data dir", err)
	}
	cleaned := filepath.Clean(relPath)
	joined := filepath.Join(abs, cleaned)
	if !strings.HasPrefix(joined, abs+string(filepath.Separator)) && joined != abs {
		return "", errs.PathEscape(relPath)
	}
	return joined, nil
}

// writeDataFile writes data to dataDir/relPath, creating parent
// directories as needed, after checking the path stays inside dataDir.
func writeDataFile(dataDir, relPath string, data []byte) error {
	abs, err := resolveInDataDir(dataDir, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errs.Wrap(errs.StoreTransient, "create data subdirectory", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return errs.Wrap(errs.StoreTransient, "write data file", err)
	}
	return nil
}

// fileExists reports whether dataDir/relPath already exists (used to skip
// re-fetching a file this Node already materialized locally).
func fileExists(dataDir, relPath string) bool {
	abs, err := resolveInDataDir(dataDir, relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}
