package hive

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/infodungeon/keyforge/internal/errs"
)

// dataJail resolves and lists files under a single root directory, never
// permitting paths that normalize outside that root (spec §4.5/§6:
// symlinks or ".." escapes are rejected with PathEscape). No example repo
// in the pack carries a chroot/jail library, so this is built on
// path/filepath + os, the stdlib tools the teacher itself reaches for when
// handling file paths (e.g. config/loader.go's os.ReadFile).
type dataJail struct {
	root string
}

func newDataJail(root string) (*dataJail, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrap(errs.Fatal, "resolve data dir", err)
	}
	return &dataJail{root: abs}, nil
}

// resolve canonicalizes a caller-supplied relative path and verifies it
// stays within the jail root after normalization and after following any
// symlinks, matching spec §6's scenario 6 (keyboards/../../etc/passwd is
// rejected, keyboards/corne.json succeeds).
func (j *dataJail) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errs.PathEscape(relPath)
	}

	joined := filepath.Join(j.root, cleaned)
	if !strings.HasPrefix(joined, j.root+string(filepath.Separator)) && joined != j.root {
		return "", errs.PathEscape(relPath)
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return joined, nil
		}
		return "", errs.Wrap(errs.Integrity, "resolve symlinks", err)
	}
	if !strings.HasPrefix(resolved, j.root+string(filepath.Separator)) && resolved != j.root {
		return "", errs.PathEscape(relPath)
	}
	return resolved, nil
}

// fetch reads a jailed file's contents in full.
func (j *dataJail) fetch(relPath string) ([]byte, error) {
	abs, err := j.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.Data, "no such data file: "+relPath)
		}
		return nil, errs.Wrap(errs.StoreTransient, "read data file", err)
	}
	return data, nil
}

// list walks the jail root and returns every regular file's path (relative
// to root), size, and sha256, for sync_data.
func (j *dataJail) list() ([]FileEntry, error) {
	var out []FileEntry
	err := filepath.WalkDir(j.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(j.root, path)
		if rerr != nil {
			return rerr
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		sum, serr := sha256File(path)
		if serr != nil {
			return serr
		}
		out = append(out, FileEntry{
			Path:   filepath.ToSlash(rel),
			Size:   info.Size(),
			SHA256: sum,
		})
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.StoreTransient, "list data files", err)
	}
	return out, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
