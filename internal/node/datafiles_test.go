package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDataFileThenFileExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeDataFile(dir, "corpora/english.1grams.tsv", []byte("the\t100\n")))

	assert.True(t, fileExists(dir, "corpora/english.1grams.tsv"))

	data, err := os.ReadFile(filepath.Join(dir, "corpora", "english.1grams.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "the\t100\n", string(data))
}

func TestResolveInDataDirRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	_, err := resolveInDataDir(dir, "../../etc/passwd")
	assert.Error(t, err)

	_, err = resolveInDataDir(dir, "keyboards/../../etc/passwd")
	assert.Error(t, err)

	_, err = resolveInDataDir(dir, "keyboards/corne.json")
	assert.NoError(t, err)
}
