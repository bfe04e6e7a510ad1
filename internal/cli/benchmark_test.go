package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infodungeon/keyforge/internal/logging"
)

func TestBenchmarkSucceedsOnDefaultIterations(t *testing.T) {
	log := logging.New("TEST")
	code := Benchmark([]string{"--iterations", "25"}, log)
	assert.Equal(t, ExitSuccess, code)
}

func TestBenchmarkJSONSucceeds(t *testing.T) {
	log := logging.New("TEST")
	code := Benchmark([]string{"--iterations", "10", "--json"}, log)
	assert.Equal(t, ExitSuccess, code)
}

func TestBenchmarkRejectsNonPositiveIterations(t *testing.T) {
	log := logging.New("TEST")
	code := Benchmark([]string{"--iterations", "0"}, log)
	assert.Equal(t, ExitUserInput, code)
}

func TestBenchmarkRejectsUnknownFlag(t *testing.T) {
	log := logging.New("TEST")
	code := Benchmark([]string{"--not-a-flag"}, log)
	assert.Equal(t, ExitUserInput, code)
}
