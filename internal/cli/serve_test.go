package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSecretPrefersEnvVar(t *testing.T) {
	t.Setenv(hiveSecretEnvVar, "")
	assert.Equal(t, "flag-secret", resolveSecret("flag-secret"))

	t.Setenv(hiveSecretEnvVar, "env-secret")
	assert.Equal(t, "env-secret", resolveSecret("flag-secret"))
}

func TestResolveDataDirPrefersEnvVar(t *testing.T) {
	os.Unsetenv(dataDirEnvVar)
	assert.Equal(t, "flag-dir", resolveDataDir("flag-dir"))

	t.Setenv(dataDirEnvVar, "env-dir")
	assert.Equal(t, "env-dir", resolveDataDir("flag-dir"))
}
