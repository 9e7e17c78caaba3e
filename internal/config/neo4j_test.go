package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearNeo4jEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE", "NEO4J_TIMEOUT", "NEO4J_MAX_POOL_SIZE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadNeo4j_Defaults(t *testing.T) {
	clearNeo4jEnv(t)

	n, err := LoadNeo4j()
	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", n.URI)
	assert.Equal(t, "neo4j", n.User)
	assert.Equal(t, "neo4j", n.Database)
	assert.Equal(t, 10*time.Second, n.Timeout)
	assert.Equal(t, 50, n.MaxPoolSize)
}

func TestLoadNeo4j_EnvFileAndOverride(t *testing.T) {
	clearNeo4jEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"NEO4J_URI=neo4j://graph:7687\nNEO4J_PASSWORD=secret\nNEO4J_DATABASE=companies\n"), 0o600))

	// Process environment wins over the file.
	t.Setenv("NEO4J_DATABASE", "override")

	n, err := LoadNeo4j(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "neo4j://graph:7687", n.URI)
	assert.Equal(t, "secret", n.Password)
	assert.Equal(t, "override", n.Database)
}

func TestLoadNeo4j_Invalid(t *testing.T) {
	clearNeo4jEnv(t)
	t.Setenv("NEO4J_MAX_POOL_SIZE", "0")

	_, err := LoadNeo4j()
	assert.ErrorContains(t, err, "NEO4J_MAX_POOL_SIZE")

	t.Setenv("NEO4J_MAX_POOL_SIZE", "ten")
	_, err = LoadNeo4j()
	assert.ErrorContains(t, err, "parse neo4j env")
}

func TestLoadEnv_NoFiles(t *testing.T) {
	n, err := LoadEnv([]string{filepath.Join(t.TempDir(), "nope.env")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
