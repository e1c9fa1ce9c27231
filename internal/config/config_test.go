package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedstats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, trace.ShardByCore, cfg.ShardType())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "print_every: 250\nverbose: 2\nlog_format: json\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{PrintEvery: 250, Verbose: 2, ShardBy: "core", LogFormat: "json"}, cfg)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "print_every: 250\nshard_by: core\n")
	t.Setenv("SCHEDSTATS_PRINT_EVERY", "7")
	t.Setenv("SCHEDSTATS_SHARD_BY", "thread")
	t.Setenv("SCHEDSTATS_VERBOSE", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.PrintEvery)
	assert.Equal(t, trace.ShardByThread, cfg.ShardType())
	assert.Equal(t, 3, cfg.Verbose)
}

func TestEnvRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("SCHEDSTATS_PRINT_EVERY", "-5")
	t.Setenv("SCHEDSTATS_VERBOSE", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorContains(t, err, `invalid SCHEDSTATS_PRINT_EVERY "-5"`)
	assert.ErrorContains(t, err, `invalid SCHEDSTATS_VERBOSE "not-a-number"`)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "print_every: [1, 2]\n"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeFile(t, "shard_by: serial\nlog_format: xml\nverbose: -1\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown shard_by "serial"`)
	assert.ErrorContains(t, err, `unknown log_format "xml"`)
	assert.ErrorContains(t, err, "verbose must not be negative")
}
