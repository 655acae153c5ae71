package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.BackendURL)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 200*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, time.Second, cfg.ProgressPollInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.PositionUpdateInterval)
	assert.Equal(t, 2*time.Second, cfg.StemPollInterval)
	assert.Equal(t, 1200*time.Millisecond, cfg.StemResultRetryInterval)
	assert.Equal(t, 20, cfg.StemResultRetryCount)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OFFTUNE_BACKEND_URL", "http://music.local:9000")
	t.Setenv("OFFTUNE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://music.local:9000", cfg.BackendURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "backend_url: http://from-file:4000\nstem_result_retry_count: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "offtune.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:4000", cfg.BackendURL)
	assert.Equal(t, 5, cfg.StemResultRetryCount)
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := Config{DataDir: "/data/offtune"}
	assert.Equal(t, filepath.Join("/data/offtune", "catalog.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/data/offtune", "media"), cfg.MediaDir())
}
