package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreSane(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 256, cfg.Tail.MaxFiles)
}

func TestLoadAppliesYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: DEBUG\ntail:\n  max_files: 10\n  poll_interval: 5s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Tail.MaxFiles)
	assert.Equal(t, 5*time.Second, cfg.Tail.PollInterval)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Tail.MaxFiles, cfg.Tail.MaxFiles)
}
