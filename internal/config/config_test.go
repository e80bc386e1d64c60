package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverlaysPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holonengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spaceId: prod\nbindAddr: 127.0.0.1:9000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.SpaceID)
	assert.Equal(t, "127.0.0.1:9000", cfg.BindAddr)
	// Untouched fields keep their Default() value.
	assert.Equal(t, Default().DataDir, cfg.DataDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	cfg := Default()
	cfg.SpaceID = ""
	assert.Error(t, cfg.Validate())
}

func TestLogLevelValueFallsBackToInfo(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "nonsense"
	assert.Equal(t, "info", string(cfg.LogLevelValue()))
}
