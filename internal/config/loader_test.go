package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Sampling.FrameInterval)
	assert.Equal(t, 800*time.Millisecond, cfg.Sampling.PollTimeout)
	assert.Equal(t, 300, cfg.Sampling.HistorySize)
	assert.False(t, cfg.Alerts.EnforceDuration)
	assert.Equal(t, "/", cfg.Disk.SpacePath)
	assert.Equal(t, 20, cfg.Processes.TopLimit)
	assert.Equal(t, "localhost:8080", cfg.Server.Address)
	assert.Equal(t, 90*24*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
sampling:
  interval: 2s
  history_size: 600
alerts:
  enforce_duration: true
server:
  address: "0.0.0.0:9100"
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 600, cfg.Sampling.HistorySize)
	assert.True(t, cfg.Alerts.EnforceDuration)
	assert.Equal(t, "0.0.0.0:9100", cfg.Server.Address)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched keys keep defaults
	assert.Equal(t, 100*time.Millisecond, cfg.Sampling.FrameInterval)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/pulse.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
sampling:
  history_size: 120
`)
	t.Setenv("PULSE_SAMPLING_HISTORY_SIZE", "60")
	t.Setenv("PULSE_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Sampling.HistorySize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
sampling:
  history_size: 1
logging:
  level: verbose
`)

	_, err := Load(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("sampling.history_size"))
	assert.True(t, verrs.Has("logging.level"))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, time.Second, cfg.Sampling.Interval)
}
