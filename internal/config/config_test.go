package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Capture.CursorVisible)
	assert.True(t, cfg.Capture.Crop)
	assert.Zero(t, cfg.Capture.FPS)
	assert.Empty(t, cfg.Capture.RestoreFile)
	assert.Equal(t, 500*time.Millisecond, cfg.Capture.GrabTimeout)
	assert.Equal(t, 3, cfg.Capture.PoolSize)
	assert.Equal(t, 3, cfg.Capture.QueueSize)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
capture:
  cursor_visible: true
  crop: false
  fps: 60
  grab_timeout: 250ms
  pool_size: 8
logging:
  level: debug
  format: json
metrics:
  enabled: true
  addr: ":9100"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Capture.CursorVisible)
	assert.False(t, cfg.Capture.Crop)
	assert.Equal(t, 60, cfg.Capture.FPS)
	assert.Equal(t, 250*time.Millisecond, cfg.Capture.GrabTimeout)
	assert.Equal(t, 8, cfg.Capture.PoolSize)
	assert.Equal(t, 3, cfg.Capture.QueueSize, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PWCAPTURE_CAPTURE_FPS", "25")
	t.Setenv("PWCAPTURE_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Capture.FPS)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative fps", func(c *Config) { c.Capture.FPS = -1 }},
		{"zero grab timeout", func(c *Config) { c.Capture.GrabTimeout = 0 }},
		{"zero pool size", func(c *Config) { c.Capture.PoolSize = 0 }},
		{"zero queue size", func(c *Config) { c.Capture.QueueSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
