// Package config loads the tool configuration from a YAML file, the
// environment and defaults, in that order of increasing precedence for env
// over file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go2tv.app/pwcapture/internal/logging"
)

type Config struct {
	Capture CaptureConfig  `mapstructure:"capture"`
	Logging logging.Config `mapstructure:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

type CaptureConfig struct {
	// CursorVisible embeds the cursor into captured frames.
	CursorVisible bool `mapstructure:"cursor_visible"`
	// Crop honors the source's crop metadata when capturing a window.
	Crop bool `mapstructure:"crop"`
	// FPS is a preferred framerate hint passed to the source, which may
	// ignore it. 0 means no preference.
	FPS int `mapstructure:"fps"`
	// RestoreFile stores the portal restore token between runs. Empty
	// disables persistence and always shows the picker dialog.
	RestoreFile string `mapstructure:"restore_file"`

	GrabTimeout time.Duration `mapstructure:"grab_timeout"`
	PoolSize    int           `mapstructure:"pool_size"`
	QueueSize   int           `mapstructure:"queue_size"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configPath (optional) plus PWCAPTURE_* environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PWCAPTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.cursor_visible", false)
	v.SetDefault("capture.crop", true)
	v.SetDefault("capture.fps", 0)
	v.SetDefault("capture.restore_file", "")
	v.SetDefault("capture.grab_timeout", "500ms")
	v.SetDefault("capture.pool_size", 3)
	v.SetDefault("capture.queue_size", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Capture.FPS < 0 {
		return fmt.Errorf("capture.fps must be >= 0, got %d", c.Capture.FPS)
	}
	if c.Capture.GrabTimeout <= 0 {
		return fmt.Errorf("capture.grab_timeout must be positive, got %s", c.Capture.GrabTimeout)
	}
	if c.Capture.PoolSize < 1 {
		return fmt.Errorf("capture.pool_size must be >= 1, got %d", c.Capture.PoolSize)
	}
	if c.Capture.QueueSize < 1 {
		return fmt.Errorf("capture.queue_size must be >= 1, got %d", c.Capture.QueueSize)
	}
	return nil
}
