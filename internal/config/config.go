// Package config loads application configuration from a file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	// BackendURL is the base URL of the conversion backend.
	BackendURL string `mapstructure:"backend_url"`

	// DataDir is the root directory for the catalog database and media files.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is the log output format (text or json).
	LogFormat string `mapstructure:"log_format"`

	// AcquireTimeout bounds a whole acquisition, polling included.
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`

	// ProgressPollInterval is how often acquisition progress is polled.
	ProgressPollInterval time.Duration `mapstructure:"progress_poll_interval"`

	// PositionUpdateInterval is how often playback position events fire.
	PositionUpdateInterval time.Duration `mapstructure:"position_update_interval"`

	// StemPollInterval is how often a processing stem job is polled.
	StemPollInterval time.Duration `mapstructure:"stem_poll_interval"`

	// StemResultRetryInterval is the wait between result fetch retries.
	StemResultRetryInterval time.Duration `mapstructure:"stem_result_retry_interval"`

	// StemResultRetryCount bounds the result fetch retries.
	StemResultRetryCount int `mapstructure:"stem_result_retry_count"`
}

// DatabasePath returns the catalog database location under DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// MediaDir returns the media root under DataDir.
func (c Config) MediaDir() string {
	return filepath.Join(c.DataDir, "media")
}

// Load reads configuration from (in precedence order) environment
// variables prefixed OFFTUNE_, an optional offtune.yaml config file, and
// built-in defaults. A missing config file is not an error.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("offtune")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "offtune"))
	}

	v.SetEnvPrefix("OFFTUNE")
	v.AutomaticEnv()

	v.SetDefault("backend_url", "http://localhost:3000")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("acquire_timeout", 200*time.Second)
	v.SetDefault("progress_poll_interval", time.Second)
	v.SetDefault("position_update_interval", 250*time.Millisecond)
	v.SetDefault("stem_poll_interval", 2*time.Second)
	v.SetDefault("stem_result_retry_interval", 1200*time.Millisecond)
	v.SetDefault("stem_result_retry_count", 20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".offtune"
	}
	return filepath.Join(home, ".offtune")
}
