// Package config loads the optional per-directory supervisor
// configuration. Everything has a default; a missing vigil.toml is a
// valid deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/vigil/internal/logger"
	"github.com/loykin/vigil/internal/workdir"
)

// Defaults applied when vigil.toml is absent or silent.
const (
	DefaultPollInterval     = 500 * time.Millisecond
	DefaultStartGrace       = 1 * time.Second
	DefaultStopGrace        = 2 * time.Second
	DefaultStopSignal       = "SIGTERM"
	DefaultAbortSignal      = "SIGKILL"
	DefaultKillAfterRetries = 6
	DefaultCoreLimitBytes   = 64 << 20
)

// Config holds everything the supervisor reads at startup.
type Config struct {
	Dir string `mapstructure:"-"` // working directory, from the CLI

	PollInterval time.Duration `mapstructure:"poll_interval"`
	StartGrace   time.Duration `mapstructure:"start_grace"`
	StopGrace    time.Duration `mapstructure:"stop_grace"`

	StopSignal  string `mapstructure:"stop_signal"`
	AbortSignal string `mapstructure:"abort_signal"`

	// KillAfterRetries escalates an unconfirmed stop/abort to SIGKILL
	// after this many ticks. 0 keeps retrying the configured signal
	// forever.
	KillAfterRetries int `mapstructure:"kill_after_retries"`

	CoreLimitBytes uint64 `mapstructure:"core_limit_bytes"`

	MetricsListen string `mapstructure:"metrics_listen"` // empty disables the listener
	HistoryDSN    string `mapstructure:"history_dsn"`    // empty selects <dir>/history.db

	Log logger.Config `mapstructure:"log"`
}

// Load reads <dir>/vigil.toml if present and fills in defaults. The
// directory itself must exist: a missing working directory is an
// unrecoverable precondition.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("working directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %s: not a directory", dir)
	}

	paths := workdir.New(dir)

	v := viper.New()
	v.SetConfigFile(paths.Config())
	v.SetConfigType("toml")

	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("start_grace", DefaultStartGrace)
	v.SetDefault("stop_grace", DefaultStopGrace)
	v.SetDefault("stop_signal", DefaultStopSignal)
	v.SetDefault("abort_signal", DefaultAbortSignal)
	v.SetDefault("kill_after_retries", DefaultKillAfterRetries)
	v.SetDefault("core_limit_bytes", DefaultCoreLimitBytes)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config %s: %w", paths.Config(), err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", paths.Config(), err)
	}
	cfg.Dir = dir

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.StartGrace <= 0 {
		cfg.StartGrace = DefaultStartGrace
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	if cfg.KillAfterRetries < 0 {
		cfg.KillAfterRetries = 0
	}
	if cfg.HistoryDSN == "" {
		cfg.HistoryDSN = paths.History()
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = paths.Log()
	}
	if cfg.Log.CapturePath == "" {
		cfg.Log.CapturePath = paths.Capture()
	}
	return &cfg, nil
}
