package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Fatalf("poll interval = %v, want %v", cfg.PollInterval, DefaultPollInterval)
	}
	if cfg.StopSignal != DefaultStopSignal || cfg.AbortSignal != DefaultAbortSignal {
		t.Fatalf("signals = %s/%s", cfg.StopSignal, cfg.AbortSignal)
	}
	if cfg.HistoryDSN != filepath.Join(dir, "history.db") {
		t.Fatalf("history dsn = %s", cfg.HistoryDSN)
	}
	if cfg.Log.Path != filepath.Join(dir, "vigil.log") {
		t.Fatalf("log path = %s", cfg.Log.Path)
	}
}

func TestLoadOverridesFromTOML(t *testing.T) {
	dir := t.TempDir()
	toml := `
poll_interval = "250ms"
stop_grace = "5s"
stop_signal = "SIGINT"
kill_after_retries = 0
metrics_listen = "127.0.0.1:9109"
history_dsn = "sqlite://:memory:"

[log]
level = "debug"
max_backups = 9
`
	if err := os.WriteFile(filepath.Join(dir, "vigil.toml"), []byte(toml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.StopGrace != 5*time.Second {
		t.Fatalf("stop grace = %v", cfg.StopGrace)
	}
	if cfg.StopSignal != "SIGINT" {
		t.Fatalf("stop signal = %s", cfg.StopSignal)
	}
	if cfg.KillAfterRetries != 0 {
		t.Fatalf("kill after retries = %d", cfg.KillAfterRetries)
	}
	if cfg.MetricsListen != "127.0.0.1:9109" {
		t.Fatalf("metrics listen = %s", cfg.MetricsListen)
	}
	if cfg.HistoryDSN != "sqlite://:memory:" {
		t.Fatalf("history dsn = %s", cfg.HistoryDSN)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxBackups != 9 {
		t.Fatalf("log config = %+v", cfg.Log)
	}
}

func TestLoadMissingDirectoryFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing working directory")
	}
}

func TestLoadRejectsFileAsDirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "plainfile")
	if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(f); err == nil {
		t.Fatalf("expected error when dir is a plain file")
	}
}
