//go:build !windows

package vigil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Dir != dir {
		t.Fatalf("dir = %q", cfg.Dir)
	}
	if cfg.PollInterval <= 0 || cfg.StopGrace <= 0 {
		t.Fatal("defaults not applied")
	}
}

func TestNewSupervisorNeedsCommand(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewSupervisor(cfg); err == nil {
		t.Fatal("expected error without a command file")
	}
}

func TestControlRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "command"), []byte("sleep 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := Control(dir, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out != "STOPPED" {
		t.Fatalf("status = %q, want STOPPED", out)
	}

	if out, err = Control(dir, "stop"); err != nil || out != "stop requested" {
		t.Fatalf("stop = %q, %v", out, err)
	}
	if out, err = Control(dir, "statistics"); err != nil || !strings.Contains(out, "manual starts: 0") {
		t.Fatalf("statistics = %q, %v", out, err)
	}
}

func TestStateStrings(t *testing.T) {
	if StateRunning.String() != "running" || StateAborting.String() != "aborting" {
		t.Fatal("state names changed")
	}
}
