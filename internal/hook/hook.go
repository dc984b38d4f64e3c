//go:build !windows

// Package hook fires optional operator-provided executables on state
// transitions. Hooks are fire-and-forget: the supervisor never waits
// for them and their absence or failure is not an error.
package hook

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Hooks is the capability the supervisor loop uses after a transition.
type Hooks interface {
	// Fire launches the hook bound to the given state name, if any.
	Fire(state string)
}

// NopHooks is the null default.
type NopHooks struct{}

func (NopHooks) Fire(string) {}

// DirHooks binds state names to executables in a hooks directory:
// <dir>/<state> is launched detached when the transition completes.
type DirHooks struct {
	dir    string
	logger *slog.Logger
}

func NewDirHooks(dir string, logger *slog.Logger) *DirHooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirHooks{dir: dir, logger: logger}
}

func (h *DirHooks) Fire(state string) {
	path := filepath.Join(h.dir, state)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if info.Mode().Perm()&0o111 == 0 {
		return
	}

	cmd := exec.Command(path)
	// Own process group so the hook outlives supervisor ticks and never
	// receives our signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		h.logger.Warn("hook failed to start", "state", state, "path", path, "error", err)
		return
	}
	h.logger.Info("hook fired", "state", state, "path", path, "pid", cmd.Process.Pid)
	// Reap in the background so the hook does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
}
