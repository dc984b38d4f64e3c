//go:build !windows

package probe

import (
	"errors"
	"log/slog"
	"syscall"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// State classifies a probed PID. There are only two terminal answers:
// the process is observably alive, or it is gone. A missing process
// table entry is the normal "exited" signal, never an error.
type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// Prober answers liveness questions about arbitrary PIDs.
type Prober interface {
	// Probe classifies pid as Running or Stopped.
	Probe(pid int) State
	// StartUnix returns the process start time as Unix seconds, or 0
	// when unavailable. Used to detect PID reuse.
	StartUnix(pid int) int64
}

// OSProber probes the real OS process table.
type OSProber struct {
	logger *slog.Logger
}

func NewOSProber(logger *slog.Logger) *OSProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &OSProber{logger: logger}
}

func (p *OSProber) Probe(pid int) State {
	if pid <= 0 {
		return StateStopped
	}
	proc, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return StateStopped
	}
	statuses, err := proc.Status()
	if err != nil {
		// gopsutil could not read the state; fall back to signal 0.
		// EPERM means the process exists but is owned by someone else.
		kerr := syscall.Kill(pid, 0)
		if kerr == nil || errors.Is(kerr, syscall.EPERM) {
			return StateRunning
		}
		return StateStopped
	}
	for _, st := range statuses {
		switch st {
		case gopsproc.Zombie:
			// Exited but unreaped: treat as gone.
			return StateStopped
		case gopsproc.Stop:
			// Suspended by a signal, not exited. The process is alive
			// and is not auto-restarted; the operator decides.
			p.logger.Warn("monitored process is suspended", "pid", pid)
			return StateRunning
		}
	}
	return StateRunning
}

func (p *OSProber) StartUnix(pid int) int64 {
	return getProcStartUnix(pid)
}
