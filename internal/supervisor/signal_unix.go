//go:build !windows

package supervisor

import (
	"fmt"
	"strings"
	"syscall"
)

// ParseSignal maps an operator-facing signal name to a syscall.Signal.
// Names are accepted with or without the SIG prefix, case-insensitive.
func ParseSignal(name string) (syscall.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "SIG")
	switch n {
	case "TERM":
		return syscall.SIGTERM, nil
	case "INT":
		return syscall.SIGINT, nil
	case "QUIT":
		return syscall.SIGQUIT, nil
	case "HUP":
		return syscall.SIGHUP, nil
	case "KILL":
		return syscall.SIGKILL, nil
	case "USR1":
		return syscall.SIGUSR1, nil
	case "USR2":
		return syscall.SIGUSR2, nil
	case "ABRT":
		return syscall.SIGABRT, nil
	default:
		return 0, fmt.Errorf("unknown signal %q", name)
	}
}

// sysProcAttrPG places the child in its own process group so signals
// reach the whole tree it spawns.
func sysProcAttrPG() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to the whole process group of pid. The child is
// started with Setpgid, so -pid addresses it and all of its descendants.
func signalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		// Group may already be gone; fall back to the leader alone.
		return syscall.Kill(pid, sig)
	}
	return nil
}
