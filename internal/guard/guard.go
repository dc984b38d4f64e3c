//go:build !windows

// Package guard enforces one supervisor instance per working
// directory. The lock record is liveness-checked: a recorded PID only
// blocks acquisition when a live process with that PID still looks
// like a supervisor executable, so PID reuse by an unrelated process
// reclaims the record silently.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

var (
	// ErrAlreadyRunning means a live competing supervisor owns the directory.
	ErrAlreadyRunning = errors.New("supervisor already running in this directory")
	// ErrCorruptRecord means the lock record exists but cannot be read.
	// This is a CRITICAL condition: the caller must exit.
	ErrCorruptRecord = errors.New("unreadable singleton lock record")
)

// Guard owns the singleton lock for one working directory.
type Guard struct {
	path string
	fl   *flock.Flock
}

func New(path string) *Guard {
	return &Guard{path: path, fl: flock.New(path)}
}

// Acquire takes the directory lock or fails with ErrAlreadyRunning.
// A stale record (dead PID, or PID reused by an unrelated executable)
// is overwritten with the current PID.
func (g *Guard) Acquire() error {
	locked, err := g.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", g.path, err)
	}
	if !locked {
		// A live process holds the flock right now.
		return ErrAlreadyRunning
	}

	ownerPid, exists, err := g.readRecord()
	if err != nil {
		_ = g.fl.Unlock()
		return err
	}
	if exists && ownerPid != os.Getpid() && supervisorAlive(ownerPid) {
		_ = g.fl.Unlock()
		return ErrAlreadyRunning
	}

	if err := g.writeRecord(); err != nil {
		_ = g.fl.Unlock()
		return err
	}
	return nil
}

// Release drops the flock. The record file stays behind; the next
// acquisition classifies it as stale.
func (g *Guard) Release() error {
	return g.fl.Unlock()
}

// readRecord parses the owner PID from the record file, reporting
// whether a record existed at all.
func (g *Guard) readRecord() (int, bool, error) {
	b, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	// flock creates the file empty before the first record is written;
	// a zero-length file is "no record yet", not corruption.
	if len(b) == 0 {
		return 0, false, nil
	}
	line, _, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("%w: bad pid %q in %s", ErrCorruptRecord, line, g.path)
	}
	return pid, true, nil
}

// writeRecord rewrites the record in place. The inode must not change
// or the held flock would no longer cover the record file.
func (g *Guard) writeRecord() error {
	f, err := os.OpenFile(g.path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("write lock record %s: %w", g.path, err)
	}
	defer func() { _ = f.Close() }()
	_, err = fmt.Fprintf(f, "%d\n%s\n", os.Getpid(), selfExeName())
	if err != nil {
		return fmt.Errorf("write lock record %s: %w", g.path, err)
	}
	return nil
}

// supervisorAlive reports whether pid is a live process whose
// executable identity matches our own, i.e. a real competing
// supervisor rather than a recycled PID.
func supervisorAlive(pid int) bool {
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	name, err := p.Name()
	if err != nil {
		return false
	}
	return name == selfExeName()
}

func selfExeName() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}
	return filepath.Base(exe)
}
