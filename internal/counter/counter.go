// Package counter persists the supervisor's lifetime counters, one
// small file per counter so a statistics query can read them without a
// running supervisor.
package counter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind names one of the four durable counters.
type Kind string

const (
	ManualStarts Kind = "manual_starts"
	AutoStarts   Kind = "auto_starts"
	Stops        Kind = "stops"
	Aborts       Kind = "aborts"
)

// Kinds lists all counters in reporting order.
var Kinds = []Kind{ManualStarts, AutoStarts, Stops, Aborts}

// Set is a durable set of monotonically increasing counters backed by
// one file per counter under dir. Values survive supervisor restarts;
// the supervisor resets them at each fresh start.
type Set struct {
	dir string
}

func NewSet(dir string) (*Set, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create counter dir: %w", err)
	}
	return &Set{dir: dir}, nil
}

// OpenSet opens an existing counter directory read-only (statistics
// from a separate invocation). Missing directory yields zero values.
func OpenSet(dir string) *Set { return &Set{dir: dir} }

func (s *Set) path(k Kind) string { return filepath.Join(s.dir, string(k)) }

// Get returns the persisted value; a missing file reads as zero.
func (s *Set) Get(k Kind) (uint64, error) {
	b, err := os.ReadFile(s.path(k))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter %s: %w", k, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", k, err)
	}
	return v, nil
}

// Inc increments a counter and persists the new value atomically.
func (s *Set) Inc(k Kind) (uint64, error) {
	v, err := s.Get(k)
	if err != nil {
		return 0, err
	}
	v++
	if err := s.write(k, v); err != nil {
		return 0, err
	}
	return v, nil
}

// Reset zeroes every counter. Called once per supervisor start.
func (s *Set) Reset() error {
	for _, k := range Kinds {
		if err := s.write(k, 0); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot reads all counters in one pass.
func (s *Set) Snapshot() (map[Kind]uint64, error) {
	out := make(map[Kind]uint64, len(Kinds))
	for _, k := range Kinds {
		v, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (s *Set) write(k Kind, v uint64) error {
	tmp := s.path(k) + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(v, 10)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write counter %s: %w", k, err)
	}
	if err := os.Rename(tmp, s.path(k)); err != nil {
		return fmt.Errorf("commit counter %s: %w", k, err)
	}
	return nil
}
