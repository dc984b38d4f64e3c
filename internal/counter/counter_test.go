package counter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIncAndGet(t *testing.T) {
	s, err := NewSet(t.TempDir())
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if v, err := s.Inc(ManualStarts); err != nil || v != 1 {
		t.Fatalf("first inc: v=%d err=%v", v, err)
	}
	if v, err := s.Inc(ManualStarts); err != nil || v != 2 {
		t.Fatalf("second inc: v=%d err=%v", v, err)
	}
	if v, _ := s.Get(AutoStarts); v != 0 {
		t.Fatalf("untouched counter should be 0, got %d", v)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSet(dir)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Inc(Stops); err != nil {
			t.Fatalf("inc: %v", err)
		}
	}

	// A separate invocation reads the persisted values.
	reopened := OpenSet(dir)
	v, err := reopened.Get(Stops)
	if err != nil || v != 3 {
		t.Fatalf("reopened value: v=%d err=%v", v, err)
	}
}

func TestResetZeroesAll(t *testing.T) {
	s, err := NewSet(t.TempDir())
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	_, _ = s.Inc(ManualStarts)
	_, _ = s.Inc(AutoStarts)
	_, _ = s.Inc(Aborts)
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for k, v := range snap {
		if v != 0 {
			t.Fatalf("counter %s not zeroed: %d", k, v)
		}
	}
}

func TestMissingDirReadsZero(t *testing.T) {
	s := OpenSet(filepath.Join(t.TempDir(), "never-created"))
	v, err := s.Get(Aborts)
	if err != nil || v != 0 {
		t.Fatalf("missing dir: v=%d err=%v", v, err)
	}
}

func TestCorruptCounterIsAnError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSet(dir)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(Stops)), []byte("not a number"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Get(Stops); err == nil {
		t.Fatalf("expected error for corrupt counter")
	}
}
