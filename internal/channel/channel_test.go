package channel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileChannelPostStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	c := NewFileChannel(dir)

	if err := c.PostStop(); err != nil {
		t.Fatalf("first post: %v", err)
	}
	// Second post must observe the existing marker and succeed.
	if err := c.PostStop(); err != nil {
		t.Fatalf("second post: %v", err)
	}
	ok, err := c.StopRequested()
	if err != nil || !ok {
		t.Fatalf("expected stop requested, got %v err=%v", ok, err)
	}
}

func TestFileChannelClearMissingMarker(t *testing.T) {
	c := NewFileChannel(t.TempDir())
	if err := c.ClearStop(); err != nil {
		t.Fatalf("clearing absent marker should not fail: %v", err)
	}
	if err := c.ClearAbort(); err != nil {
		t.Fatalf("clearing absent marker should not fail: %v", err)
	}
}

func TestFileChannelAbortEscalatesToStop(t *testing.T) {
	dir := t.TempDir()
	c := NewFileChannel(dir)

	if err := c.PostAbort(); err != nil {
		t.Fatalf("post abort: %v", err)
	}
	if err := c.ClearAbortEscalateToStop(); err != nil {
		t.Fatalf("escalate: %v", err)
	}

	stop, _ := c.StopRequested()
	abort, _ := c.AbortRequested()
	if !stop {
		t.Fatalf("expected stop marker after escalation")
	}
	if abort {
		t.Fatalf("expected abort marker cleared after escalation")
	}

	// The marker is an ordinary file the operator CLI can see.
	if _, err := os.Stat(filepath.Join(dir, StopMarkerName)); err != nil {
		t.Fatalf("stop marker file missing: %v", err)
	}
}

func TestFileChannelEscalateWithStopAlreadySet(t *testing.T) {
	c := NewFileChannel(t.TempDir())
	if err := c.PostStop(); err != nil {
		t.Fatalf("post stop: %v", err)
	}
	if err := c.PostAbort(); err != nil {
		t.Fatalf("post abort: %v", err)
	}
	if err := c.ClearAbortEscalateToStop(); err != nil {
		t.Fatalf("escalate with stop already set: %v", err)
	}
	stop, _ := c.StopRequested()
	abort, _ := c.AbortRequested()
	if !stop || abort {
		t.Fatalf("want stop=true abort=false, got stop=%v abort=%v", stop, abort)
	}
}

func TestMemChannelMatchesFileSemantics(t *testing.T) {
	impls := map[string]Channel{
		"mem":  NewMemChannel(),
		"file": NewFileChannel(t.TempDir()),
	}
	for name, c := range impls {
		t.Run(name, func(t *testing.T) {
			if err := c.PostAbort(); err != nil {
				t.Fatalf("post abort: %v", err)
			}
			if err := c.PostAbort(); err != nil {
				t.Fatalf("repost abort: %v", err)
			}
			if err := c.ClearAbortEscalateToStop(); err != nil {
				t.Fatalf("escalate: %v", err)
			}
			stop, _ := c.StopRequested()
			abort, _ := c.AbortRequested()
			if !stop || abort {
				t.Fatalf("want stop=true abort=false, got stop=%v abort=%v", stop, abort)
			}
			if err := c.ClearStop(); err != nil {
				t.Fatalf("clear stop: %v", err)
			}
			stop, _ = c.StopRequested()
			if stop {
				t.Fatalf("stop marker survived ClearStop")
			}
		})
	}
}
