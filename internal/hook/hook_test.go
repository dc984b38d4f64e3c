//go:build !windows

package hook

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitUntil(timeout, step time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(step)
	}
	return false
}

func TestDirHooksFiresExecutable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "fired")
	script := "#!/bin/sh\necho hi > " + out + "\n"
	if err := os.WriteFile(filepath.Join(dir, "stopping"), []byte(script), 0o755); err != nil {
		t.Fatalf("write hook: %v", err)
	}

	h := NewDirHooks(dir, nil)
	h.Fire("stopping")

	ok := waitUntil(2*time.Second, 20*time.Millisecond, func() bool {
		_, err := os.Stat(out)
		return err == nil
	})
	if !ok {
		t.Fatalf("hook did not run")
	}
}

func TestDirHooksMissingHookIsSilent(t *testing.T) {
	h := NewDirHooks(t.TempDir(), nil)
	// Must not panic or block.
	h.Fire("running")
}

func TestDirHooksNonExecutableIsSkipped(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "fired")
	script := "#!/bin/sh\necho hi > " + out + "\n"
	if err := os.WriteFile(filepath.Join(dir, "running"), []byte(script), 0o644); err != nil {
		t.Fatalf("write hook: %v", err)
	}

	h := NewDirHooks(dir, nil)
	h.Fire("running")

	time.Sleep(150 * time.Millisecond)
	if _, err := os.Stat(out); err == nil {
		t.Fatalf("non-executable hook must not run")
	}
}

func TestDirHooksFailingHookDoesNotBlock(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aborting"), []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write hook: %v", err)
	}
	h := NewDirHooks(dir, nil)

	done := make(chan struct{})
	go func() {
		h.Fire("aborting")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Fire blocked on a failing hook")
	}
}
