package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vigil.log")
	cfg := Config{Path: path, Level: "info"}

	log, closer := cfg.New()
	log.Info("supervisor started", "dir", dir)
	_ = closer.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "supervisor started") {
		t.Fatalf("log file missing message: %q", string(b))
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vigil.log")
	cfg := Config{Path: path, Level: "warn"}

	log, closer := cfg.New()
	log.Info("should be filtered")
	log.Warn("should appear")
	_ = closer.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "should be filtered") {
		t.Fatalf("info record leaked through warn level: %q", s)
	}
	if !strings.Contains(s, "should appear") {
		t.Fatalf("warn record missing: %q", s)
	}
}

func TestCaptureWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supervised.out.log")
	cfg := Config{CapturePath: path}

	w := cfg.CaptureWriter()
	if w == nil {
		t.Fatalf("expected capture writer")
	}
	if _, err := w.Write([]byte("child output\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if string(b) != "child output\n" {
		t.Fatalf("capture content = %q", string(b))
	}
}

func TestCaptureWriterUnconfigured(t *testing.T) {
	if w := (Config{}).CaptureWriter(); w != nil {
		t.Fatalf("expected nil writer without capture path")
	}
}

func handleRecord(t *testing.T, h *ColorTextHandler, level slog.Level, msg string) {
	t.Helper()
	r := slog.NewRecord(time.Now(), level, msg, 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestColorTextHandlerLevelPrefix(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, nil, true)

	handleRecord(t, h, slog.LevelWarn, "stop not yet confirmed")
	out := buf.String()
	if !strings.Contains(out, ansiYellow+"WARN"+ansiReset) {
		t.Fatalf("warn record missing colored level: %q", out)
	}

	buf.Reset()
	handleRecord(t, h, slog.LevelError, "launch failed")
	if out := buf.String(); !strings.Contains(out, ansiRed+"ERROR"+ansiReset) {
		t.Fatalf("error record missing colored level: %q", out)
	}
}

func TestColorTextHandlerTimeSuppression(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, nil, false)
	handleRecord(t, h, slog.LevelInfo, "state changed")
	if out := buf.String(); strings.Contains(out, "time=") {
		t.Fatalf("time attribute kept with showTime false: %q", out)
	}

	buf.Reset()
	h = NewColorTextHandler(&buf, nil, true)
	handleRecord(t, h, slog.LevelInfo, "state changed")
	if out := buf.String(); !strings.Contains(out, "time=") {
		t.Fatalf("time attribute missing with showTime true: %q", out)
	}
}
