package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for supervisor and capture logs.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the supervisor's own log file and the monitored
// process's stdout/stderr capture. Rotation parameters follow
// lumberjack semantics.
type Config struct {
	Path        string `mapstructure:"path"`         // supervisor log file
	CapturePath string `mapstructure:"capture_path"` // child stdout+stderr capture
	Level       string `mapstructure:"level"`        // debug|info|warn|error
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

// New builds the supervisor logger: a rotated text handler on the log
// file plus a colorized handler on stderr. Returns the logger and a
// closer for the file writer.
func (c Config) New() (*slog.Logger, io.Closer) {
	level := parseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}

	// The file handler keeps timestamps; stderr is for a watching
	// operator, so the time attribute is dropped there.
	stderrH := NewColorTextHandler(os.Stderr, opts, false)
	if c.Path == "" {
		return slog.New(stderrH), nopCloser{}
	}

	fileW := &lj.Logger{
		Filename:   c.Path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
	fileH := slog.NewTextHandler(fileW, opts)
	return slog.New(multiHandler{fileH, stderrH}), fileW
}

// CaptureWriter returns the rotated writer for the monitored process's
// combined stdout/stderr, or nil when capture is not configured.
func (c Config) CaptureWriter() io.WriteCloser {
	if c.CapturePath == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   c.CapturePath,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans a record out to every handler.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
