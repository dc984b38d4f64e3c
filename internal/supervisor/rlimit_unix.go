//go:build !windows

package supervisor

import (
	"log/slog"
	"syscall"
)

// clampedCore computes the RLIMIT_CORE value to apply for a core-dump
// ceiling. The soft limit is never raised and never exceeds the hard
// limit; an infinite limit is just a value no finite ceiling can be
// below, so no platform-specific RLIM_INFINITY check is needed.
func clampedCore(cur syscall.Rlimit, limit uint64) (syscall.Rlimit, bool) {
	if cur.Cur <= limit {
		return cur, false
	}
	want := syscall.Rlimit{Cur: limit, Max: cur.Max}
	if want.Max < limit {
		want.Cur = want.Max
	}
	return want, true
}

// clampCoreLimit lowers RLIMIT_CORE for the supervisor process so a crashing
// child does not fill the disk with core dumps. The limit is inherited by
// spawned children. A limit of zero leaves the system default untouched.
func clampCoreLimit(limit uint64, logger *slog.Logger) {
	if limit == 0 {
		return
	}
	var cur syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_CORE, &cur); err != nil {
		logger.Warn("read core rlimit failed", "error", err)
		return
	}
	want, changed := clampedCore(cur, limit)
	if !changed {
		return
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_CORE, &want); err != nil {
		logger.Warn("clamp core rlimit failed", "error", err, "limit", limit)
		return
	}
	logger.Info("core dump size clamped", "bytes", want.Cur)
}
