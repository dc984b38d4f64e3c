package workdir

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PIDMeta is the second line of the PID record. The recorded start
// time lets readers distinguish the monitored process from an
// unrelated one that recycled its PID.
type PIDMeta struct {
	StartUnix int64 `json:"start_unix"`
}

// WritePIDRecord persists the monitored PID atomically: first line is
// the PID, second line is the JSON meta.
func WritePIDRecord(path string, pid int, startUnix int64) error {
	meta, err := json.Marshal(PIDMeta{StartUnix: startUnix})
	if err != nil {
		return err
	}
	body := strconv.Itoa(pid) + "\n" + string(meta) + "\n"
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write pid record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit pid record: %w", err)
	}
	return nil
}

// ReadPIDRecord parses a PID record. Legacy single-line records (PID
// only) yield a zero start time. A missing file returns os.ErrNotExist.
func ReadPIDRecord(path string) (int, int64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	pidLine, rest, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(pidLine))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	var meta PIDMeta
	if rest = strings.TrimSpace(rest); rest != "" {
		// Best effort; a record without parseable meta is still a PID.
		_ = json.Unmarshal([]byte(rest), &meta)
	}
	return pid, meta.StartUnix, nil
}

// RemovePIDRecord is best-effort.
func RemovePIDRecord(path string) {
	_ = os.Remove(path)
}

// WriteTimestamp persists t as RFC3339.
func WriteTimestamp(path string, t time.Time) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(t.Format(time.RFC3339)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write timestamp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit timestamp: %w", err)
	}
	return nil
}

// ReadTimestamp parses a timestamp file written by WriteTimestamp.
func ReadTimestamp(path string) (time.Time, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, strings.TrimSpace(string(b)))
}
