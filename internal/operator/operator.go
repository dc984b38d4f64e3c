// Package operator implements the one-shot control commands issued
// against a supervisor working directory. Every command reads and
// writes the shared directory directly, so it works whether or not a
// supervisor is currently running there.
package operator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/loykin/vigil/internal/channel"
	"github.com/loykin/vigil/internal/counter"
	"github.com/loykin/vigil/internal/probe"
	"github.com/loykin/vigil/internal/workdir"
)

// Commands accepted by Execute, case-insensitive.
const (
	CmdStart      = "start"
	CmdStop       = "stop"
	CmdAbort      = "abort"
	CmdStatus     = "status"
	CmdStatistics = "statistics"
)

// Operator executes one-shot commands against one working directory.
type Operator struct {
	paths  workdir.Paths
	ch     channel.Channel
	prober probe.Prober
}

func New(dir string) *Operator {
	return &Operator{
		paths:  workdir.New(dir),
		ch:     channel.NewFileChannel(dir),
		prober: probe.NewOSProber(nil),
	}
}

// Execute runs one command and returns the user-visible response.
// Rejections are responses, not errors; errors are reserved for I/O
// failures reading or writing the working directory.
func (o *Operator) Execute(cmd string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case CmdStart:
		return o.Start()
	case CmdStop:
		return o.Stop()
	case CmdAbort:
		return o.Abort()
	case CmdStatus:
		return o.Status()
	case CmdStatistics:
		return o.Statistics()
	default:
		return "", fmt.Errorf("unknown command %q (want start, stop, abort, status or statistics)", cmd)
	}
}

// Stop posts a stop request. It is rejected while another stop or
// abort request is pending, with the response telling an in-flight
// transition apart from one already satisfied and latched.
func (o *Operator) Stop() (string, error) {
	if msg, err := o.rejectPending(); msg != "" || err != nil {
		return msg, err
	}
	if err := o.ch.PostStop(); err != nil {
		return "", fmt.Errorf("post stop request: %w", err)
	}
	return "stop requested", nil
}

// Abort posts an abort request, subject to the same pending-request
// check as Stop.
func (o *Operator) Abort() (string, error) {
	if msg, err := o.rejectPending(); msg != "" || err != nil {
		return msg, err
	}
	if err := o.ch.PostAbort(); err != nil {
		return "", fmt.Errorf("post abort request: %w", err)
	}
	return "abort requested", nil
}

// Start re-enables supervision by clearing latched stop and abort
// requests. A PID record still on disk means a stop is in flight; the
// request is rejected rather than queued, and the operator retries.
func (o *Operator) Start() (string, error) {
	if _, _, err := workdir.ReadPIDRecord(o.paths.PID()); err == nil {
		return "rejected: process is still stopping, retry once it is down", nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read pid record: %w", err)
	}
	if err := o.ch.ClearStop(); err != nil {
		return "", fmt.Errorf("clear stop request: %w", err)
	}
	if err := o.ch.ClearAbort(); err != nil {
		return "", fmt.Errorf("clear abort request: %w", err)
	}
	return "start requested", nil
}

// Status derives the lifecycle phase from the request markers, the PID
// record and a live probe, without talking to the supervisor itself.
func (o *Operator) Status() (string, error) {
	phase, pid, err := o.phase()
	if err != nil {
		return "", err
	}
	if pid > 0 {
		return fmt.Sprintf("%s (pid %d)", phase, pid), nil
	}
	return phase, nil
}

func (o *Operator) phase() (string, int, error) {
	stopReq, err := o.ch.StopRequested()
	if err != nil {
		return "", 0, fmt.Errorf("read stop request: %w", err)
	}
	abortReq, err := o.ch.AbortRequested()
	if err != nil {
		return "", 0, fmt.Errorf("read abort request: %w", err)
	}

	pid, startUnix, err := workdir.ReadPIDRecord(o.paths.PID())
	if err != nil {
		if os.IsNotExist(err) {
			return "STOPPED", 0, nil
		}
		return "", 0, fmt.Errorf("read pid record: %w", err)
	}

	switch {
	case abortReq:
		return "ABORTING", pid, nil
	case stopReq:
		return "STOPPING", pid, nil
	}

	if o.alive(pid, startUnix) {
		return "RUNNING", pid, nil
	}
	// Record without a live process and without pending requests: the
	// supervisor restarts it on its next tick.
	return "STARTING", pid, nil
}

func (o *Operator) alive(pid int, startUnix int64) bool {
	if pid <= 0 || o.prober.Probe(pid) != probe.StateRunning {
		return false
	}
	if startUnix > 0 {
		if got := o.prober.StartUnix(pid); got > 0 && got != startUnix {
			return false
		}
	}
	return true
}

// Statistics reports the persisted counters and timestamps. It reads
// last-known values straight from disk, so it also answers when no
// supervisor is running.
func (o *Operator) Statistics() (string, error) {
	set := counter.OpenSet(o.paths.Counters())
	snap, err := set.Snapshot()
	if err != nil {
		return "", fmt.Errorf("read counters: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "manual starts: %d\n", snap[counter.ManualStarts])
	fmt.Fprintf(&b, "auto starts:   %d\n", snap[counter.AutoStarts])
	fmt.Fprintf(&b, "stops:         %d\n", snap[counter.Stops])
	fmt.Fprintf(&b, "aborts:        %d\n", snap[counter.Aborts])

	if t, err := workdir.ReadTimestamp(o.paths.SupStarted()); err == nil {
		fmt.Fprintf(&b, "supervisor started: %s (up %s)\n",
			t.Format(time.RFC3339), time.Since(t).Round(time.Second))
	} else {
		b.WriteString("supervisor started: unknown\n")
	}
	if t, err := workdir.ReadTimestamp(o.paths.ProcStarted()); err == nil {
		fmt.Fprintf(&b, "process started:    %s\n", t.Format(time.RFC3339))
	}
	if pid, _, err := workdir.ReadPIDRecord(o.paths.PID()); err == nil {
		fmt.Fprintf(&b, "last pid:           %d\n", pid)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// rejectPending returns the rejection response when a stop or abort
// request is already pending, or "" when a new request may be posted.
// A pending request with a PID record still on disk is a transition in
// flight; without one the process is already down and the request is
// merely latched, cleared by start.
func (o *Operator) rejectPending() (string, error) {
	stopReq, err := o.ch.StopRequested()
	if err != nil {
		return "", fmt.Errorf("read stop request: %w", err)
	}
	abortReq, err := o.ch.AbortRequested()
	if err != nil {
		return "", fmt.Errorf("read abort request: %w", err)
	}
	if !stopReq && !abortReq {
		return "", nil
	}
	if _, _, err := workdir.ReadPIDRecord(o.paths.PID()); err == nil {
		return "rejected: a stop or abort is already in progress", nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read pid record: %w", err)
	}
	return "rejected: process is already stopped with a request latched (start clears it)", nil
}
