//go:build !windows

package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/loykin/vigil/internal/channel"
	"github.com/loykin/vigil/internal/config"
	"github.com/loykin/vigil/internal/counter"
	"github.com/loykin/vigil/internal/guard"
	"github.com/loykin/vigil/internal/history"
	"github.com/loykin/vigil/internal/hook"
	"github.com/loykin/vigil/internal/metrics"
	"github.com/loykin/vigil/internal/probe"
	"github.com/loykin/vigil/internal/workdir"
)

// Options bundles everything Run needs beyond the config. Nil fields
// get working defaults so tests can inject only what they care about.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Prober  probe.Prober
	Channel channel.Channel
	Hooks   hook.Hooks
	History history.Sink
	Capture io.Writer

	// CommandLine overrides the command file when non-empty (tests).
	CommandLine string
}

// Supervisor owns the monitored process for one working directory. All
// state mutation happens on the Run goroutine; cross-goroutine access
// is limited to the snapshot under mu.
type Supervisor struct {
	cfg     *config.Config
	paths   workdir.Paths
	logger  *slog.Logger
	prober  probe.Prober
	ch      channel.Channel
	hooks   hook.Hooks
	sink    history.Sink
	capture io.Writer

	cmdLine    string
	stopSig    syscall.Signal
	abortSig   syscall.Signal
	counters   *counter.Set
	stopsAsked int // consecutive signal deliveries in stopping/aborting

	mu    sync.Mutex
	state State
	pid   int
	start int64 // child start time, unix seconds, for reuse detection

	nudge chan struct{}
}

// New validates opts and prepares a Supervisor. It does not touch the
// process table or the singleton lock; Run does.
func New(opts Options) (*Supervisor, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	paths := workdir.New(cfg.Dir)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmdLine := opts.CommandLine
	if cmdLine == "" {
		var err error
		cmdLine, err = ReadCommandLine(paths.Command())
		if err != nil {
			return nil, fmt.Errorf("read command: %w", err)
		}
	}

	stopSig, err := ParseSignal(cfg.StopSignal)
	if err != nil {
		return nil, fmt.Errorf("stop_signal: %w", err)
	}
	abortSig, err := ParseSignal(cfg.AbortSignal)
	if err != nil {
		return nil, fmt.Errorf("abort_signal: %w", err)
	}

	counters, err := counter.NewSet(paths.Counters())
	if err != nil {
		return nil, fmt.Errorf("counters: %w", err)
	}

	s := &Supervisor{
		cfg:      cfg,
		paths:    paths,
		logger:   logger,
		prober:   opts.Prober,
		ch:       opts.Channel,
		hooks:    opts.Hooks,
		sink:     opts.History,
		capture:  opts.Capture,
		cmdLine:  cmdLine,
		stopSig:  stopSig,
		abortSig: abortSig,
		counters: counters,
		state:    StateStopped,
		nudge:    make(chan struct{}, 1),
	}
	if s.prober == nil {
		s.prober = probe.NewOSProber(logger)
	}
	if s.ch == nil {
		s.ch = channel.NewFileChannel(cfg.Dir)
	}
	if s.hooks == nil {
		s.hooks = hook.NewDirHooks(paths.Hooks(), logger)
	}
	if s.sink == nil {
		s.sink = history.NopSink{}
	}
	return s, nil
}

// Status returns the current state and child PID snapshot.
func (s *Supervisor) Status() (State, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.pid
}

// Run executes the supervision loop until ctx is cancelled. It acquires
// the singleton lock first and holds it for the whole run; a second
// supervisor on the same directory fails fast with ErrAlreadyRunning.
func (s *Supervisor) Run(ctx context.Context) error {
	g := guard.New(s.paths.Lock())
	if err := g.Acquire(); err != nil {
		return fmt.Errorf("singleton guard: %w", err)
	}
	defer func() { _ = g.Release() }()

	clampCoreLimit(s.cfg.CoreLimitBytes, s.logger)

	// Lifetime counters cover this supervisor's run only.
	if err := s.counters.Reset(); err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	if err := workdir.WriteTimestamp(s.paths.SupStarted(), time.Now()); err != nil {
		return fmt.Errorf("record supervisor start: %w", err)
	}

	s.logger.Info("supervisor started",
		"dir", s.cfg.Dir,
		"command", s.cmdLine,
		"poll_interval", s.cfg.PollInterval)

	s.recoverInherited()

	go watchRequests(ctx, s.cfg.Dir, s.nudge, s.logger)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("supervisor shutting down", "state", s.stateNow().String())
			return nil
		case <-ticker.C:
		case <-s.nudge:
		}
	}
}

// recoverInherited adopts a process left behind by a previous
// supervisor run, identified by the on-disk PID record and the start
// time recorded with it.
func (s *Supervisor) recoverInherited() {
	pid, startUnix, err := workdir.ReadPIDRecord(s.paths.PID())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("pid record unreadable, ignoring", "error", err)
		}
		return
	}
	if !s.pidMatches(pid, startUnix) {
		s.logger.Info("stale pid record from previous run", "pid", pid)
		return
	}
	s.mu.Lock()
	s.pid = pid
	s.start = startUnix
	s.mu.Unlock()
	s.setState(StateRunning, pid, "adopted from previous run")
	s.logger.Info("adopted running process", "pid", pid)
}

func (s *Supervisor) stateNow() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// pidMatches reports whether pid is alive and, when a recorded start
// time is available, that it still belongs to the same incarnation.
func (s *Supervisor) pidMatches(pid int, startUnix int64) bool {
	if pid <= 0 {
		return false
	}
	if s.prober.Probe(pid) != probe.StateRunning {
		return false
	}
	if startUnix > 0 {
		if got := s.prober.StartUnix(pid); got > 0 && got != startUnix {
			return false
		}
	}
	return true
}

// tick reconciles observed liveness with pending operator requests.
// One tick performs at most one reconciliation action.
func (s *Supervisor) tick(ctx context.Context) {
	stopReq, err := s.ch.StopRequested()
	if err != nil {
		s.logger.Error("read stop request failed", "error", err)
		return
	}
	abortReq, err := s.ch.AbortRequested()
	if err != nil {
		s.logger.Error("read abort request failed", "error", err)
		return
	}

	s.mu.Lock()
	pid, startUnix := s.pid, s.start
	s.mu.Unlock()

	alive := s.pidMatches(pid, startUnix)

	switch {
	case alive && abortReq:
		s.signalDown(ctx, StateAborting, s.abortSig, pid)
	case alive && stopReq:
		s.signalDown(ctx, StateStopping, s.stopSig, pid)
	case alive:
		if s.stateNow() != StateRunning {
			s.setState(StateRunning, pid, "")
		}
	case abortReq || stopReq:
		s.confirmDown(pid, abortReq)
	case s.stateNow() != StateStopped:
		// Unexpected exit. Pass through Stopped first so its hook,
		// metrics and journal row are never skipped; the restart runs
		// on the next tick from the Stopped branch. The on-disk PID
		// record stays behind, which is what classifies that restart
		// as automatic.
		s.logger.Warn("process exited unexpectedly", "pid", pid)
		s.mu.Lock()
		s.pid, s.start = 0, 0
		s.mu.Unlock()
		s.setState(StateStopped, pid, "process exited unexpectedly")
	default:
		s.doStart(ctx)
	}
}

// confirmDown handles a dead child while a stop or abort request is
// pending: the request is satisfied, counters advance and the request
// marker comes down. An abort additionally leaves a stop request behind
// so the process stays down across supervisor restarts.
func (s *Supervisor) confirmDown(pid int, aborted bool) {
	cur := s.stateNow()

	if aborted {
		if cur == StateAborting || cur == StateRunning || cur == StateStopping {
			if _, err := s.counters.Inc(counter.Aborts); err != nil {
				s.logger.Error("abort counter failed", "error", err)
			}
			metrics.IncAbort()
			s.logger.Info("abort confirmed", "pid", pid)
		}
		if err := s.ch.ClearAbortEscalateToStop(); err != nil {
			s.logger.Error("abort marker handling failed", "error", err)
		}
	} else {
		if cur == StateStopping || cur == StateRunning {
			if _, err := s.counters.Inc(counter.Stops); err != nil {
				s.logger.Error("stop counter failed", "error", err)
			}
			metrics.IncStop()
			s.logger.Info("stop confirmed", "pid", pid)
		}
	}

	workdir.RemovePIDRecord(s.paths.PID())
	s.mu.Lock()
	s.pid, s.start = 0, 0
	s.mu.Unlock()
	s.stopsAsked = 0
	if cur != StateStopped {
		s.setState(StateStopped, 0, "")
	}
	// The surviving stop marker (posted directly, or left by the abort
	// escalation above) keeps the loop from restarting the process.
}

// signalDown drives a live child toward exit. The state transition and
// its hook fire once; the signal is re-sent every tick until liveness
// confirms the exit, escalating to SIGKILL after kill_after_retries
// ticks when configured.
func (s *Supervisor) signalDown(ctx context.Context, target State, sig syscall.Signal, pid int) {
	if s.stateNow() != target {
		s.setState(target, pid, "")
		s.stopsAsked = 0
	}

	s.stopsAsked++
	if s.cfg.KillAfterRetries > 0 && s.stopsAsked > s.cfg.KillAfterRetries {
		s.logger.Warn("escalating to SIGKILL", "pid", pid, "after_signals", s.stopsAsked-1)
		sig = syscall.SIGKILL
	}

	if err := signalGroup(pid, sig); err != nil {
		s.logger.Warn("signal delivery failed", "pid", pid, "signal", sig, "error", err)
	} else {
		s.logger.Info("signal sent", "pid", pid, "signal", sig.String())
	}

	s.sleep(ctx, s.cfg.StopGrace)

	if s.pidMatches(pid, s.startNow()) {
		s.logger.Warn("process survived signal", "pid", pid, "signal", sig.String())
		return
	}
	s.confirmDown(pid, target == StateAborting)
}

func (s *Supervisor) startNow() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

// doStart launches the configured command. A PID record already on
// disk at this point means the previous incarnation died without an
// operator request, which classifies the launch as an automatic
// restart rather than a manual start.
func (s *Supervisor) doStart(ctx context.Context) {
	_, _, recErr := workdir.ReadPIDRecord(s.paths.PID())
	autoRestart := recErr == nil

	s.setState(StateStarting, 0, "")

	cmd := BuildCommand(s.cmdLine)
	cmd.Dir = s.cfg.Dir
	cmd.SysProcAttr = sysProcAttrPG()
	if s.capture != nil {
		cmd.Stdout = s.capture
		cmd.Stderr = s.capture
	}

	if err := cmd.Start(); err != nil {
		s.logger.Error("launch failed", "command", s.cmdLine, "error", err)
		s.setState(StateStopped, 0, "launch failed")
		return
	}
	pid := cmd.Process.Pid
	startUnix := s.prober.StartUnix(pid)

	if err := workdir.WritePIDRecord(s.paths.PID(), pid, startUnix); err != nil {
		s.logger.Error("write pid record failed", "pid", pid, "error", err)
	}
	if err := workdir.WriteTimestamp(s.paths.ProcStarted(), time.Now()); err != nil {
		s.logger.Warn("record process start failed", "error", err)
	}

	// Reap so a dead child does not linger as a zombie and defeat the
	// liveness probe.
	go func() { _ = cmd.Wait() }()

	s.logger.Info("process launched", "pid", pid, "command", s.cmdLine, "auto", autoRestart)

	s.sleep(ctx, s.cfg.StartGrace)

	if !s.pidMatches(pid, startUnix) {
		s.logger.Warn("process exited within start grace", "pid", pid, "grace", s.cfg.StartGrace)
		// Keep the record so the retry next tick still counts as an
		// automatic restart of a crashing command.
		s.setState(StateStopped, pid, "died during start grace")
		return
	}

	s.mu.Lock()
	s.pid, s.start = pid, startUnix
	s.mu.Unlock()

	kind := counter.ManualStarts
	mk := "manual"
	if autoRestart {
		kind = counter.AutoStarts
		mk = "auto"
	}
	if _, err := s.counters.Inc(kind); err != nil {
		s.logger.Error("start counter failed", "kind", string(kind), "error", err)
	}
	metrics.IncStart(mk)

	s.setState(StateRunning, pid, "")
}

// setState is the single place a transition becomes fact: log line,
// hook, metrics and the history journal all key off it.
func (s *Supervisor) setState(to State, pid int, note string) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from == to {
		return
	}

	s.logger.Info("state changed", "from", from.String(), "to", to.String(), "pid", pid)
	s.hooks.Fire(to.String())
	metrics.RecordStateTransition(from.String(), to.String())
	metrics.SetCurrentState(from.String(), false)
	metrics.SetCurrentState(to.String(), true)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.sink.Send(ctx, history.Event{
		OccurredAt: time.Now(),
		From:       from.String(),
		To:         to.String(),
		PID:        pid,
		Note:       note,
	}); err != nil {
		s.logger.Warn("history journal write failed", "error", err)
	}
}

// sleep waits d or until ctx is cancelled, whichever is first.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
