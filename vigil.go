package vigil

import (
	"context"

	"github.com/loykin/vigil/internal/config"
	"github.com/loykin/vigil/internal/history"
	hfactory "github.com/loykin/vigil/internal/history/factory"
	"github.com/loykin/vigil/internal/operator"
	"github.com/loykin/vigil/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type State = supervisor.State

const (
	StateStopped  = supervisor.StateStopped
	StateStarting = supervisor.StateStarting
	StateRunning  = supervisor.StateRunning
	StateStopping = supervisor.StateStopping
	StateAborting = supervisor.StateAborting
)

type HistoryEvent = history.Event

type HistorySink = history.Sink

// Supervisor is a thin facade over internal/supervisor for embedding.
type Supervisor struct{ inner *supervisor.Supervisor }

// LoadConfig reads <dir>/vigil.toml with defaults applied.
func LoadConfig(dir string) (*Config, error) { return config.Load(dir) }

// NewSupervisor prepares a supervisor for the configured directory.
func NewSupervisor(cfg *Config) (*Supervisor, error) {
	s, err := supervisor.New(supervisor.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: s}, nil
}

// Run drives the supervision loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error { return s.inner.Run(ctx) }

// Status returns the current lifecycle state and child PID.
func (s *Supervisor) Status() (State, int) { return s.inner.Status() }

// NewHistorySink opens a transition journal for the given DSN
// (sqlite path, sqlite:// URL or postgres:// URL).
func NewHistorySink(dsn string) (HistorySink, error) { return hfactory.NewSinkFromDSN(dsn) }

// Control executes one operator command (start, stop, abort, status,
// statistics) against dir and returns the textual response.
func Control(dir, command string) (string, error) {
	return operator.New(dir).Execute(command)
}
