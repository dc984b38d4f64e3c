// Package workdir defines the on-disk layout shared by the supervisor
// loop and the operator CLI. Every path is relative to one configured
// working directory; the two sides rendezvous only through these files.
package workdir

import "path/filepath"

const (
	CommandFile     = "command"            // exact command line to spawn
	ConfigFile      = "vigil.toml"         // optional configuration
	LockFile        = "vigil.lock"         // singleton record
	LogFile         = "vigil.log"          // supervisor log
	PIDFile         = "supervised.pid"     // monitored process PID record
	CaptureFile     = "supervised.out.log" // child stdout+stderr capture
	SupStartedFile  = "supervisor.started" // supervisor start timestamp
	ProcStartedFile = "process.started"    // monitored process start timestamp
	CountersDir     = "counters"
	HooksDir        = "hooks"
	HistoryFile     = "history.db" // default transition journal
)

// Paths resolves the layout under one working directory.
type Paths struct {
	Dir string
}

func New(dir string) Paths { return Paths{Dir: dir} }

func (p Paths) join(name string) string { return filepath.Join(p.Dir, name) }

func (p Paths) Command() string     { return p.join(CommandFile) }
func (p Paths) Config() string      { return p.join(ConfigFile) }
func (p Paths) Lock() string        { return p.join(LockFile) }
func (p Paths) Log() string         { return p.join(LogFile) }
func (p Paths) PID() string         { return p.join(PIDFile) }
func (p Paths) Capture() string     { return p.join(CaptureFile) }
func (p Paths) SupStarted() string  { return p.join(SupStartedFile) }
func (p Paths) ProcStarted() string { return p.join(ProcStartedFile) }
func (p Paths) Counters() string    { return p.join(CountersDir) }
func (p Paths) Hooks() string       { return p.join(HooksDir) }
func (p Paths) History() string     { return p.join(HistoryFile) }
