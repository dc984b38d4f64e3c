package supervisor

// State is the supervisor's view of the monitored process lifecycle.
// Exactly one state is active at any instant; transitions are totally
// ordered by the loop.
//
// State Machine:
// Stopped -> Starting -> Running -> Stopping/Aborting -> Stopped
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateAborting
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateAborting:
		return "aborting"
	default:
		return "unknown"
	}
}
