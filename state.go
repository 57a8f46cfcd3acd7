package ioexec

// State is the executor lifecycle state. Transitions are strictly monotonic:
// StateRunning -> StatePreparing -> StateShutdown; no state is ever revisited.
// Monotonicity is what keeps the drain signal at-most-once and the resource
// close after the last in-flight operation.
type State int32

const (
	// StateRunning accepts submissions; no shutdown in progress.
	StateRunning State = iota

	// StatePreparing rejects submissions while queued and in-flight
	// operations continue to drain; the closer is waiting (or about to
	// wait) for drain completion.
	StatePreparing

	// StateShutdown is terminal: drain complete, resource closed or being
	// closed, workers joined.
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePreparing:
		return "preparing"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
