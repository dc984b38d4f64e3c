// Package channel is the filesystem-mediated mailbox between the
// operator CLI and the supervisor loop. Intents are represented by the
// presence or absence of sentinel marker files; the CLI is the only
// writer of intents and the loop is the only party that clears them,
// so no locking beyond atomic create is needed.
package channel

// Channel exposes pending operator intents.
type Channel interface {
	// PostStop requests a stop. Posting twice is a no-op.
	PostStop() error
	// PostAbort requests an abort. Posting twice is a no-op.
	PostAbort() error
	// ClearStop removes a pending stop intent (operator START).
	ClearStop() error
	// ClearAbort removes a pending abort intent without escalation.
	ClearAbort() error
	// ClearAbortEscalateToStop clears the abort marker and sets the
	// stop marker, so a completed abort does not auto-restart. The
	// stop marker is guaranteed set even if clearing fails midway.
	ClearAbortEscalateToStop() error

	StopRequested() (bool, error)
	AbortRequested() (bool, error)
}
