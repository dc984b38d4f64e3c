// Package history journals completed supervisor state transitions to
// an external store for post-mortem audit. The journal is append-only
// and is never read back by the supervisor itself.
package history

import (
	"context"
	"time"
)

// Event is one completed state transition.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	PID        int       `json:"pid"`
	Note       string    `json:"note,omitempty"`
}

// Sink is a destination for transition events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

// NopSink discards events; used when no journal is configured.
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }
func (NopSink) Close() error                      { return nil }
