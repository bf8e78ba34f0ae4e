package history

import (
	"context"
	"time"
)

// Event kinds journaled by the supervisor.
const (
	KindStart        = "start"
	KindStop         = "stop"
	KindStaleCleanup = "stale-cleanup"
)

// Event is one lifecycle transition of the supervised process.
type Event struct {
	At     time.Time
	Kind   string
	PID    int
	Detail string
}

// Journal is an append-only record of lifecycle events. Separate
// short-lived invocations share it, so implementations must tolerate
// concurrent writers.
type Journal interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, ev Event) error
	// Recent returns up to n events, newest first.
	Recent(ctx context.Context, n int) ([]Event, error)
	Close() error
}
