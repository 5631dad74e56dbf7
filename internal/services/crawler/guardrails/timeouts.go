// Package guardrails holds cross cutting safety helpers for the crawler
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a single cycle.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Cycle is the overall budget for probing, fetching and crawling one segment
	Cycle time.Duration

	// Probe caps the availability check
	Probe time.Duration

	// Fetch caps the segment download
	Fetch time.Duration

	// Checkpoint caps persisting the advanced index
	Checkpoint time.Duration
}

// WithCycle returns a context limited by the cycle budget without extending any parent deadline
func WithCycle(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Cycle)
}

// ForProbe returns a sub context for the probe bounded by Probe and any remaining parent budget
func ForProbe(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Probe)
}

// ForFetch returns a sub context for the download bounded by Fetch and any remaining parent budget
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForCheckpoint detaches from parent cancellation so a finished segment is still recorded during shutdown.
// It is bounded by Checkpoint, or 30s when unset
func ForCheckpoint(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	d := t.Checkpoint
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(parent), d)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// When d is zero it returns a cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
