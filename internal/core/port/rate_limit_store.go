package port

import (
	"context"
	"time"
)

// RateLimitStore persists sliding-window attempt counters for the HTTP rate
// limiting middleware.
type RateLimitStore interface {
	// TrimWindow drops attempts older than the window relative to reference.
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error

	// CountAttempts returns how many attempts fall inside the window.
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)

	// RecordAttempt appends one attempt at the given instant.
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error

	// OldestAttempt reports the earliest attempt still inside the window. The
	// boolean is false when the window holds no attempts.
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
