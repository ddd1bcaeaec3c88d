package probe

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time so the controller's warm-up delay and the
// monitor's sampling cadence can be driven by a fake clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, whichever comes first.
	// Returns ctx.Err() when cancelled early, nil otherwise.
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock is the real-time Clock used outside of tests.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
