package probe

import (
	"context"
	"time"
)

// fakeClock advances instantly on Sleep and records each requested delay.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Function adapters so tests can build controller collaborators from
// closures, in the manner of http.HandlerFunc.

type launcherFunc func(ctx context.Context, n int) []*WorkerHandle

func (f launcherFunc) Launch(ctx context.Context, n int) []*WorkerHandle { return f(ctx, n) }

type monitorFunc func(ctx context.Context, duration, interval time.Duration) (HostSample, error)

func (f monitorFunc) Sample(ctx context.Context, duration, interval time.Duration) (HostSample, error) {
	return f(ctx, duration, interval)
}

type collectorFunc func(h *WorkerHandle) float64

func (f collectorFunc) Collect(h *WorkerHandle) float64 { return f(h) }

// aliveHandles builds n handles that count as survivors (no process attached,
// zero-valued liveness is Running).
func aliveHandles(n int) []*WorkerHandle {
	handles := make([]*WorkerHandle, n)
	for i := range handles {
		handles[i] = &WorkerHandle{Index: i}
	}
	return handles
}
