// Implements the CapacityController, which drives rounds of increasing
// concurrency and stops at the first unsustainable one.

package probe

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Controller orchestrates a capacity session: rounds of strictly increasing
// size, each one launch → warm-up → monitor → terminate → collect → evaluate.
// Rounds never overlap; once a round starts it runs its full warm-up and
// monitoring window before any stop decision is made.
type Controller struct {
	cfg       SessionConfig
	launcher  Launcher
	monitor   Monitor
	collector Collector
	clock     Clock
	log       *logrus.Entry
}

// NewController wires a controller with the real process launcher, host
// monitor, and CSV collector.
func NewController(cfg SessionConfig, log *logrus.Entry) *Controller {
	clock := WallClock{}
	return NewControllerWithComponents(
		cfg,
		NewProcessLauncher(cfg.Workload, log),
		NewHostMonitor(clock, log),
		NewCSVCollector(log),
		clock,
		log,
	)
}

// NewControllerWithComponents wires a controller from explicit collaborators.
// Tests use it to substitute fakes for the launcher, monitor, collector, and
// clock.
func NewControllerWithComponents(cfg SessionConfig, launcher Launcher, monitor Monitor, collector Collector, clock Clock, log *logrus.Entry) *Controller {
	return &Controller{
		cfg:       cfg,
		launcher:  launcher,
		monitor:   monitor,
		collector: collector,
		clock:     clock,
		log:       log,
	}
}

// Run executes rounds n=1..MaxInstances and returns the completed session.
// The session stops at the first unsustainable round, or after MaxInstances
// sustainable ones. Single-worker failures are absorbed at the round level;
// only a failure of the controller's own machinery (monitoring, cancellation)
// aborts the session with an error.
func (c *Controller) Run(ctx context.Context) (*Session, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	session := &Session{Thresholds: c.cfg.Thresholds}
	for n := 1; n <= c.cfg.MaxInstances; n++ {
		round, err := c.runRound(ctx, n)
		if err != nil {
			return nil, err
		}
		session.Rounds = append(session.Rounds, *round)
		if !round.Outcome.Sustainable {
			break
		}
		session.MaxSustainable = n
	}
	return session, nil
}

// runRound executes one trial at concurrency n. Termination always happens
// after monitoring completes and before metrics collection, so the collector
// reads a stable, fully-written artifact.
func (c *Controller) runRound(ctx context.Context, n int) (*ProbeRound, error) {
	log := c.log.WithField("round", n)
	log.Infof("testing %d parallel instance(s)", n)

	workers := c.launcher.Launch(ctx, n)

	// Warm-up: let workers reach steady state before measurement begins.
	if err := c.clock.Sleep(ctx, c.cfg.Warmup); err != nil {
		c.terminateAll(workers)
		return nil, fmt.Errorf("warm-up interrupted: %w", err)
	}

	host, err := c.monitor.Sample(ctx, c.cfg.Duration, c.cfg.Interval)
	if err != nil {
		c.terminateAll(workers)
		return nil, fmt.Errorf("host monitor failed: %w", err)
	}
	log.Infof("avg cpu: %.1f%%, avg mem: %.1f%%", host.CPUPercent, host.MemPercent)

	// Liveness is recorded before the termination signal goes out, then every
	// worker is torn down unconditionally: termination is cleanup, not a
	// verdict on the round.
	survivors := 0
	for _, w := range workers {
		w.ObserveLiveness()
		if w.Alive() {
			survivors++
		}
	}
	c.terminateAll(workers)
	log.Infof("instances alive: %d/%d", survivors, n)

	var sum float64
	for _, w := range workers {
		sum += c.collector.Collect(w)
	}
	avgThroughput := sum / float64(n)
	log.Infof("avg throughput: %.1f", avgThroughput)

	outcome := Evaluate(n, survivors, host, avgThroughput, c.cfg.Thresholds)
	if outcome.Sustainable {
		log.Infof("sustainable at n=%d", n)
	} else {
		log.Warnf("unsustainable at n=%d: %v", n, outcome.Reasons)
	}

	return &ProbeRound{
		N:             n,
		Workers:       workers,
		AvgCPUPercent: host.CPUPercent,
		AvgMemPercent: host.MemPercent,
		AvgThroughput: avgThroughput,
		SurvivorCount: survivors,
		Outcome:       outcome,
	}, nil
}

func (c *Controller) terminateAll(workers []*WorkerHandle) {
	for _, w := range workers {
		w.Terminate(c.cfg.TerminateGrace)
	}
}
