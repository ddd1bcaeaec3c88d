package probe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSessionConfig(maxInstances int) SessionConfig {
	return SessionConfig{
		Workload:     WorkloadConfig{Command: []string{"worker"}},
		Thresholds:   testThresholds,
		MaxInstances: maxInstances,
		Warmup:       10 * time.Second,
		Duration:     200 * time.Second,
		Interval:     10 * time.Second,
	}
}

// scriptedController wires a controller whose collaborators are closures over
// per-round scripts. Unscripted rounds default to healthy: all workers alive,
// host well under the ceilings, throughput well over the floor.
func scriptedController(
	cfg SessionConfig,
	handlesByRound map[int][]*WorkerHandle,
	hostByRound map[int]HostSample,
	throughputByWorker func(h *WorkerHandle) float64,
) (*Controller, *fakeClock, *[]string) {
	events := &[]string{}
	clock := newFakeClock()
	round := 0

	launcher := launcherFunc(func(ctx context.Context, n int) []*WorkerHandle {
		round = n
		*events = append(*events, fmt.Sprintf("launch:%d", n))
		if hs, ok := handlesByRound[n]; ok {
			return hs
		}
		return aliveHandles(n)
	})
	monitor := monitorFunc(func(ctx context.Context, duration, interval time.Duration) (HostSample, error) {
		*events = append(*events, "sample")
		if s, ok := hostByRound[round]; ok {
			return s, nil
		}
		return HostSample{CPUPercent: 40, MemPercent: 50}, nil
	})
	collector := collectorFunc(func(h *WorkerHandle) float64 {
		*events = append(*events, "collect")
		if throughputByWorker != nil {
			return throughputByWorker(h)
		}
		return 10
	})

	log := logrus.WithField("component", "test")
	return NewControllerWithComponents(cfg, launcher, monitor, collector, clock, log), clock, events
}

func TestController_AllRoundsSustainable_EndsAtMaxInstances(t *testing.T) {
	// GIVEN a host that sustains every round up to the configured limit of 3
	c, _, _ := scriptedController(testSessionConfig(3), nil, nil, nil)

	// WHEN the session runs
	session, err := c.Run(context.Background())

	// THEN it ends with maxSustainable = 3 and no unsustainable round recorded
	require.NoError(t, err)
	require.Len(t, session.Rounds, 3)
	assert.Equal(t, 3, session.MaxSustainable)
	for _, r := range session.Rounds {
		assert.True(t, r.Outcome.Sustainable)
	}
}

func TestController_RoundSizesStrictlyIncreaseFromOne(t *testing.T) {
	c, _, _ := scriptedController(testSessionConfig(5), nil, nil, nil)

	session, err := c.Run(context.Background())

	require.NoError(t, err)
	for i, r := range session.Rounds {
		assert.Equal(t, i+1, r.N)
	}
}

func TestController_StopsAtFirstUnsustainableRound(t *testing.T) {
	// GIVEN CPU blowing past the ceiling at round 3
	hosts := map[int]HostSample{3: {CPUPercent: 97, MemPercent: 50}}
	c, _, _ := scriptedController(testSessionConfig(16), nil, hosts, nil)

	session, err := c.Run(context.Background())

	require.NoError(t, err)
	// rounds after the first unsustainable one do not exist
	require.Len(t, session.Rounds, 3)
	last := session.Rounds[2]
	assert.False(t, last.Outcome.Sustainable)
	assert.Equal(t, []Reason{ReasonCPUExceeded}, last.Outcome.Reasons)
	assert.Equal(t, 2, session.MaxSustainable)
}

func TestController_DeadWorkerEndsSessionWithInstanceDied(t *testing.T) {
	// GIVEN one of the round-2 workers crashing mid-round
	handles := map[int][]*WorkerHandle{2: {
		&WorkerHandle{Index: 0},
		&WorkerHandle{Index: 1, Liveness: ExitedError},
	}}
	c, _, _ := scriptedController(testSessionConfig(16), handles, nil, nil)

	session, err := c.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, session.Rounds, 2)
	last := session.Rounds[1]
	assert.Equal(t, 1, last.SurvivorCount)
	assert.Equal(t, []Reason{ReasonInstanceDied}, last.Outcome.Reasons)
	assert.Equal(t, 1, session.MaxSustainable)
}

func TestController_UnsustainableAtRoundOne_ZeroCapacity(t *testing.T) {
	hosts := map[int]HostSample{1: {CPUPercent: 99, MemPercent: 99}}
	c, _, _ := scriptedController(testSessionConfig(16), nil, hosts, nil)

	session, err := c.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, session.Rounds, 1)
	assert.Equal(t, 0, session.MaxSustainable)
}

func TestController_ThroughputMeanDividesByAllWorkers(t *testing.T) {
	// GIVEN two workers where one produced no usable metrics (contributes 0.0)
	throughput := func(h *WorkerHandle) float64 {
		if h.Index == 0 {
			return 10
		}
		return 0
	}
	cfg := testSessionConfig(16)
	cfg.Thresholds.ThroughputMin = 6
	c, _, _ := scriptedController(cfg, nil, nil, throughput)

	session, err := c.Run(context.Background())

	// THEN round 2's mean is (10+0)/2 = 5: the silent worker counts toward
	// the denominator, pushing the round under the floor of 6
	require.NoError(t, err)
	require.Len(t, session.Rounds, 2)
	last := session.Rounds[1]
	assert.InDelta(t, 5.0, last.AvgThroughput, 1e-9)
	assert.Equal(t, []Reason{ReasonThroughputBelowFloor}, last.Outcome.Reasons)
}

func TestController_CleanEarlyExitCountsTowardSurvivors(t *testing.T) {
	// GIVEN the sole worker of round 1 exiting cleanly before teardown
	handles := map[int][]*WorkerHandle{1: {
		&WorkerHandle{Index: 0, Liveness: ExitedClean},
	}}
	cfg := testSessionConfig(1)
	c, _, _ := scriptedController(cfg, handles, nil, nil)

	session, err := c.Run(context.Background())

	// THEN the round is sustainable: a clean early exit is completion
	require.NoError(t, err)
	require.Len(t, session.Rounds, 1)
	assert.Equal(t, 1, session.Rounds[0].SurvivorCount)
	assert.True(t, session.Rounds[0].Outcome.Sustainable)
	assert.Equal(t, 1, session.MaxSustainable)
}

func TestController_WarmupPrecedesMonitoringAndCollectionFollows(t *testing.T) {
	c, clock, events := scriptedController(testSessionConfig(1), nil, nil, nil)

	_, err := c.Run(context.Background())

	require.NoError(t, err)
	// launch → warm-up → monitor → (terminate) → collect, strictly in order
	assert.Equal(t, []string{"launch:1", "sample", "collect"}, *events)
	require.NotEmpty(t, clock.sleeps)
	assert.Equal(t, 10*time.Second, clock.sleeps[0])
}

func TestController_MonitorFailureAbortsSession(t *testing.T) {
	cfg := testSessionConfig(3)
	launcher := launcherFunc(func(ctx context.Context, n int) []*WorkerHandle {
		return aliveHandles(n)
	})
	monitor := monitorFunc(func(ctx context.Context, duration, interval time.Duration) (HostSample, error) {
		return HostSample{}, errors.New("sampler unavailable")
	})
	collector := collectorFunc(func(h *WorkerHandle) float64 { return 10 })
	c := NewControllerWithComponents(cfg, launcher, monitor, collector, newFakeClock(), logrus.WithField("component", "test"))

	session, err := c.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "host monitor failed")
}

func TestController_RejectsInvalidConfig(t *testing.T) {
	cfg := testSessionConfig(0) // below the minimum of one instance
	c, _, _ := scriptedController(cfg, nil, nil, nil)

	_, err := c.Run(context.Background())

	require.Error(t, err)
}
