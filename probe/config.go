package probe

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// Thresholds groups the sustainability limits a round is judged against.
type Thresholds struct {
	CPUMax        float64 `yaml:"cpu_max"`        // host-wide average CPU% ceiling
	MemMax        float64 `yaml:"mem_max"`        // host-wide average memory% ceiling
	ThroughputMin float64 `yaml:"throughput_min"` // per-round average throughput floor (frames/s)
}

// WorkloadConfig describes how to invoke one instance of the external
// workload under test. The workload is a black box: it is expected to process
// its input source, append one metrics row every sampling interval, and exit
// cleanly at or before the round duration elapses.
type WorkloadConfig struct {
	Command   []string      `yaml:"command"`    // argv prefix for one worker instance
	Source    string        `yaml:"source"`     // input source (video file or camera index)
	ModelPath string        `yaml:"model"`      // workload artifact path (opaque to the probe)
	Duration  time.Duration `yaml:"-"`          // how long each instance should run
	Interval  time.Duration `yaml:"-"`          // worker-side metric emission cadence
	OutputDir string        `yaml:"output_dir"` // directory for per-instance metrics artifacts
}

// MetricsPath returns the metrics artifact path for instance i of a round of
// size n. Keying by both round size and instance index keeps paths unique
// across and within rounds.
func (w WorkloadConfig) MetricsPath(n, i int) string {
	return filepath.Join(w.OutputDir, fmt.Sprintf("batch_%d_%d.csv", n, i))
}

// InstanceArgs builds the full argv for one worker instance writing to
// metricsPath. Durations are passed as whole seconds, matching the worker
// invocation contract.
func (w WorkloadConfig) InstanceArgs(metricsPath string) []string {
	args := make([]string, 0, len(w.Command)+10)
	args = append(args, w.Command...)
	return append(args,
		"--source", w.Source,
		"--model", w.ModelPath,
		"--duration", strconv.Itoa(int(w.Duration.Seconds())),
		"--log-file", metricsPath,
		"--log-interval", strconv.Itoa(int(w.Interval.Seconds())),
	)
}

// SessionConfig groups all parameters for one capacity session.
type SessionConfig struct {
	Workload       WorkloadConfig // how to start one worker instance
	Thresholds     Thresholds     // sustainability limits
	MaxInstances   int            // highest concurrency level to try
	Warmup         time.Duration  // delay between launch and measurement
	Duration       time.Duration  // monitoring window per round
	Interval       time.Duration  // host sampling cadence
	TerminateGrace time.Duration  // SIGTERM→SIGKILL escalation delay
}

// Defaults mirroring the stress harness the probe was built around.
const (
	DefaultDuration       = 200 * time.Second
	DefaultInterval       = 10 * time.Second
	DefaultMaxInstances   = 16
	DefaultWarmup         = 10 * time.Second
	DefaultTerminateGrace = 5 * time.Second
	DefaultCPUMax         = 90.0
	DefaultMemMax         = 90.0
	DefaultThroughputMin  = 3.0
)

// ApplyDefaults fills zero-valued fields with the standard session defaults.
func (c *SessionConfig) ApplyDefaults() {
	if c.MaxInstances == 0 {
		c.MaxInstances = DefaultMaxInstances
	}
	if c.Warmup == 0 {
		c.Warmup = DefaultWarmup
	}
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.TerminateGrace == 0 {
		c.TerminateGrace = DefaultTerminateGrace
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = Thresholds{
			CPUMax:        DefaultCPUMax,
			MemMax:        DefaultMemMax,
			ThroughputMin: DefaultThroughputMin,
		}
	}
	c.Workload.Duration = c.Duration
	c.Workload.Interval = c.Interval
}

// Validate rejects configurations the controller cannot run.
func (c SessionConfig) Validate() error {
	if c.MaxInstances < 1 {
		return fmt.Errorf("max instances must be >= 1, got %d", c.MaxInstances)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("round duration must be positive, got %v", c.Duration)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %v", c.Interval)
	}
	if len(c.Workload.Command) == 0 {
		return fmt.Errorf("workload command must not be empty")
	}
	return nil
}
