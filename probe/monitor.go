// Implements the HostMonitor, which samples host-wide CPU and memory
// utilization while a round's workers execute.

package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
)

// HostSample is one immutable host-wide reading (or a mean of several).
type HostSample struct {
	CPUPercent float64
	MemPercent float64
}

// Monitor samples host-wide utilization for a fixed wall-clock window and
// returns the arithmetic means.
type Monitor interface {
	Sample(ctx context.Context, duration, interval time.Duration) (HostSample, error)
}

// HostMonitor measures the host, not the workers: it runs concurrently with
// worker execution but never blocks on worker I/O, and always completes after
// the full duration regardless of worker state.
type HostMonitor struct {
	Clock Clock
	Log   *logrus.Entry

	// reading funcs are swappable so tests can inject fixed values
	readCPU func() (float64, error)
	readMem func() (float64, error)
}

// NewHostMonitor creates a monitor backed by gopsutil host-wide readings.
// CPU percentages use the since-last-call convention, so the first reading
// of a window reflects utilization since the previous window.
func NewHostMonitor(clock Clock, log *logrus.Entry) *HostMonitor {
	return &HostMonitor{
		Clock: clock,
		Log:   log,
		readCPU: func() (float64, error) {
			pcts, err := cpu.Percent(0, false)
			if err != nil {
				return 0, err
			}
			if len(pcts) == 0 {
				return 0, fmt.Errorf("no aggregate cpu reading available")
			}
			return pcts[0], nil
		},
		readMem: func() (float64, error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
	}
}

// Sample takes one CPU and one memory reading every interval for duration
// wall-clock time and returns their arithmetic means. At least one sample is
// taken even when interval >= duration. A failed host reading is
// unrecoverable: unlike worker failures it leaves the whole round without a
// signal, so the error propagates to the controller.
func (m *HostMonitor) Sample(ctx context.Context, duration, interval time.Duration) (HostSample, error) {
	start := m.Clock.Now()
	deadline := start.Add(duration)

	var cpuSum, memSum float64
	samples := 0
	for {
		cpuPct, err := m.readCPU()
		if err != nil {
			return HostSample{}, fmt.Errorf("reading host cpu: %w", err)
		}
		memPct, err := m.readMem()
		if err != nil {
			return HostSample{}, fmt.Errorf("reading host memory: %w", err)
		}
		cpuSum += cpuPct
		memSum += memPct
		samples++
		m.Log.Debugf("host sample %d: cpu=%.1f%% mem=%.1f%%", samples, cpuPct, memPct)

		now := m.Clock.Now()
		if !now.Add(interval).Before(deadline) {
			// Last sample of the window: hold until the full duration has
			// elapsed so monitoring always spans the round.
			if remaining := deadline.Sub(now); remaining > 0 {
				if err := m.Clock.Sleep(ctx, remaining); err != nil {
					return HostSample{}, err
				}
			}
			break
		}
		if err := m.Clock.Sleep(ctx, interval); err != nil {
			return HostSample{}, err
		}
	}

	return HostSample{
		CPUPercent: cpuSum / float64(samples),
		MemPercent: memSum / float64(samples),
	}, nil
}
