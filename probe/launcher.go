// Implements the ProcessLauncher, which starts the n independent workload
// instances of a round and hands their handles to the controller.

package probe

import (
	"context"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Launcher starts n workload instances for a round and returns their handles
// without blocking on completion.
type Launcher interface {
	Launch(ctx context.Context, n int) []*WorkerHandle
}

// ProcessLauncher spawns one OS-level process per instance. Stateless; the
// controller calls Launch once per round.
type ProcessLauncher struct {
	Workload WorkloadConfig
	Log      *logrus.Entry
}

// NewProcessLauncher creates a launcher for the given workload.
func NewProcessLauncher(workload WorkloadConfig, log *logrus.Entry) *ProcessLauncher {
	return &ProcessLauncher{Workload: workload, Log: log}
}

// Launch starts n independent worker processes, each configured to write its
// own metrics artifact. A failed spawn degrades that one slot to ExitedError
// rather than aborting the round; the remaining instances still launch and
// the shortfall surfaces as a missing survivor at evaluation time.
func (l *ProcessLauncher) Launch(ctx context.Context, n int) []*WorkerHandle {
	if l.Workload.OutputDir != "" {
		if err := os.MkdirAll(l.Workload.OutputDir, 0o755); err != nil {
			l.Log.Warnf("creating output dir %s: %v", l.Workload.OutputDir, err)
		}
	}
	handles := make([]*WorkerHandle, 0, n)
	for i := 0; i < n; i++ {
		metricsPath := l.Workload.MetricsPath(n, i)
		argv := l.Workload.InstanceArgs(metricsPath)
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

		h := &WorkerHandle{Index: i, MetricsPath: metricsPath}
		proc, err := startWorkerProcess(cmd)
		if err != nil {
			h.Liveness = ExitedError
			h.SpawnErr = err
			l.Log.WithField("instance", i).Warnf("failed to spawn worker: %v", err)
		} else {
			h.proc = proc
			l.Log.WithField("instance", i).Debugf("spawned worker pid=%d metrics=%s", cmd.Process.Pid, metricsPath)
		}
		handles = append(handles, h)
	}
	return handles
}
