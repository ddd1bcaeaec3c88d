// Implements the WorkerHandle, which represents one spawned workload
// instance and its designated metrics artifact.

package probe

import (
	"os/exec"
	"syscall"
	"time"
)

// Liveness describes the observed state of a worker process.
type Liveness int

const (
	// Running means the process had not exited when last observed.
	Running Liveness = iota
	// ExitedClean means the process exited on its own with a zero status.
	ExitedClean
	// ExitedError means the process failed to spawn or exited nonzero.
	ExitedError
)

func (l Liveness) String() string {
	switch l {
	case Running:
		return "running"
	case ExitedClean:
		return "exited-clean"
	case ExitedError:
		return "exited-error"
	default:
		return "unknown"
	}
}

// WorkerHandle represents one spawned workload instance. The launcher owns
// the underlying process reference exclusively until Terminate is called;
// handles are created at launch and torn down at end of round regardless of
// the round's outcome.
type WorkerHandle struct {
	Index       int      // instance index within the round, 0-based
	MetricsPath string   // unique per-instance metrics artifact path
	Liveness    Liveness // last observed state; re-evaluated once at teardown
	SpawnErr    error    // set when the process could not be started

	proc *workerProcess
}

// workerProcess wraps a started command and its exit status. The done channel
// is closed after Wait returns, which orders the waitErr write before any
// read that observes the close.
type workerProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// startWorkerProcess starts cmd and reaps it in the background.
func startWorkerProcess(cmd *exec.Cmd) (*workerProcess, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &workerProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// ObserveLiveness re-evaluates the worker's state without blocking. The
// controller calls this exactly once per round, at teardown and before the
// termination signal is sent, so a SIGTERM exit never masquerades as a crash.
// Handles without a process (spawn failures, test fakes) keep their current
// state.
func (h *WorkerHandle) ObserveLiveness() Liveness {
	if h.proc == nil {
		return h.Liveness
	}
	select {
	case <-h.proc.done:
		if h.proc.waitErr == nil {
			h.Liveness = ExitedClean
		} else {
			h.Liveness = ExitedError
		}
	default:
		h.Liveness = Running
	}
	return h.Liveness
}

// Alive reports whether the worker counts as a survivor. A worker that
// exited cleanly before the round ended still counts: the workload is
// expected to exit at or before the round duration elapses, so a clean early
// exit is completion, not failure.
func (h *WorkerHandle) Alive() bool {
	return h.Liveness == Running || h.Liveness == ExitedClean
}

// Terminate signals the worker to stop and waits for it to exit, escalating
// to SIGKILL after grace. Terminating an already-exited worker (or a handle
// that never spawned) is a no-op, not an error.
func (h *WorkerHandle) Terminate(grace time.Duration) {
	if h.proc == nil {
		return
	}
	select {
	case <-h.proc.done:
		return
	default:
	}
	_ = h.proc.cmd.Process.Signal(syscall.SIGTERM)
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-h.proc.done:
	case <-timer.C:
		_ = h.proc.cmd.Process.Kill()
		<-h.proc.done
	}
}
