// Package probe implements the adaptive concurrency probe at the heart of
// edgetest: the control loop that discovers, empirically, how many parallel
// copies of a resource-intensive workload a single host can sustain.
//
// # Reading Guide
//
// Start with these three files to understand the probe kernel:
//   - controller.go: the round loop (launch → warm-up → monitor → terminate → collect → evaluate)
//   - worker.go: WorkerHandle lifecycle (Running → ExitedClean/ExitedError) and termination
//   - evaluate.go: the pure threshold evaluator and its violation reasons
//
// # Architecture
//
// The Controller drives everything; the other components are stateless
// services it calls in sequence. Dependency direction is strictly
// Controller → {Launcher, Monitor, Collector}; nothing depends back on the
// Controller. The extension points are small interfaces:
//   - Launcher: spawn n workload instances for a round
//   - Monitor: sample host-wide CPU/memory for a fixed wall-clock window
//   - Collector: extract the last reported throughput from a worker artifact
//   - Clock: wall-clock time and cancellable sleeps (fake clock in tests)
//
// Rounds run strictly sequentially. Within a round the n worker processes run
// with OS-level parallelism and share no mutable state; each writes only its
// own metrics artifact, and the Monitor is driven by wall-clock time rather
// than worker progress.
package probe
