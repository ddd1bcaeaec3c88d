// Implements the threshold evaluator, which classifies a completed round as
// sustainable or not.

package probe

// Reason identifies one violated sustainability constraint.
type Reason string

const (
	ReasonInstanceDied         Reason = "instance-died"
	ReasonCPUExceeded          Reason = "cpu-exceeded"
	ReasonMemExceeded          Reason = "mem-exceeded"
	ReasonThroughputBelowFloor Reason = "throughput-below-floor"
)

// Outcome classifies one probe round. Reasons lists every violated
// constraint, not just the first, so a human can tell exactly which limits
// the round broke.
type Outcome struct {
	Sustainable bool     `yaml:"sustainable"`
	Reasons     []Reason `yaml:"reasons,omitempty"`
}

// Evaluate classifies a round of requested size n. Pure and side-effect-free:
// a round is unsustainable if any worker was dead at teardown, either host
// average exceeded its ceiling, or the mean throughput fell below the floor.
// avgThroughput must already be the mean over all n workers, with unreadable
// artifacts contributing 0.0 to the numerator but still counting in the
// denominator.
func Evaluate(n, survivors int, host HostSample, avgThroughput float64, th Thresholds) Outcome {
	var reasons []Reason
	if survivors < n {
		reasons = append(reasons, ReasonInstanceDied)
	}
	if host.CPUPercent > th.CPUMax {
		reasons = append(reasons, ReasonCPUExceeded)
	}
	if host.MemPercent > th.MemMax {
		reasons = append(reasons, ReasonMemExceeded)
	}
	if avgThroughput < th.ThroughputMin {
		reasons = append(reasons, ReasonThroughputBelowFloor)
	}
	return Outcome{Sustainable: len(reasons) == 0, Reasons: reasons}
}
