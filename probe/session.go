// Tracks the results of one capacity session for final reporting and export.

package probe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProbeRound records one completed trial at concurrency N. Immutable once
// its outcome is computed.
type ProbeRound struct {
	N             int             `yaml:"n"`
	Workers       []*WorkerHandle `yaml:"-"` // torn down at end of round; not exported
	AvgCPUPercent float64         `yaml:"avg_cpu_pct"`
	AvgMemPercent float64         `yaml:"avg_mem_pct"`
	AvgThroughput float64         `yaml:"avg_throughput"`
	SurvivorCount int             `yaml:"survivors"`
	Outcome       Outcome         `yaml:"outcome"`
}

// Session is the full sequence of rounds executed for one invocation. At most
// one round is unsustainable and it is always the last; MaxSustainable is the
// n of the last sustainable round, or 0 when even n=1 failed.
type Session struct {
	Thresholds     Thresholds   `yaml:"thresholds"`
	Rounds         []ProbeRound `yaml:"rounds"`
	MaxSustainable int          `yaml:"max_sustainable"`
}

// Print displays the per-round measurements and the session verdict.
func (s *Session) Print() {
	fmt.Println("=== Capacity Probe Results ===")
	for _, r := range s.Rounds {
		verdict := "sustainable"
		if !r.Outcome.Sustainable {
			verdict = fmt.Sprintf("unsustainable %v", r.Outcome.Reasons)
		}
		fmt.Printf("n=%-3d cpu=%5.1f%% mem=%5.1f%% throughput=%6.2f alive=%d/%d  %s\n",
			r.N, r.AvgCPUPercent, r.AvgMemPercent, r.AvgThroughput, r.SurvivorCount, r.N, verdict)
	}
	fmt.Printf("Max sustainable parallel instances: %d\n", s.MaxSustainable)
}

// WriteResults exports the session as YAML to path.
func (s *Session) WriteResults(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session results: %w", err)
	}
	return nil
}
