// Implements the CSVCollector, which extracts the last reported throughput
// value from a worker's metrics artifact.

package probe

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// throughputColumn is the authoritative column of the worker metrics
// artifact. Workers append one row per sampling interval under the header
// timestamp,avg_throughput,cpu_pct,mem_pct,accel_pct,accel_temp; the last row
// is authoritative for a round's throughput figure.
const throughputColumn = "avg_throughput"

// Collector extracts a worker's final self-reported throughput.
type Collector interface {
	Collect(h *WorkerHandle) float64
}

// CSVCollector reads worker metrics artifacts. A missing, empty, unreadable,
// or malformed artifact degrades to a 0.0 contribution with a warning; a
// single bad artifact must not abort the round.
type CSVCollector struct {
	Log *logrus.Entry
}

// NewCSVCollector creates a collector logging through log.
func NewCSVCollector(log *logrus.Entry) *CSVCollector {
	return &CSVCollector{Log: log}
}

// Collect returns the throughput field of the last row written to the
// worker's metrics artifact, or 0.0 when the artifact yields no usable
// signal.
func (c *CSVCollector) Collect(h *WorkerHandle) float64 {
	log := c.Log.WithField("instance", h.Index)

	f, err := os.Open(h.MetricsPath)
	if err != nil {
		log.Warnf("metrics artifact unreadable, counting throughput as 0.0: %v", err)
		return 0.0
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate partial trailing rows

	header, err := r.Read()
	if err != nil {
		log.Warnf("metrics artifact %s is empty, counting throughput as 0.0", h.MetricsPath)
		return 0.0
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == throughputColumn {
			col = i
			break
		}
	}
	if col < 0 {
		log.Warnf("metrics artifact %s has no %q column, counting throughput as 0.0", h.MetricsPath, throughputColumn)
		return 0.0
	}

	last := 0.0
	rows := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep whatever was parsed before the malformed row; the worker
			// may have been terminated mid-write.
			log.Warnf("stopping at malformed row in %s: %v", h.MetricsPath, err)
			break
		}
		if col >= len(rec) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			continue
		}
		last = v
		rows++
	}
	if rows == 0 {
		log.Warnf("metrics artifact %s has no data rows, counting throughput as 0.0", h.MetricsPath)
		return 0.0
	}
	return last
}
