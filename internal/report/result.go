// Package report writes run results and run logs.
//
// Result documents are YAML: one document per run, carrying the run
// identity, the configuration's [main] metadata, per-scenario outcomes,
// per-cycle statistics and host monitor samples.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kvload/kvload/internal/metrics"
	"github.com/kvload/kvload/internal/monitor"
)

// RunResult is the root of a result document.
type RunResult struct {
	RunID       string            `yaml:"runId"`
	Tool        string            `yaml:"tool"`
	Version     string            `yaml:"version"`
	Mode        string            `yaml:"mode"` // "ftest" or "bench"
	Title       string            `yaml:"title"`
	Description string            `yaml:"description,omitempty"`
	URL         string            `yaml:"url"`
	StartTime   time.Time         `yaml:"startTime"`
	EndTime     time.Time         `yaml:"endTime"`
	Scenarios   []*ScenarioResult `yaml:"scenarios"`
	Monitor     []monitor.Sample  `yaml:"monitor,omitempty"`
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Passed      bool           `yaml:"passed"`
	Failures    []string       `yaml:"failures,omitempty"`
	Cycles      []*CycleResult `yaml:"cycles"`
}

// CycleResult is one benchmark cycle (or the single functional-test pass).
type CycleResult struct {
	Users    int      `yaml:"users"`
	Duration Duration `yaml:"duration"`
	Stats    Stats    `yaml:"stats"`
}

// Stats is the serializable form of a metrics snapshot.
type Stats struct {
	Total     int64                   `yaml:"total"`
	Success   int64                   `yaml:"success"`
	Failed    int64                   `yaml:"failed"`
	Bytes     int64                   `yaml:"bytes"`
	RPS       float64                 `yaml:"rps"`
	ErrorRate float64                 `yaml:"errorRate"`
	Latency   LatencyStats            `yaml:"latency"`
	PerOp     map[string]LatencyStats `yaml:"perOp,omitempty"`
}

// LatencyStats mirrors metrics.LatencyStats with string durations.
type LatencyStats struct {
	Min    Duration `yaml:"min"`
	Max    Duration `yaml:"max"`
	Mean   Duration `yaml:"mean"`
	StdDev Duration `yaml:"stdDev"`
	P50    Duration `yaml:"p50"`
	P90    Duration `yaml:"p90"`
	P95    Duration `yaml:"p95"`
	P99    Duration `yaml:"p99"`
	Count  int64    `yaml:"count"`
}

// StatsFromSnapshot converts a metrics snapshot for serialization.
func StatsFromSnapshot(s *metrics.Snapshot) Stats {
	perOp := make(map[string]LatencyStats, len(s.PerOp))
	for op, ls := range s.PerOp {
		perOp[op] = latencyStats(ls)
	}
	return Stats{
		Total:     s.Total,
		Success:   s.Success,
		Failed:    s.Failed,
		Bytes:     s.Bytes,
		RPS:       s.RPS,
		ErrorRate: s.ErrorRate,
		Latency:   latencyStats(s.Latency),
		PerOp:     perOp,
	}
}

func latencyStats(ls metrics.LatencyStats) LatencyStats {
	return LatencyStats{
		Min:    Duration(ls.Min),
		Max:    Duration(ls.Max),
		Mean:   Duration(ls.Mean),
		StdDev: Duration(ls.StdDev),
		P50:    Duration(ls.P50),
		P90:    Duration(ls.P90),
		P95:    Duration(ls.P95),
		P99:    Duration(ls.P99),
		Count:  ls.Count,
	}
}

// Passed reports whether every scenario passed.
func (r *RunResult) Passed() bool {
	for _, sc := range r.Scenarios {
		if !sc.Passed {
			return false
		}
	}
	return true
}

// WriteFile writes the result document to path, creating directories as
// needed.
func (r *RunResult) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: marshaling result: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("report: creating result directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: writing result: %w", err)
	}
	return nil
}

// Duration is a time.Duration serialized in its string form ("1.5s").
type Duration time.Duration

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}
