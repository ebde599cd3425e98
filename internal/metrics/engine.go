// Package metrics collects latency and throughput statistics for a test run.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Engine aggregates operation latencies into HDR histograms.
//
// One Engine covers one measurement window: a whole functional-test run, or
// a single benchmark cycle. Counters use atomics; histogram access is
// mutex-protected because hdrhistogram is not safe for concurrent writes.
type Engine struct {
	config EngineConfig

	overall   *hdrhistogram.Histogram
	overallMu sync.Mutex

	perOp   map[string]*hdrhistogram.Histogram
	perOpMu sync.Mutex

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	bytes   atomic.Int64

	activeVUs atomic.Int32

	startTime time.Time
}

// EngineConfig bounds the histograms.
type EngineConfig struct {
	// MinMicros and MaxMicros bound recordable latencies, in microseconds.
	MinMicros int64
	MaxMicros int64

	// SigFigs is the histogram precision (significant figures).
	SigFigs int
}

// DefaultEngineConfig covers 1us to 1h at 3 significant figures.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinMicros: 1,
		MaxMicros: 3600000000,
		SigFigs:   3,
	}
}

// NewEngine creates an engine with the default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig())
}

// NewEngineWithConfig creates an engine with custom histogram bounds.
func NewEngineWithConfig(config EngineConfig) *Engine {
	return &Engine{
		config:    config,
		overall:   hdrhistogram.New(config.MinMicros, config.MaxMicros, config.SigFigs),
		perOp:     make(map[string]*hdrhistogram.Histogram),
		startTime: time.Now(),
	}
}

// Record adds one completed operation.
//
// op names the operation for the per-operation breakdown ("get", "put", ...).
// Failed operations are counted and their latency recorded as well; a slow
// failure is still a latency the target exhibited.
func (e *Engine) Record(op string, elapsed time.Duration, success bool, bytes int64) {
	micros := elapsed.Microseconds()
	if micros < e.config.MinMicros {
		micros = e.config.MinMicros
	}
	if micros > e.config.MaxMicros {
		micros = e.config.MaxMicros
	}

	e.overallMu.Lock()
	e.overall.RecordValue(micros)
	e.overallMu.Unlock()

	e.perOpMu.Lock()
	hist, ok := e.perOp[op]
	if !ok {
		hist = hdrhistogram.New(e.config.MinMicros, e.config.MaxMicros, e.config.SigFigs)
		e.perOp[op] = hist
	}
	hist.RecordValue(micros)
	e.perOpMu.Unlock()

	e.total.Add(1)
	e.bytes.Add(bytes)
	if success {
		e.success.Add(1)
	} else {
		e.failed.Add(1)
	}
}

// SetActiveVUs updates the active virtual user count.
func (e *Engine) SetActiveVUs(count int) {
	e.activeVUs.Store(int32(count))
}

// GetActiveVUs returns the current active virtual user count.
func (e *Engine) GetActiveVUs() int {
	return int(e.activeVUs.Load())
}

// Snapshot returns a point-in-time view of all collected metrics.
func (e *Engine) Snapshot() *Snapshot {
	e.overallMu.Lock()
	latency := statsFromHist(e.overall)
	e.overallMu.Unlock()

	perOp := make(map[string]LatencyStats)
	e.perOpMu.Lock()
	for op, hist := range e.perOp {
		perOp[op] = statsFromHist(hist)
	}
	e.perOpMu.Unlock()

	elapsed := time.Since(e.startTime)
	total := e.total.Load()
	failed := e.failed.Load()

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(total) / elapsed.Seconds()
	}
	errorRate := 0.0
	if total > 0 {
		errorRate = float64(failed) / float64(total)
	}

	return &Snapshot{
		Total:     total,
		Success:   e.success.Load(),
		Failed:    failed,
		Bytes:     e.bytes.Load(),
		Latency:   latency,
		PerOp:     perOp,
		RPS:       rps,
		ErrorRate: errorRate,
		ActiveVUs: e.GetActiveVUs(),
		Elapsed:   elapsed,
		StartTime: e.startTime,
		Timestamp: time.Now(),
	}
}

// Reset clears all metrics and restarts the measurement window.
func (e *Engine) Reset() {
	e.overallMu.Lock()
	e.overall.Reset()
	e.overallMu.Unlock()

	e.perOpMu.Lock()
	e.perOp = make(map[string]*hdrhistogram.Histogram)
	e.perOpMu.Unlock()

	e.total.Store(0)
	e.success.Store(0)
	e.failed.Store(0)
	e.bytes.Store(0)
	e.activeVUs.Store(0)
	e.startTime = time.Now()
}

func statsFromHist(hist *hdrhistogram.Histogram) LatencyStats {
	if hist.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Min:    time.Duration(hist.Min()) * time.Microsecond,
		Max:    time.Duration(hist.Max()) * time.Microsecond,
		Mean:   time.Duration(hist.Mean()) * time.Microsecond,
		StdDev: time.Duration(hist.StdDev()) * time.Microsecond,
		P50:    time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		Count:  hist.TotalCount(),
	}
}

// Snapshot is a point-in-time view of collected metrics.
type Snapshot struct {
	Total     int64
	Success   int64
	Failed    int64
	Bytes     int64
	Latency   LatencyStats
	PerOp     map[string]LatencyStats
	RPS       float64
	ErrorRate float64
	ActiveVUs int
	Elapsed   time.Duration
	StartTime time.Time
	Timestamp time.Time
}

// LatencyStats summarizes one latency distribution.
type LatencyStats struct {
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P90    time.Duration
	P95    time.Duration
	P99    time.Duration
	Count  int64
}
