// Package monitor samples host resource usage while a benchmark runs.
//
// Load tools are notorious for saturating the machine they run on and
// blaming the target; the samples let a result reader check whether the
// generator itself was the bottleneck.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sample is one point-in-time host measurement.
type Sample struct {
	Timestamp  time.Time `yaml:"timestamp"`
	CPUPercent float64   `yaml:"cpuPercent"`
	MemPercent float64   `yaml:"memPercent"`
	Load1      float64   `yaml:"load1"`
}

// SampleFunc produces one sample. Replaceable in tests.
type SampleFunc func() (Sample, error)

// Monitor periodically collects host samples in a background goroutine.
type Monitor struct {
	interval time.Duration
	sample   SampleFunc

	mu      sync.Mutex
	samples []Sample

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSampleFunc replaces the gopsutil-backed sampler.
func WithSampleFunc(fn SampleFunc) Option {
	return func(m *Monitor) {
		m.sample = fn
	}
}

// New creates a monitor sampling at the given interval.
func New(interval time.Duration, options ...Option) *Monitor {
	m := &Monitor{
		interval: interval,
		sample:   hostSample,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Start begins sampling until Stop is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run(ctx)
}

// Stop ends sampling and waits for the sampler goroutine to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Samples returns a copy of everything collected so far.
func (m *Monitor) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample, err := m.sample()
			if err != nil {
				continue
			}
			m.mu.Lock()
			m.samples = append(m.samples, sample)
			m.mu.Unlock()
		}
	}
}

// hostSample reads CPU, memory and load via gopsutil. Load average is
// unavailable on some platforms; the sample is still useful without it.
func hostSample() (Sample, error) {
	s := Sample{Timestamp: time.Now()}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return s, err
	}
	if len(percents) > 0 {
		s.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return s, err
	}
	s.MemPercent = vm.UsedPercent

	if avg, err := load.Avg(); err == nil {
		s.Load1 = avg.Load1
	}
	return s, nil
}
