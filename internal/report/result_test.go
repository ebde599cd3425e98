package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kvload/kvload/internal/metrics"
)

func sampleResult() *RunResult {
	return &RunResult{
		RunID:     "run-1",
		Tool:      "kvload",
		Version:   "0.1.0",
		Mode:      "bench",
		Title:     "Sauropod load tests",
		URL:       "http://localhost:8080",
		StartTime: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 23, 10, 5, 0, 0, time.UTC),
		Scenarios: []*ScenarioResult{
			{
				Name:   "write_read_seq",
				Passed: true,
				Cycles: []*CycleResult{
					{
						Users:    5,
						Duration: Duration(30 * time.Second),
						Stats: Stats{
							Total:   100,
							Success: 100,
							RPS:     3.3,
							Latency: LatencyStats{
								P50:   Duration(12 * time.Millisecond),
								P95:   Duration(40 * time.Millisecond),
								Count: 100,
							},
							PerOp: map[string]LatencyStats{
								"get": {Count: 50},
								"put": {Count: 50},
							},
						},
					},
				},
			},
		},
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "bench.yaml")
	in := sampleResult()
	require.NoError(t, in.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out RunResult
	require.NoError(t, yaml.Unmarshal(data, &out))

	assert.Equal(t, in.RunID, out.RunID)
	assert.Equal(t, in.Title, out.Title)
	require.Len(t, out.Scenarios, 1)
	require.Len(t, out.Scenarios[0].Cycles, 1)

	cycle := out.Scenarios[0].Cycles[0]
	assert.Equal(t, 5, cycle.Users)
	assert.Equal(t, Duration(30*time.Second), cycle.Duration)
	assert.Equal(t, Duration(40*time.Millisecond), cycle.Stats.Latency.P95)
	assert.Equal(t, int64(50), cycle.Stats.PerOp["get"].Count)
}

func TestDurationSerializesAsString(t *testing.T) {
	data, err := yaml.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "1.5s\n", string(data))
}

func TestPassed(t *testing.T) {
	r := sampleResult()
	assert.True(t, r.Passed())

	r.Scenarios = append(r.Scenarios, &ScenarioResult{Name: "contention", Passed: false})
	assert.False(t, r.Passed())
}

func TestStatsFromSnapshot(t *testing.T) {
	e := metrics.NewEngine()
	e.Record("get", 10*time.Millisecond, true, 64)
	e.Record("put", 20*time.Millisecond, false, 0)

	stats := StatsFromSnapshot(e.Snapshot())
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(64), stats.Bytes)
	assert.Contains(t, stats.PerOp, "get")
	assert.Contains(t, stats.PerOp, "put")
	assert.Equal(t, int64(2), stats.Latency.Count)
}
