package runner_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvload/kvload/internal/output"
	"github.com/kvload/kvload/internal/runner"
	"github.com/kvload/kvload/internal/scenario"
)

func TestFTestRun(t *testing.T) {
	srv := newStoreServer(t)
	cfg := testConfig(t, srv.URL)

	scn, err := scenario.FromConfig("frun1", cfg.Scenarios[0])
	require.NoError(t, err)

	console := output.NewConsole(&bytes.Buffer{}, true)
	ftest := runner.NewFTest(cfg, console, discardLog(t), "frun1")

	result, err := ftest.Run(context.Background(), scn, 5)
	require.NoError(t, err)

	assert.True(t, result.Passed, "failures: %v", result.Failures)
	require.Len(t, result.Cycles, 1)

	stats := result.Cycles[0].Stats
	assert.Equal(t, 1, result.Cycles[0].Users)
	// One session plus put+get per iteration.
	assert.Equal(t, int64(11), stats.Total)
	assert.Equal(t, int64(5), stats.PerOp["put"].Count)
	assert.Equal(t, int64(5), stats.PerOp["get"].Count)
	assert.Equal(t, int64(1), stats.PerOp["session"].Count)
}

func TestFTestCollectsFailures(t *testing.T) {
	// GETs return tampered values, so every iteration fails verification.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/session/start":
			fmt.Fprint(w, `{"session_id": "sess"}`)
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet:
			w.Write([]byte("tampered"))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	scn, err := scenario.FromConfig("frun2", cfg.Scenarios[0])
	require.NoError(t, err)

	console := output.NewConsole(&bytes.Buffer{}, true)
	ftest := runner.NewFTest(cfg, console, discardLog(t), "frun2")

	result, err := ftest.Run(context.Background(), scn, 3)
	require.NoError(t, err, "verification failures do not abort the run")

	assert.False(t, result.Passed)
	assert.Len(t, result.Failures, 3)
	assert.Equal(t, int64(3), result.Cycles[0].Stats.Failed)
}

func TestFTestSessionFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	scn, err := scenario.FromConfig("frun3", cfg.Scenarios[0])
	require.NoError(t, err)

	console := output.NewConsole(&bytes.Buffer{}, true)
	ftest := runner.NewFTest(cfg, console, discardLog(t), "frun3")

	_, err = ftest.Run(context.Background(), scn, 3)
	assert.Error(t, err)
}
