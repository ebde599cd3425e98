package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kvload/kvload/internal/config"
	"github.com/kvload/kvload/internal/kv"
	"github.com/kvload/kvload/internal/metrics"
	"github.com/kvload/kvload/internal/output"
	"github.com/kvload/kvload/internal/report"
	"github.com/kvload/kvload/internal/scenario"
)

// FTest runs a scenario as a functional test: a single user performing a
// fixed number of iterations sequentially, with random think time between
// requests. Failures are collected rather than aborting the run, so one
// pass reports every broken iteration.
type FTest struct {
	cfg        *config.Config
	console    *output.Console
	log        *report.RunLog
	runID      string
	clientOpts []kv.Option
}

// NewFTest creates a functional-test runner.
func NewFTest(cfg *config.Config, console *output.Console, runLog *report.RunLog, runID string, clientOpts ...kv.Option) *FTest {
	return &FTest{
		cfg:        cfg,
		console:    console,
		log:        runLog,
		runID:      runID,
		clientOpts: clientOpts,
	}
}

// Run executes iterations passes of the scenario and returns its result.
func (f *FTest) Run(ctx context.Context, scn scenario.Scenario, iterations int) (*report.ScenarioResult, error) {
	f.console.PrintScenarioStart(scn.Name(), scn.Description())
	f.log.Printf("ftest %s: %d iterations", scn.Name(), iterations)

	client := kv.NewClient(f.cfg.Main.URL, userIdentity(0, f.cfg.Main.NumUsers), f.clientOpts...)
	engine := metrics.NewEngine()
	engine.SetActiveVUs(1)

	sessRes, err := client.StartSession(ctx, f.cfg.Main.Audience)
	engine.Record(string(kv.OpSession), sessRes.Elapsed, err == nil, sessRes.Bytes)
	if err != nil {
		return nil, fmt.Errorf("ftest %s: starting session: %w", scn.Name(), err)
	}
	if err := scn.Setup(ctx, client); err != nil {
		return nil, fmt.Errorf("ftest %s: setup: %w", scn.Name(), err)
	}

	failures := newFailureList(maxRecordedFailures)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for iter := 0; iter < iterations; iter++ {
		if ctx.Err() != nil {
			break
		}

		results, err := scn.Iteration(ctx, client, 0, iter)
		for i, r := range results {
			failed := err != nil && i == len(results)-1
			engine.Record(string(r.Op), r.Elapsed, !failed, r.Bytes)
		}
		if err != nil && ctx.Err() == nil {
			message := fmt.Sprintf("iter %d: %v", iter, err)
			failures.add(message)
			f.console.PrintFailure(message)
			f.log.Printf("ftest %s: %s", scn.Name(), message)
		}

		sleepCtx(ctx, thinkTime(rng, 0, f.cfg.FTest.SleepMin, f.cfg.FTest.SleepMax))
	}

	if err := scn.Teardown(context.WithoutCancel(ctx), client); err != nil {
		f.log.Printf("ftest %s: teardown: %v", scn.Name(), err)
	}

	snap := engine.Snapshot()
	f.console.PrintCycleStats(snap)

	result := &report.ScenarioResult{
		Name:        scn.Name(),
		Description: scn.Description(),
		Passed:      failures.empty(),
		Failures:    failures.list(),
		Cycles: []*report.CycleResult{{
			Users:    1,
			Duration: report.Duration(snap.Elapsed),
			Stats:    report.StatsFromSnapshot(snap),
		}},
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}
