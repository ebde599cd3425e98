package runner

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kvload/kvload/internal/config"
	"github.com/kvload/kvload/internal/kv"
	"github.com/kvload/kvload/internal/metrics"
	"github.com/kvload/kvload/internal/output"
	"github.com/kvload/kvload/internal/report"
	"github.com/kvload/kvload/internal/scenario"
)

// Bench runs a scenario through the configured benchmark cycles.
//
// Each cycle spawns the cycle's user count as goroutines, staggered by the
// startup delay. Every virtual user owns a client and a logged-in session
// and loops scenario iterations, separated by think time, until the cycle
// duration elapses. A fresh metrics engine measures each cycle.
type Bench struct {
	cfg        *config.Config
	console    *output.Console
	log        *report.RunLog
	runID      string
	clientOpts []kv.Option
}

// NewBench creates a benchmark runner. clientOpts are applied to every
// virtual user's client.
func NewBench(cfg *config.Config, console *output.Console, runLog *report.RunLog, runID string, clientOpts ...kv.Option) *Bench {
	return &Bench{
		cfg:        cfg,
		console:    console,
		log:        runLog,
		runID:      runID,
		clientOpts: clientOpts,
	}
}

// Run executes all cycles for one scenario and returns its result.
func (b *Bench) Run(ctx context.Context, scn scenario.Scenario) (*report.ScenarioResult, error) {
	bench := b.cfg.Bench
	b.console.PrintScenarioStart(scn.Name(), scn.Description())
	b.log.Printf("bench %s: cycles=%v duration=%s startup_delay=%s",
		scn.Name(), bench.Cycles, bench.Duration, bench.StartupDelay)

	setupClient := kv.NewClient(b.cfg.Main.URL, userIdentity(0, b.cfg.Main.NumUsers), b.clientOpts...)
	if _, err := setupClient.StartSession(ctx, b.cfg.Main.Audience); err != nil {
		return nil, fmt.Errorf("bench %s: starting setup session: %w", scn.Name(), err)
	}
	if err := scn.Setup(ctx, setupClient); err != nil {
		return nil, fmt.Errorf("bench %s: setup: %w", scn.Name(), err)
	}

	result := &report.ScenarioResult{
		Name:        scn.Name(),
		Description: scn.Description(),
	}
	failures := newFailureList(maxRecordedFailures)

	for ci, users := range bench.Cycles {
		b.console.PrintCycleStart(ci, len(bench.Cycles), users, bench.Duration)

		engine := metrics.NewEngine()
		b.runCycle(ctx, scn, users, engine, failures)
		snap := engine.Snapshot()

		b.console.PrintCycleStats(snap)
		b.log.Printf("bench %s: cycle %d/%d done: users=%d requests=%d errors=%.2f%% rps=%.1f",
			scn.Name(), ci+1, len(bench.Cycles), users, snap.Total, snap.ErrorRate*100, snap.RPS)

		result.Cycles = append(result.Cycles, &report.CycleResult{
			Users:    users,
			Duration: report.Duration(bench.Duration),
			Stats:    report.StatsFromSnapshot(snap),
		})

		if ctx.Err() != nil {
			break
		}
		if ci < len(bench.Cycles)-1 {
			sleepCtx(ctx, bench.CycleTime)
		}
	}

	if err := scn.Teardown(context.WithoutCancel(ctx), setupClient); err != nil {
		b.log.Printf("bench %s: teardown: %v", scn.Name(), err)
	}

	result.Failures = failures.list()
	result.Passed = failures.empty()
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// runCycle spawns the cycle's virtual users and waits for them to drain.
func (b *Bench) runCycle(ctx context.Context, scn scenario.Scenario, users int, engine *metrics.Engine, failures *failureList) {
	cycleCtx, cancel := context.WithTimeout(ctx, b.cfg.Bench.Duration)
	defer cancel()

	var wg sync.WaitGroup
	var active atomic.Int32
	for vu := 0; vu < users; vu++ {
		wg.Add(1)
		go func(vu int) {
			defer wg.Done()
			b.runVU(cycleCtx, scn, vu, engine, failures, &active)
		}(vu)

		if vu < users-1 {
			sleepCtx(cycleCtx, b.cfg.Bench.StartupDelay)
		}
	}
	wg.Wait()
}

// runVU is one virtual user's life: log in, then iterate until the cycle
// context ends.
func (b *Bench) runVU(ctx context.Context, scn scenario.Scenario, vu int, engine *metrics.Engine, failures *failureList, active *atomic.Int32) {
	engine.SetActiveVUs(int(active.Add(1)))
	defer func() {
		engine.SetActiveVUs(int(active.Add(-1)))
	}()

	client := kv.NewClient(b.cfg.Main.URL, userIdentity(vu, b.cfg.Main.NumUsers), b.clientOpts...)

	sessRes, err := client.StartSession(ctx, b.cfg.Main.Audience)
	engine.Record(string(kv.OpSession), sessRes.Elapsed, err == nil, sessRes.Bytes)
	if err != nil {
		if ctx.Err() == nil {
			failures.add(fmt.Sprintf("vu %d: session: %v", vu, err))
			b.log.Printf("vu %d: session: %v", vu, err)
		}
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(vu)<<17))
	bench := b.cfg.Bench

	for iter := 0; ; iter++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results, err := scn.Iteration(ctx, client, vu, iter)
		for i, r := range results {
			failed := err != nil && i == len(results)-1
			engine.Record(string(r.Op), r.Elapsed, !failed, r.Bytes)
		}
		if err != nil && ctx.Err() == nil {
			failures.add(fmt.Sprintf("vu %d iter %d: %v", vu, iter, err))
			b.log.Printf("vu %d iter %d: %v", vu, iter, err)
		}
		if ctx.Err() != nil {
			return
		}

		sleepCtx(ctx, thinkTime(rng, bench.SleepTime, bench.SleepMin, bench.SleepMax))
	}
}
