package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kvload/kvload/internal/config"
	"github.com/kvload/kvload/internal/monitor"
	"github.com/kvload/kvload/internal/output"
	"github.com/kvload/kvload/internal/report"
	"github.com/kvload/kvload/internal/runner"
	"github.com/kvload/kvload/internal/scenario"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run scenarios as benchmark cycles",
	Long: `Run each scenario through the configured benchmark cycles. Each cycle
spawns one virtual user per count in the colon-separated cycles list
(e.g. "1:5:10") and runs the scenario for the configured duration,
collecting latency histograms per cycle.

  kvload bench -c tests.conf
  kvload bench -c tests.conf --cycles 5:25:50 --scenario write_read_seq`,
	RunE: runBench,
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	only, _ := cmd.Flags().GetString("scenario")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if cyclesFlag, _ := cmd.Flags().GetString("cycles"); cyclesFlag != "" {
		cycles, err := config.ParseCycles(cyclesFlag)
		if err != nil {
			return fmt.Errorf("invalid --cycles: %w", err)
		}
		cfg.Bench.Cycles = cycles
	}

	runID := uuid.NewString()
	console := output.NewConsole(os.Stdout, quiet)
	runLog, err := report.NewRunLog(cfg.Bench.LogTo, cfg.Bench.LogPath, os.Stderr)
	if err != nil {
		return err
	}
	defer runLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	console.PrintHeader("bench", cfg.Main.Title, cfg.Main.URL, runID)
	runLog.Printf("bench run %s: target %s cycles %v", runID, cfg.Main.URL, cfg.Bench.Cycles)

	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		mon = monitor.New(cfg.Monitor.Interval)
		mon.Start(ctx)
	}

	result := &report.RunResult{
		RunID:       runID,
		Tool:        "kvload",
		Version:     version,
		Mode:        "bench",
		Title:       cfg.Main.Title,
		Description: cfg.Main.Description,
		URL:         cfg.Main.URL,
		StartTime:   time.Now(),
	}

	bench := runner.NewBench(cfg, console, runLog, runID)
	matched := false
	for _, sc := range cfg.Scenarios {
		if only != "" && sc.Name != only && sc.Section != only {
			continue
		}
		matched = true

		scn, err := scenario.FromConfig(runID, sc)
		if err != nil {
			return err
		}
		scnResult, err := bench.Run(ctx, scn)
		if scnResult != nil {
			result.Scenarios = append(result.Scenarios, scnResult)
		}
		if errors.Is(err, context.Canceled) {
			runLog.Printf("bench run %s: interrupted", runID)
			break
		}
		if err != nil {
			return err
		}
	}
	if !matched {
		return fmt.Errorf("no scenario matches %q", only)
	}
	result.EndTime = time.Now()

	if mon != nil {
		mon.Stop()
		result.Monitor = mon.Samples()
	}

	console.PrintSummary(result)
	if cfg.Bench.ResultPath != "" {
		if err := result.WriteFile(cfg.Bench.ResultPath); err != nil {
			return err
		}
		fmt.Printf("Result: %s\n", cfg.Bench.ResultPath)
	}

	if !result.Passed() {
		return fmt.Errorf("benchmark recorded failures")
	}
	return nil
}

func init() {
	benchCmd.Flags().StringP("config", "c", "", "Configuration file")
	benchCmd.Flags().String("scenario", "", "Run only the named scenario")
	benchCmd.Flags().String("cycles", "", "Override cycle user counts (e.g. 1:5:10)")
	benchCmd.Flags().BoolP("quiet", "q", false, "Only print the final summary")
}
