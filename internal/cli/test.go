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

	"github.com/kvload/kvload/internal/output"
	"github.com/kvload/kvload/internal/report"
	"github.com/kvload/kvload/internal/runner"
	"github.com/kvload/kvload/internal/scenario"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run scenarios as functional tests",
	Long: `Run every scenario once with a single user, verifying the store's
behavior. Think time between requests is drawn from the [ftest]
sleep_time_min/sleep_time_max range. The command exits non-zero when any
scenario fails.`,
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	only, _ := cmd.Flags().GetString("scenario")
	quiet, _ := cmd.Flags().GetBool("quiet")

	runID := uuid.NewString()
	console := output.NewConsole(os.Stdout, quiet)
	runLog, err := report.NewRunLog(cfg.FTest.LogTo, cfg.FTest.LogPath, os.Stderr)
	if err != nil {
		return err
	}
	defer runLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	console.PrintHeader("ftest", cfg.Main.Title, cfg.Main.URL, runID)
	runLog.Printf("ftest run %s: target %s", runID, cfg.Main.URL)

	result := &report.RunResult{
		RunID:       runID,
		Tool:        "kvload",
		Version:     version,
		Mode:        "ftest",
		Title:       cfg.Main.Title,
		Description: cfg.Main.Description,
		URL:         cfg.Main.URL,
		StartTime:   time.Now(),
	}

	ftest := runner.NewFTest(cfg, console, runLog, runID)
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
		scnResult, err := ftest.Run(ctx, scn, sc.Iterations)
		if scnResult != nil {
			result.Scenarios = append(result.Scenarios, scnResult)
		}
		if errors.Is(err, context.Canceled) {
			runLog.Printf("ftest run %s: interrupted", runID)
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

	console.PrintSummary(result)
	if cfg.FTest.ResultPath != "" {
		if err := result.WriteFile(cfg.FTest.ResultPath); err != nil {
			return err
		}
		fmt.Printf("Result: %s\n", cfg.FTest.ResultPath)
	}

	if !result.Passed() {
		return fmt.Errorf("functional test failed")
	}
	return nil
}

func init() {
	testCmd.Flags().StringP("config", "c", "", "Configuration file")
	testCmd.Flags().String("scenario", "", "Run only the named scenario")
	testCmd.Flags().BoolP("quiet", "q", false, "Only print the final summary")
}
