// Package output renders run progress and results on the console.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/kvload/kvload/internal/metrics"
	"github.com/kvload/kvload/internal/report"
)

// Console writes human-readable progress and summaries. Colors are enabled
// only when the writer is a terminal.
type Console struct {
	w      io.Writer
	scheme *ColorScheme
	isTTY  bool
	quiet  bool
}

// NewConsole creates a console writer. w defaults to stdout.
func NewConsole(w io.Writer, quiet bool) *Console {
	if w == nil {
		w = os.Stdout
	}
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	scheme := DefaultColorScheme()
	if !tty {
		scheme = NoColorScheme()
	}
	return &Console{w: w, scheme: scheme, isTTY: tty, quiet: quiet}
}

// IsTTY reports whether the console writer is a terminal.
func (c *Console) IsTTY() bool {
	return c.isTTY
}

// PrintHeader prints the run banner.
func (c *Console) PrintHeader(mode, title, url, runID string) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, strings.Repeat("=", 60))
	fmt.Fprintf(c.w, " %s  %s\n", c.scheme.Title.Sprint(title), c.scheme.Dim.Sprintf("(%s)", mode))
	fmt.Fprintf(c.w, " target: %s\n", c.scheme.URL.Sprint(url))
	fmt.Fprintf(c.w, " run:    %s\n", c.scheme.Dim.Sprint(runID))
	fmt.Fprintln(c.w, strings.Repeat("=", 60))
}

// PrintScenarioStart announces a scenario.
func (c *Console) PrintScenarioStart(name, description string) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "%s %s\n", c.scheme.Label.Sprint("scenario:"), c.scheme.Title.Sprint(name))
	if description != "" {
		fmt.Fprintf(c.w, "  %s\n", c.scheme.Dim.Sprint(description))
	}
}

// PrintCycleStart announces a benchmark cycle.
func (c *Console) PrintCycleStart(index, total, users int, duration time.Duration) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.w, "\n  cycle %d/%d: %s users for %s\n",
		index+1, total, c.scheme.Value.Sprintf("%d", users), duration.Round(time.Millisecond))
}

// PrintCycleStats prints the per-cycle statistics block.
func (c *Console) PrintCycleStats(snap *metrics.Snapshot) {
	if c.quiet {
		return
	}
	status := c.scheme.Success.Sprint("ok")
	if snap.Failed > 0 {
		status = c.scheme.Error.Sprintf("%d failed", snap.Failed)
	}
	fmt.Fprintf(c.w, "    requests: %d (%s)  rps: %.1f  errors: %.2f%%\n",
		snap.Total, status, snap.RPS, snap.ErrorRate*100)
	l := snap.Latency
	fmt.Fprintf(c.w, "    latency:  p50 %s  p90 %s  p95 %s  p99 %s  max %s\n",
		round(l.P50), round(l.P90), round(l.P95), round(l.P99), round(l.Max))
	for op, ls := range snap.PerOp {
		fmt.Fprintf(c.w, "    %-8s  n=%-6d p95 %s\n", op+":", ls.Count, round(ls.P95))
	}
}

// PrintFailure reports one scenario failure line.
func (c *Console) PrintFailure(message string) {
	fmt.Fprintf(c.w, "  %s %s\n", c.scheme.Error.Sprint("FAIL"), message)
}

// PrintSummary prints the final pass/fail summary for the run.
func (c *Console) PrintSummary(result *report.RunResult) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, strings.Repeat("-", 60))
	for _, sc := range result.Scenarios {
		mark := c.scheme.Success.Sprint("✓")
		verdict := "passed"
		if !sc.Passed {
			mark = c.scheme.Error.Sprint("✗")
			verdict = fmt.Sprintf("failed (%d failures)", len(sc.Failures))
		}
		fmt.Fprintf(c.w, " %s %-32s %s\n", mark, sc.Name, verdict)
	}
	elapsed := result.EndTime.Sub(result.StartTime).Round(time.Millisecond)
	fmt.Fprintf(c.w, " total time: %s\n", elapsed)
	fmt.Fprintln(c.w, strings.Repeat("-", 60))
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Microsecond)
}
