package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"igcancel/pkg/batch"
	"igcancel/pkg/canceller"
	"igcancel/pkg/checkpoint"
	errs "igcancel/pkg/errors"
)

// ProgressDisplay prints a single updating progress line and one line per
// failure. In verbose mode every outcome gets its own line instead.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	verbose   bool
	total     int
	position  int
	succeeded int
	failed    int
	processed int
	current   string
	startTime time.Time
	now       func() time.Time
}

var _ RunView = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display writing to out
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		verbose:   verbose,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Begin seeds the counters, typically from a resumed progress record
func (p *ProgressDisplay) Begin(total, position, succeeded, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.position = position
	p.succeeded = succeeded
	p.failed = failed
	p.startTime = p.now()
}

// ItemStarted implements batch.Observer
func (p *ProgressDisplay) ItemStarted(index, total int, identifier string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = identifier
	if !p.verbose {
		p.printProgress()
	}
}

// ItemFinished implements batch.Observer
func (p *ProgressDisplay) ItemFinished(index, total int, identifier string, outcome batch.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	p.current = ""
	switch {
	case outcome.Success && p.verbose:
		fmt.Fprintf(p.out, "%s @%s\n", Green("✓"), identifier)
	case !outcome.Success:
		fmt.Fprintf(p.out, "\r%s\r%s @%s %s\n", strings.Repeat(" ", 100),
			Red("✗"), identifier, Dim(describeReason(outcome.Reason)))
	}
}

// BatchBreak implements batch.Observer
func (p *ProgressDisplay) BatchBreak(afterIndex int, pause time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s %d processed, pausing %s\n", Magenta("⏸"), afterIndex, FormatDuration(pause))
}

// Checkpointed implements batch.Observer
func (p *ProgressDisplay) Checkpointed(progress *checkpoint.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = progress.Position
	p.succeeded = progress.SuccessCount
	p.failed = progress.FailedCount()
	if progress.Total > 0 {
		p.total = progress.Total
	}
	if !p.verbose {
		p.printProgress()
	}
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	elapsed := p.now().Sub(p.startTime)
	eta := EstimateRemaining(elapsed, p.processed, p.total-p.position)

	line := fmt.Sprintf("[%s] %d/%d • %s %d • %s %d",
		RenderBar(p.position, p.total, 20),
		p.position,
		p.total,
		Green("✓"), p.succeeded,
		Red("✗"), p.failed,
	)
	if p.processed > 0 {
		line += fmt.Sprintf(" • eta %s", FormatDuration(eta))
	}
	if p.current != "" {
		line += fmt.Sprintf(" • %s", Cyan("@"+p.current))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

func (p *ProgressDisplay) log(color func(string) string, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s\n", color(fmt.Sprintf(format, args...)))
}

func (p *ProgressDisplay) LogInfo(format string, args ...interface{}) {
	p.log(Cyan, format, args...)
}

func (p *ProgressDisplay) LogSuccess(format string, args ...interface{}) {
	p.log(Green, format, args...)
}

func (p *ProgressDisplay) LogWarning(format string, args ...interface{}) {
	p.log(Yellow, format, args...)
}

func (p *ProgressDisplay) LogError(format string, args ...interface{}) {
	p.log(Red, format, args...)
}

// Finish prints the run summary
func (p *ProgressDisplay) Finish(summary *canceller.Summary, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out)
	if summary == nil {
		if err != nil {
			fmt.Fprintf(p.out, "%s %v\n", Red("✗ Run failed:"), err)
		}
		return
	}

	switch {
	case err != nil:
		fmt.Fprintf(p.out, "%s %v\n", Red("✗ Run stopped:"), err)
	case summary.Interrupted:
		fmt.Fprintf(p.out, "%s progress saved at %d/%d, rerun with --continue to resume\n",
			Yellow("⏸ Interrupted:"), summary.Position, summary.Total)
	default:
		fmt.Fprintf(p.out, "%s\n", Green("✓ All follow requests processed"))
	}

	fmt.Fprintf(p.out, "  %s %d cancelled, %d failed, %d/%d processed in %s\n",
		Dim("•"),
		summary.SuccessCount,
		summary.FailedCount(),
		summary.Position,
		summary.Total,
		FormatDuration(summary.Elapsed),
	)
	if summary.FailedPath != "" {
		fmt.Fprintf(p.out, "  %s failed usernames written to %s\n", Dim("•"), summary.FailedPath)
	}
}

// describeReason renders a failure reason for display
func describeReason(reason error) string {
	if reason == nil {
		return string(errs.ErrorTypeUnknown)
	}
	return fmt.Sprintf("%s: %v", errs.TypeOf(reason), reason)
}
