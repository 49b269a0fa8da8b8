package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter draws a progress bar for a known number of steps.
type ProgressReporter struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	last   int
	mu     sync.Mutex
}

// NewProgressReporter creates a bar of total steps written to w.
func NewProgressReporter(w io.Writer, total int, description string) *ProgressReporter {
	r := &ProgressReporter{writer: w}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return r
}

// Update moves the bar to done steps. It matches inference.ProgressFunc.
func (r *ProgressReporter) Update(done, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if done <= r.last {
		return
	}
	if err := r.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	r.last = done
}

// Done returns how many steps have been reported.
func (r *ProgressReporter) Done() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Clear removes the bar from the terminal, e.g. after cancellation.
func (r *ProgressReporter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.bar.Clear(); err != nil {
		slog.Warn("Failed to clear progress bar", "error", err)
	}
}
