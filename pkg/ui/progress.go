package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"coursemirror/pkg/mirror"

	"github.com/briandowns/spinner"
)

// Progress shows a single spinner line with the running totals of a mirror
// run. Update matches mirror.Options.Progress.
type Progress struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	last    mirror.Stats
}

// NewProgress creates a spinner writing to w
func NewProgress(w io.Writer) *Progress {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " starting"
	return &Progress{spinner: s}
}

// Start begins animating
func (p *Progress) Start() {
	p.spinner.Start()
}

// Update refreshes the status line
func (p *Progress) Update(stats mirror.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = stats
	p.spinner.Lock()
	p.spinner.Suffix = " " + StatusLine(stats)
	p.spinner.Unlock()
}

// Stop halts the spinner and leaves the last status on screen
func (p *Progress) Stop() {
	p.mu.Lock()
	p.spinner.FinalMSG = StatusLine(p.last) + "\n"
	p.mu.Unlock()
	p.spinner.Stop()
}

// StatusLine renders stats on one line
func StatusLine(stats mirror.Stats) string {
	parts := []string{
		fmt.Sprintf("%d pages", stats.PagesVisited),
		fmt.Sprintf("%d files", stats.FilesDownloaded),
		FormatBytes(stats.Bytes),
	}
	if failed := stats.PagesFailed + stats.FilesFailed; failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	return strings.Join(parts, " • ")
}

// PrintSummary prints the end-of-run report
func PrintSummary(stats mirror.Stats, root string) {
	fmt.Fprintln(Output)
	PrintSuccess(fmt.Sprintf("Mirrored %d files (%s) into %s", stats.FilesDownloaded, FormatBytes(stats.Bytes), root))
	fmt.Fprintf(Output, "  %s %d pages visited in %s\n", Dim("•"), stats.PagesVisited, stats.Duration.Round(time.Second))
	if stats.PagesFailed > 0 || stats.FilesFailed > 0 {
		fmt.Fprintf(Output, "  %s %s\n", Dim("•"),
			Red(fmt.Sprintf("%d pages and %d files failed, see the log for details", stats.PagesFailed, stats.FilesFailed)))
	}
	if stats.PagesSkipped > 0 || stats.FilesSkipped > 0 {
		fmt.Fprintf(Output, "  %s %d pages and %d files skipped\n", Dim("•"), stats.PagesSkipped, stats.FilesSkipped)
	}
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
