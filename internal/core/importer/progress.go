package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Update(done int, conversationTitle string)
	Committed(done int)
}

// ProgressReporter handles progress feedback during import. With a bar it
// redraws one line per conversation; without one it prints a line per
// committed batch.
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	bar       bool
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer, total int, bar bool) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		total:     total,
		bar:       bar,
		startTime: time.Now(),
	}
}

// Update redraws the progress bar with the current conversation
func (p *ProgressReporter) Update(done int, conversationTitle string) {
	p.current = done
	if !p.bar || p.total == 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	// Draw progress bar (40 chars wide)
	barWidth := 40
	filled := min(int(float64(barWidth)*float64(p.current)/float64(p.total)), barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	displayText := conversationTitle
	if len([]rune(displayText)) > 50 {
		displayText = string([]rune(displayText)[:47]) + "..."
	}

	// Calculate ETA
	eta := time.Duration(0)
	if elapsed := time.Since(p.startTime); elapsed > 0 && p.current > 0 {
		rate := float64(p.current) / elapsed.Seconds()
		eta = time.Duration(float64(p.total-p.current)/rate) * time.Second
	}

	_, _ = fmt.Fprintf(p.writer, "\r\033[K[%s] %3.0f%% (%d/%d) ETA: %s | %s",
		bar, pct, p.current, p.total, eta.Round(time.Second), displayText)
}

// Committed reports a batch commit
func (p *ProgressReporter) Committed(done int) {
	if p.bar {
		return
	}
	_, _ = fmt.Fprintf(p.writer, "  Processed %d/%d conversations...\n", done, p.total)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	if p.bar {
		_, _ = fmt.Fprintln(p.writer)
	}
	_, _ = fmt.Fprintf(p.writer, "Processed %d/%d conversations in %s\n", p.current, p.total, elapsed.Round(time.Millisecond))
}
