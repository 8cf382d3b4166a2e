package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

const barWidth = 24

// ProgressDisplay prints a single progress line that is rewritten as
// candidates finish. In verbose mode, or when output is not a terminal,
// it prints one line per candidate instead.
type ProgressDisplay struct {
	mu         sync.Mutex
	out        io.Writer
	label      string
	total      int
	done       int
	downloaded int
	skipped    int
	failed     int
	bytes      int64
	startTime  time.Time
	verbose    bool
	inline     bool
	bar        progress.Model
}

// NewProgressDisplay creates a progress display on the normal output
func NewProgressDisplay(label string, verbose bool) *ProgressDisplay {
	return newProgressDisplay(Output(), label, verbose, ColorsEnabled() && !verbose)
}

func newProgressDisplay(out io.Writer, label string, verbose, inline bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		label:     label,
		verbose:   verbose,
		inline:    inline,
		startTime: time.Now(),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Start resets the display for total candidates
func (p *ProgressDisplay) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.startTime = time.Now()

	if p.inline {
		p.printProgress()
	} else if p.verbose {
		fmt.Fprintf(p.out, "%s %d gallery images\n", Magenta("→"), total)
	}
}

// Record counts one finished candidate
func (p *ProgressDisplay) Record(outcome, url string, size int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	switch outcome {
	case "downloaded":
		p.downloaded++
		p.bytes += size
	case "existing", "duplicate":
		p.skipped++
	default:
		p.failed++
	}

	switch {
	case p.inline:
		p.printProgress()
	case p.verbose:
		p.printItem(outcome, url, size, err)
	}
}

// Finish ends the progress line
func (p *ProgressDisplay) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inline {
		fmt.Fprintln(p.out)
	}
}

// Line returns the current progress line
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) line() string {
	pct := 0.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total)
	}

	var bar string
	if ColorsEnabled() {
		bar = p.bar.ViewAs(pct)
	} else {
		filled := int(pct * barWidth)
		bar = strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
	}

	line := fmt.Sprintf("%s [%s] %d/%d • %s • %s",
		Cyan(p.label),
		bar,
		p.done,
		p.total,
		FormatBytes(p.bytes),
		FormatDuration(time.Since(p.startTime)),
	)
	if p.skipped > 0 {
		line += fmt.Sprintf(" • %s", Dim(fmt.Sprintf("%d skipped", p.skipped)))
	}
	if p.failed > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failed", p.failed)))
	}
	return line
}

// printProgress rewrites the current terminal line
func (p *ProgressDisplay) printProgress() {
	fmt.Fprintf(p.out, "\r\033[K%s", p.line())
}

func (p *ProgressDisplay) printItem(outcome, url string, size int64, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(p.out, "%s %s • %v\n", Red("✗"), url, err)
	case outcome == "downloaded":
		fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), url, FormatBytes(size))
	default:
		fmt.Fprintf(p.out, "%s %s • %s\n", Dim("•"), url, Dim(outcome))
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatBytes formats bytes in a human-readable way
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
