package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats is the final tally of a run as shown to the user
type Stats struct {
	PageURL    string
	Title      string
	OutputDir  string
	Images     int
	Candidates int
	Downloaded int
	Existing   int
	Duplicates int
	Failed     int
	Bytes      int64
	Duration   time.Duration
}

// RenderSummary formats stats as a bordered panel, or as plain lines when
// colours are off
func RenderSummary(s Stats) string {
	rows := []string{row("Page", s.PageURL)}
	if s.Title != "" {
		rows = append(rows, row("Title", s.Title))
	}
	rows = append(rows,
		row("Saved to", s.OutputDir),
		row("Images", fmt.Sprintf("%d on page, %d in gallery", s.Images, s.Candidates)),
		styledRow("Downloaded", successStyle, strconv.Itoa(s.Downloaded)),
	)
	if s.Existing > 0 {
		rows = append(rows, styledRow("Existing", mutedStyle, strconv.Itoa(s.Existing)))
	}
	if s.Duplicates > 0 {
		rows = append(rows, styledRow("Duplicates", mutedStyle, strconv.Itoa(s.Duplicates)))
	}
	if s.Failed > 0 {
		rows = append(rows, styledRow("Failed", errorStyle, strconv.Itoa(s.Failed)))
	}
	rows = append(rows,
		row("Size", FormatBytes(s.Bytes)),
		row("Time", FormatDuration(s.Duration)),
		"",
		statusLine(s),
	)

	body := strings.Join(rows, "\n")
	title := render(titleStyle, "SUMMARY")
	if !ColorsEnabled() {
		return title + "\n" + body
	}
	return panelStyle.Render(title + "\n\n" + body)
}

// PrintSummary prints the summary panel
func PrintSummary(s Stats) {
	fmt.Fprintln(Output(), RenderSummary(s))
}

func row(label, value string) string {
	return styledRow(label, valueStyle, value)
}

func styledRow(label string, style lipgloss.Style, value string) string {
	return render(labelStyle, fmt.Sprintf("%-11s", label)) + " " + render(style, value)
}

func statusLine(s Stats) string {
	switch {
	case s.Candidates == 0:
		return render(warningStyle, "No gallery found on the page")
	case s.Failed > 0:
		return render(warningStyle, fmt.Sprintf("Finished with %d failed", s.Failed))
	default:
		return render(successStyle, "Gallery complete")
	}
}
