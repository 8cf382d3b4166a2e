package ui

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects terminal output into buffers with colours off
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	SetOutput(out, errOut)
	SetQuietMode(false)
	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		SetQuietMode(false)
	})
	return out, errOut
}

func TestColors(t *testing.T) {
	captureOutput(t)

	assert.False(t, ColorsEnabled(), "buffers are not terminals")
	assert.Equal(t, "plain", Cyan("plain"))

	SetColors(true)
	assert.Equal(t, "\033[36mplain\033[0m", Cyan("plain"))
	assert.Equal(t, "\033[31mbad\033[0m", Red("bad"))
}

func TestPrintHelpers(t *testing.T) {
	out, errOut := captureOutput(t)

	PrintInfo("Page", "http://example.com")
	PrintSuccess("done")
	PrintWarning("careful", "slow")
	PrintHighlight("hello")
	PrintError("failed", errors.New("boom"))

	assert.Equal(t, "Page: http://example.com\ndone\ncareful: slow\nhello\n", out.String())
	assert.Equal(t, "failed: boom\n", errOut.String())
}

func TestQuietModeKeepsErrors(t *testing.T) {
	out, errOut := captureOutput(t)
	SetQuietMode(true)

	assert.True(t, IsQuiet())
	PrintBanner("1.0.0")
	PrintInfo("Page", "x")
	PrintSummary(Stats{Downloaded: 1})
	PrintError("fatal")

	assert.Empty(t, out.String())
	assert.Equal(t, "fatal\n", errOut.String())
}

func TestPrintBanner(t *testing.T) {
	out, _ := captureOutput(t)

	PrintBanner("2.1.0")
	assert.Contains(t, out.String(), "┌─┐")
	assert.Contains(t, out.String(), "v2.1.0")
}

func TestProgressDisplayVerbose(t *testing.T) {
	captureOutput(t)
	var buf bytes.Buffer
	p := newProgressDisplay(&buf, "gallery", true, false)

	p.Start(4)
	p.Record("downloaded", "http://example.com/a.jpg", 2048, nil)
	p.Record("existing", "http://example.com/b.jpg", 0, nil)
	p.Record("duplicate", "http://example.com/a.jpg", 0, nil)
	p.Record("failed", "http://example.com/c.jpg", 0, errors.New("404"))
	p.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "→ 4 gallery images", lines[0])
	assert.Equal(t, "✓ http://example.com/a.jpg • 2.0 KB", lines[1])
	assert.Equal(t, "• http://example.com/b.jpg • existing", lines[2])
	assert.Equal(t, "✗ http://example.com/c.jpg • 404", lines[4])

	line := p.Line()
	assert.Contains(t, line, "4/4")
	assert.Contains(t, line, "2.0 KB")
	assert.Contains(t, line, "2 skipped")
	assert.Contains(t, line, "1 failed")
	assert.Contains(t, line, strings.Repeat("━", barWidth))
}

func TestProgressDisplayInline(t *testing.T) {
	captureOutput(t)
	var buf bytes.Buffer
	p := newProgressDisplay(&buf, "gallery", false, true)

	p.Start(2)
	p.Record("downloaded", "http://example.com/a.jpg", 10, nil)
	p.Finish()

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\r\033[K"))
	assert.Contains(t, out, "1/2")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.NotContains(t, out, "✓")
}

func TestProgressDisplayHalfBar(t *testing.T) {
	captureOutput(t)
	p := newProgressDisplay(&bytes.Buffer{}, "g", false, false)

	p.Start(2)
	p.Record("downloaded", "u", 1, nil)

	half := strings.Repeat("━", barWidth/2) + strings.Repeat("─", barWidth/2)
	assert.Contains(t, p.Line(), "["+half+"]")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}

func TestRenderSummaryPlain(t *testing.T) {
	captureOutput(t)

	out := RenderSummary(Stats{
		PageURL:    "http://example.com/gallery",
		Title:      "Holiday",
		OutputDir:  "/tmp/out",
		Images:     5,
		Candidates: 3,
		Downloaded: 3,
		Bytes:      3072,
		Duration:   4 * time.Second,
	})

	assert.True(t, strings.HasPrefix(out, "SUMMARY\n"))
	assert.Contains(t, out, "Page        http://example.com/gallery")
	assert.Contains(t, out, "Title       Holiday")
	assert.Contains(t, out, "Images      5 on page, 3 in gallery")
	assert.Contains(t, out, "Downloaded  3")
	assert.Contains(t, out, "Size        3.0 KB")
	assert.Contains(t, out, "Gallery complete")
	assert.NotContains(t, out, "Failed")
	assert.NotContains(t, out, "Existing")
}

func TestRenderSummaryStatus(t *testing.T) {
	captureOutput(t)

	failed := RenderSummary(Stats{Candidates: 3, Downloaded: 1, Existing: 1, Failed: 1})
	assert.Contains(t, failed, "Failed      1")
	assert.Contains(t, failed, "Existing    1")
	assert.Contains(t, failed, "Finished with 1 failed")

	empty := RenderSummary(Stats{Images: 1})
	assert.Contains(t, empty, "No gallery found on the page")
}

func TestRenderSummaryPanel(t *testing.T) {
	captureOutput(t)
	SetColors(true)

	out := RenderSummary(Stats{Candidates: 1, Downloaded: 1})
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "SUMMARY")
}

type fakeSender struct {
	title, message string
	calls          int
	err            error
}

func (f *fakeSender) Send(title, message string) error {
	f.calls++
	f.title, f.message = title, message
	return f.err
}

func TestNotifyFinished(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifierWithSender(sender)

	require.NoError(t, n.NotifyFinished(Stats{Title: "Holiday", Candidates: 3, Downloaded: 3}))
	assert.Equal(t, "galleryscraper", sender.title)
	assert.Equal(t, "Saved 3 images from Holiday", sender.message)

	require.NoError(t, n.NotifyFinished(Stats{PageURL: "http://example.com/g", Candidates: 3, Downloaded: 2, Failed: 1}))
	assert.Equal(t, "Saved 2 of 3 images from http://example.com/g (1 failed)", sender.message)

	require.NoError(t, n.NotifyFinished(Stats{PageURL: "http://example.com/g"}))
	assert.Equal(t, "No gallery found on http://example.com/g", sender.message)
}

func TestNotifyFinishedErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("no notification daemon")}
	err := NewNotifierWithSender(sender).NotifyFinished(Stats{Candidates: 1, Downloaded: 1})
	assert.EqualError(t, err, "no notification daemon")

	assert.NoError(t, NewNotifierWithSender(nil).NotifyFinished(Stats{}))
}
