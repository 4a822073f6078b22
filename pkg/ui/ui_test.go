package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"coursemirror/pkg/mirror"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })
	return &buf
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "0 pages • 0 files • 0 B", StatusLine(mirror.Stats{}))
	assert.Equal(t, "4 pages • 9 files • 2.0 MB • 3 failed",
		StatusLine(mirror.Stats{PagesVisited: 4, FilesDownloaded: 9, Bytes: 2 << 20, PagesFailed: 1, FilesFailed: 2}))
}

func TestPrintSummary(t *testing.T) {
	out := captureOutput(t)

	PrintSummary(mirror.Stats{PagesVisited: 3, FilesDownloaded: 2, Bytes: 1536, FilesFailed: 1, Duration: 2 * time.Second}, "downloads")

	assert.Contains(t, out.String(), "Mirrored 2 files (1.5 KB) into downloads")
	assert.Contains(t, out.String(), "3 pages visited in 2s")
	assert.Contains(t, out.String(), "0 pages and 1 files failed")
	assert.NotContains(t, out.String(), "skipped")
}

func TestPrintHelpers(t *testing.T) {
	out := captureOutput(t)

	PrintError("login failed", errors.New("bad password"))
	PrintError("plain")
	PrintInfo("Output", "downloads")

	assert.Contains(t, out.String(), "login failed: bad password")
	assert.Contains(t, out.String(), "plain")
	assert.Contains(t, out.String(), "downloads")
}

func TestNotifier(t *testing.T) {
	out := captureOutput(t)
	sender := &recordingSender{err: errors.New("no notification daemon")}
	n := NewNotifierWithSender(sender)

	n.SendSuccess("Mirror complete", "12 files")
	n.SendError("Mirror failed", "session expired")

	assert.Equal(t, []string{"Mirror complete", "Mirror failed"}, sender.titles)
	assert.Contains(t, out.String(), "session expired")

	NewNotifierWithSender(nil).SendSuccess("t", "m")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, FormatBytes(test.bytes))
	}
}

func TestProgressStopKeepsLastStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	p.Update(mirror.Stats{PagesVisited: 1, FilesDownloaded: 2, Bytes: 10})
	assert.Equal(t, " 1 pages • 2 files • 10 B", p.spinner.Suffix)

	p.Stop()
	assert.Equal(t, "1 pages • 2 files • 10 B\n", p.spinner.FinalMSG)
}
