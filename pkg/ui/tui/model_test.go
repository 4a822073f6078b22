package tui

import (
	"errors"
	"strings"
	"testing"

	"coursemirror/pkg/mirror"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTracksCurrentPage(t *testing.T) {
	model := NewModel("https://ninova.itu.edu.tr/Sinif/1/DersDosyalari", "downloads", nil)

	model.Update(LogMsg{Level: "INFO", Message: "visiting page", URL: "https://ninova.itu.edu.tr/Sinif/1/DersDosyalari?g5"})
	assert.Equal(t, "https://ninova.itu.edu.tr/Sinif/1/DersDosyalari?g5", model.currentPage)

	model.Update(LogMsg{Level: "INFO", Message: "file downloaded", URL: "https://ninova.itu.edu.tr/x"})
	assert.Equal(t, "https://ninova.itu.edu.tr/Sinif/1/DersDosyalari?g5", model.currentPage)
	require.Len(t, model.logMessages, 2)
	assert.Equal(t, "file downloaded https://ninova.itu.edu.tr/x", model.logMessages[1].Message)
}

func TestModelStatsAndDone(t *testing.T) {
	model := NewModel("c", "o", nil)

	model.Update(StatsMsg{Stats: mirror.Stats{PagesVisited: 3, FilesDownloaded: 2, Bytes: 2048}})
	assert.Equal(t, 3, model.stats.PagesVisited)

	model.Update(DoneMsg{Stats: mirror.Stats{PagesVisited: 4}, Err: errors.New("context canceled")})
	assert.True(t, model.done)
	assert.Equal(t, 4, model.stats.PagesVisited)
	assert.Equal(t, "ERROR", model.logMessages[len(model.logMessages)-1].Level)
}

func TestModelQuitCancelsRun(t *testing.T) {
	calls := 0
	model := NewModel("c", "o", func() { calls++ })

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, 1, calls)

	finished := NewModel("c", "o", func() { calls++ })
	finished.Update(DoneMsg{})
	finished.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, 1, calls)
}

func TestModelLogLimit(t *testing.T) {
	model := NewModel("c", "o", nil)
	model.maxLogMessages = 3
	for i := 0; i < 5; i++ {
		model.AddLogMessage("INFO", strings.Repeat("x", i+1))
	}
	require.Len(t, model.logMessages, 3)
	assert.Equal(t, "xxx", model.logMessages[0].Message)

	model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, model.logMessages)
}

func TestViewRendersStats(t *testing.T) {
	model := NewModel("https://ninova.itu.edu.tr/Sinif/1", "downloads", nil)
	assert.Equal(t, "Initializing...", model.View())

	model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	model.Update(StatsMsg{Stats: mirror.Stats{PagesVisited: 7, FilesDownloaded: 5, FilesFailed: 1, Bytes: 1536}})

	view := model.View()
	assert.Contains(t, view, "Pages visited")
	assert.Contains(t, view, "7")
	assert.Contains(t, view, "1.5 KB")
	assert.Contains(t, view, "0 pages, 1 files")
}

func TestParseLogLine(t *testing.T) {
	msg, ok := ParseLogLine([]byte(`{"level":"error","url":"https://p/x","error":"status 404","message":"download failed"}`))
	require.True(t, ok)
	assert.Equal(t, "ERROR", msg.Level)
	assert.Equal(t, "download failed: status 404", msg.Message)
	assert.Equal(t, "https://p/x", msg.URL)

	_, ok = ParseLogLine([]byte("not json"))
	assert.False(t, ok)
	_, ok = ParseLogLine([]byte(`{"level":"info"}`))
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "çğıöşü...", truncate("çğıöşüçğıöşü", 9))
}
