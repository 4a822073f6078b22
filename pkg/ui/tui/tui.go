package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"coursemirror/pkg/mirror"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI runs the dashboard program. It doubles as an io.Writer so the JSON
// log stream can be routed into the activity panel.
type TUI struct {
	program *tea.Program

	mu      sync.Mutex
	pending bytes.Buffer
}

// New creates a dashboard. onQuit is called when the user quits early.
func New(course, output string, onQuit func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel(course, output, onQuit)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{program: tea.NewProgram(&model, opts...)}
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop ends the program
func (t *TUI) Stop() {
	t.program.Quit()
}

// Progress forwards an engine snapshot; it matches mirror.Options.Progress.
func (t *TUI) Progress(stats mirror.Stats) {
	t.program.Send(StatsMsg{Stats: stats})
}

// Done marks the run as finished
func (t *TUI) Done(stats mirror.Stats, err error) {
	t.program.Send(DoneMsg{Stats: stats, Err: err})
}

// Write accepts newline-delimited JSON log events
func (t *TUI) Write(p []byte) (int, error) {
	t.mu.Lock()
	t.pending.Write(p)
	var lines [][]byte
	for {
		i := bytes.IndexByte(t.pending.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := make([]byte, i)
		copy(line, t.pending.Next(i+1))
		lines = append(lines, line)
	}
	t.mu.Unlock()

	for _, line := range lines {
		if msg, ok := ParseLogLine(line); ok {
			t.program.Send(msg)
		}
	}
	return len(p), nil
}

// ParseLogLine turns one JSON log event into a LogMsg
func ParseLogLine(line []byte) (LogMsg, bool) {
	var event struct {
		Level   string `json:"level"`
		Message string `json:"message"`
		URL     string `json:"url"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), &event); err != nil || event.Message == "" {
		return LogMsg{}, false
	}

	msg := LogMsg{
		Level:   strings.ToUpper(event.Level),
		Message: event.Message,
		URL:     event.URL,
	}
	if event.Error != "" {
		msg.Message += ": " + event.Error
	}
	return msg, true
}
