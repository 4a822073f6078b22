package tui

import (
	"time"

	"coursemirror/pkg/mirror"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultMaxLogMessages = 200

// Model is the dashboard state of one mirror run
type Model struct {
	spinner spinner.Model

	course      string
	output      string
	currentPage string
	stats       mirror.Stats
	startTime   time.Time

	done   bool
	runErr error

	// onQuit is invoked once when the user quits before the run is over
	onQuit func()

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage is one line of the activity panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a dashboard for mirroring course into output
func NewModel(course, output string, onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentCyan)

	return Model{
		spinner:        s,
		course:         course,
		output:         output,
		startTime:      time.Now(),
		onQuit:         onQuit,
		maxLogMessages: defaultMaxLogMessages,
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// AddLogMessage appends a line to the activity panel, dropping the oldest
// lines past the limit.
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Elapsed returns the run time shown in the stats panel
func (m Model) Elapsed() time.Duration {
	if m.done && m.stats.Duration > 0 {
		return m.stats.Duration
	}
	return time.Since(m.startTime)
}
