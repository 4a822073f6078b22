package tui

import (
	"coursemirror/pkg/mirror"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StatsMsg carries a progress snapshot from the engine
type StatsMsg struct {
	Stats mirror.Stats
}

// LogMsg adds a line to the activity panel
type LogMsg struct {
	Level   string
	Message string
	// URL, when set with a "visiting page" message, becomes the current page
	URL string
}

// DoneMsg reports the end of the run
type DoneMsg struct {
	Stats mirror.Stats
	Err   error
}

const visitingMessage = "visiting page"

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatsMsg:
		m.stats = msg.Stats
		return m, nil

	case LogMsg:
		if msg.Message == visitingMessage && msg.URL != "" {
			m.currentPage = msg.URL
		}
		text := msg.Message
		if msg.URL != "" {
			text += " " + msg.URL
		}
		m.AddLogMessage(msg.Level, text)
		return m, nil

	case DoneMsg:
		m.done = true
		m.stats = msg.Stats
		m.runErr = msg.Err
		m.currentPage = ""
		if msg.Err != nil {
			m.AddLogMessage("ERROR", "mirror stopped: "+msg.Err.Error())
		} else {
			m.AddLogMessage("INFO", "mirror finished")
		}
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		if !m.done && m.onQuit != nil {
			m.onQuit()
			m.onQuit = nil
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}
