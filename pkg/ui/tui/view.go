package tui

import (
	"fmt"
	"strings"
	"time"

	"coursemirror/pkg/ui"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatsPanel(m.width - 2),
		m.renderLogsPanel(m.width - 2),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("q quit • ? help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	status := m.spinner.View() + " mirroring"
	switch {
	case m.done && m.runErr != nil:
		status = errorStyle.Render("✗ stopped")
	case m.done:
		status = successStyle.Render("✓ done")
	}

	lines := []string{
		headerStyle.Render("coursemirror") + "  " + status,
		dimStyle.Render(" " + m.course + " → " + m.output),
	}
	if m.currentPage != "" {
		lines = append(lines, dimStyle.Render(" at "+truncate(m.currentPage, m.width-5)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStatsPanel(width int) string {
	s := m.stats
	row := func(label, value string) string {
		return statsLabelStyle.Render(label) + statsValueStyle.Render(value)
	}

	rows := []string{
		titleStyle.Render(" PROGRESS "),
		row("Elapsed", formatDuration(m.Elapsed())),
		row("Pages visited", fmt.Sprintf("%d", s.PagesVisited)),
		row("Files saved", fmt.Sprintf("%d (%s)", s.FilesDownloaded, ui.FormatBytes(s.Bytes))),
	}
	if s.PagesFailed+s.FilesFailed > 0 {
		rows = append(rows, statsLabelStyle.Render("Failures")+
			errorStyle.Render(fmt.Sprintf("%d pages, %d files", s.PagesFailed, s.FilesFailed)))
	}
	if s.PagesSkipped+s.FilesSkipped > 0 {
		rows = append(rows, statsLabelStyle.Render("Skipped")+
			warningStyle.Render(fmt.Sprintf("%d pages, %d files", s.PagesSkipped, s.FilesSkipped)))
	}

	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderLogsPanel(width int) string {
	// header, stats panel and help take roughly 14 lines
	visible := m.height - 16
	if visible < 3 {
		visible = 3
	}

	start := len(m.logMessages) - visible
	if start < 0 {
		start = 0
	}

	logs := []string{titleStyle.Render(" ACTIVITY ")}
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("%-5s", entry.Level))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, truncate(entry.Message, width-20)))
	}
	if len(logs) == 1 {
		logs = append(logs, dimStyle.Render("No activity yet..."))
	}

	return panelStyle.Width(width).Render(strings.Join(logs, "\n"))
}

func (m Model) renderHelp() string {
	help := strings.Join([]string{
		"q / esc / ctrl+c   stop the run and quit",
		"ctrl+l             clear the activity panel",
		"?                  toggle this help",
	}, "\n")
	return panelStyle.Width(m.width - 2).Render(help)
}

func truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
