package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accentCyan   = lipgloss.Color("#00FFFF")
	accentPurple = lipgloss.Color("#B388FF")
	accentGreen  = lipgloss.Color("#39FF14")
	accentYellow = lipgloss.Color("#FFFF00")
	accentOrange = lipgloss.Color("#FF6700")
	accentRed    = lipgloss.Color("#FF3B3B")
	darkBg       = lipgloss.Color("#1A1E37")
	dimWhite     = lipgloss.Color("#B0B0B0")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true).
			Padding(1, 0, 0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentPurple).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Background(accentPurple).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Width(18)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(accentYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(accentRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(accentOrange).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 0, 0, 1)
)

// levelColor maps a log level to the color used in the activity panel
func levelColor(level string) lipgloss.Color {
	switch level {
	case "ERROR":
		return accentRed
	case "WARN":
		return accentOrange
	case "DEBUG":
		return dimWhite
	default:
		return accentCyan
	}
}
