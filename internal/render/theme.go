// Package render formats scenarios, progress and profiles for the terminal.
package render

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/dimension"
)

// Color palette.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#F97316") // Orange
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	bodyStyle = lipgloss.NewStyle().
			Foreground(Text)

	dimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	hintStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)
)

// levelColor maps an interpretation level to its accent color.
func levelColor(l dimension.Level) lipgloss.Style {
	c := TextDim
	switch l {
	case dimension.LevelVeryHigh, dimension.LevelHigh:
		c = Success
	case dimension.LevelModerate:
		c = Secondary
	case dimension.LevelLow:
		c = Accent
	case dimension.LevelVeryLow:
		c = Warning
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

// Error renders an error line.
func Error(err error) string {
	return errorStyle.Render("error: ") + bodyStyle.Render(err.Error())
}

// Hint renders a dimmed italic line.
func Hint(s string) string {
	return hintStyle.Render(s)
}
