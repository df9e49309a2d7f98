package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/scenario"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 72

// Progress describes how far a session has come.
type Progress struct {
	Administered int
	MaxItems     int
}

// ProgressBar renders a labelled horizontal bar for a fraction in [0, 1].
func ProgressBar(label string, fraction float64, width int) string {
	var result string
	if label != "" {
		result = bodyStyle.Render(label) + "  "
	}

	fraction = max(0, min(1, fraction))
	barWidth := width - lipgloss.Width(result) - 6 // room for "  100%"
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * fraction)
	filled = max(0, min(barWidth, filled))

	result += lipgloss.NewStyle().Foreground(Secondary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", barWidth-filled)) +
		dimStyle.Render(fmt.Sprintf("%5d%%", int(fraction*100)))
	return result
}

// Scenario renders an item card: progress header, situation, question and
// the four options.
func Scenario(sc *scenario.Scenario, dimensionName string, p Progress, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	inner := width - 4 // border + padding

	header := titleStyle.Render(fmt.Sprintf("Item %d", p.Administered+1)) +
		dimStyle.Render(fmt.Sprintf(" of up to %d  ·  %s", p.MaxItems, dimensionName))

	var b strings.Builder
	b.WriteString(bodyStyle.Width(inner).Render(sc.Situation))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Bold(true).Width(inner).Render(sc.Question))
	b.WriteString("\n")
	for _, o := range sc.Options {
		b.WriteString("\n")
		label := lipgloss.NewStyle().Foreground(Primary).Bold(true).Render(o.ID + ")")
		text := bodyStyle.Width(inner - 4).Render(o.Text)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, "  ", text))
	}

	frac := 0.0
	if p.MaxItems > 0 {
		frac = float64(p.Administered) / float64(p.MaxItems)
	}
	return header + "\n" + cardStyle.Width(width).Render(b.String()) + "\n" +
		ProgressBar("", frac, width)
}
