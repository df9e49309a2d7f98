package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/session"
)

// Profile renders the final assessment result: the readiness summary, one
// bar per dimension, then strengths and development areas with their text.
func Profile(p *session.Profile, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Entrepreneurial readiness"))
	b.WriteString("  ")
	b.WriteString(bodyStyle.Bold(true).Render(fmt.Sprintf("%d/100", p.Readiness.Score)))
	b.WriteString("  ")
	b.WriteString(levelColor(p.Readiness.Level).Render(p.Readiness.Level.DisplayName()))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (percentile %d, %d items)", p.Readiness.Percentile, p.TotalItems)))
	b.WriteString("\n\n")

	nameWidth := 0
	for _, d := range p.Dimensions {
		nameWidth = max(nameWidth, lipgloss.Width(d.Name))
	}
	for _, d := range p.Dimensions {
		label := fmt.Sprintf("%-*s", nameWidth, d.Name)
		bar := ProgressBar(label, float64(d.Score)/100, width-14)
		b.WriteString(bar)
		b.WriteString("  ")
		b.WriteString(levelColor(d.Level).Render(d.Level.DisplayName()))
		b.WriteString("\n")
	}

	section := func(title string, ids []string, text func(session.DimensionResult) string) {
		if len(ids) == 0 {
			return
		}
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
		for _, id := range ids {
			r, ok := p.Result(id)
			if !ok {
				continue
			}
			b.WriteString(bodyStyle.Bold(true).Render("• " + r.Name))
			b.WriteString("\n")
			b.WriteString(dimStyle.Width(width-2).PaddingLeft(2).Render(text(r)))
			b.WriteString("\n")
		}
	}
	section("Strengths", p.Strengths, func(r session.DimensionResult) string { return r.Strength })
	section("Development areas", p.DevelopmentAreas, func(r session.DimensionResult) string { return r.Development })

	return strings.TrimRight(b.String(), "\n")
}
