package render

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/store"
)

const timeLayout = "2006-01-02 15:04"

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			return bodyStyle.Padding(0, 1)
		})
}

// Sessions renders a session listing.
func Sessions(list []store.SessionSummary) string {
	t := newTable("ID", "Owner", "Status", "Items", "Started")
	for _, s := range list {
		owner := s.OwnerUserID
		if owner == "" {
			owner = "-"
		}
		t.Row(s.ID, owner, s.Status, strconv.Itoa(s.TotalAdministered),
			s.StartedAt.Local().Format(timeLayout))
	}
	return t.Render()
}

// Usage renders per-model LLM usage with estimated cost.
func Usage(list []llm.UsageSummary) string {
	t := newTable("Model", "Calls", "Failed", "Input", "Output", "Cost")
	var total float64
	partial := false
	for _, u := range list {
		cost := "?"
		if u.Priced {
			cost = FormatCost(u.CostUSD)
			total += u.CostUSD
		} else {
			partial = true
		}
		t.Row(u.Model, strconv.Itoa(u.Requests), strconv.Itoa(u.Failures),
			strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), cost)
	}
	label := "TOTAL"
	if partial {
		label = "TOTAL (partial)"
	}
	t.Row(label, "", "", "", "", FormatCost(total))
	return t.Render()
}

// FormatCost prints small amounts with more precision.
func FormatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

// Responses renders a session's scored answers in order. name maps a
// dimension id to its display name.
func Responses(list []store.ResponseEvent, name func(string) string) string {
	t := newTable("#", "Time", "Dimension", "Scenario", "Answer", "Theta", "SE")
	for i, e := range list {
		t.Row(strconv.Itoa(i+1), e.Timestamp.Local().Format(timeLayout), name(e.Dimension),
			e.ScenarioID, e.OptionID, signed(e.Theta), fmt.Sprintf("%.2f", e.StandardError))
	}
	return t.Render()
}

// LLMRequests renders a listing of recorded LLM calls.
func LLMRequests(list []store.LLMRequestEvent) string {
	t := newTable("Seq", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
	for _, e := range list {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		t.Row(strconv.FormatInt(e.Sequence, 10), e.Timestamp.Local().Format(timeLayout), e.Purpose,
			truncate(e.Model, 28), strconv.Itoa(e.InputTokens), strconv.Itoa(e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10), ok)
	}
	return t.Render()
}

func signed(f float64) string { return fmt.Sprintf("%+.2f", f) }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Scenarios renders a bank listing with the situation shortened to fit.
func Scenarios(list []*scenario.Scenario) string {
	t := newTable("ID", "Dimension", "Difficulty", "Situation")
	for _, sc := range list {
		t.Row(sc.ID, sc.Dimension, signed(sc.Difficulty), ansi.Truncate(sc.Situation, 48, "…"))
	}
	return t.Render()
}
