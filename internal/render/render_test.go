package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/session"
	"github.com/abhisek/persona/internal/store"
)

func TestProgressBar(t *testing.T) {
	out := ansi.Strip(ProgressBar("Risk", 0.5, 30))

	assert.True(t, strings.HasPrefix(out, "Risk  "))
	assert.True(t, strings.HasSuffix(out, " 50%"))
	assert.Equal(t, strings.Count(out, "█"), strings.Count(out, "░"))
	assert.Equal(t, 30, ansi.StringWidth(out))
}

func TestProgressBar_Clamps(t *testing.T) {
	out := ansi.Strip(ProgressBar("", 1.7, 20))
	assert.NotContains(t, out, "░")

	out = ansi.Strip(ProgressBar("", -1, 20))
	assert.NotContains(t, out, "█")
}

func TestScenario(t *testing.T) {
	sc := &scenario.Scenario{
		ID:        "rt-1",
		Dimension: dimension.RiskTaking,
		Situation: "A supplier offers an exclusive deal.",
		Question:  "What do you do?",
		Options: []scenario.Option{
			{ID: "A", Text: "Decline."},
			{ID: "B", Text: "Ask for samples."},
			{ID: "C", Text: "Take a small order."},
			{ID: "D", Text: "Sign the deal."},
		},
	}

	out := ansi.Strip(Scenario(sc, "Risk Taking", Progress{Administered: 3, MaxItems: 15}, 60))

	assert.Contains(t, out, "Item 4 of up to 15")
	assert.Contains(t, out, "Risk Taking")
	assert.Contains(t, out, "A supplier offers an exclusive deal.")
	assert.Contains(t, out, "What do you do?")
	for _, want := range []string{"A)", "B)", "C)", "D)", "Sign the deal."} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "20%")
}

func TestProfile(t *testing.T) {
	p := &session.Profile{
		Dimensions: []session.DimensionResult{
			{Dimension: "resilience", Name: "Resilience", Score: 80, Level: dimension.LevelHigh,
				Strength: "Bounces back fast.", Development: "Ask for help sooner."},
			{Dimension: "autonomy", Name: "Autonomy", Score: 30, Level: dimension.LevelLow,
				Strength: "Works well in teams.", Development: "Practise deciding alone."},
		},
		Readiness:        session.Readiness{Score: 62, Percentile: 75, Level: dimension.LevelHigh},
		Strengths:        []string{"resilience"},
		DevelopmentAreas: []string{"autonomy"},
		TotalItems:       14,
		CompletedAt:      time.Unix(0, 0),
	}

	out := ansi.Strip(Profile(p, 80))

	assert.Contains(t, out, "62/100")
	assert.Contains(t, out, "percentile 75, 14 items")
	assert.Contains(t, out, "Strengths")
	assert.Contains(t, out, "Bounces back fast.")
	assert.Contains(t, out, "Development areas")
	assert.Contains(t, out, "Practise deciding alone.")
	assert.NotContains(t, out, "Works well in teams.")
	assert.Less(t, strings.Index(out, "Resilience"), strings.Index(out, "Autonomy"))
}

func TestSessions(t *testing.T) {
	out := ansi.Strip(Sessions([]store.SessionSummary{
		{ID: "s-1", OwnerUserID: "ann", Status: "completed", TotalAdministered: 14, StartedAt: time.Now()},
		{ID: "s-2", Status: "active", TotalAdministered: 3, StartedAt: time.Now()},
	}))

	for _, want := range []string{"ID", "Owner", "s-1", "ann", "completed", "14", "s-2", "active"} {
		assert.Contains(t, out, want)
	}
}

func TestUsage(t *testing.T) {
	out := ansi.Strip(Usage([]llm.UsageSummary{
		{Model: "gpt-4o-mini", Requests: 3, InputTokens: 1000, OutputTokens: 500, CostUSD: 0.25, Priced: true},
		{Model: "local", Requests: 1},
	}))

	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "$0.25")
	assert.Contains(t, out, "?")
	assert.Contains(t, out, "TOTAL (partial)")
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0042", FormatCost(0.0042))
	assert.Equal(t, "$1.50", FormatCost(1.5))
}

func TestError(t *testing.T) {
	assert.Equal(t, "error: boom", ansi.Strip(Error(errors.New("boom"))))
}

func TestResponses(t *testing.T) {
	out := ansi.Strip(Responses([]store.ResponseEvent{
		{Sequence: 4, Timestamp: time.Now(), ResponseEventData: store.ResponseEventData{
			ScenarioID: "rt-03", Dimension: "risk_taking", OptionID: "C", Theta: 0.42, StandardError: 0.81,
		}},
	}, dimension.Default().DisplayName))

	for _, want := range []string{"Dimension", "Risk", "rt-03", "C", "+0.42", "0.81"} {
		assert.Contains(t, out, want)
	}
}

func TestLLMRequests(t *testing.T) {
	out := ansi.Strip(LLMRequests([]store.LLMRequestEvent{
		{Sequence: 7, Timestamp: time.Now(), LLMRequestEventData: store.LLMRequestEventData{
			Model: "gpt-4o-mini", Purpose: "scenario-gen", InputTokens: 120, OutputTokens: 80, LatencyMs: 640, Success: true,
		}},
		{Sequence: 8, Timestamp: time.Now(), LLMRequestEventData: store.LLMRequestEventData{Model: "gpt-4o-mini"}},
	}))

	for _, want := range []string{"7", "scenario-gen", "gpt-4o-mini", "120", "640", "✓", "✗"} {
		assert.Contains(t, out, want)
	}
}

func TestScenarios(t *testing.T) {
	sc := &scenario.Scenario{
		ID:         "in-7",
		Dimension:  dimension.Innovation,
		Difficulty: -0.5,
		Situation:  strings.Repeat("long situation ", 10),
	}
	out := ansi.Strip(Scenarios([]*scenario.Scenario{sc}))

	assert.Contains(t, out, sc.ID)
	assert.Contains(t, out, "-0.50")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, sc.Situation)
}
