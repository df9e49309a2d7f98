package llm

import (
	"sort"

	"github.com/abhisek/persona/internal/store"
)

// ModelCost holds per-million-token pricing for a model in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// modelCosts covers the models the friendly names resolve to plus common
// direct IDs. Prices as published by the vendors in early 2026.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":          {1, 5},
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-sonnet-4-5":         {3, 15},
	"claude-3-5-haiku-latest":   {0.8, 4},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5-mini":   {0.25, 2},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}

// UsageSummary aggregates recorded requests for one model.
type UsageSummary struct {
	Model        string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Priced       bool // false when the model has no pricing entry
}

// SummarizeUsage groups events by model, sorted by descending cost and
// then model name.
func SummarizeUsage(events []store.LLMRequestEvent) []UsageSummary {
	byModel := make(map[string]*UsageSummary)
	for _, e := range events {
		s, ok := byModel[e.Model]
		if !ok {
			s = &UsageSummary{Model: e.Model}
			byModel[e.Model] = s
		}
		s.Requests++
		if !e.Success {
			s.Failures++
		}
		s.InputTokens += e.InputTokens
		s.OutputTokens += e.OutputTokens
	}

	out := make([]UsageSummary, 0, len(byModel))
	for _, s := range byModel {
		if c := LookupCost(s.Model); c != nil {
			s.Priced = true
			s.CostUSD = c.Cost(s.InputTokens, s.OutputTokens)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CostUSD != out[j].CostUSD {
			return out[i].CostUSD > out[j].CostUSD
		}
		return out[i].Model < out[j].Model
	})
	return out
}
