package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/llm"
)

// GeneratorConfig controls the LLM-backed scenario generator.
type GeneratorConfig struct {
	// Discrimination assigned to generated scenarios.
	Discrimination float64

	// LadderOffsets are added to the target difficulty to produce the
	// theta values of options A..D. Must be non-decreasing.
	LadderOffsets [4]float64

	MaxTokens   int
	Temperature float64
}

// DefaultGeneratorConfig returns recommended defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Discrimination: 1.2,
		LadderOffsets:  [4]float64{-1.5, -0.5, 0.5, 1.5},
		MaxTokens:      768,
		Temperature:    0.8,
	}
}

// Generator writes fresh scenarios with an LLM. Scenario text comes from the
// model; all numbers are assigned locally so the estimator never depends on
// model arithmetic.
type Generator struct {
	provider llm.Provider
	dims     *dimension.Set
	config   GeneratorConfig
	newID    func() string
}

// NewGenerator creates a Generator for the given dimension set.
func NewGenerator(provider llm.Provider, dims *dimension.Set, cfg GeneratorConfig) *Generator {
	return &Generator{
		provider: provider,
		dims:     dims,
		config:   cfg,
		newID:    func() string { return "gen-" + uuid.NewString() },
	}
}

type scenarioOutput struct {
	Situation string   `json:"situation"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
}

// GetScenario implements Provider. ExcludeIDs never match generated ids.
func (g *Generator) GetScenario(ctx context.Context, req Request) (*Scenario, error) {
	dim, ok := g.dims.Get(req.Dimension)
	if !ok {
		return nil, fmt.Errorf("%w: unknown dimension %q", ErrNotFound, req.Dimension)
	}

	ctx = llm.WithPurpose(ctx, "scenario-gen")
	target := estimate.Clamp(req.TargetDifficulty)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(dim, target, req.BusinessContext)},
		},
		Schema:      ScenarioSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario generation failed: %w", err)
	}

	var raw scenarioOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(raw.Options) != len(OptionIDs) {
		return nil, &ValidationError{Message: fmt.Sprintf("generator returned %d options", len(raw.Options))}
	}

	sc := &Scenario{
		ID:             g.newID(),
		Dimension:      dim.ID,
		Situation:      strings.TrimSpace(raw.Situation),
		Question:       strings.TrimSpace(raw.Question),
		Difficulty:     target,
		Discrimination: g.config.Discrimination,
		Options:        make([]Option, len(OptionIDs)),
		Source:         SourceGenerated,
	}
	for i, text := range raw.Options {
		sc.Options[i] = Option{
			ID:         OptionIDs[i],
			Text:       strings.TrimSpace(text),
			ThetaValue: estimate.Clamp(target + g.config.LadderOffsets[i]),
		}
	}
	if sc.Situation == "" || sc.Question == "" {
		return nil, &ValidationError{ScenarioID: sc.ID, Message: "empty situation or question"}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// ScenarioSchema is the structured-output contract for generated scenarios.
var ScenarioSchema = &llm.Schema{
	Name:        "personality-scenario",
	Description: "A workplace scenario with four answer options ordered from lowest to highest expression of a trait",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"situation": map[string]any{
				"type":        "string",
				"description": "Two or three sentences describing a realistic business situation",
			},
			"question": map[string]any{
				"type":        "string",
				"description": "A short question asking what the respondent would do",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactly 4 answers, ordered from the weakest to the strongest expression of the trait",
			},
		},
		"required":             []any{"situation", "question", "options"},
		"additionalProperties": false,
	},
}
