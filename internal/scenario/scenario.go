// Package scenario defines assessment items and the providers that supply
// them: a static bank, an LLM-backed generator and a fallback chain.
package scenario

import (
	"fmt"
	"math"
	"slices"
)

// OptionIDs is the fixed option order, lowest to highest implied ability.
var OptionIDs = []string{"A", "B", "C", "D"}

// Source labels where a scenario came from.
const (
	SourceBank      = "bank"
	SourceGenerated = "generated"
)

// Option is one answer choice with its pre-assigned ability value.
type Option struct {
	ID         string  `json:"id" yaml:"id"`
	Text       string  `json:"text" yaml:"text"`
	ThetaValue float64 `json:"theta_value" yaml:"theta_value"`
}

// Scenario is a calibrated situational-judgement item for one dimension.
type Scenario struct {
	ID             string   `json:"id" yaml:"id"`
	Dimension      string   `json:"dimension" yaml:"dimension"`
	Situation      string   `json:"situation" yaml:"situation"`
	Question       string   `json:"question" yaml:"question"`
	Difficulty     float64  `json:"difficulty" yaml:"difficulty"`
	Discrimination float64  `json:"discrimination" yaml:"discrimination"`
	Options        []Option `json:"options" yaml:"options"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Source         string   `json:"source,omitempty" yaml:"-"`
}

// Option returns the option with the given id.
func (s *Scenario) Option(id string) (Option, bool) {
	for _, o := range s.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy.
func (s *Scenario) Clone() *Scenario {
	if s == nil {
		return nil
	}
	c := *s
	c.Options = slices.Clone(s.Options)
	c.Tags = slices.Clone(s.Tags)
	return &c
}

// ValidationError describes why a scenario is malformed.
type ValidationError struct {
	ScenarioID string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.ScenarioID == "" {
		return "invalid scenario: " + e.Message
	}
	return fmt.Sprintf("invalid scenario %q: %s", e.ScenarioID, e.Message)
}

// Validate checks the numeric contract the estimator depends on.
func (s *Scenario) Validate() error {
	fail := func(format string, args ...any) error {
		return &ValidationError{ScenarioID: s.ID, Message: fmt.Sprintf(format, args...)}
	}

	if s.ID == "" {
		return fail("missing id")
	}
	if s.Dimension == "" {
		return fail("missing dimension")
	}
	if !finite(s.Difficulty) {
		return fail("difficulty is not finite")
	}
	if !finite(s.Discrimination) || s.Discrimination <= 0 {
		return fail("discrimination must be > 0, got %v", s.Discrimination)
	}
	if len(s.Options) != len(OptionIDs) {
		return fail("expected %d options, got %d", len(OptionIDs), len(s.Options))
	}

	for i, o := range s.Options {
		if o.ID != OptionIDs[i] {
			return fail("option %d: expected id %q, got %q", i, OptionIDs[i], o.ID)
		}
		if !finite(o.ThetaValue) {
			return fail("option %s: theta value is not finite", o.ID)
		}
		if i > 0 && o.ThetaValue < s.Options[i-1].ThetaValue {
			return fail("option %s: theta values must be non-decreasing", o.ID)
		}
	}
	if s.Options[0].ThetaValue == s.Options[len(s.Options)-1].ThetaValue {
		return fail("options do not spread across ability levels")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
