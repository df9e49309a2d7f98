package mcpserver

import (
	"github.com/abhisek/persona/internal/engine"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/session"
)

type startView struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// optionView omits the option's theta value so clients cannot see how
// answers are scored.
type optionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type scenarioView struct {
	ID        string       `json:"id"`
	Dimension string       `json:"dimension"`
	Situation string       `json:"situation"`
	Question  string       `json:"question"`
	Options   []optionView `json:"options"`
}

type stepView struct {
	SessionID    string           `json:"session_id"`
	Completed    bool             `json:"completed"`
	Administered int              `json:"administered"`
	MaxItems     int              `json:"max_items"`
	Scenario     *scenarioView    `json:"scenario,omitempty"`
	Profile      *session.Profile `json:"profile,omitempty"`
}

func newScenarioView(sc *scenario.Scenario) *scenarioView {
	v := &scenarioView{
		ID:        sc.ID,
		Dimension: sc.Dimension,
		Situation: sc.Situation,
		Question:  sc.Question,
		Options:   make([]optionView, len(sc.Options)),
	}
	for i, o := range sc.Options {
		v.Options[i] = optionView{ID: o.ID, Text: o.Text}
	}
	return v
}

func newStepView(s *engine.Step) stepView {
	v := stepView{
		SessionID:    s.SessionID,
		Completed:    s.Completed,
		Administered: s.Administered,
		MaxItems:     s.MaxItems,
		Profile:      s.Profile,
	}
	if s.Scenario != nil {
		v.Scenario = newScenarioView(s.Scenario)
	}
	return v
}
