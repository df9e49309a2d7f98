// Package session holds the assessment session aggregate: one estimate per
// dimension, the administered items and the lifecycle state.
package session

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/selector"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// ErrNotActive is returned when mutating a session in a terminal state.
var ErrNotActive = errors.New("session not active")

// Session is one user's assessment run.
type Session struct {
	ID          string
	OwnerUserID string

	// Dimensions lists the configured dimension ids in declaration order.
	Dimensions []string

	// Estimates has exactly one entry per configured dimension.
	Estimates map[string]estimate.Estimate

	// Administered holds each administered scenario id once, in first-seen order.
	Administered []string

	// TotalAdministered counts responses, including repeats.
	TotalAdministered int

	// LastScenarioID is the most recently answered scenario.
	LastScenarioID string

	Status      Status
	StartedAt   time.Time
	CompletedAt *time.Time
	AbandonedAt *time.Time

	BusinessContext map[string]string

	// Current is the scenario awaiting a response, if any.
	Current *scenario.Scenario

	// Profile is set when the session completes.
	Profile *Profile
}

// New allocates an active session with a fresh estimate per dimension.
func New(id, ownerUserID string, dimensions []string, initialSE float64, bc map[string]string, now time.Time) *Session {
	s := &Session{
		ID:          id,
		OwnerUserID: ownerUserID,
		Dimensions:  slices.Clone(dimensions),
		Estimates:   make(map[string]estimate.Estimate, len(dimensions)),
		Status:      StatusActive,
		StartedAt:   normalizeTime(now),
	}
	for _, d := range dimensions {
		s.Estimates[d] = estimate.New(initialSE)
	}
	if len(bc) > 0 {
		s.BusinessContext = maps.Clone(bc)
	}
	return s
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Dimensions = slices.Clone(s.Dimensions)
	c.Administered = slices.Clone(s.Administered)
	c.BusinessContext = maps.Clone(s.BusinessContext)
	if s.Estimates != nil {
		c.Estimates = make(map[string]estimate.Estimate, len(s.Estimates))
		for k, v := range s.Estimates {
			c.Estimates[k] = v.Clone()
		}
	}
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.AbandonedAt = cloneTime(s.AbandonedAt)
	c.Current = s.Current.Clone()
	c.Profile = s.Profile.Clone()
	return &c
}

// Active reports whether the session accepts mutations.
func (s *Session) Active() bool { return s.Status == StatusActive }

// WasAdministered reports whether scenarioID has been answered.
func (s *Session) WasAdministered(scenarioID string) bool {
	return slices.Contains(s.Administered, scenarioID)
}

// SelectorState projects the session for the item selector.
func (s *Session) SelectorState() selector.State {
	st := selector.State{
		Dimensions:        make([]selector.Coverage, len(s.Dimensions)),
		TotalAdministered: s.TotalAdministered,
	}
	for i, d := range s.Dimensions {
		e := s.Estimates[d]
		st.Dimensions[i] = selector.Coverage{
			Dimension:     d,
			Theta:         e.Theta,
			StandardError: e.StandardError,
			ItemCount:     e.ItemCount,
		}
	}
	return st
}

// SetCurrent records the scenario handed to the caller.
func (s *Session) SetCurrent(sc *scenario.Scenario) error {
	if !s.Active() {
		return ErrNotActive
	}
	s.Current = sc
	return nil
}

// RecordResponse stores the updated estimate for the current scenario's
// dimension, marks the scenario administered and clears Current.
func (s *Session) RecordResponse(dimensionID string, updated estimate.Estimate, scenarioID string) error {
	if !s.Active() {
		return ErrNotActive
	}
	if _, ok := s.Estimates[dimensionID]; !ok {
		return errors.New("unknown dimension " + dimensionID)
	}
	s.Estimates[dimensionID] = updated
	if !s.WasAdministered(scenarioID) {
		s.Administered = append(s.Administered, scenarioID)
	}
	s.TotalAdministered++
	s.LastScenarioID = scenarioID
	s.Current = nil
	return nil
}

// Complete transitions Active -> Completed and attaches the final profile.
func (s *Session) Complete(p *Profile, at time.Time) error {
	if !s.Active() {
		return ErrNotActive
	}
	at = normalizeTime(at)
	s.Status = StatusCompleted
	s.CompletedAt = &at
	s.Current = nil
	s.Profile = p
	return nil
}

// Abandon transitions Active -> Abandoned.
func (s *Session) Abandon(at time.Time) error {
	if !s.Active() {
		return ErrNotActive
	}
	at = normalizeTime(at)
	s.Status = StatusAbandoned
	s.AbandonedAt = &at
	s.Current = nil
	return nil
}

// normalizeTime drops the monotonic reading and location so timestamps
// survive a record round trip unchanged.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Round(0)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
