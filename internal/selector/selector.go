// Package selector decides which dimension to measure next and when an
// assessment has gathered enough evidence to stop.
package selector

import (
	"math/rand/v2"
	"sync"
)

// Coverage is the selector's view of one dimension.
type Coverage struct {
	Dimension     string
	Theta         float64
	StandardError float64
	ItemCount     int
}

// State is the selector's view of a session. Dimensions are in
// declaration order.
type State struct {
	Dimensions        []Coverage
	TotalAdministered int
}

// Reason explains why a dimension was selected.
type Reason string

const (
	ReasonCoverage  Reason = "coverage"
	ReasonPrecision Reason = "precision"
	ReasonFloor     Reason = "floor"
)

// Selection is the next dimension to measure and the difficulty to aim at.
type Selection struct {
	Dimension        string
	TargetDifficulty float64
	Reason           Reason
}

// TieBreaker picks one of several equally eligible dimensions, given in
// declaration order.
type TieBreaker interface {
	Pick(candidates []string) int
}

// FirstDeclared always picks the earliest declared candidate.
type FirstDeclared struct{}

// Pick implements TieBreaker.
func (FirstDeclared) Pick([]string) int { return 0 }

// Random picks uniformly using its own source. Safe for concurrent use.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random tie-breaker from a seeded source.
func NewRandom(src rand.Source) *Random {
	return &Random{rng: rand.New(src)}
}

// Pick implements TieBreaker.
func (r *Random) Pick(candidates []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(len(candidates))
}

// Selector applies the selection policy and stopping rule.
type Selector struct {
	cfg Config
	tie TieBreaker
}

// Option configures a Selector.
type Option func(*Selector)

// WithTieBreaker replaces the default declaration-order tie-breaker.
func WithTieBreaker(tb TieBreaker) Option {
	return func(s *Selector) {
		if tb != nil {
			s.tie = tb
		}
	}
}

// New creates a Selector.
func New(cfg Config, opts ...Option) *Selector {
	s := &Selector{cfg: cfg, tie: FirstDeclared{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the selector's configuration.
func (s *Selector) Config() Config { return s.cfg }

// Next picks the dimension to measure:
//
//  1. any dimension below MinPerDimension, fewest items first;
//  2. else any dimension below TargetPerDimension, largest SE first;
//  3. else nothing.
//
// The target difficulty is the chosen dimension's current theta.
func (s *Selector) Next(st State) (Selection, bool) {
	var under []Coverage
	for _, d := range st.Dimensions {
		if d.ItemCount < s.cfg.MinPerDimension {
			under = append(under, d)
		}
	}
	if len(under) > 0 {
		c := s.best(under, func(a, b Coverage) int {
			return cmpInt(b.ItemCount, a.ItemCount)
		})
		return Selection{Dimension: c.Dimension, TargetDifficulty: c.Theta, Reason: ReasonCoverage}, true
	}

	var open []Coverage
	for _, d := range st.Dimensions {
		if d.ItemCount < s.cfg.TargetPerDimension {
			open = append(open, d)
		}
	}
	if len(open) > 0 {
		c := s.best(open, byStandardError)
		return Selection{Dimension: c.Dimension, TargetDifficulty: c.Theta, Reason: ReasonPrecision}, true
	}
	return Selection{}, false
}

// MostUncertain picks the dimension with the largest SE regardless of
// item counts. The engine uses it to keep probing when the policy has
// no candidate but the item floor has not been reached.
func (s *Selector) MostUncertain(st State) (Selection, bool) {
	if len(st.Dimensions) == 0 {
		return Selection{}, false
	}
	c := s.best(st.Dimensions, byStandardError)
	return Selection{Dimension: c.Dimension, TargetDifficulty: c.Theta, Reason: ReasonFloor}, true
}

// ShouldStop applies the three-tier stopping rule: stop at MaxItems, never
// before MinItems, and in between only once every dimension has its
// minimum coverage and SE below TargetSE.
func (s *Selector) ShouldStop(st State) bool {
	if st.TotalAdministered >= s.cfg.MaxItems {
		return true
	}
	if st.TotalAdministered < s.cfg.MinItems {
		return false
	}
	for _, d := range st.Dimensions {
		if d.ItemCount < s.cfg.MinPerDimension || d.StandardError >= s.cfg.TargetSE {
			return false
		}
	}
	return true
}

func byStandardError(a, b Coverage) int {
	switch {
	case a.StandardError > b.StandardError:
		return 1
	case a.StandardError < b.StandardError:
		return -1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// best returns the highest-ranked candidate under cmp (positive means a
// ranks above b). Ties go to the tie-breaker in declaration order.
func (s *Selector) best(cands []Coverage, cmp func(a, b Coverage) int) Coverage {
	top := []Coverage{cands[0]}
	for _, c := range cands[1:] {
		switch r := cmp(c, top[0]); {
		case r > 0:
			top = append(top[:0], c)
		case r == 0:
			top = append(top, c)
		}
	}
	if len(top) == 1 {
		return top[0]
	}

	ids := make([]string, len(top))
	for i, c := range top {
		ids[i] = c.Dimension
	}
	i := s.tie.Pick(ids)
	if i < 0 || i >= len(top) {
		i = 0
	}
	return top[i]
}
