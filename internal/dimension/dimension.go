package dimension

import (
	"errors"
	"fmt"
)

// Built-in dimension IDs.
const (
	RiskTaking        = "risk_taking"
	Innovation        = "innovation"
	AchievementDrive  = "achievement_drive"
	Autonomy          = "autonomy"
	Resilience        = "resilience"
	SocialInfluence   = "social_influence"
	StrategicPlanning = "strategic_planning"
)

// Dimension is a single assessed trait.
type Dimension struct {
	ID          string
	Name        string
	Description string

	// Weight is the contribution of this dimension to the readiness summary.
	// Weights are normalized by their sum, so they need not add up to 1.
	Weight float64
}

// Set is an ordered, immutable collection of dimensions. Declaration order
// breaks selection ties and orders every profile listing.
type Set struct {
	dims  []Dimension
	index map[string]int
}

// ErrEmptySet is returned when a Set is built without dimensions.
var ErrEmptySet = errors.New("dimension set is empty")

// NewSet builds a Set, rejecting empty or duplicate IDs and negative weights.
func NewSet(dims ...Dimension) (*Set, error) {
	if len(dims) == 0 {
		return nil, ErrEmptySet
	}
	s := &Set{
		dims:  make([]Dimension, len(dims)),
		index: make(map[string]int, len(dims)),
	}
	for i, d := range dims {
		if d.ID == "" {
			return nil, fmt.Errorf("dimension %d: empty id", i)
		}
		if _, dup := s.index[d.ID]; dup {
			return nil, fmt.Errorf("dimension %q declared twice", d.ID)
		}
		if d.Weight < 0 {
			return nil, fmt.Errorf("dimension %q: negative weight %v", d.ID, d.Weight)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		s.dims[i] = d
		s.index[d.ID] = i
	}
	return s, nil
}

// MustNewSet is NewSet for static declarations; it panics on error.
func MustNewSet(dims ...Dimension) *Set {
	s, err := NewSet(dims...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of dimensions.
func (s *Set) Len() int { return len(s.dims) }

// All returns the dimensions in declaration order.
func (s *Set) All() []Dimension {
	out := make([]Dimension, len(s.dims))
	copy(out, s.dims)
	return out
}

// IDs returns the dimension IDs in declaration order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.dims))
	for i, d := range s.dims {
		ids[i] = d.ID
	}
	return ids
}

// Get looks up a dimension by ID.
func (s *Set) Get(id string) (Dimension, bool) {
	i, ok := s.index[id]
	if !ok {
		return Dimension{}, false
	}
	return s.dims[i], true
}

// Contains reports whether id is part of the set.
func (s *Set) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Order returns the declaration position of id, or -1.
func (s *Set) Order(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// DisplayName returns the human-readable name for id, falling back to id.
func (s *Set) DisplayName(id string) string {
	if d, ok := s.Get(id); ok {
		return d.Name
	}
	return id
}

// WithWeights returns a copy of the set with the given weights applied.
// Dimensions missing from weights keep their current weight.
func (s *Set) WithWeights(weights map[string]float64) (*Set, error) {
	dims := s.All()
	for id, w := range weights {
		i, ok := s.index[id]
		if !ok {
			return nil, fmt.Errorf("weight for unknown dimension %q", id)
		}
		dims[i].Weight = w
	}
	return NewSet(dims...)
}

// Default returns the seven entrepreneurial-personality dimensions.
func Default() *Set {
	return defaultSet
}

var defaultSet = MustNewSet(
	Dimension{
		ID:          RiskTaking,
		Name:        "Risk Taking",
		Description: "Willingness to commit resources under uncertainty",
		Weight:      0.15,
	},
	Dimension{
		ID:          Innovation,
		Name:        "Innovation",
		Description: "Drive to find new products, processes and markets",
		Weight:      0.15,
	},
	Dimension{
		ID:          AchievementDrive,
		Name:        "Achievement Drive",
		Description: "Need to set and reach demanding goals",
		Weight:      0.15,
	},
	Dimension{
		ID:          Autonomy,
		Name:        "Autonomy",
		Description: "Preference for independent judgement and self-direction",
		Weight:      0.10,
	},
	Dimension{
		ID:          Resilience,
		Name:        "Resilience",
		Description: "Recovery from setbacks and persistence under pressure",
		Weight:      0.20,
	},
	Dimension{
		ID:          SocialInfluence,
		Name:        "Social Influence",
		Description: "Ability to persuade, network and lead others",
		Weight:      0.10,
	},
	Dimension{
		ID:          StrategicPlanning,
		Name:        "Strategic Planning",
		Description: "Structured long-range thinking and preparation",
		Weight:      0.15,
	},
)
