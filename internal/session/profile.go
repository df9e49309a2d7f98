package session

import (
	"slices"
	"sort"
	"time"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/response"
)

// Number of dimensions reported as strengths and development areas.
const (
	TopStrengths        = 3
	TopDevelopmentAreas = 2
)

// DimensionResult is the final reading of one dimension.
type DimensionResult struct {
	Dimension     string          `json:"dimension"`
	Name          string          `json:"name"`
	Theta         float64         `json:"theta"`
	StandardError float64         `json:"standard_error"`
	ItemCount     int             `json:"item_count"`
	Percentile    int             `json:"percentile"`
	Score         int             `json:"score"`
	Level         dimension.Level `json:"level"`
	Strength      string          `json:"strength"`
	Development   string          `json:"development"`
}

// Readiness is the weighted summary across dimensions.
type Readiness struct {
	Theta      float64         `json:"theta"`
	Percentile int             `json:"percentile"`
	Score      int             `json:"score"`
	Level      dimension.Level `json:"level"`
}

// Profile is the final assessment result.
type Profile struct {
	Dimensions       []DimensionResult `json:"dimensions"`
	Readiness        Readiness         `json:"readiness"`
	Strengths        []string          `json:"strengths"`
	DevelopmentAreas []string          `json:"development_areas"`
	TotalItems       int               `json:"total_items"`
	CompletedAt      time.Time         `json:"completed_at"`
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Dimensions = slices.Clone(p.Dimensions)
	c.Strengths = slices.Clone(p.Strengths)
	c.DevelopmentAreas = slices.Clone(p.DevelopmentAreas)
	return &c
}

// Result returns the reading for one dimension.
func (p *Profile) Result(dimensionID string) (DimensionResult, bool) {
	for _, r := range p.Dimensions {
		if r.Dimension == dimensionID {
			return r, true
		}
	}
	return DimensionResult{}, false
}

// BuildProfile computes the final profile from the session's estimates.
// Readiness is the weight-normalized mean theta; when every weight is zero
// it falls back to the plain mean.
func BuildProfile(s *Session, dims *dimension.Set, table dimension.TextTable, at time.Time) *Profile {
	p := &Profile{
		Dimensions:  make([]DimensionResult, 0, len(s.Dimensions)),
		TotalItems:  s.TotalAdministered,
		CompletedAt: normalizeTime(at),
	}

	var weighted, weightSum, plain float64
	for _, id := range s.Dimensions {
		e := s.Estimates[id]
		interp := response.Interpret(table, id, e.Theta)

		name := id
		var weight float64
		if d, ok := dims.Get(id); ok {
			name = d.Name
			weight = d.Weight
		}

		p.Dimensions = append(p.Dimensions, DimensionResult{
			Dimension:     id,
			Name:          name,
			Theta:         e.Theta,
			StandardError: e.StandardError,
			ItemCount:     e.ItemCount,
			Percentile:    response.Percentile(e.Theta),
			Score:         response.Score(e.Theta),
			Level:         interp.Level,
			Strength:      interp.Strength,
			Development:   interp.Development,
		})
		weighted += weight * e.Theta
		weightSum += weight
		plain += e.Theta
	}

	var readiness float64
	switch {
	case weightSum > 0:
		readiness = weighted / weightSum
	case len(s.Dimensions) > 0:
		readiness = plain / float64(len(s.Dimensions))
	}
	p.Readiness = Readiness{
		Theta:      readiness,
		Percentile: response.Percentile(readiness),
		Score:      response.Score(readiness),
		Level:      dimension.LevelFor(readiness),
	}

	p.Strengths = rankDimensions(p.Dimensions, TopStrengths, func(a, b float64) bool { return a > b })
	p.DevelopmentAreas = rankDimensions(p.Dimensions, TopDevelopmentAreas, func(a, b float64) bool { return a < b })
	return p
}

// rankDimensions returns up to n dimension ids ordered by theta under
// less; ties keep declaration order.
func rankDimensions(results []DimensionResult, n int, less func(a, b float64) bool) []string {
	ordered := slices.Clone(results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i].Theta, ordered[j].Theta)
	})
	n = min(n, len(ordered))
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = ordered[i].Dimension
	}
	return ids
}
