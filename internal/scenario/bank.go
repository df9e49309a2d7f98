package scenario

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
)

// TieBreak picks an index in [0, n) among equally good candidates.
type TieBreak func(n int) int

// firstCandidate keeps bank order.
func firstCandidate(int) int { return 0 }

// Bank is an immutable in-memory scenario bank.
type Bank struct {
	version   string
	scenarios []Scenario
	byDim     map[string][]int
	tieBreak  TieBreak
}

// BankOption configures a Bank.
type BankOption func(*Bank)

// WithTieBreak sets how the bank chooses among scenarios at the same
// distance from the target difficulty. The default keeps bank order.
func WithTieBreak(tb TieBreak) BankOption {
	return func(b *Bank) {
		if tb != nil {
			b.tieBreak = tb
		}
	}
}

// WithVersion records the document version the bank was loaded from.
func WithVersion(v string) BankOption {
	return func(b *Bank) { b.version = v }
}

// NewBank validates scenarios and indexes them by dimension.
func NewBank(scenarios []Scenario, opts ...BankOption) (*Bank, error) {
	b := &Bank{
		scenarios: make([]Scenario, 0, len(scenarios)),
		byDim:     make(map[string][]int),
		tieBreak:  firstCandidate,
	}
	for _, o := range opts {
		o(b)
	}

	seen := make(map[string]bool, len(scenarios))
	for i := range scenarios {
		sc := scenarios[i].Clone()
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true
		sc.Source = SourceBank
		if len(sc.Tags) == 0 {
			sc.Tags = nil
		}
		b.byDim[sc.Dimension] = append(b.byDim[sc.Dimension], len(b.scenarios))
		b.scenarios = append(b.scenarios, *sc)
	}
	return b, nil
}

// Version returns the bank document version, if any.
func (b *Bank) Version() string { return b.version }

// Len returns the number of scenarios.
func (b *Bank) Len() int { return len(b.scenarios) }

// Count returns the number of scenarios for a dimension.
func (b *Bank) Count(dimensionID string) int { return len(b.byDim[dimensionID]) }

// Dimensions returns the dimension ids present in the bank, sorted.
func (b *Bank) Dimensions() []string {
	ids := make([]string, 0, len(b.byDim))
	for id := range b.byDim {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Scenarios returns copies of every scenario for a dimension in bank order.
func (b *Bank) Scenarios(dimensionID string) []*Scenario {
	idx := b.byDim[dimensionID]
	out := make([]*Scenario, len(idx))
	for i, j := range idx {
		out[i] = b.scenarios[j].Clone()
	}
	return out
}

// GetScenario implements Provider.
//
// Eligible scenarios are those of the requested dimension not listed in
// ExcludeIDs. If any business-context value matches a tag of an eligible
// scenario, only tagged matches are considered. Among those, the closest
// difficulty wins.
func (b *Bank) GetScenario(ctx context.Context, req Request) (*Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		excluded[id] = true
	}

	var eligible []int
	for _, i := range b.byDim[req.Dimension] {
		if !excluded[b.scenarios[i].ID] {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNotFound
	}

	if tagged := b.matchContext(eligible, req.BusinessContext); len(tagged) > 0 {
		eligible = tagged
	}

	best := math.Inf(1)
	var closest []int
	for _, i := range eligible {
		d := math.Abs(b.scenarios[i].Difficulty - req.TargetDifficulty)
		switch {
		case d < best:
			best = d
			closest = append(closest[:0], i)
		case d == best:
			closest = append(closest, i)
		}
	}

	pick := b.tieBreak(len(closest))
	if pick < 0 || pick >= len(closest) {
		pick = 0
	}
	return b.scenarios[closest[pick]].Clone(), nil
}

func (b *Bank) matchContext(eligible []int, bc map[string]string) []int {
	if len(bc) == 0 {
		return nil
	}
	values := make(map[string]bool, len(bc))
	for _, v := range bc {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			values[v] = true
		}
	}

	var out []int
	for _, i := range eligible {
		for _, tag := range b.scenarios[i].Tags {
			if values[strings.ToLower(tag)] {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
