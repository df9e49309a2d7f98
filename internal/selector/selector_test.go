package selector

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dims = []string{"risk", "innovation", "achievement", "autonomy", "resilience", "social", "planning"}

func freshState() State {
	st := State{}
	for _, d := range dims {
		st.Dimensions = append(st.Dimensions, Coverage{Dimension: d, StandardError: 2.0})
	}
	return st
}

// answer simulates one response on the selected dimension with a fixed SE
// schedule: 0.6 after the first item, 0.45 after the second.
func answer(st *State, dim string) {
	for i := range st.Dimensions {
		if st.Dimensions[i].Dimension != dim {
			continue
		}
		st.Dimensions[i].ItemCount++
		if st.Dimensions[i].ItemCount == 1 {
			st.Dimensions[i].StandardError = 0.6
		} else {
			st.Dimensions[i].StandardError = 0.45
		}
		st.Dimensions[i].Theta += 0.3
	}
	st.TotalAdministered++
}

func TestNext_CoverageFirstInDeclarationOrder(t *testing.T) {
	s := New(Standard())
	st := freshState()

	for i := 0; i < len(dims); i++ {
		sel, ok := s.Next(st)
		require.True(t, ok)
		assert.Equal(t, dims[i], sel.Dimension)
		assert.Equal(t, ReasonCoverage, sel.Reason)
		answer(&st, sel.Dimension)
	}
	for _, d := range st.Dimensions {
		assert.GreaterOrEqual(t, d.ItemCount, 1, d.Dimension)
	}
}

func TestNext_SmallestItemCountFirst(t *testing.T) {
	cfg := Standard()
	cfg.MinPerDimension = 2
	cfg.TargetPerDimension = 3
	s := New(cfg)

	st := freshState()
	st.Dimensions[0].ItemCount = 1
	st.Dimensions[1].ItemCount = 1
	st.Dimensions[2].ItemCount = 0
	for i := 3; i < len(dims); i++ {
		st.Dimensions[i].ItemCount = 1
	}
	sel, ok := s.Next(st)
	require.True(t, ok)
	assert.Equal(t, "achievement", sel.Dimension)
}

func TestNext_LargestSEAndTargetDifficulty(t *testing.T) {
	s := New(Standard())
	st := freshState()
	for i := range st.Dimensions {
		st.Dimensions[i].ItemCount = 1
		st.Dimensions[i].StandardError = 0.6
	}
	st.Dimensions[4].StandardError = 0.9
	st.Dimensions[4].Theta = -1.2

	sel, ok := s.Next(st)
	require.True(t, ok)
	assert.Equal(t, "resilience", sel.Dimension)
	assert.Equal(t, -1.2, sel.TargetDifficulty)
	assert.Equal(t, ReasonPrecision, sel.Reason)
}

func TestNext_NoCandidate(t *testing.T) {
	s := New(Standard())
	st := freshState()
	for i := range st.Dimensions {
		st.Dimensions[i].ItemCount = 2
	}
	_, ok := s.Next(st)
	assert.False(t, ok)
}

type lastPicker struct{ got []string }

func (p *lastPicker) Pick(c []string) int {
	p.got = c
	return len(c) - 1
}

func TestNext_TieBreaker(t *testing.T) {
	p := &lastPicker{}
	s := New(Standard(), WithTieBreaker(p))
	sel, ok := s.Next(freshState())
	require.True(t, ok)
	assert.Equal(t, "planning", sel.Dimension)
	assert.Equal(t, dims, p.got)
}

func TestRandom_Deterministic(t *testing.T) {
	a := New(Standard(), WithTieBreaker(NewRandom(rand.NewPCG(9, 9))))
	b := New(Standard(), WithTieBreaker(NewRandom(rand.NewPCG(9, 9))))
	for i := 0; i < 20; i++ {
		sa, _ := a.Next(freshState())
		sb, _ := b.Next(freshState())
		assert.Equal(t, sa, sb)
		assert.Contains(t, dims, sa.Dimension)
	}
}

func TestMostUncertain(t *testing.T) {
	s := New(Standard())
	st := freshState()
	for i := range st.Dimensions {
		st.Dimensions[i].StandardError = 0.4
	}
	st.Dimensions[2].StandardError = 0.7
	sel, ok := s.MostUncertain(st)
	require.True(t, ok)
	assert.Equal(t, "achievement", sel.Dimension)
	assert.Equal(t, ReasonFloor, sel.Reason)

	_, ok = s.MostUncertain(State{})
	assert.False(t, ok)
}

func TestShouldStop_FloorAndCeiling(t *testing.T) {
	s := New(Standard())
	rng := rand.New(rand.NewPCG(3, 4))

	for run := 0; run < 500; run++ {
		st := freshState()
		for i := range st.Dimensions {
			st.Dimensions[i].ItemCount = rng.IntN(4)
			st.Dimensions[i].StandardError = 0.05 + rng.Float64()*2
		}
		st.TotalAdministered = rng.IntN(30)

		got := s.ShouldStop(st)
		switch {
		case st.TotalAdministered < 9:
			assert.False(t, got, "total=%d", st.TotalAdministered)
		case st.TotalAdministered >= 15:
			assert.True(t, got, "total=%d", st.TotalAdministered)
		}
	}
}

func TestShouldStop_PrecisionTier(t *testing.T) {
	s := New(Standard())
	st := freshState()
	for i := range st.Dimensions {
		st.Dimensions[i].ItemCount = 1
		st.Dimensions[i].StandardError = 0.3
	}
	st.TotalAdministered = 10
	assert.True(t, s.ShouldStop(st))

	st.Dimensions[3].StandardError = 0.5
	assert.False(t, s.ShouldStop(st), "SE must be strictly below target")

	st.Dimensions[3].StandardError = 0.3
	st.Dimensions[3].ItemCount = 0
	assert.False(t, s.ShouldStop(st))
}

func TestCompletionExample_StopsAtFourteen(t *testing.T) {
	s := New(Standard())
	st := freshState()

	for !s.ShouldStop(st) {
		sel, ok := s.Next(st)
		require.True(t, ok, "selector ran dry at %d items", st.TotalAdministered)
		answer(&st, sel.Dimension)
		require.LessOrEqual(t, st.TotalAdministered, 15)
	}
	assert.Equal(t, 14, st.TotalAdministered)
}

func TestConfig_Presets(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate(), name)
	}
	assert.Equal(t, []string{"quick", "standard", "thorough"}, PresetNames())

	_, err := Preset("nope")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min items", func(c *Config) { c.MinItems = 0 }},
		{"max below min", func(c *Config) { c.MaxItems = 5 }},
		{"target below min per dimension", func(c *Config) { c.TargetPerDimension = 0 }},
		{"zero target se", func(c *Config) { c.TargetSE = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Standard()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
