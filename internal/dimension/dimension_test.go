package dimension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_Validation(t *testing.T) {
	_, err := NewSet()
	assert.ErrorIs(t, err, ErrEmptySet)

	_, err = NewSet(Dimension{ID: "a"}, Dimension{ID: "a"})
	assert.Error(t, err)

	_, err = NewSet(Dimension{ID: ""})
	assert.Error(t, err)

	_, err = NewSet(Dimension{ID: "a", Weight: -1})
	assert.Error(t, err)
}

func TestNewSet_DefaultsNameToID(t *testing.T) {
	s, err := NewSet(Dimension{ID: "grit"})
	require.NoError(t, err)
	assert.Equal(t, "grit", s.DisplayName("grit"))
	assert.Equal(t, "unknown", s.DisplayName("unknown"))
}

func TestDefault_DeclarationOrder(t *testing.T) {
	s := Default()
	require.Equal(t, 7, s.Len())
	assert.Equal(t, []string{
		RiskTaking, Innovation, AchievementDrive, Autonomy,
		Resilience, SocialInfluence, StrategicPlanning,
	}, s.IDs())
	assert.Equal(t, 0, s.Order(RiskTaking))
	assert.Equal(t, 6, s.Order(StrategicPlanning))
	assert.Equal(t, -1, s.Order("nope"))
	assert.True(t, s.Contains(Resilience))
}

func TestDefault_WeightsSumToOne(t *testing.T) {
	var sum float64
	for _, d := range Default().All() {
		sum += d.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSet_WithWeights(t *testing.T) {
	s, err := Default().WithWeights(map[string]float64{Autonomy: 0.5})
	require.NoError(t, err)

	d, ok := s.Get(Autonomy)
	require.True(t, ok)
	assert.Equal(t, 0.5, d.Weight)

	orig, _ := Default().Get(Autonomy)
	assert.Equal(t, 0.10, orig.Weight, "original set must be unchanged")

	_, err = Default().WithWeights(map[string]float64{"nope": 1})
	assert.Error(t, err)
}

func TestSet_AllReturnsCopy(t *testing.T) {
	s := Default()
	all := s.All()
	all[0].Name = "mutated"
	assert.Equal(t, "Risk Taking", s.DisplayName(RiskTaking))
}

func TestLevelFor_Bands(t *testing.T) {
	tests := []struct {
		theta float64
		want  Level
	}{
		{3.0, LevelVeryHigh},
		{1.5, LevelVeryHigh},
		{1.49, LevelHigh},
		{0.5, LevelHigh},
		{0.0, LevelModerate},
		{-0.5, LevelModerate},
		{-0.51, LevelLow},
		{-1.5, LevelLow},
		{-1.51, LevelVeryLow},
		{-3.0, LevelVeryLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.theta), "theta=%v", tt.theta)
	}
}

func TestStaticTable_Fallback(t *testing.T) {
	table := DefaultTextTable()
	for _, id := range Default().IDs() {
		for _, lvl := range []Level{LevelVeryHigh, LevelHigh, LevelModerate, LevelLow, LevelVeryLow} {
			txt := table.Text(id, lvl)
			assert.NotEmpty(t, txt.Strength, "%s/%s", id, lvl)
			assert.NotEmpty(t, txt.Development, "%s/%s", id, lvl)
		}
	}

	custom := StaticTable{"grit": {LevelHigh: {Strength: "s", Development: "d"}}}
	assert.Equal(t, LevelText{Strength: "s", Development: "d"}, custom.Text("grit", LevelHigh))
	assert.Equal(t, genericText(LevelLow), custom.Text("grit", LevelLow))
	assert.Equal(t, genericText(LevelModerate), custom.Text("other", LevelModerate))
}
