package estimate

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestUpdate_FreshEstimateExample(t *testing.T) {
	got, err := Update(New(2.0), 1.5, 1.92, 1.0, fixedTime)
	require.NoError(t, err)

	assert.InDelta(t, 2.88/2.92, got.Theta, 1e-9)
	assert.InDelta(t, 0.986, got.Theta, 0.001)
	assert.InDelta(t, 0.585, got.StandardError, 0.001)
	assert.Equal(t, 1, got.ItemCount)
	require.Len(t, got.History, 1)
	assert.Equal(t, Observation{Theta: 1.5, Information: 1.92, Timestamp: fixedTime}, got.History[0])
}

func TestUpdate_UsesOwnPrecisionAfterFirstItem(t *testing.T) {
	first, err := Update(New(2.0), 1.0, 1.0, 1.0, fixedTime)
	require.NoError(t, err)
	// p0 = 1, p1 = 1
	assert.InDelta(t, 0.5, first.Theta, 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), first.StandardError, 1e-9)

	second, err := Update(first, 0.5, 2.0, 1.0, fixedTime)
	require.NoError(t, err)
	// p0 = 2, p1 = 2
	assert.InDelta(t, 0.5, second.Theta, 1e-9)
	assert.InDelta(t, 0.5, second.StandardError, 1e-9)
	assert.Equal(t, 2, second.ItemCount)
}

func TestUpdate_DoesNotMutateInput(t *testing.T) {
	cur, err := Update(New(2.0), 1.0, 1.0, 1.0, fixedTime)
	require.NoError(t, err)
	snapshot := cur.Clone()

	_, err = Update(cur, -2.0, 3.0, 1.0, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, snapshot, cur)
}

func TestUpdate_InvalidInformation(t *testing.T) {
	for _, info := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Update(New(2.0), 1.0, info, 1.0, fixedTime)
		assert.ErrorIs(t, err, ErrInvalidInformation, "info=%v", info)
	}
}

func TestUpdate_Degenerate(t *testing.T) {
	_, err := Update(New(2.0), math.NaN(), 1.0, 1.0, fixedTime)
	assert.ErrorIs(t, err, ErrEstimationDegenerate)

	_, err = Update(New(2.0), 1.0, 1.0, math.Inf(1), fixedTime)
	// p0 = 0 is allowed; fusion falls back to the observation.
	require.NoError(t, err)

	bad := Estimate{StandardError: 0, ItemCount: 1, History: []Observation{{}}}
	_, err = Update(bad, 1.0, 1.0, 1.0, fixedTime)
	assert.ErrorIs(t, err, ErrEstimationDegenerate)
}

func TestUpdate_Clamps(t *testing.T) {
	got, err := Update(New(2.0), 10, 100, 1.0, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, MaxTheta, got.Theta)

	got, err = Update(New(2.0), -10, 100, 1.0, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, MinTheta, got.Theta)
}

func TestUpdate_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for run := 0; run < 200; run++ {
		est := New(2.0)
		for i := 0; i < 20; i++ {
			observed := rng.Float64()*8 - 4
			info := 0.01 + rng.Float64()*5
			next, err := Update(est, observed, info, 1.0, fixedTime)
			require.NoError(t, err)

			assert.LessOrEqual(t, next.StandardError, est.StandardError)
			assert.Greater(t, next.StandardError, 0.0)
			assert.GreaterOrEqual(t, next.Theta, MinTheta)
			assert.LessOrEqual(t, next.Theta, MaxTheta)
			assert.Equal(t, next.ItemCount, len(next.History))
			est = next
		}
	}
}

func TestUpdater_StampsWithClock(t *testing.T) {
	u := &Updater{PriorVariance: 1.0, Now: func() time.Time { return fixedTime }}
	got, err := u.Update(New(0), 0.5, 1.0)
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialSE, New(0).StandardError)
	assert.Equal(t, fixedTime, got.History[0].Timestamp)
}
