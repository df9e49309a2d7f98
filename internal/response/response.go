// Package response turns a selected answer into an ability signal and
// converts ability values into reporting units.
package response

import (
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/scenario"
)

// ErrUnknownOption is returned when the selected option is not part of the
// scenario.
var ErrUnknownOption = errors.New("unknown option")

// matchScale is the theta distance at which match quality reaches zero.
const matchScale = 3.0

// Map returns the implied ability and the information weight of selecting
// optionID in sc.
//
// information = discrimination² * (0.5 + 0.5*matchQuality), where
// matchQuality = 1 - min(1, |theta - difficulty| / 3).
func Map(sc *scenario.Scenario, optionID string) (theta, information float64, err error) {
	opt, ok := sc.Option(optionID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q not in scenario %s", ErrUnknownOption, optionID, sc.ID)
	}
	theta = opt.ThetaValue
	match := 1 - math.Min(1, math.Abs(theta-sc.Difficulty)/matchScale)
	information = sc.Discrimination * sc.Discrimination * (0.5 + 0.5*match)
	return theta, information, nil
}

// Percentile converts theta to a population percentile in [1, 99],
// assuming a standard normal population.
func Percentile(theta float64) int {
	p := int(math.Round(normalCDF(theta) * 100))
	return max(1, min(99, p))
}

// Score rescales theta linearly from [-3, 3] to [0, 100].
func Score(theta float64) int {
	theta = estimate.Clamp(theta)
	s := (theta - estimate.MinTheta) / (estimate.MaxTheta - estimate.MinTheta) * 100
	return int(math.Round(s))
}

func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Interpretation is the presentational reading of one dimension's theta.
type Interpretation struct {
	Level       dimension.Level `json:"level"`
	Strength    string          `json:"strength"`
	Development string          `json:"development"`
}

// Interpret looks up the band for theta and the text for (dimensionID, band).
// A nil table uses the built-in text.
func Interpret(table dimension.TextTable, dimensionID string, theta float64) Interpretation {
	if table == nil {
		table = dimension.DefaultTextTable()
	}
	level := dimension.LevelFor(theta)
	txt := table.Text(dimensionID, level)
	return Interpretation{
		Level:       level,
		Strength:    txt.Strength,
		Development: txt.Development,
	}
}
