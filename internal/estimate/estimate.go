// Package estimate holds the per-dimension ability estimate and the
// sequential precision-weighted updater that refines it.
package estimate

import (
	"errors"
	"math"
	"time"
)

// Theta domain bounds.
const (
	MinTheta = -3.0
	MaxTheta = 3.0
)

// Defaults for a fresh estimate.
const (
	DefaultInitialSE     = 2.0
	DefaultPriorVariance = 1.0
)

var (
	// ErrInvalidInformation is returned when an observation carries no
	// usable information (zero, negative, NaN or infinite).
	ErrInvalidInformation = errors.New("invalid information")

	// ErrEstimationDegenerate is returned when the fused precision is zero
	// or not finite.
	ErrEstimationDegenerate = errors.New("estimation degenerate")
)

// Observation is one folded-in response.
type Observation struct {
	Theta       float64   `json:"theta"`
	Information float64   `json:"information"`
	Timestamp   time.Time `json:"timestamp"`
}

// Estimate is the running ability estimate for one dimension.
// ItemCount always equals len(History).
type Estimate struct {
	Theta         float64       `json:"theta"`
	StandardError float64       `json:"standard_error"`
	ItemCount     int           `json:"item_count"`
	History       []Observation `json:"history,omitempty"`
}

// New returns a zero-theta estimate with the given starting standard error.
func New(initialSE float64) Estimate {
	if initialSE <= 0 {
		initialSE = DefaultInitialSE
	}
	return Estimate{StandardError: initialSE}
}

// Clone returns a deep copy.
func (e Estimate) Clone() Estimate {
	if e.History != nil {
		h := make([]Observation, len(e.History))
		copy(h, e.History)
		e.History = h
	}
	return e
}

// Precision returns 1/SE², the inverse variance of the estimate.
func (e Estimate) Precision() float64 {
	return 1 / (e.StandardError * e.StandardError)
}

// Updater fuses observations into estimates.
type Updater struct {
	// PriorVariance replaces the estimate's own SE while it has no items.
	PriorVariance float64

	// Now stamps observations. Defaults to time.Now.
	Now func() time.Time
}

// NewUpdater returns an Updater with the default prior variance.
func NewUpdater() *Updater {
	return &Updater{PriorVariance: DefaultPriorVariance}
}

// Update folds one observation into current and returns the new estimate.
// current is never modified.
func (u *Updater) Update(current Estimate, observedTheta, information float64) (Estimate, error) {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	prior := u.PriorVariance
	if prior <= 0 {
		prior = DefaultPriorVariance
	}
	return Update(current, observedTheta, information, prior, now().UTC().Round(0))
}

// Update is the pure fusion step:
//
//	theta' = (theta*p0 + observed*p1) / (p0 + p1)
//	se'    = sqrt(1 / (p0 + p1))
//
// where p0 is the current precision (1/priorVariance when no items have been
// folded in yet) and p1 is the observation's information. theta' is clamped
// to [MinTheta, MaxTheta].
func Update(current Estimate, observedTheta, information, priorVariance float64, at time.Time) (Estimate, error) {
	if !(information > 0) || math.IsInf(information, 0) {
		return Estimate{}, ErrInvalidInformation
	}
	if math.IsNaN(observedTheta) || math.IsInf(observedTheta, 0) {
		return Estimate{}, ErrEstimationDegenerate
	}

	var p0 float64
	if current.ItemCount == 0 {
		p0 = 1 / priorVariance
	} else {
		p0 = current.Precision()
	}
	if math.IsNaN(p0) || math.IsInf(p0, 0) || p0 < 0 {
		return Estimate{}, ErrEstimationDegenerate
	}

	total := p0 + information
	if total <= 0 || math.IsInf(total, 0) {
		return Estimate{}, ErrEstimationDegenerate
	}

	next := current.Clone()
	next.Theta = Clamp((current.Theta*p0 + observedTheta*information) / total)
	next.StandardError = math.Sqrt(1 / total)
	next.ItemCount = current.ItemCount + 1
	next.History = append(next.History, Observation{
		Theta:       observedTheta,
		Information: information,
		Timestamp:   at,
	})
	return next, nil
}

// Clamp bounds theta to the domain.
func Clamp(theta float64) float64 {
	return math.Max(MinTheta, math.Min(MaxTheta, theta))
}
