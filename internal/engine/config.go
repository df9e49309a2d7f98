package engine

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/selector"
)

// DefaultProviderTimeout bounds a single scenario lookup.
const DefaultProviderTimeout = 10 * time.Second

// Config parametrizes an Engine. Assessment variants differ only in
// Selector settings.
type Config struct {
	Selector selector.Config

	// Dimensions is the configured trait set, in declaration order. Weights
	// feed the readiness summary.
	Dimensions *dimension.Set `validate:"required"`

	// Text supplies interpretation text. Nil uses the built-in table.
	Text dimension.TextTable

	InitialSE       float64       `validate:"gt=0"`
	PriorVariance   float64       `validate:"gt=0"`
	ProviderTimeout time.Duration `validate:"gt=0"`
}

// DefaultConfig returns the standard seven-dimension assessment.
func DefaultConfig() Config {
	return Config{
		Selector:        selector.Standard(),
		Dimensions:      dimension.Default(),
		Text:            dimension.DefaultTextTable(),
		InitialSE:       estimate.DefaultInitialSE,
		PriorVariance:   estimate.DefaultPriorVariance,
		ProviderTimeout: DefaultProviderTimeout,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return c.Selector.Validate()
}
