package selector

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Config bounds the length of an assessment and how evenly it covers
// dimensions.
type Config struct {
	// MinItems is the hard floor: never stop before this many items.
	MinItems int `json:"min_items" yaml:"min_items" validate:"gte=1"`

	// MaxItems is the hard ceiling: always stop at this many items.
	MaxItems int `json:"max_items" yaml:"max_items" validate:"gtefield=MinItems"`

	// MinPerDimension is the coverage every dimension gets first.
	MinPerDimension int `json:"min_per_dimension" yaml:"min_per_dimension" validate:"gte=0"`

	// TargetPerDimension caps precision-driven probing per dimension.
	TargetPerDimension int `json:"target_per_dimension" yaml:"target_per_dimension" validate:"gtefield=MinPerDimension"`

	// TargetSE is the precision every dimension must reach to stop early.
	TargetSE float64 `json:"target_se" yaml:"target_se" validate:"gt=0"`
}

// Standard is the default 9..15 item assessment.
func Standard() Config {
	return Config{
		MinItems:           9,
		MaxItems:           15,
		MinPerDimension:    1,
		TargetPerDimension: 2,
		TargetSE:           0.5,
	}
}

// Quick is a short screening variant.
func Quick() Config {
	return Config{
		MinItems:           5,
		MaxItems:           8,
		MinPerDimension:    1,
		TargetPerDimension: 1,
		TargetSE:           0.6,
	}
}

// Thorough measures every dimension at least twice.
func Thorough() Config {
	return Config{
		MinItems:           14,
		MaxItems:           24,
		MinPerDimension:    2,
		TargetPerDimension: 3,
		TargetSE:           0.4,
	}
}

var presets = map[string]func() Config{
	"standard": Standard,
	"quick":    Quick,
	"thorough": Thorough,
}

// Preset returns a named configuration.
func Preset(name string) (Config, error) {
	f, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (want one of %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the known presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid selector config: %w", err)
	}
	return nil
}
