// Package config loads the persona configuration file and applies
// PERSONA_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/engine"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/selector"
	"github.com/abhisek/persona/internal/store"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// File is the on-disk configuration.
type File struct {
	Assessment AssessmentConfig `yaml:"assessment"`
	Store      StoreConfig      `yaml:"store"`
	Scenarios  ScenarioConfig   `yaml:"scenarios"`
	LLM        llm.Config       `yaml:"llm"`
	Log        LogConfig        `yaml:"log"`
}

// AssessmentConfig picks a selector preset and optionally overrides parts of it.
type AssessmentConfig struct {
	Preset string `yaml:"preset" validate:"required"`

	MinItems           *int     `yaml:"min_items,omitempty" validate:"omitempty,gte=1"`
	MaxItems           *int     `yaml:"max_items,omitempty" validate:"omitempty,gte=1"`
	MinPerDimension    *int     `yaml:"min_per_dimension,omitempty" validate:"omitempty,gte=0"`
	TargetPerDimension *int     `yaml:"target_per_dimension,omitempty" validate:"omitempty,gte=1"`
	TargetSE           *float64 `yaml:"target_se,omitempty" validate:"omitempty,gt=0"`

	// Weights override the readiness weight of individual dimensions.
	Weights map[string]float64 `yaml:"weights,omitempty" validate:"omitempty,dive,gte=0"`

	ProviderTimeout time.Duration `yaml:"provider_timeout" validate:"gt=0"`
}

// StoreConfig selects where sessions live.
type StoreConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=sqlite redis memory"`
	Path          string `yaml:"path,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty" validate:"gte=0"`
	RedisPrefix   string `yaml:"redis_prefix,omitempty"`
}

// ScenarioConfig controls where scenarios come from.
type ScenarioConfig struct {
	// BankPath points at a YAML or JSON bank. Empty uses the built-in bank.
	BankPath string `yaml:"bank_path,omitempty"`

	// Generate puts the LLM generator in front of the bank.
	Generate bool `yaml:"generate"`

	Discrimination float64 `yaml:"discrimination,omitempty" validate:"omitempty,gt=0"`

	// GeneratorTimeout bounds one generation attempt before the bank is
	// tried. Zero gives the generator half of the provider timeout.
	GeneratorTimeout time.Duration `yaml:"generator_timeout,omitempty" validate:"gte=0"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used when no file exists.
func Default() File {
	return File{
		Assessment: AssessmentConfig{
			Preset:          "standard",
			ProviderTimeout: engine.DefaultProviderTimeout,
		},
		Store: StoreConfig{
			Backend:     BackendSQLite,
			RedisPrefix: store.DefaultRedisPrefix,
		},
		LLM: llm.DefaultConfig(),
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns $PERSONA_CONFIG, or config.yaml under the user
// config directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(llm.EnvPrefix + "CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "persona", "config.yaml"), nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path uses DefaultPath, and a missing
// default file is not an error.
func Load(path string) (File, error) {
	f := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return File{}, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return File{}, fmt.Errorf("read config: %w", err)
	}

	ApplyEnv(&f)
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// ApplyEnv overrides f with any PERSONA_* variables that are set.
func ApplyEnv(f *File) {
	strs := map[string]*string{
		"PRESET":         &f.Assessment.Preset,
		"STORE":          &f.Store.Backend,
		"DB":             &f.Store.Path,
		"REDIS_ADDR":     &f.Store.RedisAddr,
		"REDIS_PASSWORD": &f.Store.RedisPassword,
		"BANK":           &f.Scenarios.BankPath,
		"LOG_LEVEL":      &f.Log.Level,
	}
	for name, dst := range strs {
		if v := os.Getenv(llm.EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(llm.EnvPrefix + "GENERATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Scenarios.Generate = b
		}
	}
	llm.ApplyEnv(&f.LLM)
}

// Validate checks the configuration. LLM settings are only checked when
// generation is enabled.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := selector.Preset(f.Assessment.Preset); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if f.Scenarios.Generate {
		if err := f.LLM.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	if gt := f.Scenarios.GeneratorTimeout; gt > 0 && gt >= f.Assessment.ProviderTimeout {
		return fmt.Errorf("invalid config: scenarios.generator_timeout %s must be shorter than assessment.provider_timeout %s",
			gt, f.Assessment.ProviderTimeout)
	}
	return nil
}

// SelectorConfig resolves the preset and applies overrides.
func (f File) SelectorConfig() (selector.Config, error) {
	a := f.Assessment
	c, err := selector.Preset(a.Preset)
	if err != nil {
		return selector.Config{}, err
	}
	if a.MinItems != nil {
		c.MinItems = *a.MinItems
	}
	if a.MaxItems != nil {
		c.MaxItems = *a.MaxItems
	}
	if a.MinPerDimension != nil {
		c.MinPerDimension = *a.MinPerDimension
	}
	if a.TargetPerDimension != nil {
		c.TargetPerDimension = *a.TargetPerDimension
	}
	if a.TargetSE != nil {
		c.TargetSE = *a.TargetSE
	}
	if err := c.Validate(); err != nil {
		return selector.Config{}, err
	}
	return c, nil
}

// EngineConfig builds the engine configuration.
func (f File) EngineConfig() (engine.Config, error) {
	sel, err := f.SelectorConfig()
	if err != nil {
		return engine.Config{}, err
	}
	dims := dimension.Default()
	if len(f.Assessment.Weights) > 0 {
		if dims, err = dims.WithWeights(f.Assessment.Weights); err != nil {
			return engine.Config{}, err
		}
	}

	cfg := engine.DefaultConfig()
	cfg.Selector = sel
	cfg.Dimensions = dims
	cfg.ProviderTimeout = f.Assessment.ProviderTimeout
	return cfg, cfg.Validate()
}

// LogLevel parses Log.Level.
func (f File) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(f.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
