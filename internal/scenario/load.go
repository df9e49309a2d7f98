package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the bank document major version this build reads.
const SupportedMajor = "v1"

// ErrUnsupportedVersion is returned for bank documents of another major version.
var ErrUnsupportedVersion = errors.New("unsupported bank version")

//go:embed default_bank.yaml
var defaultBankYAML []byte

// Document is the on-disk bank format. JSON and YAML are both accepted.
type Document struct {
	Version   string     `json:"version" yaml:"version"`
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// LoadFile reads and validates a bank document from disk.
func LoadFile(path string, opts ...BankOption) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	b, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load bank %s: %w", path, err)
	}
	return b, nil
}

// DefaultBank returns the built-in bank.
func DefaultBank(opts ...BankOption) (*Bank, error) {
	return Parse(defaultBankYAML, opts...)
}

// Parse decodes a YAML or JSON bank document, checks it against the bank
// schema and the supported version, and builds a Bank.
func Parse(data []byte, opts ...BankOption) (*Bank, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	opts = append([]BankOption{WithVersion(doc.Version)}, opts...)
	return NewBank(doc.Scenarios, opts...)
}

// ParseDocument decodes and schema-checks a bank document without
// building the index.
func ParseDocument(data []byte) (*Document, error) {
	// JSON is a subset of YAML, so one decoder covers both formats.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if raw == nil {
		return nil, errors.New("decode bank: empty document")
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize bank: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
	if err != nil {
		return nil, fmt.Errorf("normalize bank: %w", err)
	}

	sch, err := bankSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("bank schema: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}

	if !semver.IsValid(doc.Version) {
		return nil, fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedVersion, doc.Version)
	}
	if major := semver.Major(doc.Version); major != SupportedMajor {
		return nil, fmt.Errorf("%w: %s (want %s.x)", ErrUnsupportedVersion, doc.Version, SupportedMajor)
	}
	return &doc, nil
}

var (
	bankSchemaOnce     sync.Once
	bankSchemaCompiled *jsonschema.Schema
	bankSchemaErr      error
)

func bankSchema() (*jsonschema.Schema, error) {
	bankSchemaOnce.Do(func() {
		def, err := json.Marshal(bankSchemaDefinition)
		if err != nil {
			bankSchemaErr = fmt.Errorf("marshal bank schema: %w", err)
			return
		}
		parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
		if err != nil {
			bankSchemaErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}

		const url = "schema://scenario-bank.json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, parsed); err != nil {
			bankSchemaErr = fmt.Errorf("add bank schema: %w", err)
			return
		}
		bankSchemaCompiled, bankSchemaErr = c.Compile(url)
	})
	return bankSchemaCompiled, bankSchemaErr
}

var optionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
		"text":        map[string]any{"type": "string", "minLength": 1},
		"theta_value": map[string]any{"type": "number", "minimum": -3, "maximum": 3},
	},
	"required":             []any{"id", "text", "theta_value"},
	"additionalProperties": false,
}

var bankSchemaDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{"type": "string"},
		"scenarios": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":             map[string]any{"type": "string", "minLength": 1},
					"dimension":      map[string]any{"type": "string", "minLength": 1},
					"situation":      map[string]any{"type": "string", "minLength": 1},
					"question":       map[string]any{"type": "string", "minLength": 1},
					"difficulty":     map[string]any{"type": "number", "minimum": -3, "maximum": 3},
					"discrimination": map[string]any{"type": "number", "exclusiveMinimum": 0},
					"options": map[string]any{
						"type":     "array",
						"minItems": 4,
						"maxItems": 4,
						"items":    optionSchema,
					},
					"tags": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required":             []any{"id", "dimension", "situation", "question", "difficulty", "discrimination", "options"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"version", "scenarios"},
	"additionalProperties": false,
}
