package llm

import (
	"reflect"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // pass-through
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	schema := geminiSchema(choiceSchema().Definition)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["situation"].Type != genai.TypeString {
		t.Errorf("situation type = %s", schema.Properties["situation"].Type)
	}

	opts := schema.Properties["options"]
	if opts.Type != genai.TypeArray || opts.Items.Type != genai.TypeString {
		t.Fatalf("options = %+v", opts)
	}
	if opts.MinItems == nil || *opts.MinItems != 4 || opts.MaxItems == nil || *opts.MaxItems != 4 {
		t.Errorf("options bounds = %v..%v, want 4..4", opts.MinItems, opts.MaxItems)
	}

	want := []string{"situation", "question", "options"}
	if !reflect.DeepEqual(schema.Required, want) {
		t.Errorf("required = %v, want %v", schema.Required, want)
	}
	if !reflect.DeepEqual(schema.PropertyOrdering, want) {
		t.Errorf("property ordering = %v, want %v", schema.PropertyOrdering, want)
	}
}

func TestGeminiSchema_GoLiteralLists(t *testing.T) {
	schema := geminiSchema(map[string]any{
		"type":     "object",
		"required": []string{"level"},
		"properties": map[string]any{
			"level": map[string]any{"type": "string", "enum": []string{"low", "high"}},
			"score": map[string]any{"type": "number"},
		},
	})

	if !reflect.DeepEqual(schema.Required, []string{"level"}) {
		t.Errorf("required = %v", schema.Required)
	}
	if len(schema.Properties["level"].Enum) != 2 {
		t.Errorf("enum = %v", schema.Properties["level"].Enum)
	}
	if schema.Properties["score"].Type != genai.TypeNumber {
		t.Errorf("score type = %s", schema.Properties["score"].Type)
	}
}
