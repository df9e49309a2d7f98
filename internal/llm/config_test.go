package llm

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, "PERSONA_ANTHROPIC_API_KEY"},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk-test"}}, ""},
		{"openai without key", Config{Provider: ProviderOpenAI}, "PERSONA_OPENAI_API_KEY"},
		{"gemini with key", Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "g"}}, ""},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, "PERSONA_OPENROUTER_API_KEY"},
		{"negative rate", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "k"}, RateLimit: RateLimitConfig{RequestsPerMinute: -1}}, "rate_limit"},
		{"mock needs no key", Config{Provider: ProviderMock}, ""},
		{"unknown provider", Config{Provider: "unknown"}, "unknown LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PERSONA_LLM_PROVIDER", "openrouter")
	t.Setenv("PERSONA_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("PERSONA_OPENROUTER_MODEL", "mistralai/mistral-small")
	t.Setenv("PERSONA_LLM_TIMEOUT", "5s")
	t.Setenv("PERSONA_LLM_RPM", "12")
	t.Setenv("PERSONA_OPENAI_MODEL", "")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.OpenRouter.APIKey != "sk-or" || cfg.OpenRouter.Model != "mistralai/mistral-small" {
		t.Errorf("openrouter = %+v", cfg.OpenRouter)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.RateLimit.RequestsPerMinute != 12 {
		t.Errorf("rpm = %v", cfg.RateLimit.RequestsPerMinute)
	}
	// Unset variables keep defaults.
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("openai model = %q", cfg.OpenAI.Model)
	}
	if cfg.ModelID() != "mistralai/mistral-small" {
		t.Errorf("ModelID = %q", cfg.ModelID())
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no config without keys")
	}

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a config")
	}
	if cfg.Provider != ProviderGemini || cfg.Gemini.APIKey != "g-key" {
		t.Errorf("cfg = %+v, want gemini with g-key", cfg)
	}
	if cfg.ModelID() != "gemini-2.5-flash" {
		t.Errorf("ModelID = %q", cfg.ModelID())
	}

	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	cfg, _ = DiscoverConfig()
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("provider = %q, want anthropic first", cfg.Provider)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(t.Context(), Config{Provider: ProviderMock}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("model = %q", p.ModelID())
	}

	if _, err := NewProvider(t.Context(), Config{Provider: ProviderAnthropic}, nil, nil); err == nil {
		t.Error("expected validation error without key")
	}
}

func TestNewProvider_WrapsMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.OpenAI.APIKey = "k"

	p, err := NewProvider(t.Context(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retry, ok := p.(*RetryProvider)
	if !ok {
		t.Fatalf("outer provider = %T, want *RetryProvider", p)
	}
	limited, ok := retry.inner.(*RateLimitedProvider)
	if !ok {
		t.Fatalf("second layer = %T, want *RateLimitedProvider", retry.inner)
	}
	if _, ok := limited.inner.(*LoggingProvider); !ok {
		t.Fatalf("third layer = %T, want *LoggingProvider", limited.inner)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Errorf("model = %q", p.ModelID())
	}
}
