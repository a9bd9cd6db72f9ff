package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/spt-policy-engineer/services"
)

var envKeys = []string{
	"ENVIRONMENT", "LLM_PROVIDER", "LLM_MODEL", "LLM_REASONING_EFFORT", "LLM_MAX_TOKENS",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_TIMEOUT", "GEMINI_API_KEY", "GEMINI_BASE_URL",
	"HARNESS_ITERATIONS", "HARNESS_OUTPUT", "HARNESS_MAX_ATTEMPTS", "REDACT_SECRETS",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable New reads; empty values fall back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		opts    []Option
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{"OPENAI_API_KEY": "sk-test"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
				assert.Equal(t, "o4-mini", cfg.LLM.Model)
				assert.Equal(t, "high", cfg.LLM.ReasoningEffort)
				assert.Equal(t, "https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
				assert.Equal(t, 180*time.Second, cfg.Providers.OpenAI.Timeout)
				assert.Equal(t, 10, cfg.Harness.Iterations)
				assert.Equal(t, "policy_test_results.json", cfg.Harness.OutputPath)
				assert.Equal(t, 3, cfg.Harness.MaxAttempts)
				assert.False(t, cfg.Harness.RedactSecrets)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.Equal(t, "sk-test", cfg.APIKey())
			},
		},
		{
			name: "gemini provider",
			envVars: map[string]string{
				"LLM_PROVIDER":   "Gemini",
				"GEMINI_API_KEY": "gm-test",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
				assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
				assert.Equal(t, "gm-test", cfg.APIKey())
			},
		},
		{
			name: "harness and logging overrides",
			envVars: map[string]string{
				"OPENAI_API_KEY":       "sk-test",
				"LLM_MODEL":            "gpt-4.1",
				"LLM_REASONING_EFFORT": "low",
				"LLM_MAX_TOKENS":       "4096",
				"OPENAI_TIMEOUT":       "45s",
				"HARNESS_ITERATIONS":   "3",
				"HARNESS_OUTPUT":       "out/results.json",
				"REDACT_SECRETS":       "true",
				"LOG_LEVEL":            "debug",
				"LOG_FORMAT":           "json",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
				assert.Equal(t, "low", cfg.LLM.ReasoningEffort)
				assert.Equal(t, 4096, cfg.LLM.MaxTokens)
				assert.Equal(t, 45*time.Second, cfg.Providers.OpenAI.Timeout)
				assert.Equal(t, 3, cfg.Harness.Iterations)
				assert.Equal(t, "out/results.json", cfg.Harness.OutputPath)
				assert.True(t, cfg.Harness.RedactSecrets)
				assert.Equal(t, "json", cfg.Observability.LogFormat)
			},
		},
		{
			name:    "unparseable numbers fall back to defaults",
			envVars: map[string]string{"OPENAI_API_KEY": "sk-test", "HARNESS_ITERATIONS": "ten", "OPENAI_TIMEOUT": "soon"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10, cfg.Harness.Iterations)
				assert.Equal(t, 180*time.Second, cfg.Providers.OpenAI.Timeout)
			},
		},
		{
			name: "explicit options override environment",
			envVars: map[string]string{
				"OPENAI_API_KEY": "sk-env",
			},
			opts: []Option{WithAPIKey("sk-explicit"), WithModel("o3"), WithIterations(2), WithOutputPath("x.json")},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-explicit", cfg.APIKey())
				assert.Equal(t, "o3", cfg.LLM.Model)
				assert.Equal(t, 2, cfg.Harness.Iterations)
				assert.Equal(t, "x.json", cfg.Harness.OutputPath)
			},
		},
		{
			name: "explicit key without environment",
			opts: []Option{WithProvider("gemini"), WithAPIKey("gm-explicit")},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "gm-explicit", cfg.Providers.Gemini.APIKey)
			},
		},
		{
			name:    "missing openai credential",
			wantErr: true,
		},
		{
			name:    "missing gemini credential",
			envVars: map[string]string{"LLM_PROVIDER": "gemini", "OPENAI_API_KEY": "sk-test"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			envVars: map[string]string{"LLM_PROVIDER": "bedrock", "OPENAI_API_KEY": "sk-test"},
			wantErr: true,
		},
		{
			name:    "invalid reasoning effort",
			envVars: map[string]string{"OPENAI_API_KEY": "sk-test", "LLM_REASONING_EFFORT": "extreme"},
			wantErr: true,
		},
		{
			name:    "zero iterations",
			envVars: map[string]string{"OPENAI_API_KEY": "sk-test"},
			opts:    []Option{WithIterations(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(context.Background(), tt.opts...)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, services.IsConfigError(err), "got %v", err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidate_NamesVariable(t *testing.T) {
	cfg := &Config{
		LLM:           LLMConfig{Provider: ProviderOpenAI, ReasoningEffort: "high"},
		Harness:       HarnessConfig{Iterations: 1, MaxAttempts: 1},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "OPENAI_API_KEY", services.GetErrorDetails(err)["variable"])
	assert.EqualError(t, err, "config: OPENAI_API_KEY is required for provider openai")

	cfg.Providers.OpenAI.APIKey = "sk-test"
	cfg.LLM.ReasoningEffort = "extreme"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "LLM_REASONING_EFFORT", services.GetErrorDetails(err)["variable"])

	cfg.LLM.ReasoningEffort = "low"
	cfg.LLM.MaxTokens = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "LLM_MAX_TOKENS", services.GetErrorDetails(err)["variable"])

	cfg.LLM.MaxTokens = 0
	assert.NoError(t, cfg.Validate())
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "o4-mini", DefaultModel(ProviderOpenAI))
	assert.Equal(t, "gemini-2.5-pro", DefaultModel(ProviderGemini))
}
