package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/upb/spt-policy-engineer/services"
	"github.com/upb/spt-policy-engineer/utils"
)

// Provider names accepted in LLM_PROVIDER
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents the complete application configuration
type Config struct {
	LLM           LLMConfig
	Providers     ProvidersConfig
	Harness       HarnessConfig
	Observability ObservabilityConfig
	Environment   string
}

// LLMConfig selects the completion provider and model
type LLMConfig struct {
	Provider        string
	Model           string
	ReasoningEffort string
	MaxTokens       int
}

// ProvidersConfig holds completion provider configurations
type ProvidersConfig struct {
	OpenAI OpenAIConfig
	Gemini GeminiConfig
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GeminiConfig holds Gemini provider configuration
type GeminiConfig struct {
	APIKey  string
	BaseURL string // empty uses the SDK default
}

// HarnessConfig holds test-data generation settings
type HarnessConfig struct {
	Iterations    int
	OutputPath    string
	MaxAttempts   int
	RedactSecrets bool
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// Option overrides a loaded value
type Option func(*Config)

// WithAPIKey sets the credential for the selected provider, taking
// precedence over the environment.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		switch c.LLM.Provider {
		case ProviderGemini:
			c.Providers.Gemini.APIKey = key
		default:
			c.Providers.OpenAI.APIKey = key
		}
	}
}

// WithProvider selects the completion provider
func WithProvider(name string) Option {
	return func(c *Config) { c.LLM.Provider = strings.ToLower(name) }
}

// WithModel selects the completion model
func WithModel(model string) Option {
	return func(c *Config) { c.LLM.Model = model }
}

// WithIterations sets the policy samples per requirement
func WithIterations(n int) Option {
	return func(c *Config) { c.Harness.Iterations = n }
}

// WithOutputPath sets the batch report path
func WithOutputPath(path string) Option {
	return func(c *Config) { c.Harness.OutputPath = path }
}

// New creates a new Config instance by loading environment variables and
// applying opts on top. A missing credential for the selected provider is a
// config error.
func New(ctx context.Context, opts ...Option) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
			Model:           getEnv("LLM_MODEL", ""),
			ReasoningEffort: getEnv("LLM_REASONING_EFFORT", "high"),
			MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 0),
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 180*time.Second),
			},
			Gemini: GeminiConfig{
				APIKey:  getEnv("GEMINI_API_KEY", ""),
				BaseURL: getEnv("GEMINI_BASE_URL", ""),
			},
		},
		Harness: HarnessConfig{
			Iterations:    getEnvAsInt("HARNESS_ITERATIONS", 10),
			OutputPath:    getEnv("HARNESS_OUTPUT", "policy_test_results.json"),
			MaxAttempts:   getEnvAsInt("HARNESS_MAX_ATTEMPTS", 3),
			RedactSecrets: getEnvAsBool("REDACT_SECRETS", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "console"),
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultModel returns the model used when LLM_MODEL is unset
func DefaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-pro"
	}
	return "o4-mini"
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if err := utils.ValidateOneOf(c.LLM.Provider, "LLM_PROVIDER", []string{ProviderOpenAI, ProviderGemini}); err != nil {
		return configError(err.Error(), "LLM_PROVIDER")
	}

	keyVar := "OPENAI_API_KEY"
	if c.LLM.Provider == ProviderGemini {
		keyVar = "GEMINI_API_KEY"
	}
	if err := utils.ValidateRequired(c.APIKey(), keyVar); err != nil {
		return configError(fmt.Sprintf("%s for provider %s", err, c.LLM.Provider), keyVar)
	}

	if err := utils.ValidateOneOf(c.LLM.ReasoningEffort, "LLM_REASONING_EFFORT", []string{"low", "medium", "high"}); err != nil {
		return configError(err.Error(), "LLM_REASONING_EFFORT")
	}

	if err := utils.ValidateMin(c.LLM.MaxTokens, "LLM_MAX_TOKENS", 0); err != nil {
		return configError(err.Error(), "LLM_MAX_TOKENS")
	}
	if err := utils.ValidateMin(c.Harness.Iterations, "HARNESS_ITERATIONS", 1); err != nil {
		return configError(err.Error(), "HARNESS_ITERATIONS")
	}
	if err := utils.ValidateMin(c.Harness.MaxAttempts, "HARNESS_MAX_ATTEMPTS", 1); err != nil {
		return configError(err.Error(), "HARNESS_MAX_ATTEMPTS")
	}

	// Observability validation
	if err := utils.ValidateRequired(c.Observability.LogLevel, "LOG_LEVEL"); err != nil {
		return configError(err.Error(), "LOG_LEVEL")
	}

	return nil
}

// APIKey returns the credential of the selected provider
func (c *Config) APIKey() string {
	if c.LLM.Provider == ProviderGemini {
		return c.Providers.Gemini.APIKey
	}
	return c.Providers.OpenAI.APIKey
}

func configError(message, variable string) error {
	return services.NewDomainError(services.ErrorTypeConfig, message, nil).
		WithDetail("variable", variable)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
