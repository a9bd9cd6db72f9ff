package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/spt-policy-engineer/config"
	"github.com/upb/spt-policy-engineer/services/completion"
	"github.com/upb/spt-policy-engineer/services/engineer"
	"github.com/upb/spt-policy-engineer/services/harness"
	"github.com/upb/spt-policy-engineer/services/providers"
	"github.com/upb/spt-policy-engineer/services/providers/gemini"
	"github.com/upb/spt-policy-engineer/services/providers/openai"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Provider Registry
	Registry *providers.Registry

	// Services
	Completion *completion.Client
	Engineer   *engineer.Service
	Harness    *harness.Harness
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize provider registry
	if err := deps.initProviders(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	// Initialize services
	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info("all dependencies initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)
	return deps, nil
}

// initProviders registers every provider that has a credential
func (d *Dependencies) initProviders(ctx context.Context, cfg *config.Config) error {
	registry := providers.NewRegistry()

	// Register OpenAI provider if configured
	if cfg.Providers.OpenAI.APIKey != "" {
		adapter := openai.NewOpenAIAdapter(providers.ProviderConfig{
			APIKey:  cfg.Providers.OpenAI.APIKey,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Timeout: cfg.Providers.OpenAI.Timeout,
		})
		if err := registerWithFamilies(registry, adapter, openai.ModelFamilies()); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider")
	}

	// Register Gemini provider if configured
	if cfg.Providers.Gemini.APIKey != "" {
		adapter, err := gemini.NewGeminiAdapter(ctx, providers.ProviderConfig{
			APIKey:  cfg.Providers.Gemini.APIKey,
			BaseURL: cfg.Providers.Gemini.BaseURL,
		})
		if err != nil {
			return err
		}
		if err := registerWithFamilies(registry, adapter, gemini.ModelFamilies()); err != nil {
			return err
		}
		d.Logger.Info("registered Gemini provider")
	}

	if registry.GetProviderCount() == 0 {
		d.Logger.Warn("no completion providers configured")
	} else {
		d.Logger.Debug("completion providers ready", zap.Strings("providers", registry.ListProviders()))
	}

	d.Registry = registry
	return nil
}

// registerWithFamilies registers a provider and routes its model families to it
func registerWithFamilies(registry *providers.Registry, provider providers.Provider, families []string) error {
	if err := registry.RegisterProvider(provider); err != nil {
		return err
	}
	for _, prefix := range families {
		if err := registry.RegisterModelPrefix(prefix, provider.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) error {
	client, err := completion.NewClient(d.Registry, completion.ModelHint{
		Model:           cfg.LLM.Model,
		ReasoningEffort: cfg.LLM.ReasoningEffort,
		MaxTokens:       cfg.LLM.MaxTokens,
	}, d.Logger.Named("completion"))
	if err != nil {
		return err
	}
	d.Completion = client

	eng, err := engineer.NewService(client, engineer.Config{
		MaxAttempts: cfg.Harness.MaxAttempts,
	}, d.Logger.Named("engineer"))
	if err != nil {
		return err
	}
	d.Engineer = eng

	provider, err := d.Registry.GetProviderForModel(cfg.LLM.Model)
	if err != nil {
		return err
	}
	h, err := harness.New(eng,
		harness.WithIterations(cfg.Harness.Iterations),
		harness.WithRedaction(cfg.Harness.RedactSecrets),
		harness.WithModel(cfg.LLM.Model, provider.Name()),
		harness.WithLogger(d.Logger.Named("harness")),
	)
	if err != nil {
		return err
	}
	d.Harness = h

	return nil
}
