package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/spt-policy-engineer/internal/observability"
	"github.com/upb/spt-policy-engineer/services"
	"github.com/upb/spt-policy-engineer/services/providers"
)

// ModelHint selects the model and sampling knobs for one completion call.
// Zero fields fall back to the client's defaults.
type ModelHint struct {
	Model           string
	ReasoningEffort string
	MaxTokens       int
}

// Completer sends a prompt to the completion service and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string, hint ModelHint) (string, error)
}

// Client is the Completer backed by a provider registry.
type Client struct {
	registry *providers.Registry
	defaults ModelHint
	logger   *zap.Logger
}

// NewClient creates a completion client. defaults.Model must be served by a
// registered provider.
func NewClient(registry *providers.Registry, defaults ModelHint, logger *zap.Logger) (*Client, error) {
	if registry == nil {
		return nil, services.WrapConfig("provider registry is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Model == "" {
		return nil, services.WrapConfig("default model is required", nil)
	}
	provider, err := registry.GetProviderForModel(defaults.Model)
	if err != nil {
		return nil, services.WrapConfig("no provider serves model "+defaults.Model, err)
	}
	if err := provider.ValidateModel(defaults.Model); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeConfig, "provider rejects the configured model", err).
			WithDetail("provider", provider.Name()).
			WithDetail("model", defaults.Model)
	}

	return &Client{
		registry: registry,
		defaults: defaults,
		logger:   logger,
	}, nil
}

// Defaults returns the hint applied when a call leaves fields empty.
func (c *Client) Defaults() ModelHint {
	return c.defaults
}

// Complete performs one completion. Provider failures, a missing choice and
// empty text are all reported as upstream errors.
func (c *Client) Complete(ctx context.Context, prompt string, hint ModelHint) (string, error) {
	hint = c.resolve(hint)

	provider, err := c.registry.GetProviderForModel(hint.Model)
	if err != nil {
		return "", services.NewDomainError(services.ErrorTypeUpstream, "no provider serves the requested model", err).
			WithDetail("model", hint.Model)
	}

	logger := observability.WithContext(ctx, c.logger)
	start := time.Now()
	resp, err := provider.ChatCompletion(ctx, &providers.ChatRequest{
		Model:           hint.Model,
		Messages:        []providers.Message{{Role: "user", Content: prompt}},
		MaxTokens:       hint.MaxTokens,
		ReasoningEffort: hint.ReasoningEffort,
	})
	if err != nil {
		logger.Warn("completion failed",
			zap.String("provider", provider.Name()),
			zap.String("model", hint.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", upstreamError(provider.Name(), hint.Model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", services.NewDomainError(services.ErrorTypeUpstream, "completion returned no text", nil).
			WithDetail("provider", provider.Name()).
			WithDetail("model", hint.Model)
	}

	logger.Debug("completion received",
		zap.String("provider", provider.Name()),
		zap.String("model", hint.Model),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("completion_chars", len(text)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", resp.Latency),
	)

	return text, nil
}

func (c *Client) resolve(hint ModelHint) ModelHint {
	if hint.Model == "" {
		hint.Model = c.defaults.Model
	}
	if hint.ReasoningEffort == "" {
		hint.ReasoningEffort = c.defaults.ReasoningEffort
	}
	if hint.MaxTokens == 0 {
		hint.MaxTokens = c.defaults.MaxTokens
	}
	return hint
}

func upstreamError(provider, model string, err error) error {
	domainErr := services.NewDomainError(services.ErrorTypeUpstream, "completion request failed", err).
		WithDetail("provider", provider).
		WithDetail("model", model)

	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		domainErr.WithDetail("code", provErr.Code).
			WithDetail("retryable", provErr.Retryable)
		if provErr.StatusCode != 0 {
			domainErr.WithDetail("status", provErr.StatusCode)
		}
	}

	return domainErr
}
