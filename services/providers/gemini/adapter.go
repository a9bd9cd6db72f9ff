package gemini

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/upb/spt-policy-engineer/services/providers"
)

const providerName = "gemini"

// contentGenerator is the slice of *genai.Models the adapter uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// thinkingBudgets maps a reasoning effort onto a Gemini thinking token budget.
var thinkingBudgets = map[string]int32{
	"low":    1024,
	"medium": 8192,
	"high":   24576,
}

// GeminiAdapter implements the Provider interface for the Gemini API
type GeminiAdapter struct {
	config    providers.ProviderConfig
	generator contentGenerator
	models    map[string]*providers.ModelInfo
}

// NewGeminiAdapter creates a Gemini adapter backed by the Gemini Developer API
func NewGeminiAdapter(ctx context.Context, config providers.ProviderConfig) (*GeminiAdapter, error) {
	if config.APIKey == "" {
		return nil, providers.NewProviderError(providerName, "MISSING_API_KEY", "gemini API key not configured", 0, false, nil)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, providers.NewProviderError(providerName, "CLIENT_ERROR", "failed to create gemini client", 0, false, err)
	}

	return newGeminiAdapter(config, client.Models), nil
}

func newGeminiAdapter(config providers.ProviderConfig, generator contentGenerator) *GeminiAdapter {
	adapter := &GeminiAdapter{
		config:    config,
		generator: generator,
	}
	adapter.initModels()
	return adapter
}

// Name returns the provider name
func (a *GeminiAdapter) Name() string {
	return providerName
}

// ChatCompletion sends one GenerateContent call. System messages become the
// system instruction; everything else is sent as user content in order.
func (a *GeminiAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	if err := a.ValidateModel(req.Model); err != nil {
		return nil, providers.NewProviderError(a.Name(), "INVALID_MODEL", err.Error(), 400, false, err)
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	contents, genConfig := a.buildGeminiRequest(req)
	if len(contents) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_REQUEST", "request has no user content", 400, false, nil)
	}

	resp, err := a.generator.GenerateContent(ctx, req.Model, contents, genConfig)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "GENERATE_ERROR", "failed to generate content with Gemini", 0, true, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, providers.NewProviderError(a.Name(), "NO_CANDIDATES", "no response candidates from Gemini", 0, false, nil)
	}

	return a.convertToUnifiedResponse(resp, req, time.Since(startTime)), nil
}

// ModelFamilies returns the model name prefixes the adapter serves
func ModelFamilies() []string {
	return []string{"gemini-"}
}

// ValidateModel accepts listed models and any model in ModelFamilies
func (a *GeminiAdapter) ValidateModel(model string) error {
	if _, exists := a.models[model]; exists {
		return nil
	}
	for _, family := range ModelFamilies() {
		if strings.HasPrefix(model, family) {
			return nil
		}
	}
	return fmt.Errorf("model %s is not supported by Gemini provider", model)
}

// modelInfo returns the listed metadata for model, or for the longest listed
// model it extends (e.g. "gemini-2.5-pro-preview-06-05"). It is nil for
// unlisted models.
func (a *GeminiAdapter) modelInfo(model string) *providers.ModelInfo {
	if info, ok := a.models[model]; ok {
		return info
	}

	var base *providers.ModelInfo
	for id, info := range a.models {
		if strings.HasPrefix(model, id+"-") && (base == nil || len(id) > len(base.ID)) {
			base = info
		}
	}
	return base
}

// ListModels returns all available models, sorted
func (a *GeminiAdapter) ListModels() []string {
	models := make([]string, 0, len(a.models))
	for model := range a.models {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

func (a *GeminiAdapter) initModels() {
	a.models = map[string]*providers.ModelInfo{
		"gemini-2.5-pro": {
			ID:                "gemini-2.5-pro",
			Name:              "Gemini 2.5 Pro",
			Provider:          providerName,
			Description:       "Thinking model for complex reasoning",
			MaxTokens:         65536,
			ContextWindow:     1048576,
			SupportsReasoning: true,
			SupportsJSON:      true,
		},
		"gemini-2.5-flash": {
			ID:                "gemini-2.5-flash",
			Name:              "Gemini 2.5 Flash",
			Provider:          providerName,
			Description:       "Fast thinking model",
			MaxTokens:         65536,
			ContextWindow:     1048576,
			SupportsReasoning: true,
			SupportsJSON:      true,
		},
		"gemini-2.0-flash": {
			ID:            "gemini-2.0-flash",
			Name:          "Gemini 2.0 Flash",
			Provider:      providerName,
			Description:   "Low latency general model",
			MaxTokens:     8192,
			ContextWindow: 1048576,
			SupportsJSON:  true,
		},
	}
}

func (a *GeminiAdapter) buildGeminiRequest(req *providers.ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	genConfig := &genai.GenerateContentConfig{}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if len(system) > 0 {
		genConfig.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	if info := a.modelInfo(req.Model); info != nil && info.SupportsReasoning {
		if budget, ok := thinkingBudgets[strings.ToLower(req.ReasoningEffort)]; ok {
			genConfig.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)}
		}
	}

	return contents, genConfig
}

func (a *GeminiAdapter) convertToUnifiedResponse(resp *genai.GenerateContentResponse, req *providers.ChatRequest, latency time.Duration) *providers.ChatResponse {
	unified := &providers.ChatResponse{
		Model:    req.Model,
		Provider: a.Name(),
		Choices:  make([]providers.Choice, 0, len(resp.Candidates)),
		Latency:  latency,
		Created:  time.Now(),
	}

	for i, candidate := range resp.Candidates {
		var text strings.Builder
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" && !part.Thought {
					text.WriteString(part.Text)
				}
			}
		}

		unified.Choices = append(unified.Choices, providers.Choice{
			Index: i,
			Message: providers.Message{
				Role:    "assistant",
				Content: text.String(),
			},
			FinishReason: strings.ToLower(string(candidate.FinishReason)),
		})
	}

	if resp.UsageMetadata != nil {
		unified.Usage = providers.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return unified
}
