package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/upb/spt-policy-engineer/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	providerName   = "openai"
)

// OpenAIAdapter implements the Provider interface for the OpenAI Chat Completions API
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	models     map[string]*providers.ModelInfo
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.ProviderConfig) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	// Reasoning models routinely take minutes on long prompts
	if config.Timeout == 0 {
		config.Timeout = 180 * time.Second
	}

	adapter := &OpenAIAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
	adapter.initModels()

	return adapter
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return providerName
}

// ChatCompletion performs exactly one chat completion request. Failures are
// returned as *providers.ProviderError and never retried here.
func (a *OpenAIAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	if err := a.ValidateModel(req.Model); err != nil {
		return nil, providers.NewProviderError(a.Name(), "INVALID_MODEL", err.Error(), http.StatusBadRequest, false, err)
	}

	reqBody, err := json.Marshal(a.buildOpenAIRequest(req))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var openaiResp OpenAIChatResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	return a.convertToUnifiedResponse(&openaiResp, time.Since(startTime)), nil
}

// ModelFamilies returns the model name prefixes the adapter serves. Models
// in these families need not be listed, e.g. dated snapshots such as
// "o4-mini-2025-04-16".
func ModelFamilies() []string {
	return []string{"gpt-", "o1", "o3", "o4"}
}

// ValidateModel accepts listed models and any model in ModelFamilies
func (a *OpenAIAdapter) ValidateModel(model string) error {
	if _, exists := a.models[model]; exists {
		return nil
	}
	for _, family := range ModelFamilies() {
		if strings.HasPrefix(model, family) {
			return nil
		}
	}
	return fmt.Errorf("model %s is not supported by OpenAI provider", model)
}

// isReasoningModel reports whether model takes reasoning_effort. Unlisted
// models inherit from the longest listed model they extend; unlisted o-series
// models are reasoning models.
func (a *OpenAIAdapter) isReasoningModel(model string) bool {
	if info, ok := a.models[model]; ok {
		return info.SupportsReasoning
	}

	var base *providers.ModelInfo
	for id, info := range a.models {
		if strings.HasPrefix(model, id+"-") && (base == nil || len(id) > len(base.ID)) {
			base = info
		}
	}
	if base != nil {
		return base.SupportsReasoning
	}
	return strings.HasPrefix(model, "o")
}

// ListModels returns all available models, sorted
func (a *OpenAIAdapter) ListModels() []string {
	models := make([]string, 0, len(a.models))
	for model := range a.models {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

func (a *OpenAIAdapter) initModels() {
	a.models = map[string]*providers.ModelInfo{
		"o4-mini": {
			ID:                "o4-mini",
			Name:              "o4-mini",
			Provider:          providerName,
			Description:       "Small reasoning model",
			MaxTokens:         100000,
			ContextWindow:     200000,
			SupportsReasoning: true,
			SupportsJSON:      true,
		},
		"o3-mini": {
			ID:                "o3-mini",
			Name:              "o3-mini",
			Provider:          providerName,
			Description:       "Previous generation small reasoning model",
			MaxTokens:         100000,
			ContextWindow:     200000,
			SupportsReasoning: true,
			SupportsJSON:      true,
		},
		"o3": {
			ID:                "o3",
			Name:              "o3",
			Provider:          providerName,
			Description:       "Full-size reasoning model",
			MaxTokens:         100000,
			ContextWindow:     200000,
			SupportsReasoning: true,
			SupportsJSON:      true,
		},
		"gpt-4.1": {
			ID:            "gpt-4.1",
			Name:          "GPT-4.1",
			Provider:      providerName,
			Description:   "Long-context general model",
			MaxTokens:     32768,
			ContextWindow: 1047576,
			SupportsJSON:  true,
		},
		"gpt-4o": {
			ID:            "gpt-4o",
			Name:          "GPT-4o",
			Provider:      providerName,
			Description:   "Optimized GPT-4 model",
			MaxTokens:     16384,
			ContextWindow: 128000,
			SupportsJSON:  true,
		},
		"gpt-4o-mini": {
			ID:            "gpt-4o-mini",
			Name:          "GPT-4o Mini",
			Provider:      providerName,
			Description:   "Smaller, faster GPT-4o model",
			MaxTokens:     16384,
			ContextWindow: 128000,
			SupportsJSON:  true,
		},
	}
}

// buildOpenAIRequest converts a unified request to OpenAI format. Reasoning
// models reject max_tokens, so they get reasoning_effort and
// max_completion_tokens instead.
func (a *OpenAIAdapter) buildOpenAIRequest(req *providers.ChatRequest) *OpenAIChatRequest {
	openaiReq := &OpenAIChatRequest{
		Model:    req.Model,
		Messages: make([]OpenAIMessage, len(req.Messages)),
	}

	for i, msg := range req.Messages {
		openaiReq.Messages[i] = OpenAIMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	if a.isReasoningModel(req.Model) {
		if req.ReasoningEffort != "" {
			effort := req.ReasoningEffort
			openaiReq.ReasoningEffort = &effort
		}
		if req.MaxTokens > 0 {
			maxTokens := req.MaxTokens
			openaiReq.MaxCompletionTokens = &maxTokens
		}
		return openaiReq
	}

	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		openaiReq.MaxTokens = &maxTokens
	}

	return openaiReq
}

func (a *OpenAIAdapter) convertToUnifiedResponse(openaiResp *OpenAIChatResponse, latency time.Duration) *providers.ChatResponse {
	resp := &providers.ChatResponse{
		ID:       openaiResp.ID,
		Model:    openaiResp.Model,
		Provider: a.Name(),
		Choices:  make([]providers.Choice, len(openaiResp.Choices)),
		Usage: providers.Usage{
			PromptTokens:     openaiResp.Usage.PromptTokens,
			CompletionTokens: openaiResp.Usage.CompletionTokens,
			TotalTokens:      openaiResp.Usage.TotalTokens,
		},
		Latency: latency,
		Created: time.Unix(openaiResp.Created, 0),
	}

	for i, choice := range openaiResp.Choices {
		resp.Choices[i] = providers.Choice{
			Index: choice.Index,
			Message: providers.Message{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		}
	}

	return resp
}

func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", fmt.Sprintf("status %d: %s", statusCode, string(body)), statusCode, retryable, err)
	}

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Type,
		errResp.Error.Message,
		statusCode,
		retryable,
		errors.New(errResp.Error.Message),
	)
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model               string          `json:"model"`
	Messages            []OpenAIMessage `json:"messages"`
	MaxTokens           *int            `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int            `json:"max_completion_tokens,omitempty"`
	ReasoningEffort     *string         `json:"reasoning_effort,omitempty"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
