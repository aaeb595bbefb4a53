package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig configures the OpenRouter backend.
type OpenRouterConfig struct {
	APIKey string `json:"api_key"`

	// BaseURL overrides the public endpoint, mainly for tests.
	BaseURL string `json:"base_url,omitempty"`

	// DefaultModel is used when a request names none, e.g.
	// "anthropic/claude-sonnet-4".
	DefaultModel string `json:"default_model"`

	// OrganizationID is sent as the OpenAI organization header.
	OrganizationID string `json:"organization_id,omitempty"`

	// TimeoutSeconds bounds each HTTP request; 0 uses the client default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Validate checks the fields needed to talk to the API.
func (c *OpenRouterConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("openrouter: api_key is required")
	}
	if c.DefaultModel == "" {
		return errors.New("openrouter: default_model is required")
	}
	if c.TimeoutSeconds < 0 {
		return errors.New("openrouter: timeout_seconds must not be negative")
	}
	return nil
}

// OpenRouter speaks the OpenAI-compatible chat completions API against
// openrouter.ai.
type OpenRouter struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenRouter builds the backend from config.
func NewOpenRouter(cfg OpenRouterConfig, logger *slog.Logger) (*OpenRouter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = openRouterBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.OrganizationID != "" {
		clientCfg.OrgID = cfg.OrganizationID
	}
	if cfg.TimeoutSeconds > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	return &OpenRouter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.DefaultModel,
		logger: logger.With("component", "llm", "provider", "openrouter"),
	}, nil
}

// Name implements Provider.
func (p *OpenRouter) Name() string { return "openrouter" }

// DefaultModel implements Provider.
func (p *OpenRouter) DefaultModel() string { return p.model }

// Chat implements Provider.
func (p *OpenRouter) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
		Tools:    toOpenAITools(req.Tools),
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: response has no choices")
	}

	choice := resp.Choices[0]
	out := &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// ListModels implements Provider.
func (p *OpenRouter) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		})
	}
	return out
}

// wrapOpenAIError converts go-openai errors into APIError so Classify sees
// the status code and body.
func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Provider:   "openrouter",
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Body:       reqErr.Error(),
			Provider:   "openrouter",
		}
	}
	return err
}
