package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	// BaseURL is the Ollama server, default http://localhost:11434.
	BaseURL string `json:"base_url,omitempty"`

	// DefaultModel is used when a request names none, e.g. "llama3.1".
	DefaultModel string `json:"default_model"`

	// TimeoutSeconds bounds each HTTP request; 0 keeps the generous
	// default that local model loads need.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// Options is passed through to the server per request (temperature,
	// num_ctx and friends).
	Options map[string]any `json:"options,omitempty"`
}

// Validate checks the fields needed to talk to the server.
func (c *OllamaConfig) Validate() error {
	if c.DefaultModel == "" {
		return errors.New("ollama: default_model is required")
	}
	if c.TimeoutSeconds < 0 {
		return errors.New("ollama: timeout_seconds must not be negative")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("ollama: invalid base_url: %w", err)
		}
	}
	return nil
}

// Ollama speaks to a local Ollama server. No API key involved.
type Ollama struct {
	client  *api.Client
	model   string
	options map[string]any
	logger  *slog.Logger
}

// NewOllama builds the backend from config.
func NewOllama(cfg OllamaConfig, logger *slog.Logger) (*Ollama, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	host := cfg.BaseURL
	if host == "" {
		host = defaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: parsing base_url: %w", err)
	}

	timeout := 5 * time.Minute
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Ollama{
		client:  api.NewClient(u, httpClient),
		model:   cfg.DefaultModel,
		options: cfg.Options,
		logger:  logger.With("component", "llm", "provider", "ollama"),
	}, nil
}

// Name implements Provider.
func (p *Ollama) Name() string { return "ollama" }

// DefaultModel implements Provider.
func (p *Ollama) DefaultModel() string { return p.model }

// Chat implements Provider. The request is non-streaming; the callback
// fires once with the complete response.
func (p *Ollama) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	stream := false
	apiReq := &api.ChatRequest{
		Model:    model,
		Messages: toOllamaMessages(req.Messages),
		Tools:    toOllamaTools(req.Tools),
		Stream:   &stream,
		Options:  p.options,
	}

	var out ChatResponse
	err := p.client.Chat(ctx, apiReq, func(resp api.ChatResponse) error {
		out.Content += resp.Message.Content
		if resp.DoneReason != "" {
			out.FinishReason = resp.DoneReason
		}
		for _, tc := range resp.Message.ToolCalls {
			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        fmt.Sprintf("call_%d", len(out.ToolCalls)),
				Name:      tc.Function.Name,
				Arguments: string(args),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	return &out, nil
}

// ListModels implements Provider, listing locally pulled models.
func (p *Ollama) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func toOllamaMessages(msgs []Message) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		am := api.Message{Role: m.Role, Content: m.Content}
		for _, tc := range m.ToolCalls {
			var args api.ToolCallFunctionArguments
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				// The model produced unparseable arguments; keep the call
				// with empty arguments rather than dropping history.
				args = api.ToolCallFunctionArguments{}
			}
			am.ToolCalls = append(am.ToolCalls, api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      tc.Name,
					Arguments: args,
				},
			})
		}
		out = append(out, am)
	}
	return out
}

// toOllamaTools round-trips definitions through JSON. The api.Tool schema
// types match the OpenAI layout field for field, so this is the simplest
// faithful conversion.
func toOllamaTools(defs []ToolDefinition) []api.Tool {
	if len(defs) == 0 {
		return nil
	}
	raw, err := json.Marshal(defs)
	if err != nil {
		return nil
	}
	var tools []api.Tool
	if err := json.Unmarshal(raw, &tools); err != nil {
		return nil
	}
	return tools
}
