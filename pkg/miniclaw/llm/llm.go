// Package llm defines the provider contract the agent loop speaks and the
// concrete OpenRouter and Ollama backends. Providers translate between the
// neutral request/response types here and their own wire formats; the agent
// never sees provider-specific structures.
package llm

import "context"

// Message roles on the provider wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool message back to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Name is the tool name on tool messages.
	Name string `json:"name,omitempty"`
}

// ToolCall is a provider-requested tool invocation. Arguments is the raw
// JSON object the model produced, validated downstream.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionDef describes one callable function to the model.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition is the OpenAI-style tool wrapper providers expect.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// NewToolDefinition wraps a function definition in the standard envelope.
func NewToolDefinition(fn FunctionDef) ToolDefinition {
	return ToolDefinition{Type: "function", Function: fn}
}

// ChatRequest is one completion call.
type ChatRequest struct {
	Model    string
	Messages []Message
	Tools    []ToolDefinition
}

// ChatResponse is the provider's answer. Content and ToolCalls can both be
// set; an empty response has neither.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// HasToolCalls reports whether the model requested tool execution.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Provider is a chat completion backend.
type Provider interface {
	// Chat performs one completion. Errors are classified via Classify.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ListModels returns the model identifiers the backend offers.
	ListModels(ctx context.Context) ([]string, error)

	// Name identifies the provider ("openrouter", "ollama").
	Name() string

	// DefaultModel is used when the request leaves Model empty.
	DefaultModel() string
}
