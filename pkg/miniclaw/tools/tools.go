// Package tools implements the agent's tool registry and the built-in
// tools. Tool failures are values: every error carries a kind so the agent
// loop can decide between folding the failure into the conversation and
// retrying a recoverable one.
package tools

import (
	"context"
	"fmt"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
)

// ErrorKind classifies tool failures.
type ErrorKind int

const (
	// NotFound means no tool with the requested name is registered.
	NotFound ErrorKind = iota

	// InvalidArguments means the arguments failed schema validation or
	// were not a JSON object.
	InvalidArguments

	// ExecutionFailed is a terminal runtime failure.
	ExecutionFailed

	// ExecutionFailedRecoverable is a runtime failure worth one retry,
	// e.g. a transient filesystem race.
	ExecutionFailedRecoverable

	// PermissionDenied means a security guard rejected the operation.
	PermissionDenied

	// Timeout means the tool exceeded its execution deadline.
	Timeout
)

// String returns the wire label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArguments:
		return "invalid_arguments"
	case ExecutionFailed:
		return "execution_failed"
	case ExecutionFailedRecoverable:
		return "execution_failed_recoverable"
	case PermissionDenied:
		return "permission_denied"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ToolError is the failure value tools and the registry produce.
type ToolError struct {
	Kind ErrorKind
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Kind, e.Err)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Kind)
}

func (e *ToolError) Unwrap() error { return e.Err }

// IsRecoverable reports whether a retry might succeed.
func (e *ToolError) IsRecoverable() bool {
	return e.Kind == Timeout || e.Kind == ExecutionFailedRecoverable
}

// NewToolError builds a classified failure.
func NewToolError(kind ErrorKind, tool string, err error) *ToolError {
	return &ToolError{Kind: kind, Tool: tool, Err: err}
}

// Tool is one callable capability exposed to the model.
type Tool interface {
	// Name is the function name the model calls.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Schema is the JSON-schema object describing the arguments.
	Schema() map[string]any

	// Execute runs the tool with validated arguments. The returned string
	// becomes the tool_result content; errors should be *ToolError.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Definition converts a tool into the provider wire format.
func Definition(t Tool) llm.ToolDefinition {
	return llm.NewToolDefinition(llm.FunctionDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Schema(),
	})
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

// optionalStringArg extracts a string argument or its default.
func optionalStringArg(args map[string]any, key, def string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}
