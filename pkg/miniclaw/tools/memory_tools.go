package tools

import (
	"context"
	"fmt"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/memory"
)

// MemoryTool is the dispatcher over the markdown memory files. One tool
// with an action parameter keeps the tool list short for the model.
type MemoryTool struct {
	Store *memory.Store
}

func (t *MemoryTool) Name() string { return "memory" }

func (t *MemoryTool) Description() string {
	return "Manage durable memory. action='remember' appends to long-term memory, " +
		"'log' appends to today's daily note, 'read' returns long-term memory, " +
		"'read_today' returns today's note."
}

func (t *MemoryTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []any{"remember", "log", "read", "read_today"},
				"description": "The memory operation to perform",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The text to store (for remember and log)",
			},
		},
		"required": []any{"action"},
	}
}

func (t *MemoryTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	action, err := stringArg(args, "action")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}

	switch action {
	case "remember":
		content, err := stringArg(args, "content")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		if err := t.Store.AppendLongTerm(content); err != nil {
			return "", NewToolError(ExecutionFailed, t.Name(), err)
		}
		return "remembered", nil

	case "log":
		content, err := stringArg(args, "content")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		if err := t.Store.AppendDaily(content); err != nil {
			return "", NewToolError(ExecutionFailed, t.Name(), err)
		}
		return "logged", nil

	case "read":
		content, err := t.Store.ReadLongTerm()
		if err != nil {
			return "", NewToolError(ExecutionFailed, t.Name(), err)
		}
		if content == "" {
			return "(long-term memory is empty)", nil
		}
		return content, nil

	case "read_today":
		content, err := t.Store.ReadDaily()
		if err != nil {
			return "", NewToolError(ExecutionFailed, t.Name(), err)
		}
		if content == "" {
			return "(no daily note yet)", nil
		}
		return content, nil

	default:
		return "", NewToolError(InvalidArguments, t.Name(),
			fmt.Errorf("unknown action %q", action))
	}
}

// ShortTermTool exposes the in-process scratch memory.
type ShortTermTool struct {
	Memory *memory.ShortTerm
}

func (t *ShortTermTool) Name() string { return "short_term_memory" }

func (t *ShortTermTool) Description() string {
	return "Scratch notes that live only until the daemon restarts. " +
		"action='add' stores a note, 'list' returns them, 'clear' forgets everything."
}

func (t *ShortTermTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []any{"add", "list", "clear"},
				"description": "The operation to perform",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The note text (for add)",
			},
		},
		"required": []any{"action"},
	}
}

func (t *ShortTermTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	action, err := stringArg(args, "action")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}

	switch action {
	case "add":
		content, err := stringArg(args, "content")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		t.Memory.Add(content)
		return "noted", nil

	case "list":
		rendered := t.Memory.Render()
		if rendered == "" {
			return "(no short-term notes)", nil
		}
		return rendered, nil

	case "clear":
		t.Memory.Clear()
		return "cleared", nil

	default:
		return "", NewToolError(InvalidArguments, t.Name(),
			fmt.Errorf("unknown action %q", action))
	}
}
