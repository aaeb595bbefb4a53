package tools

import (
	"context"
	"fmt"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
)

// MessageTool sends an extra message to the current conversation through
// the hub, useful for progress updates during long tool chains.
type MessageTool struct {
	Hub *bus.Hub
}

func (t *MessageTool) Name() string { return "send_message" }

func (t *MessageTool) Description() string {
	return "Send an immediate message to the user before the final reply, e.g. a progress update."
}

func (t *MessageTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The message text to send",
			},
		},
		"required": []any{"content"},
	}
}

func (t *MessageTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	content, err := stringArg(args, "content")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}
	inv, ok := InvocationFrom(ctx)
	if !ok {
		return "", NewToolError(ExecutionFailed, t.Name(),
			fmt.Errorf("no conversation attached to this call"))
	}

	t.Hub.Reply(inv.Channel, inv.ChatID, content)
	return "message sent", nil
}
