package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/skills"
)

// SkillTool is the dispatcher over the skill library.
type SkillTool struct {
	Library *skills.Library
}

func (t *SkillTool) Name() string { return "skill" }

func (t *SkillTool) Description() string {
	return "Manage reusable skills (markdown instruction packages). " +
		"action='create' writes a new skill, 'list' shows all skills, " +
		"'read' returns a skill's instructions, 'delete' removes one."
}

func (t *SkillTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []any{"create", "list", "read", "delete"},
				"description": "The skill operation to perform",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Skill name: lowercase letters, digits, - and _",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "One-line summary of what the skill does (for create)",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Markdown instructions for the skill (for create)",
			},
		},
		"required": []any{"action"},
	}
}

func (t *SkillTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	action, err := stringArg(args, "action")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}

	switch action {
	case "create":
		name, err := stringArg(args, "name")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		body, err := stringArg(args, "body")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		meta := skills.Meta{
			Name:        name,
			Description: optionalStringArg(args, "description", ""),
		}
		if err := t.Library.Create(meta, body); err != nil {
			return "", t.classify(err)
		}
		return fmt.Sprintf("skill %q created", name), nil

	case "list":
		list, err := t.Library.List()
		if err != nil {
			return "", NewToolError(ExecutionFailed, t.Name(), err)
		}
		if len(list) == 0 {
			return "(no skills)", nil
		}
		var b strings.Builder
		for _, m := range list {
			fmt.Fprintf(&b, "- %s: %s\n", m.Name, m.Description)
		}
		return b.String(), nil

	case "read":
		name, err := stringArg(args, "name")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		skill, err := t.Library.Get(name)
		if err != nil {
			return "", t.classify(err)
		}
		return skill.Body, nil

	case "delete":
		name, err := stringArg(args, "name")
		if err != nil {
			return "", NewToolError(InvalidArguments, t.Name(), err)
		}
		if err := t.Library.Delete(name); err != nil {
			return "", t.classify(err)
		}
		return fmt.Sprintf("skill %q deleted", name), nil

	default:
		return "", NewToolError(InvalidArguments, t.Name(),
			fmt.Errorf("unknown action %q", action))
	}
}

func (t *SkillTool) classify(err error) error {
	switch {
	case errors.Is(err, skills.ErrInvalidName), errors.Is(err, skills.ErrSkillExists):
		return NewToolError(InvalidArguments, t.Name(), err)
	case errors.Is(err, skills.ErrSkillNotFound):
		return NewToolError(ExecutionFailed, t.Name(), err)
	default:
		return NewToolError(ExecutionFailed, t.Name(), err)
	}
}
