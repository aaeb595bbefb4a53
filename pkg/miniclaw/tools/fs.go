package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/security"
)

// maxReadBytes caps read_file output so a stray binary cannot drown the
// conversation.
const maxReadBytes = 256 << 10

// guardPath runs a user path through the validator and maps validator
// errors to tool error kinds.
func guardPath(toolName string, v *security.PathValidator, userPath string) (string, error) {
	path, err := v.Validate(userPath)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrOutsideBase),
			errors.Is(err, security.ErrSystemPathBlocked):
			return "", NewToolError(PermissionDenied, toolName, err)
		default:
			return "", NewToolError(InvalidArguments, toolName, err)
		}
	}
	return path, nil
}

// ReadFileTool reads a file inside the workspace.
type ReadFileTool struct {
	Validator *security.PathValidator
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read a text file from the workspace. Paths are relative to the workspace root."
}

func (t *ReadFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path relative to the workspace root",
			},
		},
		"required": []any{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	userPath, err := stringArg(args, "path")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}
	path, err := guardPath(t.Name(), t.Validator, userPath)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewToolError(ExecutionFailed, t.Name(), fmt.Errorf("file does not exist: %s", userPath))
		}
		return "", NewToolError(ExecutionFailed, t.Name(), err)
	}
	if len(data) > maxReadBytes {
		return string(data[:maxReadBytes]) + "\n[truncated]", nil
	}
	return string(data), nil
}

// WriteFileTool writes a file inside the workspace, creating parent
// directories as needed.
type WriteFileTool struct {
	Validator *security.PathValidator
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write content to a file in the workspace, replacing any existing content."
}

func (t *WriteFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path relative to the workspace root",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The full file content to write",
			},
		},
		"required": []any{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	userPath, err := stringArg(args, "path")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}
	path, err := guardPath(t.Name(), t.Validator, userPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", NewToolError(ExecutionFailed, t.Name(), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", NewToolError(ExecutionFailed, t.Name(), err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), userPath), nil
}

// ListDirTool lists a workspace directory.
type ListDirTool struct {
	Validator *security.PathValidator
}

func (t *ListDirTool) Name() string { return "list_dir" }

func (t *ListDirTool) Description() string {
	return "List the entries of a workspace directory. Directories are suffixed with /."
}

func (t *ListDirTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory path relative to the workspace root; defaults to the root",
			},
		},
		"required": []any{},
	}
}

func (t *ListDirTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	userPath := optionalStringArg(args, "path", ".")
	path, err := guardPath(t.Name(), t.Validator, userPath)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewToolError(ExecutionFailed, t.Name(), fmt.Errorf("directory does not exist: %s", userPath))
		}
		return "", NewToolError(ExecutionFailed, t.Name(), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "(empty)", nil
	}
	return strings.Join(names, "\n"), nil
}
