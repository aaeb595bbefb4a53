package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/security"
)

// maxExecOutput caps the output folded into the conversation.
const maxExecOutput = 64 << 10

// ExecTool runs a shell command in the workspace. The blacklist is checked
// against the first token of the command before anything is spawned.
type ExecTool struct {
	// WorkDir is the working directory for spawned commands.
	WorkDir string

	// LogOutput mirrors command output to the daemon log when set
	// (spawn_log_output in config).
	LogOutput bool

	Logger *slog.Logger
}

func (t *ExecTool) Name() string { return "exec" }

func (t *ExecTool) Description() string {
	return "Run a shell command in the workspace and return its combined output. Destructive commands are blocked."
}

func (t *ExecTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to run",
			},
		},
		"required": []any{"command"},
	}
}

func (t *ExecTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", NewToolError(InvalidArguments, t.Name(), err)
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return "", NewToolError(InvalidArguments, t.Name(), fmt.Errorf("command is empty"))
	}

	fields := strings.Fields(command)
	if security.IsBlacklisted(fields[0]) {
		return "", NewToolError(PermissionDenied, t.Name(),
			fmt.Errorf("command %q is blacklisted", fields[0]))
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = t.WorkDir
	output, err := cmd.CombinedOutput()

	if t.LogOutput && t.Logger != nil {
		t.Logger.Info("command output",
			"command", command, "bytes", len(output))
	}

	text := string(output)
	if len(text) > maxExecOutput {
		text = text[:maxExecOutput] + "\n[truncated]"
	}

	if err != nil {
		if ctx.Err() != nil {
			// Let the registry's deadline classify this as a timeout.
			return "", NewToolError(Timeout, t.Name(), ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A failing command is still a useful observation for the
			// model; fold the exit code into the result.
			return fmt.Sprintf("exit status %d\n%s", exitErr.ExitCode(), text), nil
		}
		return "", NewToolError(ExecutionFailed, t.Name(), err)
	}

	if strings.TrimSpace(text) == "" {
		return "(no output)", nil
	}
	return text, nil
}
