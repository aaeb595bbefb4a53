package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/metrics"
)

// DefaultToolTimeout bounds a single tool execution.
const DefaultToolTimeout = 30 * time.Second

// ErrDuplicateTool is returned when Register sees a name twice.
var ErrDuplicateTool = errors.New("tool already registered")

// Registry holds the available tools and executes calls against them.
// Every execution is validated, bounded by a timeout, and timed into the
// latency window.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	timeout time.Duration
	window  *metrics.Window
	logger  *slog.Logger
}

// NewRegistry creates an empty registry with the default timeout.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: DefaultToolTimeout,
		window:  metrics.NewWindow(0),
		logger:  logger.With("component", "tools"),
	}
}

// SetTimeout overrides the per-execution deadline. Zero keeps the default.
func (r *Registry) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Register adds a tool. Duplicate names are rejected so a misconfigured
// startup fails loudly instead of shadowing a tool.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.logger.Debug("tool registered", "tool", name)
	return nil
}

// MustRegister panics on registration failure; for wiring the fixed
// built-in set at startup.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the provider wire definitions for every tool, in
// name order so prompts are stable run to run.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Definition(r.tools[name]))
	}
	return defs
}

// Execute runs one tool call end to end: lookup, argument parse, schema
// validation, bounded execution. All failures come back as *ToolError.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	start := time.Now()
	result, err := r.execute(ctx, call)
	elapsed := time.Since(start)
	r.window.Record(elapsed)

	if err != nil {
		var terr *ToolError
		kind := "unknown"
		if errors.As(err, &terr) {
			kind = terr.Kind.String()
		}
		r.logger.Warn("tool execution failed",
			"tool", call.Name, "kind", kind,
			"duration_ms", elapsed.Milliseconds(), "error", err)
		return "", err
	}

	r.logger.Info("tool executed",
		"tool", call.Name, "duration_ms", elapsed.Milliseconds())
	return result, nil
}

func (r *Registry) execute(ctx context.Context, call llm.ToolCall) (string, error) {
	tool, ok := r.Get(call.Name)
	if !ok {
		return "", NewToolError(NotFound, call.Name, fmt.Errorf("no such tool"))
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		return "", NewToolError(InvalidArguments, call.Name, err)
	}
	if err := validateArguments(call.Name, tool.Schema(), call.Arguments); err != nil {
		return "", NewToolError(InvalidArguments, call.Name, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := tool.Execute(execCtx, args)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			var terr *ToolError
			if errors.As(out.err, &terr) {
				return "", out.err
			}
			return "", NewToolError(ExecutionFailed, call.Name, out.err)
		}
		return out.result, nil

	case <-execCtx.Done():
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return "", NewToolError(Timeout, call.Name,
				fmt.Errorf("exceeded %s", r.timeout))
		}
		return "", NewToolError(ExecutionFailed, call.Name, execCtx.Err())
	}
}

// Latency exposes the execution latency window.
func (r *Registry) Latency() *metrics.Window { return r.window }

func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
