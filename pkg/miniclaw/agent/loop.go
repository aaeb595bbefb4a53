// Package agent implements the reasoning loop: consume inbound messages,
// drive the provider's tool-calling cycle against the tool registry, and
// reply through the hub. Tool failures fold into the conversation; only
// provider failures abort a turn.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/circuit"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/metrics"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/session"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/tools"
)

const (
	// MaxToolIters bounds the tool-calling cycle within one turn.
	MaxToolIters = 8

	// TurnDeadline is the soft ceiling for a whole turn.
	TurnDeadline = 60 * time.Second
)

// errorReply is what the user sees when a turn fails terminally.
const errorReply = "I hit a problem handling that request."

// iterationCapReply is synthesised when the model never produces a final
// answer within MaxToolIters.
const iterationCapReply = "I stopped after too many tool steps without reaching an answer. " +
	"Ask again with a narrower request and I'll take another run at it."

// ErrProviderUnavailable is returned while the circuit breaker is open.
var ErrProviderUnavailable = errors.New("provider circuit is open")

// Config wires a Loop.
type Config struct {
	Hub      *bus.Hub
	Provider llm.Provider
	Builder  *ContextBuilder
	Registry *tools.Registry
	Sessions *session.Manager
	Model    string
	Inbound  <-chan bus.InboundMessage
	Breaker  *circuit.Breaker
	Logger   *slog.Logger
}

// Loop is the per-process agent. One goroutine runs it; tools may fan out
// internally but turns are processed one at a time.
type Loop struct {
	hub         *bus.Hub
	provider    llm.Provider
	builder     *ContextBuilder
	registry    *tools.Registry
	sessions    *session.Manager
	model       string
	inbound     <-chan bus.InboundMessage
	breaker     *circuit.Breaker
	turnLatency *metrics.Window
	logger      *slog.Logger
}

// New builds the loop from its dependencies.
func New(cfg Config) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = cfg.Provider.DefaultModel()
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = circuit.NewBreaker("llm", 5, 60*time.Second, logger)
	}
	return &Loop{
		hub:         cfg.Hub,
		provider:    cfg.Provider,
		builder:     cfg.Builder,
		registry:    cfg.Registry,
		sessions:    cfg.Sessions,
		model:       model,
		inbound:     cfg.Inbound,
		breaker:     breaker,
		turnLatency: metrics.NewWindow(0),
		logger:      logger.With("component", "agent"),
	}
}

// TurnLatency exposes the turn latency window.
func (l *Loop) TurnLatency() *metrics.Window { return l.turnLatency }

// Run consumes inbound messages until ctx is cancelled or the inbound
// channel closes. Processing errors never escape: they are logged and the
// user gets a generic error reply.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("agent loop started", "model", l.model)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("agent loop stopped")
			return
		case msg, ok := <-l.inbound:
			if !ok {
				l.logger.Info("inbound channel closed")
				return
			}
			if _, err := l.ProcessMessage(ctx, msg); err != nil {
				l.logger.Error("turn failed",
					"channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
				l.hub.Reply(msg.Channel, msg.ChatID, errorReply)
			}
		}
	}
}

// ProcessMessage runs one full turn and returns the final reply content.
// The reply is also emitted through the hub on success.
func (l *Loop) ProcessMessage(ctx context.Context, msg bus.InboundMessage) (string, error) {
	start := time.Now()
	defer func() {
		l.turnLatency.Record(time.Since(start))
	}()

	sess, err := l.sessions.GetOrCreateSession(msg.Channel, msg.ChatID)
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	if err := l.sessions.AddMessage(msg.Channel, msg.ChatID, session.Message{
		Role:      session.RoleUser,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}); err != nil {
		return "", fmt.Errorf("recording user message: %w", err)
	}

	turnCtx, cancel := context.WithTimeout(ctx, TurnDeadline)
	defer cancel()
	turnCtx = tools.WithInvocation(turnCtx, tools.Invocation{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
	})

	messages := l.builder.Build(sess)
	toolDefs := l.registry.Definitions()

	final, err := l.toolLoop(turnCtx, sess, messages, toolDefs)

	// The session carries everything recorded so far even when the turn
	// failed part way through.
	if saveErr := l.sessions.SaveSession(sess); saveErr != nil {
		l.logger.Error("failed to persist session", "session_id", sess.ID, "error", saveErr)
	}
	if err != nil {
		return "", err
	}

	l.replyTo(msg, final)
	l.logger.Info("turn complete",
		"channel", msg.Channel, "chat_id", msg.ChatID,
		"duration_ms", time.Since(start).Milliseconds(),
		"p95_ms", l.turnLatency.Percentile95().Milliseconds())
	return final, nil
}

// toolLoop drives the provider until it yields a final answer or the
// iteration cap is hit.
func (l *Loop) toolLoop(ctx context.Context, sess *session.Session, messages []llm.Message, toolDefs []llm.ToolDefinition) (string, error) {
	for iter := 0; iter < MaxToolIters; iter++ {
		if !l.breaker.CanCall() {
			return "", ErrProviderUnavailable
		}

		resp, err := chatWithRetry(ctx, l.provider, llm.ChatRequest{
			Model:    l.model,
			Messages: messages,
			Tools:    toolDefs,
		}, l.logger)
		if err != nil {
			l.breaker.RecordFailure()
			return "", fmt.Errorf("provider chat: %w", err)
		}
		l.breaker.RecordSuccess()

		if !resp.HasToolCalls() {
			l.appendSession(sess, session.Message{
				Role:    session.RoleAssistant,
				Content: resp.Content,
			})
			return resp.Content, nil
		}

		assistantMsg := session.Message{
			Role:      session.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: sessionToolCalls(resp.ToolCalls),
		}
		l.appendSession(sess, assistantMsg)
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := l.runToolCall(ctx, call)

			l.appendSession(sess, session.Message{
				Role:       session.RoleToolResult,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	l.logger.Warn("iteration cap reached", "session_id", sess.ID, "max_iters", MaxToolIters)
	l.appendSession(sess, session.Message{
		Role:    session.RoleAssistant,
		Content: iterationCapReply,
	})
	return iterationCapReply, nil
}

// runToolCall executes one call and always produces tool-result content.
// Recoverable failures get a single retry before the error is folded in.
func (l *Loop) runToolCall(ctx context.Context, call llm.ToolCall) string {
	result, err := l.registry.Execute(ctx, call)
	if err == nil {
		return result
	}

	var terr *tools.ToolError
	if errors.As(err, &terr) && terr.IsRecoverable() && ctx.Err() == nil {
		l.logger.Info("retrying recoverable tool failure",
			"tool", call.Name, "kind", terr.Kind.String())
		if result, retryErr := l.registry.Execute(ctx, call); retryErr == nil {
			return result
		} else {
			err = retryErr
		}
	}

	return toolErrorPayload(call.Name, err)
}

// toolErrorPayload renders a failure as the JSON object the model sees in
// place of a result.
func toolErrorPayload(toolName string, err error) string {
	kind := "execution_failed"
	recoverable := false
	var terr *tools.ToolError
	if errors.As(err, &terr) {
		kind = terr.Kind.String()
		recoverable = terr.IsRecoverable()
	}

	payload, marshalErr := json.Marshal(map[string]any{
		"error":       err.Error(),
		"tool":        toolName,
		"kind":        kind,
		"recoverable": recoverable,
	})
	if marshalErr != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(payload)
}

// appendSession records a message, logging persistence failures instead of
// failing the turn.
func (l *Loop) appendSession(sess *session.Session, msg session.Message) {
	if err := l.sessions.AddMessage(sess.Channel, sess.ChatID, msg); err != nil {
		l.logger.Error("failed to record message",
			"session_id", sess.ID, "role", msg.Role, "error", err)
	}
}

func (l *Loop) replyTo(msg bus.InboundMessage, content string) {
	replyTo := ""
	if msg.Metadata != nil {
		if id, ok := msg.Metadata["message_id"].(string); ok {
			replyTo = id
		}
	}
	l.hub.ReplyTo(msg.Channel, msg.ChatID, content, replyTo)
}

func sessionToolCalls(calls []llm.ToolCall) []session.ToolCall {
	out := make([]session.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, session.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
	}
	return out
}
