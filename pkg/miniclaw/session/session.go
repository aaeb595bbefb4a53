// Package session persists per-conversation history as JSON files under a
// sessions directory. Each session is keyed by "<channel>_<chat_id>" and
// keeps a bounded FIFO of messages; files that fail to parse are quarantined
// rather than deleted.
package session

import (
	"fmt"
	"time"
)

// MaxMessages bounds the history kept per session. Older messages are
// evicted first.
const MaxMessages = 50

// Message roles as stored on disk and sent to providers.
const (
	RoleSystem     = "system"
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolResult = "tool_result"
)

// ToolCall records a tool invocation requested by the assistant.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry in a session's history.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool_result message to the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName is set on tool_result messages.
	ToolName string `json:"tool_name,omitempty"`
}

// Session is a single conversation's persistent state.
type Session struct {
	ID           string    `json:"session_id"`
	Channel      string    `json:"channel"`
	ChatID       string    `json:"chat_id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// SessionID derives the stable identifier for a channel/chat pair. It is
// also the file stem the session is stored under.
func SessionID(channel, chatID string) string {
	return fmt.Sprintf("%s_%s", channel, chatID)
}

// NewSession creates an empty session for a channel/chat pair.
func NewSession(channel, chatID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           SessionID(channel, chatID),
		Channel:      channel,
		ChatID:       chatID,
		Messages:     []Message{},
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// Append adds a message and evicts from the front when over capacity.
func (s *Session) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.Messages = append(s.Messages, msg)
	if len(s.Messages) > MaxMessages {
		s.Messages = s.Messages[len(s.Messages)-MaxMessages:]
	}
	s.LastAccessed = time.Now().UTC()
}
