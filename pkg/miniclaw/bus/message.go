// Package bus implements the process-wide message hub: channel adapters
// enqueue inbound messages, the agent consumes them, and replies are routed
// back to the adapter named on each outbound message. Both queues are
// bounded and drop the oldest element on overflow — the daemon favours
// staying responsive over at-most-once bookkeeping.
package bus

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxContentLength is the maximum inbound content length in characters.
// Longer content is truncated on a rune boundary, never mid-codepoint.
const MaxContentLength = 4000

// InboundMessage is a user message entering the system through a channel
// adapter. Immutable once created.
type InboundMessage struct {
	// ID is a process-local identifier for tracing.
	ID string

	// Channel names the adapter that produced the message ("telegram", "cli").
	Channel string

	// ChatID identifies the conversation within the channel.
	ChatID string

	// Content is the user's text.
	Content string

	// Timestamp is when the adapter received the message (UTC).
	Timestamp time.Time

	// Metadata carries channel-specific extras, e.g. "message_id",
	// "sender_id", "sender_name".
	Metadata map[string]any
}

// OutboundMessage is an agent reply heading back to a channel adapter.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string

	// ReplyTo is the source message id for threaded replies; empty when the
	// channel has no threading.
	ReplyTo string
}

// NewInbound builds an inbound message with a fresh id and a UTC timestamp.
func NewInbound(channel, chatID, content string, metadata map[string]any) InboundMessage {
	return InboundMessage{
		ID:        uuid.NewString(),
		Channel:   channel,
		ChatID:    chatID,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// Sanitize trims the content and enforces MaxContentLength. The second
// return is false when the message is invalid (empty after trimming) and
// must be dropped.
func Sanitize(msg InboundMessage) (InboundMessage, bool) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return msg, false
	}
	if runes := []rune(content); len(runes) > MaxContentLength {
		content = string(runes[:MaxContentLength])
	}
	msg.Content = content
	return msg, true
}
