package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// QueueCapacity bounds both hub queues.
const QueueCapacity = 100

// ErrChannelNotFound is returned when an outbound message names a channel
// no adapter has registered.
var ErrChannelNotFound = errors.New("channel not registered")

// OutboundSink receives routed outbound messages. Channel adapters
// implement it; delivery failures are logged by the hub, never retried.
type OutboundSink interface {
	Deliver(ctx context.Context, msg OutboundMessage) error
}

// OutboundSinkFunc adapts a function to OutboundSink.
type OutboundSinkFunc func(ctx context.Context, msg OutboundMessage) error

// Deliver calls f.
func (f OutboundSinkFunc) Deliver(ctx context.Context, msg OutboundMessage) error {
	return f(ctx, msg)
}

// Hub routes inbound messages from any adapter to the agent consumer and
// outbound replies back to the adapter named on the message.
type Hub struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage

	mu       sync.RWMutex
	channels map[string]OutboundSink
	agent    chan InboundMessage

	logger *slog.Logger
}

// NewHub creates a hub with empty queues and no registrations.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		inbound:  make(chan InboundMessage, QueueCapacity),
		outbound: make(chan OutboundMessage, QueueCapacity),
		channels: make(map[string]OutboundSink),
		logger:   logger.With("component", "hub"),
	}
}

// RegisterChannel installs the outbound sink for a channel name.
// Last writer wins; adapters should not collide.
func (h *Hub) RegisterChannel(name string, sink OutboundSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.channels[name]; exists {
		h.logger.Warn("channel registration replaced", "channel", name)
	}
	h.channels[name] = sink
	h.logger.Info("channel registered", "channel", name)
}

// RegisterAgent installs the consumer the hub forwards sanitised inbound
// messages to. The agent owns the receiving end; the hub needs the full
// channel so it can evict the oldest queued message on overflow.
func (h *Hub) RegisterAgent(sink chan InboundMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.agent = sink
}

// SendInbound sanitises and enqueues an inbound message. Invalid messages
// are dropped silently; a full queue drops its oldest element first.
// Never panics, never blocks indefinitely.
func (h *Hub) SendInbound(msg InboundMessage) {
	clean, ok := Sanitize(msg)
	if !ok {
		h.logger.Debug("dropping empty inbound", "channel", msg.Channel, "chat_id", msg.ChatID)
		return
	}
	enqueueDropOldest(h.inbound, clean, func() {
		h.logger.Warn("inbound queue full, dropping oldest",
			"channel", clean.Channel, "chat_id", clean.ChatID)
	})
}

// SendOutbound enqueues an agent reply with the same overflow policy.
func (h *Hub) SendOutbound(msg OutboundMessage) {
	enqueueDropOldest(h.outbound, msg, func() {
		h.logger.Warn("outbound queue full, dropping oldest",
			"channel", msg.Channel, "chat_id", msg.ChatID)
	})
}

// Reply is a convenience wrapper around SendOutbound.
func (h *Hub) Reply(channel, chatID, content string) {
	h.SendOutbound(OutboundMessage{Channel: channel, ChatID: chatID, Content: content})
}

// ReplyTo is Reply with a threaded reply target.
func (h *Hub) ReplyTo(channel, chatID, content, messageID string) {
	h.SendOutbound(OutboundMessage{Channel: channel, ChatID: chatID, Content: content, ReplyTo: messageID})
}

// RouteOutbound delivers msg to the sink registered for its channel.
// The only routing failure is an unknown channel.
func (h *Hub) RouteOutbound(ctx context.Context, msg OutboundMessage) error {
	h.mu.RLock()
	sink, ok := h.channels[msg.Channel]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrChannelNotFound, msg.Channel)
	}
	if err := sink.Deliver(ctx, msg); err != nil {
		// Failing adapters are not retried; the message is lost.
		h.logger.Warn("outbound delivery failed",
			"channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
	}
	return nil
}

// InboundLen returns the number of queued inbound messages. Used by tests
// and the status log line.
func (h *Hub) InboundLen() int { return len(h.inbound) }

// OutboundLen returns the number of queued outbound messages.
func (h *Hub) OutboundLen() int { return len(h.outbound) }

// Run pumps both queues until ctx is cancelled, then drains. Outbound
// messages still queued at shutdown are routed; inbound messages are
// logged and discarded — adapters needing durability must ack before
// handing messages to the hub.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	for {
		select {
		case <-ctx.Done():
			h.drain()
			return

		case msg := <-h.inbound:
			h.forwardToAgent(msg)

		case msg := <-h.outbound:
			if err := h.RouteOutbound(ctx, msg); err != nil {
				h.logger.Warn("outbound dropped", "channel", msg.Channel, "error", err)
			}
		}
	}
}

// forwardToAgent hands an inbound message to the agent sink with the
// drop-oldest policy applied to the sink's own buffer.
func (h *Hub) forwardToAgent(msg InboundMessage) {
	h.mu.RLock()
	agent := h.agent
	h.mu.RUnlock()
	if agent == nil {
		h.logger.Warn("no agent registered, dropping inbound",
			"channel", msg.Channel, "chat_id", msg.ChatID)
		return
	}
	enqueueDropOldest(agent, msg, func() {
		h.logger.Warn("agent sink full, dropping oldest",
			"channel", msg.Channel, "chat_id", msg.ChatID)
	})
}

// drain flushes the queues during shutdown and releases registrations.
func (h *Hub) drain() {
	ctx := context.Background()
	drained := 0
	for {
		select {
		case msg := <-h.outbound:
			if err := h.RouteOutbound(ctx, msg); err != nil {
				h.logger.Warn("outbound dropped during drain", "channel", msg.Channel, "error", err)
			}
			drained++
			continue
		default:
		}
		break
	}

	lost := 0
	for {
		select {
		case msg := <-h.inbound:
			h.logger.Info("inbound discarded during drain",
				"channel", msg.Channel, "chat_id", msg.ChatID)
			lost++
			continue
		default:
		}
		break
	}

	h.mu.Lock()
	h.channels = make(map[string]OutboundSink)
	h.agent = nil
	h.mu.Unlock()

	h.logger.Info("hub drained", "outbound_routed", drained, "inbound_discarded", lost)
}

// enqueueDropOldest tries a non-blocking send; when the queue is full it
// pops one element and retries with a blocking send that succeeds
// immediately.
func enqueueDropOldest[T any](q chan T, v T, onDrop func()) {
	select {
	case q <- v:
		return
	default:
	}
	select {
	case <-q:
		onDrop()
	default:
	}
	q <- v
}
