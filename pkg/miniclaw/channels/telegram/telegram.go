// Package telegram adapts the Telegram Bot API onto the hub. Inbound
// messages from non-whitelisted users are dropped without a reply so the
// bot stays invisible to strangers.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	hubbus "github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
)

// MaxOutboundChars is Telegram's message length limit.
const MaxOutboundChars = 4096

// ChannelName is the identifier stamped on hub messages.
const ChannelName = "telegram"

// Adapter is the Telegram channel.
type Adapter struct {
	config Config
	hub    *hubbus.Hub
	logger *slog.Logger

	mu     sync.Mutex
	bot    *bot.Bot
	cancel context.CancelFunc
	done   chan struct{}
}

// New validates the config and builds the adapter.
func New(cfg Config, hub *hubbus.Hub) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		config: cfg,
		hub:    hub,
		logger: logger.With("component", "telegram"),
	}, nil
}

// Name implements channels.Channel.
func (a *Adapter) Name() string { return ChannelName }

// Start connects the bot and begins long-polling in the background.
func (a *Adapter) Start(ctx context.Context) error {
	b, err := bot.New(a.config.Token, bot.WithDefaultHandler(a.handleUpdate))
	if err != nil {
		return fmt.Errorf("creating telegram bot: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.bot = b
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	go func() {
		defer close(done)
		b.Start(runCtx)
	}()

	a.logger.Info("telegram adapter started")
	return nil
}

// Stop ends long-polling, bounded by ctx.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		a.logger.Info("telegram adapter stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram adapter did not stop in time: %w", ctx.Err())
	}
}

// handleUpdate converts a Telegram update into an inbound hub message.
// Non-whitelisted senders are dropped silently.
func (a *Adapter) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}

	if !a.config.Whitelist.IsAllowed(msg.From.ID) {
		a.logger.Debug("dropping message from non-whitelisted user",
			"user_id", msg.From.ID)
		return
	}

	a.hub.SendInbound(hubbus.NewInbound(
		ChannelName,
		strconv.FormatInt(msg.Chat.ID, 10),
		msg.Text,
		map[string]any{
			"message_id":  strconv.Itoa(msg.ID),
			"sender_id":   msg.From.ID,
			"sender_name": msg.From.FirstName,
		},
	))
}

// Deliver implements bus.OutboundSink. Content beyond the Telegram limit
// is truncated on a rune boundary.
func (a *Adapter) Deliver(ctx context.Context, msg hubbus.OutboundMessage) error {
	a.mu.Lock()
	b := a.bot
	a.mu.Unlock()
	if b == nil {
		return fmt.Errorf("telegram adapter not started")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", msg.ChatID, err)
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   a.outboundText(msg),
	}
	if msg.ReplyTo != "" {
		if replyID, err := strconv.Atoi(msg.ReplyTo); err == nil {
			params.ReplyParameters = &models.ReplyParameters{MessageID: replyID}
		}
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// outboundText truncates over-long content and logs what was dropped.
func (a *Adapter) outboundText(msg hubbus.OutboundMessage) string {
	text := TruncateOutbound(msg.Content)
	if len(text) < len(msg.Content) {
		a.logger.Warn("outbound message truncated",
			"chat_id", msg.ChatID,
			"limit", MaxOutboundChars,
			"dropped_runes", len([]rune(msg.Content))-MaxOutboundChars)
	}
	return text
}

// TruncateOutbound enforces the Telegram message length limit.
func TruncateOutbound(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxOutboundChars {
		return content
	}
	return string(runes[:MaxOutboundChars])
}
