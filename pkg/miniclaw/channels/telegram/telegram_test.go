package telegram

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/security"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"well formed", "123456789:AAF-abc_DEF", true},
		{"single digit id", "1:x", true},
		{"no colon", "123456789", false},
		{"two colons", "123:abc:def", false},
		{"empty id", ":secret", false},
		{"non-numeric id", "12a34:secret", false},
		{"empty secret", "123456:", false},
		{"empty token", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(tt.token)
			if tt.valid && err != nil {
				t.Errorf("ValidateToken(%q) = %v, want nil", tt.token, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken(%q) = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Token: "123:abc"}
	if err := cfg.Validate(); err == nil {
		t.Error("config without whitelist should be rejected")
	}
	cfg.Whitelist = security.NewWhitelist(nil)
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestTruncateOutbound(t *testing.T) {
	short := "hello"
	if got := TruncateOutbound(short); got != short {
		t.Errorf("short message altered: %q", got)
	}

	exact := strings.Repeat("a", MaxOutboundChars)
	if got := TruncateOutbound(exact); got != exact {
		t.Error("message at the limit altered")
	}

	long := strings.Repeat("héllo", 1500)
	got := TruncateOutbound(long)
	if runes := []rune(got); len(runes) != MaxOutboundChars {
		t.Errorf("truncated to %d runes, want %d", len(runes), MaxOutboundChars)
	}
	if !strings.HasPrefix(long, got) {
		t.Error("truncation is not a prefix of the original")
	}
}

func TestOutboundTruncationWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	a, err := New(Config{
		Token:     "123:abc",
		Whitelist: security.NewWhitelist([]int64{-1}),
		Logger:    logger,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	short := bus.OutboundMessage{Channel: ChannelName, ChatID: "42", Content: "hi"}
	if got := a.outboundText(short); got != "hi" {
		t.Errorf("short content altered: %q", got)
	}
	if strings.Contains(buf.String(), "truncated") {
		t.Error("warning logged for content under the limit")
	}

	long := bus.OutboundMessage{Channel: ChannelName, ChatID: "42", Content: strings.Repeat("x", MaxOutboundChars+10)}
	got := a.outboundText(long)
	if len([]rune(got)) != MaxOutboundChars {
		t.Errorf("content truncated to %d runes, want %d", len([]rune(got)), MaxOutboundChars)
	}
	if !strings.Contains(buf.String(), "outbound message truncated") {
		t.Errorf("no truncation warning logged:\n%s", buf.String())
	}
}
