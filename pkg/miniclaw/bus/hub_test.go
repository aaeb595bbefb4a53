package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// collectSink records delivered messages for assertions.
type collectSink struct {
	mu   sync.Mutex
	msgs []OutboundMessage
	err  error
}

func (s *collectSink) Deliver(_ context.Context, msg OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *collectSink) delivered() []OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutboundMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		valid   bool
	}{
		{"plain", "hello", "hello", true},
		{"trimmed", "  hi there \n", "hi there", true},
		{"empty", "", "", false},
		{"whitespace only", " \t\n ", "", false},
		{"exactly max", strings.Repeat("a", MaxContentLength), strings.Repeat("a", MaxContentLength), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sanitize(InboundMessage{Content: tt.content})
			if ok != tt.valid {
				t.Fatalf("valid = %v, want %v", ok, tt.valid)
			}
			if ok && got.Content != tt.want {
				t.Errorf("content = %q, want %q", got.Content, tt.want)
			}
		})
	}
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte content longer than the limit must be cut between
	// codepoints, and the result must be a prefix of the original.
	original := strings.Repeat("héllo wörld ", 500)
	got, ok := Sanitize(InboundMessage{Content: original})
	if !ok {
		t.Fatal("long message should remain valid")
	}
	runes := []rune(got.Content)
	if len(runes) != MaxContentLength {
		t.Fatalf("truncated length = %d runes, want %d", len(runes), MaxContentLength)
	}
	if !strings.HasPrefix(strings.TrimSpace(original), got.Content[:10]) {
		t.Error("truncated content is not a prefix of the original")
	}
	for _, r := range got.Content {
		if r == '�' {
			t.Fatal("truncation split a multi-byte character")
		}
	}
}

func TestSendInboundOverflowDropsOldest(t *testing.T) {
	h := NewHub(nil)

	for i := 0; i < QueueCapacity+1; i++ {
		h.SendInbound(NewInbound("cli", "u", fmt.Sprintf("msg-%d", i), nil))
	}

	if got := h.InboundLen(); got != QueueCapacity {
		t.Fatalf("queue length = %d, want %d", got, QueueCapacity)
	}

	// The very first message was dropped; the last one must be present.
	first := <-h.inbound
	if first.Content != "msg-1" {
		t.Errorf("head of queue = %q, want msg-1 (msg-0 dropped)", first.Content)
	}
	var last InboundMessage
	for len(h.inbound) > 0 {
		last = <-h.inbound
	}
	if last.Content != fmt.Sprintf("msg-%d", QueueCapacity) {
		t.Errorf("tail of queue = %q, want the final enqueued message", last.Content)
	}
}

func TestSendInboundDropsInvalid(t *testing.T) {
	h := NewHub(nil)
	h.SendInbound(NewInbound("cli", "u", "   ", nil))
	if got := h.InboundLen(); got != 0 {
		t.Errorf("invalid message was enqueued, queue length = %d", got)
	}
}

func TestRouteOutbound(t *testing.T) {
	h := NewHub(nil)
	sink := &collectSink{}
	h.RegisterChannel("telegram", sink)

	msg := OutboundMessage{Channel: "telegram", ChatID: "42", Content: "hi"}
	if err := h.RouteOutbound(context.Background(), msg); err != nil {
		t.Fatalf("RouteOutbound: %v", err)
	}
	if got := sink.delivered(); len(got) != 1 || got[0].Content != "hi" {
		t.Errorf("delivered = %v, want the routed message", got)
	}

	err := h.RouteOutbound(context.Background(), OutboundMessage{Channel: "nope"})
	if !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("unknown channel error = %v, want ErrChannelNotFound", err)
	}
}

func TestRouteOutboundSinkFailureIsAbsorbed(t *testing.T) {
	h := NewHub(nil)
	sink := &collectSink{err: errors.New("wire down")}
	h.RegisterChannel("telegram", sink)

	// Delivery failures are logged, not surfaced.
	if err := h.RouteOutbound(context.Background(), OutboundMessage{Channel: "telegram"}); err != nil {
		t.Errorf("sink failure surfaced: %v", err)
	}
}

func TestRunForwardsToAgentAndRoutes(t *testing.T) {
	h := NewHub(nil)
	sink := &collectSink{}
	h.RegisterChannel("cli", sink)

	agent := make(chan InboundMessage, 10)
	h.RegisterAgent(agent)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	h.SendInbound(NewInbound("cli", "u", "hello", nil))
	h.Reply("cli", "u", "world")

	select {
	case msg := <-agent:
		if msg.Content != "hello" {
			t.Errorf("agent received %q, want hello", msg.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("agent never received the inbound message")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.delivered()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := sink.delivered(); len(got) != 1 || got[0].Content != "world" {
		t.Fatalf("outbound not routed, delivered = %v", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestShutdownDrainsOutbound(t *testing.T) {
	h := NewHub(nil)
	sink := &collectSink{}
	h.RegisterChannel("cli", sink)

	for i := 0; i < 5; i++ {
		h.Reply("cli", "u", fmt.Sprintf("pending-%d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled: Run drains and returns
	h.Run(ctx)

	if got := len(sink.delivered()); got != 5 {
		t.Errorf("drained %d outbound messages, want 5", got)
	}
}

func TestForwardToAgentOverflowDropsOldest(t *testing.T) {
	h := NewHub(nil)
	agent := make(chan InboundMessage, 2)
	h.RegisterAgent(agent)

	for i := 1; i <= 3; i++ {
		h.forwardToAgent(NewInbound("cli", "u", fmt.Sprintf("msg-%d", i), nil))
	}

	if len(agent) != 2 {
		t.Fatalf("agent sink holds %d messages, want 2", len(agent))
	}
	first := <-agent
	if first.Content != "msg-2" {
		t.Errorf("head = %q, want msg-2 (oldest evicted)", first.Content)
	}
	second := <-agent
	if second.Content != "msg-3" {
		t.Errorf("tail = %q, want msg-3", second.Content)
	}
}
