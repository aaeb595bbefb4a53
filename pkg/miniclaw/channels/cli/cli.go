// Package cli is the interactive terminal channel: a readline REPL feeding
// the hub, with replies printed to stdout. It is the zero-setup way to talk
// to the agent before any messenger is configured.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
)

// ChannelName is the identifier stamped on hub messages.
const ChannelName = "cli"

// localChatID is the single conversation the terminal represents.
const localChatID = "local"

// Adapter is the terminal channel.
type Adapter struct {
	hub    *bus.Hub
	logger *slog.Logger
	out    io.Writer

	mu     sync.Mutex
	rl     *readline.Instance
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the adapter. Output goes to stdout.
func New(hub *bus.Hub, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		hub:    hub,
		logger: logger.With("component", "cli"),
		out:    os.Stdout,
	}
}

// Name implements channels.Channel.
func (a *Adapter) Name() string { return ChannelName }

// Start opens the readline loop in the background. Outside a terminal it
// degrades to reading stdin line by line.
func (a *Adapter) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		go func() {
			defer close(done)
			a.pipeLoop(runCtx)
		}()
		return nil
	}

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".miniclaw_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
	})
	if err != nil {
		cancel()
		return fmt.Errorf("initializing readline: %w", err)
	}

	a.mu.Lock()
	a.rl = rl
	a.mu.Unlock()

	go func() {
		defer close(done)
		defer rl.Close()
		a.readLoop(runCtx, rl)
	}()
	return nil
}

// Stop closes the REPL.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, done, rl := a.cancel, a.done, a.rl
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	if rl != nil {
		rl.Close()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) readLoop(ctx context.Context, rl *readline.Instance) {
	for {
		line, err := rl.Readline()
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				continue
			case errors.Is(err, io.EOF):
				a.logger.Info("cli input closed")
				return
			default:
				a.logger.Error("readline failed", "error", err)
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		a.submit(line)
	}
}

// pipeLoop handles non-interactive stdin, e.g. `echo hi | miniclaw gateway`.
func (a *Adapter) pipeLoop(ctx context.Context) {
	buf := make([]byte, 64<<10)
	var pending strings.Builder
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			pending.WriteString(string(buf[:n]))
			for {
				text := pending.String()
				idx := strings.IndexByte(text, '\n')
				if idx < 0 {
					break
				}
				a.submit(text[:idx])
				pending.Reset()
				pending.WriteString(text[idx+1:])
			}
		}
		if err != nil || ctx.Err() != nil {
			if rest := pending.String(); strings.TrimSpace(rest) != "" {
				a.submit(rest)
			}
			return
		}
	}
}

func (a *Adapter) submit(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	a.hub.SendInbound(bus.NewInbound(ChannelName, localChatID, line, nil))
}

// Deliver implements bus.OutboundSink by printing the reply.
func (a *Adapter) Deliver(_ context.Context, msg bus.OutboundMessage) error {
	_, err := fmt.Fprintf(a.out, "\nminiclaw> %s\n", msg.Content)
	return err
}
