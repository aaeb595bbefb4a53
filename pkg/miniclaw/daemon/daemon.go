// Package daemon assembles the running system: hub, sessions, workspace,
// memory, skills, tools, provider, channels, heartbeat and the agent loop,
// all from one loaded config.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/agent"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/channels"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/channels/cli"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/channels/telegram"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/config"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/heartbeat"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/memory"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/security"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/session"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/skills"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/tools"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/workspace"
)

// agentQueueCapacity buffers inbound messages between hub and agent.
const agentQueueCapacity = 100

// Daemon is the assembled system.
type Daemon struct {
	cfg      *config.Config
	stateDir string
	logger   *slog.Logger

	hub      *bus.Hub
	sessions *session.Manager
	ws       *workspace.Workspace
	library  *skills.Library
	loop     *agent.Loop
	channels []channels.Channel
	beat     *heartbeat.Scheduler
	inbound  chan bus.InboundMessage
}

// Options tunes daemon assembly.
type Options struct {
	// StateDir is where config, sessions and the workspace live.
	StateDir string

	// EnableCLI attaches the terminal channel.
	EnableCLI bool

	// OneShot builds the daemon for a single ProcessOnce call; no
	// channel is required.
	OneShot bool

	// Model overrides the provider's configured model when set.
	Model string

	Logger *slog.Logger
}

// New builds the daemon from a loaded config.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stateDir := opts.StateDir
	if stateDir == "" {
		stateDir = config.DefaultDir()
	}

	wsDir := cfg.Workspace
	if wsDir == "" {
		wsDir = filepath.Join(stateDir, "workspace")
	}
	ws := workspace.New(wsDir, logger)
	if err := ws.Initialize(); err != nil {
		return nil, err
	}

	sessions := session.NewManager(filepath.Join(stateDir, "sessions"), logger)
	if err := sessions.Initialize(); err != nil {
		return nil, err
	}

	library, err := skills.OpenLibrary(filepath.Join(wsDir, "skills"), logger)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore(wsDir, logger)
	shortTerm := memory.NewShortTerm()

	hub := bus.NewHub(logger)
	inbound := make(chan bus.InboundMessage, agentQueueCapacity)
	hub.RegisterAgent(inbound)

	registry, err := buildRegistry(ws, hub, store, shortTerm, library, cfg, logger)
	if err != nil {
		return nil, err
	}

	providerCfg, err := cfg.ResolvedProviderConfig()
	if err != nil {
		return nil, err
	}
	provider, err := llm.NewProvider(cfg.ProviderType, providerCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building provider: %w", err)
	}

	loop := agent.New(agent.Config{
		Hub:      hub,
		Provider: provider,
		Builder: &agent.ContextBuilder{
			Workspace: ws,
			Memory:    store,
			ShortTerm: shortTerm,
			Skills:    library,
		},
		Registry: registry,
		Sessions: sessions,
		Model:    opts.Model,
		Inbound:  inbound,
		Logger:   logger,
	})

	d := &Daemon{
		cfg:      cfg,
		stateDir: stateDir,
		logger:   logger.With("component", "daemon"),
		hub:      hub,
		sessions: sessions,
		ws:       ws,
		library:  library,
		loop:     loop,
		inbound:  inbound,
	}

	if !opts.OneShot {
		if err := d.buildChannels(opts.EnableCLI); err != nil {
			return nil, err
		}
		if err := d.buildHeartbeat(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildRegistry(ws *workspace.Workspace, hub *bus.Hub, store *memory.Store, shortTerm *memory.ShortTerm, library *skills.Library, cfg *config.Config, logger *slog.Logger) (*tools.Registry, error) {
	validator, err := security.NewPathValidator(ws.Dir())
	if err != nil {
		return nil, fmt.Errorf("building path validator: %w", err)
	}

	registry := tools.NewRegistry(logger)
	for _, t := range []tools.Tool{
		&tools.ReadFileTool{Validator: validator},
		&tools.WriteFileTool{Validator: validator},
		&tools.ListDirTool{Validator: validator},
		&tools.ExecTool{WorkDir: ws.Dir(), LogOutput: cfg.SpawnLogOutput, Logger: logger},
		&tools.MessageTool{Hub: hub},
		&tools.MemoryTool{Store: store},
		&tools.ShortTermTool{Memory: shortTerm},
		&tools.SkillTool{Library: library},
	} {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (d *Daemon) buildChannels(enableCLI bool) error {
	if enableCLI {
		d.channels = append(d.channels, cli.New(d.hub, d.logger))
	}

	if token := d.cfg.ResolvedTelegramToken(); token != "" {
		adapter, err := telegram.New(telegram.Config{
			Token:     token,
			Whitelist: security.NewWhitelist(d.cfg.AllowFrom),
			Logger:    d.logger,
		}, d.hub)
		if err != nil {
			return fmt.Errorf("building telegram channel: %w", err)
		}
		d.channels = append(d.channels, adapter)
	}

	if len(d.channels) == 0 {
		return errors.New("no channels enabled: set telegram_token or run with the terminal attached")
	}
	return nil
}

func (d *Daemon) buildHeartbeat() error {
	target := d.cfg.DefaultChannel
	chatID := "local"
	if target == "telegram" {
		// Heartbeat replies go to the first whitelisted user's chat.
		if len(d.cfg.AllowFrom) == 0 || d.cfg.AllowFrom[0] <= 0 {
			d.logger.Warn("heartbeat disabled: telegram default channel needs a whitelisted user")
			return nil
		}
		chatID = fmt.Sprintf("%d", d.cfg.AllowFrom[0])
	}

	beat, err := heartbeat.New(heartbeat.Config{
		Schedule:  d.cfg.HeartbeatSchedule,
		Channel:   target,
		ChatID:    chatID,
		Hub:       d.hub,
		Workspace: d.ws,
		Logger:    d.logger,
	})
	if err != nil {
		return err
	}
	d.beat = beat
	return nil
}

// Run starts everything and blocks until ctx is cancelled or a SIGINT /
// SIGTERM arrives, then shuts down in reverse order.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.logger.Info("miniclaw starting",
		"workspace", d.ws.Dir(), "sessions", d.sessions.Count())

	go d.hub.Run(ctx)
	go d.loop.Run(ctx)

	for _, ch := range d.channels {
		d.hub.RegisterChannel(ch.Name(), ch)
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("starting %s channel: %w", ch.Name(), err)
		}
	}
	if d.beat != nil {
		if err := d.beat.Start(); err != nil {
			return err
		}
	}

	<-ctx.Done()
	d.logger.Info("shutting down")

	if d.beat != nil {
		d.beat.Stop()
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ch := range d.channels {
		if err := ch.Stop(stopCtx); err != nil {
			d.logger.Warn("channel stop failed", "channel", ch.Name(), "error", err)
		}
	}

	d.sessions.SaveAllSessions()
	if err := d.library.Close(); err != nil {
		d.logger.Warn("closing skill library failed", "error", err)
	}
	d.logger.Info("miniclaw stopped")
	return nil
}

// ProcessOnce runs a single turn outside the daemon loop, for the one-shot
// agent command.
func (d *Daemon) ProcessOnce(ctx context.Context, content string) (string, error) {
	msg := bus.NewInbound("cli", "local", content, nil)
	clean, ok := bus.Sanitize(msg)
	if !ok {
		return "", errors.New("message is empty")
	}
	reply, err := d.loop.ProcessMessage(ctx, clean)
	if err != nil {
		return "", err
	}
	d.sessions.SaveAllSessions()
	return reply, nil
}
