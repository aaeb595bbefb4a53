// Package heartbeat injects periodic pulses into the hub so the agent can
// work through HEARTBEAT.md tasks without user input. A pulse is a normal
// inbound message; the reply routes to the configured channel like any
// other turn.
package heartbeat

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/workspace"
)

// DefaultSchedule fires every 30 minutes.
const DefaultSchedule = "*/30 * * * *"

// pulsePrompt is the message the agent receives on each beat.
const pulsePrompt = "Heartbeat pulse. Read HEARTBEAT.md and work through any tasks listed there. " +
	"If there is nothing to do, reply with exactly: HEARTBEAT_OK"

// Config wires a Scheduler.
type Config struct {
	// Schedule is a cron expression; empty means DefaultSchedule.
	Schedule string

	// Channel and ChatID say where pulse replies go.
	Channel string
	ChatID  string

	Hub       *bus.Hub
	Workspace *workspace.Workspace
	Logger    *slog.Logger
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger
}

// New validates the config and builds the scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Hub == nil || cfg.Workspace == nil {
		return nil, fmt.Errorf("heartbeat: hub and workspace are required")
	}
	if cfg.Channel == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("heartbeat: channel and chat_id are required")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("component", "heartbeat"),
	}, nil
}

// Start registers the pulse job and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.Pulse); err != nil {
		return fmt.Errorf("heartbeat: invalid schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("heartbeat started", "schedule", s.cfg.Schedule)
	return nil
}

// Stop halts the cron loop, letting a running pulse finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("heartbeat stopped")
}

// Pulse injects one heartbeat message. Empty HEARTBEAT.md files skip the
// pulse entirely so an idle workspace costs nothing.
func (s *Scheduler) Pulse() {
	tasks := strings.TrimSpace(s.cfg.Workspace.ReadSeed(workspace.HeartbeatFile))
	if tasks == "" || onlyHeading(tasks) {
		s.logger.Debug("heartbeat skipped, no tasks")
		return
	}

	s.logger.Info("heartbeat pulse")
	s.cfg.Hub.SendInbound(bus.NewInbound(
		s.cfg.Channel,
		s.cfg.ChatID,
		pulsePrompt,
		map[string]any{"heartbeat": true},
	))
}

// onlyHeading reports whether the file holds nothing beyond headings and
// the seed boilerplate.
func onlyHeading(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "Tasks to check on every heartbeat") {
			continue
		}
		return false
	}
	return true
}
