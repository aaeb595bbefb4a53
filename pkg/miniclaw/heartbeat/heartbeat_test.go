package heartbeat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/workspace"
)

func newScheduler(t *testing.T) (*Scheduler, *bus.Hub, *workspace.Workspace) {
	t.Helper()
	ws := workspace.New(t.TempDir(), nil)
	if err := ws.Initialize(); err != nil {
		t.Fatal(err)
	}
	hub := bus.NewHub(nil)
	s, err := New(Config{
		Channel:   "cli",
		ChatID:    "local",
		Hub:       hub,
		Workspace: ws,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, hub, ws
}

func TestPulseSkippedWhenNoTasks(t *testing.T) {
	s, hub, _ := newScheduler(t)

	// The seeded HEARTBEAT.md has only boilerplate.
	s.Pulse()
	if hub.InboundLen() != 0 {
		t.Error("pulse injected a message for an empty task file")
	}
}

func TestPulseInjectsInbound(t *testing.T) {
	s, hub, ws := newScheduler(t)

	tasks := "# Heartbeat\n\n- check the backup logs\n"
	if err := os.WriteFile(filepath.Join(ws.Dir(), workspace.HeartbeatFile), []byte(tasks), 0o644); err != nil {
		t.Fatal(err)
	}

	s.Pulse()
	if hub.InboundLen() != 1 {
		t.Fatalf("inbound queue = %d, want 1", hub.InboundLen())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("empty config should be rejected")
	}
	hub := bus.NewHub(nil)
	ws := workspace.New(t.TempDir(), nil)
	if _, err := New(Config{Hub: hub, Workspace: ws}); err == nil {
		t.Error("config without a target channel should be rejected")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, _, _ := newScheduler(t)
	s.cfg.Schedule = "not a schedule"
	if err := s.Start(); err == nil {
		t.Error("invalid cron expression should be rejected")
	}
}
