// Package workspace manages the agent's working directory and its seed
// files. Seeds are created once with starter content and never overwritten;
// the user owns them after that.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Seed file names at the workspace root.
const (
	SoulFile      = "SOUL.md"
	AgentsFile    = "AGENTS.md"
	UserFile      = "USER.md"
	ToolsFile     = "TOOLS.md"
	HeartbeatFile = "HEARTBEAT.md"
)

// seedContent maps each seed file to its starter content.
var seedContent = map[string]string{
	SoulFile: `# Soul

You are a personal assistant running on the user's own machine. Be direct,
be useful, and keep replies short unless the task needs detail.
`,
	AgentsFile: `# Agent instructions

- Prefer tools over guessing. Read files before claiming what they contain.
- Ask before destructive actions.
- Record things worth remembering with the memory tools.
`,
	UserFile: `# User

Notes about the user go here. The agent reads this file at the start of
every conversation; keep it current.
`,
	ToolsFile: `# Tools

Notes about the local environment: installed programs, paths, API quirks.
The agent reads this file when deciding how to run commands.
`,
	HeartbeatFile: `# Heartbeat

Tasks to check on every heartbeat. Leave empty to make heartbeats a no-op.
`,
}

// SeedFiles lists the seed file names in prompt order.
func SeedFiles() []string {
	return []string{SoulFile, AgentsFile, UserFile, ToolsFile, HeartbeatFile}
}

// Workspace is the agent's working directory.
type Workspace struct {
	dir    string
	logger *slog.Logger
}

// New creates a handle for dir. Call Initialize before use.
func New(dir string, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{dir: dir, logger: logger.With("component", "workspace")}
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// Path joins a relative path onto the workspace root.
func (w *Workspace) Path(rel string) string { return filepath.Join(w.dir, rel) }

// Initialize creates the directory and any missing seed files. Existing
// files are left untouched.
func (w *Workspace) Initialize() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	created := 0
	for _, name := range SeedFiles() {
		path := filepath.Join(w.dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(seedContent[name]), 0o644); err != nil {
			return fmt.Errorf("seeding %s: %w", name, err)
		}
		created++
	}

	if created > 0 {
		w.logger.Info("workspace seeded", "dir", w.dir, "files_created", created)
	}
	return nil
}

// ReadSeed returns one seed file's content, empty string when the user
// deleted it.
func (w *Workspace) ReadSeed(name string) string {
	data, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		return ""
	}
	return string(data)
}
