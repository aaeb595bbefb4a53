// Package memory gives the agent durable notes. Long-term memory is a
// single MEMORY.md file; daily notes live under memory/YYYY-MM-DD.md. Both
// are plain markdown so the user can read and edit them directly.
package memory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SizeWarnBytes is the long-term file size at which a warning is logged.
// Nothing is truncated; the user curates the file.
const SizeWarnBytes = 1 << 20

const (
	longTermFile = "MEMORY.md"
	dailyDir     = "memory"
)

// Store reads and appends the markdown memory files inside a workspace.
type Store struct {
	workspaceDir string
	logger       *slog.Logger
	now          func() time.Time
}

// NewStore creates a store rooted at the workspace directory.
func NewStore(workspaceDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		workspaceDir: workspaceDir,
		logger:       logger.With("component", "memory"),
		now:          time.Now,
	}
}

// ReadLongTerm returns MEMORY.md, empty string when it does not exist.
func (s *Store) ReadLongTerm() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.workspaceDir, longTermFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading long-term memory: %w", err)
	}
	return string(data), nil
}

// AppendLongTerm appends an entry to MEMORY.md with a timestamp heading,
// creating the file on first use.
func (s *Store) AppendLongTerm(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("memory entry is empty")
	}

	path := filepath.Join(s.workspaceDir, longTermFile)
	block := fmt.Sprintf("\n## %s\n\n%s\n", s.now().UTC().Format("2006-01-02 15:04"), entry)
	if err := appendFile(path, block); err != nil {
		return fmt.Errorf("appending long-term memory: %w", err)
	}

	if info, err := os.Stat(path); err == nil && info.Size() > SizeWarnBytes {
		s.logger.Warn("long-term memory is large, consider pruning",
			"path", path, "size_bytes", info.Size())
	}
	return nil
}

// DailyPath returns the note file for a given day.
func (s *Store) DailyPath(day time.Time) string {
	return filepath.Join(s.workspaceDir, dailyDir, day.UTC().Format("2006-01-02")+".md")
}

// ReadDaily returns today's note, empty string when absent.
func (s *Store) ReadDaily() (string, error) {
	data, err := os.ReadFile(s.DailyPath(s.now()))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading daily note: %w", err)
	}
	return string(data), nil
}

// AppendDaily appends an entry to today's note, creating the memory
// directory and file as needed.
func (s *Store) AppendDaily(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("memory entry is empty")
	}

	path := s.DailyPath(s.now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating memory dir: %w", err)
	}

	block := fmt.Sprintf("\n- %s %s\n", s.now().UTC().Format("15:04"), entry)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		block = fmt.Sprintf("# %s\n%s", s.now().UTC().Format("2006-01-02"), block)
	}
	if err := appendFile(path, block); err != nil {
		return fmt.Errorf("appending daily note: %w", err)
	}
	return nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
