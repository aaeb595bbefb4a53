package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Manager owns the sessions directory. All mutation goes through a
// per-session lock so concurrent chats never interleave writes to the same
// file; the outer map lock only guards the registry itself.
type Manager struct {
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

// NewManager creates a manager rooted at dir. Call Initialize before use.
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:      dir,
		logger:   logger.With("component", "sessions"),
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Initialize creates the sessions directory and loads every existing
// session file. Files that fail to parse are renamed with a ".corrupted"
// suffix and skipped; a broken session never blocks startup.
func (m *Manager) Initialize() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating sessions dir: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("reading sessions dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(m.dir, name)
		sess, err := loadSessionFile(path)
		if err != nil {
			m.quarantine(path, err)
			continue
		}
		m.sessions[sess.ID] = sess
		loaded++
	}

	m.logger.Info("sessions loaded", "count", loaded)
	return nil
}

// quarantine renames an unreadable session file so it is preserved for
// inspection but never retried.
func (m *Manager) quarantine(path string, cause error) {
	dest := path + ".corrupted"
	if err := os.Rename(path, dest); err != nil {
		m.logger.Error("failed to quarantine corrupted session",
			"path", path, "error", err)
		return
	}
	m.logger.Warn("corrupted session quarantined",
		"path", dest, "error", cause)
}

func loadSessionFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("session has no id")
	}
	return &sess, nil
}

// lockFor returns the mutex guarding one session, creating it on first use.
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// GetOrCreateSession returns the session for a channel/chat pair, creating
// and persisting a fresh one when none exists.
func (m *Manager) GetOrCreateSession(channel, chatID string) (*Session, error) {
	id := SessionID(channel, chatID)

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the session lock: another goroutine may have created
	// it between our read and now.
	m.mu.RLock()
	sess, ok = m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	sess = NewSession(channel, chatID)
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	if err := m.saveLocked(sess); err != nil {
		return nil, err
	}
	m.logger.Info("session created", "session_id", id)
	return sess, nil
}

// AddMessage appends to a session's history and persists immediately.
func (m *Manager) AddMessage(channel, chatID string, msg Message) error {
	sess, err := m.GetOrCreateSession(channel, chatID)
	if err != nil {
		return err
	}

	lock := m.lockFor(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	sess.Append(msg)
	return m.saveLocked(sess)
}

// History returns a copy of the session's messages, empty when the session
// does not exist.
func (m *Manager) History(channel, chatID string) []Message {
	m.mu.RLock()
	sess, ok := m.sessions[SessionID(channel, chatID)]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	lock := m.lockFor(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	out := make([]Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out
}

// SaveSession persists one session with its lock held.
func (m *Manager) SaveSession(sess *Session) error {
	lock := m.lockFor(sess.ID)
	lock.Lock()
	defer lock.Unlock()
	return m.saveLocked(sess)
}

// saveLocked writes the session atomically: marshal to a temp file in the
// same directory, then rename over the target. Callers hold the session
// lock.
func (m *Manager) saveLocked(sess *Session) error {
	sess.LastAccessed = time.Now().UTC()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", sess.ID, err)
	}

	target := filepath.Join(m.dir, sess.ID+".json")
	tmp, err := os.CreateTemp(m.dir, sess.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing session %s: %w", sess.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing session %s: %w", sess.ID, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing session %s: %w", sess.ID, err)
	}
	return nil
}

// SaveAllSessions persists every in-memory session; used at shutdown.
// Individual failures are logged and do not stop the sweep.
func (m *Manager) SaveAllSessions() {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		if err := m.SaveSession(s); err != nil {
			m.logger.Error("failed to save session", "session_id", s.ID, "error", err)
		}
	}
	m.logger.Info("sessions flushed", "count", len(all))
}

// Count returns the number of loaded sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
