package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ShortTermCapacity bounds the in-process scratch memory.
const ShortTermCapacity = 100

// Note is one short-term entry. Short-term notes never touch disk and are
// gone when the process exits.
type Note struct {
	Content string
	AddedAt time.Time
}

// ShortTerm is a bounded FIFO of scratch notes shared across sessions.
type ShortTerm struct {
	mu    sync.Mutex
	notes []Note
}

// NewShortTerm creates an empty short-term memory.
func NewShortTerm() *ShortTerm {
	return &ShortTerm{}
}

// Add appends a note, evicting the oldest when full. Empty content is
// ignored.
func (m *ShortTerm) Add(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, Note{Content: content, AddedAt: time.Now().UTC()})
	if len(m.notes) > ShortTermCapacity {
		m.notes = m.notes[len(m.notes)-ShortTermCapacity:]
	}
}

// List returns a copy of the notes, oldest first.
func (m *ShortTerm) List() []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Note, len(m.notes))
	copy(out, m.notes)
	return out
}

// Render formats the notes as a numbered list for prompt injection, empty
// string when there are none.
func (m *ShortTerm) Render() string {
	notes := m.List()
	if len(notes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Content)
	}
	return b.String()
}

// Clear discards every note.
func (m *ShortTerm) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = nil
}

// Len returns the number of stored notes.
func (m *ShortTerm) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}
