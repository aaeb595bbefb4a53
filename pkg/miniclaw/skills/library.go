package skills

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const skillFileName = "SKILL.md"

// indexSchema is the DDL for the skill index.
const indexSchema = `
CREATE TABLE IF NOT EXISTS skills (
    name        TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    version     TEXT NOT NULL DEFAULT '',
    path        TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

// Library owns the skills directory and its SQLite index. All writes go
// through the library so the index and the tree never drift; Reindex
// rebuilds the index from disk when they do (e.g. hand-edited skills).
type Library struct {
	dir    string
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

// OpenLibrary opens (or creates) the skill library at dir, with the index
// database stored alongside the skills.
func OpenLibrary(dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating skills dir: %w", err)
	}

	dbPath := filepath.Join(dir, "skills.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening skill index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing skill index: %w", err)
	}

	lib := &Library{
		dir:    dir,
		db:     db,
		logger: logger.With("component", "skills"),
	}
	if err := lib.Reindex(); err != nil {
		db.Close()
		return nil, err
	}
	return lib, nil
}

// Close releases the index database.
func (l *Library) Close() error { return l.db.Close() }

// Dir returns the library root.
func (l *Library) Dir() string { return l.dir }

// Reindex rebuilds the SQLite index from the skill tree. Unparseable
// skill files are logged and skipped.
func (l *Library) Reindex() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("reading skills dir: %w", err)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("starting reindex: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM skills`); err != nil {
		return fmt.Errorf("clearing skill index: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(l.dir, entry.Name(), skillFileName)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		meta, _, err := Parse(string(data))
		if err != nil {
			l.logger.Warn("skipping unparseable skill", "path", path, "error", err)
			continue
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO skills (name, description, version, path, updated_at) VALUES (?, ?, ?, ?, ?)`,
			meta.Name, meta.Description, meta.Version, path, time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("indexing skill %s: %w", meta.Name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reindex: %w", err)
	}
	l.logger.Info("skill index rebuilt", "count", count)
	return nil
}

// Create writes a new skill package and indexes it.
func (l *Library) Create(meta Meta, body string) error {
	if err := ValidateName(meta.Name); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	skillDir := filepath.Join(l.dir, meta.Name)
	path := filepath.Join(skillDir, skillFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrSkillExists, meta.Name)
	}

	content, err := Render(meta, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return fmt.Errorf("creating skill dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing skill: %w", err)
	}

	_, err = l.db.Exec(
		`INSERT OR REPLACE INTO skills (name, description, version, path, updated_at) VALUES (?, ?, ?, ?, ?)`,
		meta.Name, meta.Description, meta.Version, path, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("indexing skill %s: %w", meta.Name, err)
	}
	l.logger.Info("skill created", "skill", meta.Name)
	return nil
}

// Get loads one skill by name.
func (l *Library) Get(name string) (*Skill, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var path string
	err := l.db.QueryRow(`SELECT path FROM skills WHERE name = ?`, name).Scan(&path)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up skill %s: %w", name, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skill %s: %w", name, err)
	}
	meta, body, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing skill %s: %w", name, err)
	}
	return &Skill{Meta: meta, Body: body, Path: path}, nil
}

// List returns the indexed skill metadata, name order.
func (l *Library) List() ([]Meta, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.Query(`SELECT name, description, version FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing skills: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.Name, &m.Description, &m.Version); err != nil {
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a skill package and its index row.
func (l *Library) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Exec(`DELETE FROM skills WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("unindexing skill %s: %w", name, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}

	if err := os.RemoveAll(filepath.Join(l.dir, name)); err != nil {
		return fmt.Errorf("removing skill %s: %w", name, err)
	}
	l.logger.Info("skill deleted", "skill", name)
	return nil
}
