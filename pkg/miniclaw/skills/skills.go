// Package skills manages the agent's skill library. A skill is a markdown
// package at skills/<name>/SKILL.md with a YAML front-matter header; the
// body is instructions injected into the prompt when the skill is used. A
// SQLite index mirrors the front-matter so listing and lookup never scan
// the tree.
package skills

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lookup and mutation failures.
var (
	ErrSkillNotFound = errors.New("skill not found")
	ErrSkillExists   = errors.New("skill already exists")
	ErrInvalidName   = errors.New("invalid skill name")
)

// validNameRegex limits skill names to directory-safe identifiers.
var validNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// Meta is the YAML front-matter of a SKILL.md file.
type Meta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version,omitempty"`
}

// Skill is one parsed skill package.
type Skill struct {
	Meta Meta

	// Body is the markdown instructions after the front-matter.
	Body string

	// Path is the SKILL.md location on disk.
	Path string
}

// ValidateName checks a skill name before it becomes a directory name.
func ValidateName(name string) error {
	if !validNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q (want lowercase letters, digits, - and _)", ErrInvalidName, name)
	}
	return nil
}

// Render produces the SKILL.md content for a skill.
func Render(meta Meta, body string) (string, error) {
	head, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshaling front-matter: %w", err)
	}
	return fmt.Sprintf("---\n%s---\n\n%s\n", head, strings.TrimSpace(body)), nil
}

// Parse splits a SKILL.md file into front-matter and body. Files without a
// front-matter block are rejected.
func Parse(content string) (Meta, string, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---\n") {
		return Meta{}, "", fmt.Errorf("skill file has no front-matter header")
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return Meta{}, "", fmt.Errorf("skill front-matter is not terminated")
	}

	var meta Meta
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return Meta{}, "", fmt.Errorf("parsing front-matter: %w", err)
	}
	if meta.Name == "" {
		return Meta{}, "", fmt.Errorf("skill front-matter has no name")
	}

	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return meta, strings.TrimSpace(body), nil
}
