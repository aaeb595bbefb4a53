// Package security implements the validators every tool call passes through:
// a path validator that confines filesystem access to a base directory, a
// command blacklist for subprocess execution, and a sender whitelist for
// inbound messages.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Path validation errors.
var (
	ErrOutsideBase        = errors.New("path resolves outside the base directory")
	ErrSystemPathBlocked  = errors.New("path resolves under a blocked system prefix")
	ErrCanonicalization   = errors.New("failed to canonicalize path")
	ErrInvalidBaseDir     = errors.New("base directory is invalid")
)

// unixBlockedPrefixes are system paths the validator never allows, even when
// the base directory itself would contain them (e.g. base "/").
var unixBlockedPrefixes = []string{
	"/etc", "/root", "/sys", "/proc", "/boot",
	"/bin", "/sbin", "/lib", "/lib64", "/usr",
	"/dev", "/var/log",
}

// windowsBlockedPrefixes are checked case-insensitively.
var windowsBlockedPrefixes = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
	`C:\ProgramData\Microsoft`,
	`C:\System Volume Information`,
}

// PathValidator canonicalizes user-supplied paths and enforces that the
// result stays inside a base directory and outside blocked system prefixes.
// The zero value is not usable; construct with NewPathValidator.
type PathValidator struct {
	base string
}

// NewPathValidator creates a validator rooted at baseDir. The base must
// exist and canonicalize cleanly; otherwise ErrInvalidBaseDir is returned.
func NewPathValidator(baseDir string) (*PathValidator, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base", ErrInvalidBaseDir)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseDir, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseDir, err)
	}
	return &PathValidator{base: canon}, nil
}

// Base returns the canonical base directory.
func (v *PathValidator) Base() string { return v.base }

// Validate resolves userPath (absolute or relative to the base) to a
// canonical absolute path and checks containment and the system-prefix
// blocklist. For paths that do not exist yet, the deepest existing ancestor
// is canonicalized and the non-existent tail re-attached before checking,
// so symlink tricks on existing components cannot escape the base.
func (v *PathValidator) Validate(userPath string) (string, error) {
	p := userPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(v.base, p)
	}
	p = filepath.Clean(p)

	canon, err := canonicalizeWithTail(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrCanonicalization, userPath, err)
	}

	if !isWithin(canon, v.base) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, userPath)
	}
	if blockedSystemPath(canon) {
		return "", fmt.Errorf("%w: %q", ErrSystemPathBlocked, userPath)
	}
	return canon, nil
}

// canonicalizeWithTail resolves symlinks in the deepest existing ancestor of
// p and re-attaches the non-existent remainder.
func canonicalizeWithTail(p string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	var tail []string
	dir := p
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Hit the filesystem root without finding an existing ancestor.
			return p, nil
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
		dir = parent

		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
}

// isWithin reports whether path equals base or lies under it.
func isWithin(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// blockedSystemPath reports whether p lies under a blocked system prefix.
func blockedSystemPath(p string) bool {
	if runtime.GOOS == "windows" {
		lower := strings.ToLower(p)
		for _, prefix := range windowsBlockedPrefixes {
			lp := strings.ToLower(prefix)
			if lower == lp || strings.HasPrefix(lower, lp+`\`) {
				return true
			}
		}
		return false
	}
	for _, prefix := range unixBlockedPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
