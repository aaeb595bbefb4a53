package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestIsBlacklisted(t *testing.T) {
	tests := []struct {
		command string
		blocked bool
	}{
		{"rm", true},
		{"sudo", true},
		{"SUDO", true},
		{"/usr/bin/sudo", true},
		{"/sbin/mkfs", true},
		{"  reboot  ", true},
		{"dd", true},
		{"ls", false},
		{"echo", false},
		{"/usr/bin/python3", false},
		{"rmdir", false}, // basename must match exactly, not by prefix
		{"firm", false},
	}

	for _, tt := range tests {
		if got := IsBlacklisted(tt.command); got != tt.blocked {
			t.Errorf("IsBlacklisted(%q) = %v, want %v", tt.command, got, tt.blocked)
		}
	}
}

func TestWhitelistEmptyDeniesAll(t *testing.T) {
	w := NewWhitelist(nil)
	for _, id := range []int64{-5, 0, 1, 123, 999999} {
		if w.IsAllowed(id) {
			t.Errorf("empty whitelist allowed id %d", id)
		}
	}
}

func TestWhitelistSentinelAllowsAll(t *testing.T) {
	w := NewWhitelist([]int64{AllowAllSentinel})
	for _, id := range []int64{-5, 0, 1, 123, 999999} {
		if !w.IsAllowed(id) {
			t.Errorf("sentinel whitelist denied id %d", id)
		}
	}
}

func TestWhitelistMembership(t *testing.T) {
	w := NewWhitelist([]int64{123, 456})
	if !w.IsAllowed(123) || !w.IsAllowed(456) {
		t.Error("configured ids should be allowed")
	}
	if w.IsAllowed(999) {
		t.Error("unconfigured id should be denied")
	}
}

func TestWhitelistAddUser(t *testing.T) {
	w := NewWhitelist(nil)
	if err := w.AddUser(42); err != nil {
		t.Fatalf("AddUser(42): %v", err)
	}
	if !w.IsAllowed(42) {
		t.Error("added id should be allowed")
	}

	for _, bad := range []int64{0, -1, -42} {
		if err := w.AddUser(bad); !errors.Is(err, ErrNonPositiveID) {
			t.Errorf("AddUser(%d) = %v, want ErrNonPositiveID", bad, err)
		}
	}
}

func TestPathValidatorContainment(t *testing.T) {
	base := t.TempDir()
	v, err := NewPathValidator(base)
	if err != nil {
		t.Fatalf("NewPathValidator: %v", err)
	}

	inside := filepath.Join(base, "notes.md")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := v.Validate("notes.md")
	if err != nil {
		t.Fatalf("Validate(notes.md): %v", err)
	}
	if filepath.Dir(got) != v.Base() {
		t.Errorf("validated path %q not directly under base %q", got, v.Base())
	}
}

func TestPathValidatorTraversal(t *testing.T) {
	v, err := NewPathValidator(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = v.Validate("../../etc/passwd")
	if !errors.Is(err, ErrOutsideBase) && !errors.Is(err, ErrSystemPathBlocked) {
		t.Errorf("traversal returned %v, want ErrOutsideBase or ErrSystemPathBlocked", err)
	}
}

func TestPathValidatorAbsoluteEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path")
	}
	v, err := NewPathValidator(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Validate("/etc/passwd"); err == nil {
		t.Error("absolute path outside base should be rejected")
	}
}

func TestPathValidatorNonExistentTail(t *testing.T) {
	base := t.TempDir()
	v, err := NewPathValidator(base)
	if err != nil {
		t.Fatal(err)
	}

	// The file does not exist yet; validation should still succeed and the
	// result must live under the base.
	got, err := v.Validate("sub/dir/new-file.txt")
	if err != nil {
		t.Fatalf("Validate non-existent: %v", err)
	}
	rel, err := filepath.Rel(v.Base(), got)
	if err != nil || rel == ".." || filepath.IsAbs(rel) {
		t.Errorf("result %q escapes base %q", got, v.Base())
	}

	// A non-existent tail must not bypass containment either.
	if _, err := v.Validate("../outside/new-file.txt"); err == nil {
		t.Error("non-existent path outside base should be rejected")
	}
}

func TestPathValidatorSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks")
	}
	base := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	v, err := NewPathValidator(base)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Validate("link/escape.txt"); !errors.Is(err, ErrOutsideBase) {
		t.Errorf("symlink escape returned %v, want ErrOutsideBase", err)
	}
}

func TestPathValidatorInvalidBase(t *testing.T) {
	if _, err := NewPathValidator(""); !errors.Is(err, ErrInvalidBaseDir) {
		t.Errorf("empty base returned %v, want ErrInvalidBaseDir", err)
	}
	if _, err := NewPathValidator(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrInvalidBaseDir) {
		t.Errorf("missing base returned %v, want ErrInvalidBaseDir", err)
	}
}
