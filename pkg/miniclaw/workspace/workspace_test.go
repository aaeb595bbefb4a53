package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeSeedsMissingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")
	w := New(dir, nil)

	if err := w.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for _, name := range SeedFiles() {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("seed %s not created: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("seed %s is empty", name)
		}
	}
}

func TestInitializeNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	custom := "# My soul\n\nEdited by hand.\n"
	if err := os.WriteFile(filepath.Join(dir, SoulFile), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(dir, nil)
	if err := w.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, SoulFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != custom {
		t.Error("Initialize overwrote an existing seed file")
	}
}

func TestReadSeed(t *testing.T) {
	w := New(t.TempDir(), nil)
	if err := w.Initialize(); err != nil {
		t.Fatal(err)
	}

	if got := w.ReadSeed(AgentsFile); !strings.Contains(got, "memory tools") {
		t.Errorf("ReadSeed(%s) = %q", AgentsFile, got)
	}
	if got := w.ReadSeed("nope.md"); got != "" {
		t.Errorf("missing seed should read as empty, got %q", got)
	}
}
