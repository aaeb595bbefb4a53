package skills

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	content, err := Render(Meta{
		Name:        "weather",
		Description: "Fetch and summarise weather forecasts",
		Version:     "1.0",
	}, "Use the exec tool with curl against wttr.in.\n\nKeep replies short.")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	meta, body, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if meta.Name != "weather" || meta.Version != "1.0" {
		t.Errorf("meta = %+v", meta)
	}
	if !strings.HasPrefix(body, "Use the exec tool") || !strings.HasSuffix(body, "short.") {
		t.Errorf("body = %q", body)
	}
}

func TestParseRejectsMissingFrontMatter(t *testing.T) {
	if _, _, err := Parse("# just markdown\n"); err == nil {
		t.Error("missing front-matter should be rejected")
	}
	if _, _, err := Parse("---\nname: x\nno terminator"); err == nil {
		t.Error("unterminated front-matter should be rejected")
	}
	if _, _, err := Parse("---\ndescription: nameless\n---\nbody"); err == nil {
		t.Error("nameless skill should be rejected")
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"weather", "my-skill", "crm_v2"} {
		if err := ValidateName(ok); err != nil {
			t.Errorf("ValidateName(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "Weather", "1skill", "a b", "../escape"} {
		if err := ValidateName(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", bad, err)
		}
	}
}

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibrary(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestLibraryCreateGetListDelete(t *testing.T) {
	lib := newTestLibrary(t)

	err := lib.Create(Meta{Name: "notes", Description: "take notes"}, "Append to notes.md.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := lib.Create(Meta{Name: "notes"}, "again"); !errors.Is(err, ErrSkillExists) {
		t.Errorf("duplicate create = %v, want ErrSkillExists", err)
	}

	got, err := lib.Get("notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Meta.Description != "take notes" || got.Body != "Append to notes.md." {
		t.Errorf("skill = %+v", got)
	}

	if err := lib.Create(Meta{Name: "alarm", Description: "set alarms"}, "body"); err != nil {
		t.Fatal(err)
	}
	list, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "alarm" || list[1].Name != "notes" {
		t.Errorf("list = %+v, want alarm then notes", list)
	}

	if err := lib.Delete("notes"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := lib.Get("notes"); !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("Get after delete = %v, want ErrSkillNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(lib.Dir(), "notes")); !os.IsNotExist(err) {
		t.Error("skill directory not removed")
	}
	if err := lib.Delete("notes"); !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("double delete = %v, want ErrSkillNotFound", err)
	}
}

func TestReindexPicksUpHandWrittenSkills(t *testing.T) {
	dir := t.TempDir()
	lib, err := OpenLibrary(dir, nil)
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	defer lib.Close()

	// Drop a skill on disk behind the library's back.
	skillDir := filepath.Join(dir, "manual")
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "---\nname: manual\ndescription: hand written\n---\n\nDo the thing.\n"
	if err := os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := lib.Reindex(); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	got, err := lib.Get("manual")
	if err != nil {
		t.Fatalf("Get after reindex: %v", err)
	}
	if got.Body != "Do the thing." {
		t.Errorf("body = %q", got.Body)
	}
}
