package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "miniclaw 1.2.3" {
		t.Errorf("output = %q, want miniclaw 1.2.3", got)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	root := NewRootCmd("dev")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"version", "--bogus"})

	err := root.Execute()
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Errorf("unknown flag error = %v, want UsageError", err)
	}
}

func TestParseAllowFrom(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "42", []int64{42}, false},
		{"list with spaces", "42, 77 ,5", []int64{42, 77, 5}, false},
		{"wildcard", "-1", []int64{-1}, false},
		{"garbage", "42,abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAllowFrom(tt.raw)
			if tt.wantErr {
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Fatalf("err = %v, want UsageError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAllowFrom(%q): %v", tt.raw, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestVersionFlagShorthand(t *testing.T) {
	root := NewRootCmd("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"-V"})

	if err := root.Execute(); err != nil {
		t.Fatalf("-V: %v", err)
	}
	if !strings.Contains(out.String(), "1.2.3") {
		t.Errorf("output = %q, want the version in it", out.String())
	}
}

func TestOnboardYesWritesConfigAndWorkspace(t *testing.T) {
	stateDir := t.TempDir()
	wsDir := filepath.Join(stateDir, "ws")

	root := NewRootCmd("dev")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(stateDir, "config.json"), "onboard", "-y", "--path", wsDir})

	if err := root.Execute(); err != nil {
		t.Fatalf("onboard -y: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(stateDir, "config.json"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), `"default_model"`) {
		t.Errorf("config missing default_model:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(wsDir, "SOUL.md")); err != nil {
		t.Errorf("workspace not seeded: %v", err)
	}
}

func TestOnboardRelativePathIsUsageError(t *testing.T) {
	root := NewRootCmd("dev")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"onboard", "-y", "--path", "relative/ws"})

	err := root.Execute()
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Errorf("relative --path error = %v, want UsageError", err)
	}
}

func TestCLIFlagSurface(t *testing.T) {
	root := NewRootCmd("dev")

	if f := root.PersistentFlags().Lookup("config"); f == nil {
		t.Error("missing global --config flag")
	}
	if f := root.Flags().Lookup("version"); f == nil || f.Shorthand != "V" {
		t.Errorf("--version flag = %+v, want -V shorthand", f)
	}

	sub := map[string][]string{
		"agent":   {"message", "model"},
		"onboard": {"yes", "path"},
	}
	for name, flags := range sub {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("finding %s: %v", name, err)
		}
		for _, flag := range flags {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s missing --%s flag", name, flag)
			}
		}
	}
}
