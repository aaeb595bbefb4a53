package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load on empty dir = %v, want ErrNotFound", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := &Config{
		TelegramToken:  "123:abc",
		AllowFrom:      []int64{42, 77},
		SpawnLogOutput: true,
		DefaultChannel: "telegram",
		ProviderType:   "ollama",
		ProviderConfig: []byte(`{"default_model":"llama3.1"}`),
	}
	if err := Save(dir, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}

	out, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.TelegramToken != "123:abc" || len(out.AllowFrom) != 2 || !out.SpawnLogOutput {
		t.Errorf("round trip lost fields: %+v", out)
	}
	if string(out.ProviderConfig) != `{"default_model":"llama3.1"}` {
		t.Errorf("provider_config = %s", out.ProviderConfig)
	}
}

func TestLoadToleratesUnknownFieldsAndDeprecatedModel(t *testing.T) {
	dir := t.TempDir()
	raw := `{
		"provider_type": "openrouter",
		"model": "legacy-model",
		"future_feature": {"nested": true},
		"another_unknown": 7
	}`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "legacy-model" {
		t.Errorf("deprecated model field dropped: %q", cfg.Model)
	}
	if cfg.DefaultChannel != "cli" {
		t.Errorf("default_channel default = %q, want cli", cfg.DefaultChannel)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{DefaultChannel: "irc"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown default_channel should be rejected")
	}

	cfg = &Config{DefaultChannel: "telegram"}
	if err := cfg.Validate(); err == nil {
		t.Error("telegram default without token should be rejected")
	}

	cfg = &Config{DefaultChannel: "telegram", TelegramToken: "1:x"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestResolveCredentialEnvFallback(t *testing.T) {
	// The keyring is unavailable in CI; the env must win over the config
	// file value.
	t.Setenv("MINICLAW_API_KEY", "from-env")
	if got := ResolveCredential(CredAPIKey, "from-file"); got != "from-env" {
		t.Errorf("ResolveCredential = %q, want from-env", got)
	}

	t.Setenv("MINICLAW_API_KEY", "")
	if got := ResolveCredential(CredAPIKey, "from-file"); got != "from-file" {
		t.Errorf("ResolveCredential = %q, want from-file", got)
	}
}

func TestResolvedProviderConfigMigratesLegacyModel(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"in-section model key", Config{ProviderConfig: []byte(`{"model":"legacy"}`)}},
		{"top-level model field", Config{Model: "legacy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.cfg.ResolvedProviderConfig()
			if err != nil {
				t.Fatalf("ResolvedProviderConfig: %v", err)
			}
			var section map[string]any
			if err := json.Unmarshal(raw, &section); err != nil {
				t.Fatal(err)
			}
			if got, _ := section["default_model"].(string); got != "legacy" {
				t.Errorf("default_model = %q, want legacy", got)
			}
			if _, ok := section["model"]; ok {
				t.Error("legacy model key survived migration")
			}
		})
	}
}
