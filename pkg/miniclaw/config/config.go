// Package config loads the daemon configuration from config.json. Unknown
// fields are tolerated so older daemons can read configs written by newer
// ones; credentials resolve through the keyring and environment before the
// file itself.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the config file inside the state directory.
const FileName = "config.json"

// ErrNotFound is returned when no config file exists yet.
var ErrNotFound = errors.New("config file not found")

// Config is the persisted daemon configuration.
type Config struct {
	// APIKey is the provider API key. Prefer the keyring; this field is
	// the fallback for machines without one.
	APIKey string `json:"api_key,omitempty"`

	// TelegramToken enables the Telegram channel when set.
	TelegramToken string `json:"telegram_token,omitempty"`

	// AllowFrom is the Telegram user whitelist. -1 allows everyone;
	// empty denies everyone.
	AllowFrom []int64 `json:"allow_from,omitempty"`

	// SpawnLogOutput mirrors exec tool output into the daemon log.
	SpawnLogOutput bool `json:"spawn_log_output,omitempty"`

	// DefaultChannel receives heartbeat replies ("cli" or "telegram").
	DefaultChannel string `json:"default_channel,omitempty"`

	// ProviderType selects the LLM backend: "openrouter" or "ollama".
	ProviderType string `json:"provider_type,omitempty"`

	// ProviderConfig is the backend's own section, decoded by the
	// provider factory.
	ProviderConfig json.RawMessage `json:"provider_config,omitempty"`

	// Workspace overrides the agent workspace directory.
	Workspace string `json:"workspace,omitempty"`

	// HeartbeatSchedule is a cron expression; empty uses the default.
	HeartbeatSchedule string `json:"heartbeat_schedule,omitempty"`

	// Model is deprecated; kept so old config files still parse. The
	// model now lives inside provider_config.
	Model string `json:"model,omitempty"`
}

// Defaults fills unset fields that have sensible values.
func (c *Config) Defaults() {
	if c.DefaultChannel == "" {
		c.DefaultChannel = "cli"
	}
	if c.ProviderType == "" {
		c.ProviderType = "openrouter"
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.DefaultChannel {
	case "cli", "telegram":
	default:
		return fmt.Errorf("default_channel must be cli or telegram, got %q", c.DefaultChannel)
	}
	if c.DefaultChannel == "telegram" && c.TelegramToken == "" {
		return errors.New("default_channel is telegram but telegram_token is empty")
	}
	return nil
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads and validates the config at dir. A missing file returns
// ErrNotFound so callers can route the user to onboarding.
func Load(dir string) (*Config, error) {
	return LoadFile(Path(dir))
}

// LoadFile reads and validates the config at an explicit file path, for
// the --config flag.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config atomically with owner-only permissions, since it
// may carry credentials.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	target := Path(dir)
	tmp, err := os.CreateTemp(dir, "config.*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("securing config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing config: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// DefaultDir is the per-user state directory.
func DefaultDir() string {
	if dir := os.Getenv("MINICLAW_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".miniclaw"
	}
	return filepath.Join(home, ".miniclaw")
}
