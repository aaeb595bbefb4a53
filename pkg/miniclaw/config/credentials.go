package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// keyringService is the service name credentials are filed under.
const keyringService = "miniclaw"

// Credential names used with the keyring and the environment.
const (
	CredAPIKey        = "api_key"
	CredTelegramToken = "telegram_token"
)

// envName maps a credential name to its environment variable.
var envName = map[string]string{
	CredAPIKey:        "MINICLAW_API_KEY",
	CredTelegramToken: "MINICLAW_TELEGRAM_TOKEN",
}

// LoadDotenv loads a .env file from the working directory when present.
// Call once early in main; a missing file is not an error.
func LoadDotenv(logger *slog.Logger) {
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Debug("loaded .env file")
	}
}

// ResolveCredential looks a credential up in order: OS keyring, then
// environment, then the config file value. Empty when nowhere set.
func ResolveCredential(name, configValue string) string {
	if v, err := keyring.Get(keyringService, name); err == nil && v != "" {
		return v
	}
	if env, ok := envName[name]; ok {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return configValue
}

// StoreCredential files a credential in the OS keyring. Callers fall back
// to the config file when this fails (headless machines).
func StoreCredential(name, value string) error {
	return keyring.Set(keyringService, name, value)
}

// DeleteCredential removes a credential from the keyring; a missing entry
// is not an error.
func DeleteCredential(name string) error {
	err := keyring.Delete(keyringService, name)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// ResolvedAPIKey resolves the provider API key for a loaded config.
func (c *Config) ResolvedAPIKey() string {
	return ResolveCredential(CredAPIKey, c.APIKey)
}

// ResolvedProviderConfig returns provider_config with the resolved API key
// injected, so providers never look at the keyring themselves. The file's
// own api_key field inside provider_config is kept when no external
// credential resolves.
func (c *Config) ResolvedProviderConfig() (json.RawMessage, error) {
	section := map[string]any{}
	if len(c.ProviderConfig) > 0 {
		if err := json.Unmarshal(c.ProviderConfig, &section); err != nil {
			return nil, fmt.Errorf("parsing provider_config: %w", err)
		}
	}

	fileKey, _ := section["api_key"].(string)
	if fileKey == "" {
		fileKey = c.APIKey
	}
	if key := ResolveCredential(CredAPIKey, fileKey); key != "" {
		section["api_key"] = key
	}
	if _, ok := section["default_model"]; !ok {
		// Honour the deprecated model spellings: the in-section "model"
		// key and the top-level field.
		if legacy, ok := section["model"].(string); ok && legacy != "" {
			section["default_model"] = legacy
		} else if c.Model != "" {
			section["default_model"] = c.Model
		}
	}
	delete(section, "model")
	return json.Marshal(section)
}

// ResolvedTelegramToken resolves the Telegram bot token.
func (c *Config) ResolvedTelegramToken() string {
	return ResolveCredential(CredTelegramToken, c.TelegramToken)
}
