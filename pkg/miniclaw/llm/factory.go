package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Provider type discriminators as they appear in config.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// ErrUnknownProvider wraps an unrecognised provider_type value.
type ErrUnknownProvider struct {
	Type string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown provider type %q (want %q or %q)", e.Type, ProviderOpenRouter, ProviderOllama)
}

// NewProvider builds the backend named by providerType from its raw config
// section. rawConfig may be nil for providers with usable defaults.
func NewProvider(providerType string, rawConfig json.RawMessage, logger *slog.Logger) (Provider, error) {
	switch providerType {
	case ProviderOpenRouter:
		var cfg OpenRouterConfig
		if err := decodeProviderConfig(rawConfig, &cfg); err != nil {
			return nil, err
		}
		return NewOpenRouter(cfg, logger)

	case ProviderOllama:
		var cfg OllamaConfig
		if err := decodeProviderConfig(rawConfig, &cfg); err != nil {
			return nil, err
		}
		return NewOllama(cfg, logger)

	default:
		return nil, &ErrUnknownProvider{Type: providerType}
	}
}

func decodeProviderConfig(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parsing provider_config: %w", err)
	}
	return nil
}
