package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/security"
)

// ErrInvalidToken covers every malformed bot token shape.
var ErrInvalidToken = errors.New("invalid telegram bot token")

// Config configures the Telegram adapter.
type Config struct {
	// Token is the BotFather token, "<numeric id>:<secret>".
	Token string

	// Whitelist gates which user IDs the bot answers. Nil denies everyone.
	Whitelist *security.Whitelist

	Logger *slog.Logger
}

// Validate checks the config before the adapter connects.
func (c *Config) Validate() error {
	if err := ValidateToken(c.Token); err != nil {
		return err
	}
	if c.Whitelist == nil {
		return errors.New("telegram: whitelist is required")
	}
	return nil
}

// ValidateToken enforces the "<digits>:<non-empty>" token shape with
// exactly one colon. It never calls the network.
func ValidateToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("%w: want exactly one colon", ErrInvalidToken)
	}
	id, secret := parts[0], parts[1]
	if id == "" {
		return fmt.Errorf("%w: empty bot id", ErrInvalidToken)
	}
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: bot id must be numeric", ErrInvalidToken)
		}
	}
	if secret == "" {
		return fmt.Errorf("%w: empty secret", ErrInvalidToken)
	}
	return nil
}
