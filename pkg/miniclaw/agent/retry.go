package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
)

const (
	// maxChatAttempts bounds provider retries per turn iteration.
	maxChatAttempts = 3

	// baseBackoff is the first retry delay; it doubles each attempt.
	baseBackoff = 1 * time.Second

	// maxBackoff caps any single delay regardless of Retry-After hints.
	maxBackoff = 30 * time.Second
)

// chatWithRetry calls the provider, retrying classified-retryable failures
// with exponential backoff. A Retry-After hint from the provider extends
// the delay when it is longer than the computed backoff.
func chatWithRetry(ctx context.Context, provider llm.Provider, req llm.ChatRequest, logger *slog.Logger) (*llm.ChatResponse, error) {
	var lastErr error
	backoff := baseBackoff

	for attempt := 1; attempt <= maxChatAttempts; attempt++ {
		resp, err := provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := llm.Classify(err)
		if !kind.Retryable() || attempt == maxChatAttempts {
			return nil, err
		}

		delay := backoff
		if hint := llm.RetryAfter(err); hint > 0 {
			if serverDelay := time.Duration(hint) * time.Second; serverDelay > delay {
				delay = serverDelay
			}
		}
		if delay > maxBackoff {
			delay = maxBackoff
		}

		logger.Warn("provider call failed, retrying",
			"attempt", attempt, "kind", kind.String(),
			"backoff_ms", delay.Milliseconds(), "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, lastErr
}
