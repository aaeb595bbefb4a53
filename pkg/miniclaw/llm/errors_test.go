package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{"rate limit", 429, "slow down", ErrorRateLimit},
		{"rate limit body", 500, "rate_limit_exceeded", ErrorRateLimit},
		{"overloaded status", 529, "", ErrorOverloaded},
		{"overloaded body", 503, "server overloaded", ErrorOverloaded},
		{"auth", 401, "invalid key", ErrorAuth},
		{"forbidden", 403, "nope", ErrorAuth},
		{"billing status", 402, "", ErrorBilling},
		{"billing body", 400, "insufficient_quota", ErrorBilling},
		{"context overflow", 400, "maximum context length exceeded", ErrorContext},
		{"bad request", 400, "missing field", ErrorBadRequest},
		{"server error", 500, "internal", ErrorRetryable},
		{"bad gateway", 502, "", ErrorRetryable},
		{"teapot", 418, "", ErrorFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: tt.status, Body: tt.body}
			if got := err.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyNonAPIErrors(t *testing.T) {
	if got := Classify(context.DeadlineExceeded); got != ErrorTimeout {
		t.Errorf("deadline exceeded classified as %v, want timeout", got)
	}
	if got := Classify(errors.New("dial tcp: connection refused")); got != ErrorRetryable {
		t.Errorf("connection refused classified as %v, want retryable", got)
	}
	if got := Classify(errors.New("something strange")); got != ErrorFatal {
		t.Errorf("unknown error classified as %v, want fatal", got)
	}
}

func TestClassifyWrappedAPIError(t *testing.T) {
	inner := &APIError{StatusCode: 429, Body: "", RetryAfterSec: 17}
	wrapped := fmt.Errorf("chat: %w", inner)

	if got := Classify(wrapped); got != ErrorRateLimit {
		t.Errorf("Classify = %v, want rate_limit", got)
	}
	if got := RetryAfter(wrapped); got != 17 {
		t.Errorf("RetryAfter = %d, want 17", got)
	}
}

func TestRetryableKinds(t *testing.T) {
	retryable := []ErrorKind{ErrorRetryable, ErrorRateLimit, ErrorOverloaded, ErrorTimeout}
	for _, k := range retryable {
		if !k.Retryable() {
			t.Errorf("%v should be retryable", k)
		}
	}
	terminal := []ErrorKind{ErrorAuth, ErrorBilling, ErrorContext, ErrorBadRequest, ErrorFatal}
	for _, k := range terminal {
		if k.Retryable() {
			t.Errorf("%v should not be retryable", k)
		}
	}
}

func TestNewProviderUnknownType(t *testing.T) {
	_, err := NewProvider("bedrock", nil, nil)
	var unknown *ErrUnknownProvider
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want ErrUnknownProvider", err)
	}
	if unknown.Type != "bedrock" {
		t.Errorf("Type = %q, want bedrock", unknown.Type)
	}
}

func TestNewProviderValidation(t *testing.T) {
	if _, err := NewProvider(ProviderOpenRouter, []byte(`{"default_model":"x"}`), nil); err == nil {
		t.Error("openrouter without api_key should fail")
	}
	if _, err := NewProvider(ProviderOllama, []byte(`{}`), nil); err == nil {
		t.Error("ollama without default_model should fail")
	}
	if _, err := NewProvider(ProviderOpenRouter, []byte(`{"api_key":"k","default_model":"x","timeout_seconds":-1}`), nil); err == nil {
		t.Error("negative timeout_seconds should fail")
	}
	p, err := NewProvider(ProviderOllama, []byte(`{"default_model":"llama3.1","timeout_seconds":120,"options":{"temperature":0.2}}`), nil)
	if err != nil {
		t.Fatalf("valid ollama config rejected: %v", err)
	}
	if p.Name() != "ollama" || p.DefaultModel() != "llama3.1" {
		t.Errorf("provider = %s/%s", p.Name(), p.DefaultModel())
	}
}
