package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies provider errors for retry decisions.
type ErrorKind int

const (
	ErrorRetryable  ErrorKind = iota // transient 5xx
	ErrorRateLimit                   // 429, honour Retry-After
	ErrorOverloaded                  // 529 or "overloaded" in body
	ErrorTimeout                     // request timeout / deadline exceeded
	ErrorAuth                        // 401, 403
	ErrorBilling                     // 402 or quota exhausted
	ErrorContext                     // prompt exceeds the model's context
	ErrorBadRequest                  // 400
	ErrorFatal                       // everything else
)

// String returns a human-readable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorRetryable:
		return "retryable"
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorOverloaded:
		return "overloaded"
	case ErrorTimeout:
		return "timeout"
	case ErrorAuth:
		return "auth"
	case ErrorBilling:
		return "billing"
	case ErrorContext:
		return "context"
	case ErrorBadRequest:
		return "bad_request"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Retryable reports whether the kind warrants another attempt.
func (k ErrorKind) Retryable() bool {
	return k == ErrorRetryable || k == ErrorRateLimit || k == ErrorOverloaded || k == ErrorTimeout
}

// APIError carries the provider's HTTP status and body plus the parsed
// Retry-After hint when the provider sent one.
type APIError struct {
	StatusCode    int
	Body          string
	RetryAfterSec int
	Provider      string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: API returned %d: %s", e.Provider, e.StatusCode, body)
	}
	return fmt.Sprintf("API returned %d: %s", e.StatusCode, body)
}

// Kind classifies the error.
func (e *APIError) Kind() ErrorKind {
	return classify(e.StatusCode, e.Body)
}

// Classify determines the error kind for any error a provider returned.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return classify(0, err.Error())
}

// RetryAfter extracts the provider's Retry-After hint in seconds, 0 when
// absent.
func RetryAfter(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfterSec
	}
	return 0
}

func classify(statusCode int, body string) ErrorKind {
	bodyLower := strings.ToLower(body)

	// Context overflow wins over every other signal.
	if strings.Contains(bodyLower, "context_length_exceeded") ||
		strings.Contains(bodyLower, "maximum context length") {
		return ErrorContext
	}

	if statusCode == 402 ||
		strings.Contains(bodyLower, "billing") ||
		strings.Contains(bodyLower, "insufficient_quota") ||
		strings.Contains(bodyLower, "payment required") {
		return ErrorBilling
	}

	if statusCode == 429 ||
		strings.Contains(bodyLower, "rate_limit") ||
		strings.Contains(bodyLower, "rate limit") ||
		strings.Contains(bodyLower, "too many requests") {
		return ErrorRateLimit
	}

	if statusCode == 529 || strings.Contains(bodyLower, "overloaded") {
		return ErrorOverloaded
	}

	if strings.Contains(bodyLower, "timeout") ||
		strings.Contains(bodyLower, "deadline") ||
		strings.Contains(bodyLower, "timed out") {
		return ErrorTimeout
	}

	switch statusCode {
	case 400:
		return ErrorBadRequest
	case 401, 403:
		return ErrorAuth
	default:
		if statusCode >= 500 {
			return ErrorRetryable
		}
		// Network-level failures carry no status code.
		if statusCode == 0 &&
			(strings.Contains(bodyLower, "connection refused") ||
				strings.Contains(bodyLower, "no such host") ||
				strings.Contains(bodyLower, "connection reset")) {
			return ErrorRetryable
		}
		return ErrorFatal
	}
}
