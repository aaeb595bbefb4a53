// Package circuit implements a three-state circuit breaker used to gate
// calls to external services (LLM providers, messaging APIs). Closed lets
// calls through and counts failures; Open denies calls until a timeout has
// elapsed; HalfOpen allows a single probe whose outcome decides the next
// state.
package circuit

import (
	"log/slog"
	"sync"
	"time"
)

// State is the breaker's current position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns a human-readable label for logging.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker guards one downstream service. Callers must invoke CanCall before
// dispatching and then exactly one of RecordSuccess or RecordFailure.
type Breaker struct {
	service   string
	threshold int
	timeout   time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewBreaker creates a closed breaker for the named service. threshold is
// the number of consecutive failures that opens it; timeout is how long it
// stays open before allowing a probe.
func NewBreaker(service string, threshold int, timeout time.Duration, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{
		service:   service,
		threshold: threshold,
		timeout:   timeout,
		logger:    logger.With("component", "circuit", "service", service),
		now:       time.Now,
	}
}

// CanCall reports whether a call may be dispatched. An Open breaker whose
// timeout has elapsed transitions to HalfOpen and admits one probe.
func (b *Breaker) CanCall() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if b.now().Sub(b.openedAt) >= b.timeout {
			b.state = HalfOpen
			b.logger.Info("circuit half-open, allowing probe")
			return true
		}
		return false
	}
	return false
}

// RecordSuccess resets the breaker to Closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Closed {
		b.logger.Info("circuit closed", "from", b.state.String())
	}
	b.state = Closed
	b.failures = 0
}

// RecordFailure counts a failure. In Closed it opens the breaker once the
// threshold is reached; in HalfOpen the failed probe re-opens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.threshold {
			b.open()
		}
	case HalfOpen:
		b.open()
	case Open:
		// Failures while open (racing callers) keep it open.
	}
}

// open transitions to Open. Caller holds the lock.
func (b *Breaker) open() {
	b.state = Open
	b.openedAt = b.now()
	b.logger.Warn("circuit opened",
		"failures", b.failures,
		"timeout", b.timeout.String(),
	)
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
