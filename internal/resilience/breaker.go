// Package resilience provides reliability patterns for external service
// calls such as media uploads and webhook delivery.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and
// rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker states reported by State.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// Breaker tracks consecutive failures against an external dependency and
// rejects calls for a cooldown period once a threshold is reached. After
// the cooldown a probe call is admitted; its outcome decides whether the
// circuit closes again or the cooldown restarts.
type Breaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration
	failures    int
	openUntil   time.Time // zero while closed
	probing     bool
	now         func() time.Time // for testing
}

// NewBreaker creates a circuit breaker that opens after maxFailures
// consecutive failures and rejects calls for the given cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without invoking fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		if b.probing || b.failures >= b.maxFailures {
			b.openUntil = b.now().Add(b.cooldown)
		}
		b.probing = false
		return err
	}

	b.failures = 0
	b.openUntil = time.Time{}
	b.probing = false
	return nil
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return true
	}
	if b.now().Before(b.openUntil) {
		return false
	}
	b.probing = true
	return true
}

// State reports the current circuit state for logging.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.openUntil.IsZero():
		return StateClosed
	case b.now().Before(b.openUntil):
		return StateOpen
	default:
		return StateHalfOpen
	}
}
