package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// CircuitBreaker is a per-provider state machine that stops routing calls
// after repeated failures. It has two states: closed (requests allowed) and
// open (requests rejected). An open breaker closes lazily on the first
// availability check at or after the cooldown deadline; there is no
// half-open probe, the next call simply proceeds and its outcome is
// recorded normally.
type CircuitBreaker struct {
	name     string
	threshold int
	cooldown time.Duration

	mutex         sync.Mutex
	open          bool
	failureCount  int
	lastFailureAt time.Time
	nextAttemptAt time.Time

	now           func() time.Time
	onStateChange func(name string, open bool)
}

// BreakerState is a read-only snapshot of a circuit breaker
type BreakerState struct {
	Open          bool      `json:"open"`
	FailureCount  int       `json:"failure_count"`
	LastFailureAt time.Time `json:"last_failure_at,omitempty"`
	NextAttemptAt time.Time `json:"next_attempt_at,omitempty"`
}

// NewCircuitBreaker creates a circuit breaker for the named provider
func NewCircuitBreaker(name string, threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}

	return &CircuitBreaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a request may be routed to the provider. An open
// breaker whose cooldown has elapsed is reset to closed first, with its
// failure count zeroed, and the request is allowed through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.open {
		return true
	}

	if !cb.now().Before(cb.nextAttemptAt) {
		cb.setOpen(false)
		cb.failureCount = 0
		return true
	}

	return false
}

// RecordFailure counts a failure and opens the breaker once the failure
// count reaches the threshold
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := cb.now()
	cb.failureCount++
	cb.lastFailureAt = now

	if !cb.open && cb.failureCount >= cb.threshold {
		cb.nextAttemptAt = now.Add(cb.cooldown)
		cb.setOpen(true)
	}
}

// Reset closes the breaker and clears its failure count
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.setOpen(false)
	cb.failureCount = 0
}

// State returns a snapshot of the breaker
func (cb *CircuitBreaker) State() BreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return BreakerState{
		Open:          cb.open,
		FailureCount:  cb.failureCount,
		LastFailureAt: cb.lastFailureAt,
		NextAttemptAt: cb.nextAttemptAt,
	}
}

// Name returns the name of the circuit breaker
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// setOpen flips the state and notifies the state-change hook. Caller must
// hold the mutex.
func (cb *CircuitBreaker) setOpen(open bool) {
	if cb.open == open {
		return
	}
	cb.open = open
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, open)
	}
}

// CircuitBreakerError represents an error when the circuit breaker is open
type CircuitBreakerError struct {
	Name string
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker '%s' is open", e.Name)
}

// IsCircuitBreakerError checks if an error is a circuit breaker error
func IsCircuitBreakerError(err error) bool {
	var cbErr *CircuitBreakerError
	return errors.As(err, &cbErr)
}
