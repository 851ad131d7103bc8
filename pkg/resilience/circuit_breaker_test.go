package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker("openai", 5, time.Minute)
	cb.now = clock.Now

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
		assert.True(t, cb.Allow(), "breaker must stay closed below threshold")
	}

	cb.RecordFailure()
	state := cb.State()
	assert.True(t, state.Open)
	assert.Equal(t, 5, state.FailureCount)
	assert.Equal(t, clock.Now().Add(time.Minute), state.NextAttemptAt)
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_LazyResetAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker("openai", 3, time.Minute)
	cb.now = clock.Now

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	require.True(t, cb.State().Open)

	// Blocked for every check before the cooldown deadline
	clock.Advance(59 * time.Second)
	assert.False(t, cb.Allow())

	// The first check at the deadline closes the breaker and resets the count
	clock.Advance(time.Second)
	assert.True(t, cb.Allow())

	state := cb.State()
	assert.False(t, state.Open)
	assert.Equal(t, 0, state.FailureCount)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("openai", 2, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	require.True(t, cb.State().Open)

	cb.Reset()
	state := cb.State()
	assert.False(t, state.Open)
	assert.Equal(t, 0, state.FailureCount)
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_StateChangeHook(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker("openai", 2, time.Minute)
	cb.now = clock.Now

	var transitions []bool
	cb.onStateChange = func(name string, open bool) {
		assert.Equal(t, "openai", name)
		transitions = append(transitions, open)
	}

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(2 * time.Minute)
	cb.Allow()

	assert.Equal(t, []bool{true, false}, transitions)
}

func TestIsCircuitBreakerError(t *testing.T) {
	err := &CircuitBreakerError{Name: "openai"}
	assert.True(t, IsCircuitBreakerError(err))
	assert.Contains(t, err.Error(), "openai")
	assert.False(t, IsCircuitBreakerError(errors.New("other")))
	assert.False(t, IsCircuitBreakerError(nil))
}
