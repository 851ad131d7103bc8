package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/contextcraft/contextcraft/pkg/errors"
	"github.com/contextcraft/contextcraft/pkg/logging"
)

// exponentialBase is the growth factor for backoff delays
const exponentialBase = 2.0

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt,
	// so an operation runs at most MaxRetries+1 times
	MaxRetries int
	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// Jitter randomizes each delay to avoid thundering herd
	Jitter bool
	// Retryable determines if an error is worth retrying
	Retryable func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
		Jitter:     true,
		Retryable:  DefaultRetryable,
	}
}

// DefaultRetryable determines if an error is retryable by default.
// Provider and network failures are transient; validation, configuration,
// and context errors will not improve on retry, and an open circuit means
// the provider should be left alone until its cooldown passes.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}

	if IsCircuitBreakerError(err) {
		return false
	}

	switch errors.GetKind(err) {
	case errors.KindValidation, errors.KindConfiguration, errors.KindContext:
		return false
	}

	return true
}

// Retrier handles retry logic with exponential backoff
type Retrier struct {
	config RetryConfig
	logger *logging.Logger
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(config RetryConfig) *Retrier {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.Retryable == nil {
		config.Retryable = DefaultRetryable
	}

	return &Retrier{
		config: config,
		logger: logging.GetLogger(),
	}
}

// Execute executes the given function with retry logic. The final error is
// returned unchanged; callers rely on this to distinguish "gave up" from
// "recovered".
func (r *Retrier) Execute(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error
	attempts := r.config.MaxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Operation succeeded after retry",
					"attempt", attempt+1,
					"max_attempts", attempts,
				)
			}
			return nil
		}

		lastErr = err

		if !r.config.Retryable(err) {
			r.logger.Debug("Error is not retryable, stopping",
				"error", err.Error(),
				"attempt", attempt+1,
			)
			return err
		}

		if attempt == attempts-1 {
			break
		}

		delay := r.calculateDelay(attempt)

		r.logger.Debug("Operation failed, retrying",
			"error", err.Error(),
			"attempt", attempt+1,
			"max_attempts", attempts,
			"delay", delay,
		)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logger.Error("Operation failed after all retry attempts",
		"error", lastErr.Error(),
		"attempts", attempts,
	)

	return lastErr
}

// ExecuteWithResult executes the given function with retry logic and returns a result
func (r *Retrier) ExecuteWithResult(ctx context.Context, operation func(context.Context) (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := r.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	return result, err
}

// calculateDelay computes the backoff delay for the given zero-based attempt
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(exponentialBase, float64(attempt))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	if r.config.Jitter {
		// Scale into [0.5, 1.0) of the computed delay
		delay *= 0.5 + rand.Float64()*0.5
	}

	return time.Duration(delay)
}

// Retry is a convenience function to execute an operation with default retry configuration
func Retry(ctx context.Context, operation func(context.Context) error) error {
	return NewRetrier(DefaultRetryConfig()).Execute(ctx, operation)
}

// RetryWithConfig is a convenience function to execute an operation with retry
func RetryWithConfig(ctx context.Context, config RetryConfig, operation func(context.Context) error) error {
	return NewRetrier(config).Execute(ctx, operation)
}
