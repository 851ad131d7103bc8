package resilience

import "time"

// Strategy identifies a recovery strategy applied by the Manager
type Strategy string

const (
	// StrategyExponentialBackoff retries the failing provider with backoff
	StrategyExponentialBackoff Strategy = "exponential_backoff"
	// StrategyFallbackProvider routes to healthy alternate providers
	StrategyFallbackProvider Strategy = "fallback_provider"
	// StrategyGracefulDegradation returns a reduced-fidelity static response
	StrategyGracefulDegradation Strategy = "graceful_degradation"
)

// RecoveryConfig holds configuration for the recovery manager
type RecoveryConfig struct {
	// MaxRetries is the number of retries after the initial attempt
	MaxRetries int
	// BaseDelay is the initial backoff delay
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay
	MaxDelay time.Duration
	// BreakerThreshold is the failure count at which a provider's circuit opens
	BreakerThreshold int
	// BreakerCooldown is how long an open circuit blocks a provider
	BreakerCooldown time.Duration
	// EnableFallback enables routing to alternate providers
	EnableFallback bool
	// EnableCaching enables the last-resort response cache
	EnableCaching bool
	// CacheTTL bounds the lifetime of cached responses
	CacheTTL time.Duration
	// Strategies is the ordered set of recovery strategies to apply
	Strategies []Strategy
}

// DefaultRecoveryConfig returns the default recovery configuration
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		MaxRetries:       3,
		BaseDelay:        1 * time.Second,
		MaxDelay:         60 * time.Second,
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
		EnableFallback:   true,
		EnableCaching:    true,
		CacheTTL:         5 * time.Minute,
		Strategies: []Strategy{
			StrategyExponentialBackoff,
			StrategyFallbackProvider,
			StrategyGracefulDegradation,
		},
	}
}

// HasStrategy reports whether the given strategy is enabled
func (c RecoveryConfig) HasStrategy(s Strategy) bool {
	for _, strategy := range c.Strategies {
		if strategy == s {
			return true
		}
	}
	return false
}
