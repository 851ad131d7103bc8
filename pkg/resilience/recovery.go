package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/contextcraft/contextcraft/pkg/errors"
	"github.com/contextcraft/contextcraft/pkg/logging"
)

// Operation describes one provider invocation to run under recovery.
// Query and Industry are explicit structured fields rather than positional
// arguments; they seed both the cache key and the degraded response.
type Operation struct {
	// Name identifies the operation in logs and metrics
	Name string
	// Provider is the primary provider id
	Provider string
	// Fallbacks is the ordered list of alternate provider ids
	Fallbacks []string
	// Query is the user query the operation answers
	Query string
	// Industry is the vertical the query belongs to
	Industry string
	// Args is any additional cache-key material beyond Query and Industry
	Args []interface{}
	// Invoke performs one call against the given provider
	Invoke func(ctx context.Context, provider string) (interface{}, error)
}

// cacheKey derives the deterministic key for this operation's argument tuple
func (op Operation) cacheKey() string {
	parts := []interface{}{op.Name, op.Query, op.Industry}
	parts = append(parts, op.Args...)
	return CacheKey(parts...)
}

// argShapes reports the types of the operation's arguments, so logs carry
// shapes rather than raw values
func (op Operation) argShapes() []string {
	shapes := []string{"string", "string"}
	for _, arg := range op.Args {
		shapes = append(shapes, fmt.Sprintf("%T", arg))
	}
	return shapes
}

// DegradedResponse is the reduced-fidelity result returned when every other
// recovery strategy has been exhausted
type DegradedResponse struct {
	Message  string `json:"message"`
	Query    string `json:"query"`
	Industry string `json:"industry"`
	Degraded bool   `json:"degraded"`
}

// MetricsRecorder receives recovery outcomes. The zero implementation drops
// everything; pkg/metrics provides the Prometheus-backed one.
type MetricsRecorder interface {
	RecordProviderRequest(provider, outcome string, duration time.Duration)
	RecordRetry(provider string)
	RecordFallback(from, to string)
	RecordCacheLookup(hit bool)
	RecordDegradedResponse()
	RecordBreakerOpen(provider string)
}

type noopMetrics struct{}

func (noopMetrics) RecordProviderRequest(string, string, time.Duration) {}
func (noopMetrics) RecordRetry(string)                                  {}
func (noopMetrics) RecordFallback(string, string)                       {}
func (noopMetrics) RecordCacheLookup(bool)                              {}
func (noopMetrics) RecordDegradedResponse()                             {}
func (noopMetrics) RecordBreakerOpen(string)                            {}

// Manager composes the retry engine, health tracker, circuit breakers,
// response cache, and graceful degradation into the recovery entry point.
// Construct one explicitly and pass it where it is needed; there is no
// package-level singleton.
type Manager struct {
	config  RecoveryConfig
	tracker *HealthTracker
	retrier *Retrier
	cache   ResponseCache
	metrics MetricsRecorder
	alerts  *AlertManager
	logger  *logging.Logger
}

// ManagerOption customizes a Manager
type ManagerOption func(*Manager)

// WithCache replaces the default in-memory response cache
func WithCache(cache ResponseCache) ManagerOption {
	return func(m *Manager) { m.cache = cache }
}

// WithMetrics wires a metrics recorder into the manager
func WithMetrics(metrics MetricsRecorder) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithAlertManager wires an alert manager into the manager
func WithAlertManager(alerts *AlertManager) ManagerOption {
	return func(m *Manager) { m.alerts = alerts }
}

// NewManager creates a recovery manager with the given configuration
func NewManager(config RecoveryConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		config:  config,
		tracker: NewHealthTracker(config.BreakerThreshold, config.BreakerCooldown),
		retrier: NewRetrier(RetryConfig{
			MaxRetries: config.MaxRetries,
			BaseDelay:  config.BaseDelay,
			MaxDelay:   config.MaxDelay,
			Jitter:     true,
			Retryable:  DefaultRetryable,
		}),
		metrics: noopMetrics{},
		logger:  logging.GetLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.cache == nil && config.EnableCaching {
		m.cache = NewMemoryCache(config.CacheTTL)
	}

	m.tracker.onBreakerOpen = m.handleBreakerOpen

	return m
}

// RegisterProvider initializes health tracking for the provider
func (m *Manager) RegisterProvider(provider string) {
	m.tracker.Register(provider)
}

// RecordSuccess records a successful provider call
func (m *Manager) RecordSuccess(provider string, responseTime time.Duration) {
	m.tracker.RecordSuccess(provider, responseTime)
}

// RecordFailure records a failed provider call
func (m *Manager) RecordFailure(provider string, err error) {
	m.tracker.RecordFailure(provider, err)
}

// IsProviderAvailable reports whether the provider's circuit allows calls
func (m *Manager) IsProviderAvailable(provider string) bool {
	return m.tracker.IsAvailable(provider)
}

// GetHealthyProviders returns the candidates that are available and
// healthy, best first
func (m *Manager) GetHealthyProviders(candidates []string) []string {
	return m.tracker.RankHealthy(candidates)
}

// GetHealthReport returns the current fleet health snapshot
func (m *Manager) GetHealthReport() HealthReport {
	return m.tracker.Report()
}

// ResetProviderHealth zeroes the provider's health record and breaker
func (m *Manager) ResetProviderHealth(provider string) {
	m.tracker.Reset(provider)
}

// Tracker exposes the underlying health tracker
func (m *Manager) Tracker() *HealthTracker {
	return m.tracker
}

// Execute runs the operation with the full recovery chain, stopping at the
// first success: primary provider through the retry engine, then healthy
// fallbacks ranked by performance, then the response cache, then a degraded
// static response. Only when every strategy is exhausted does the last
// provider error propagate to the caller.
func (m *Manager) Execute(ctx context.Context, op Operation) (interface{}, error) {
	if op.Invoke == nil {
		return nil, errors.NewValidationError("operation has no invoke function")
	}

	var lastErr error

	// Primary provider
	if m.tracker.IsAvailable(op.Provider) {
		result, err := m.tryProvider(ctx, op, op.Provider)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	} else {
		m.logger.LogRecoveryEvent(ctx, "provider_unavailable", op.Name, logrus.Fields{
			"provider": op.Provider,
		})
	}

	// Fallback providers
	if m.config.EnableFallback && m.config.HasStrategy(StrategyFallbackProvider) && len(op.Fallbacks) > 0 {
		for _, candidate := range m.tracker.RankHealthy(op.Fallbacks) {
			if candidate == op.Provider {
				continue
			}

			result, err := m.tryProvider(ctx, op, candidate)
			if err == nil {
				m.metrics.RecordFallback(op.Provider, candidate)
				m.logger.LogRecoveryEvent(ctx, "fallback_used", op.Name, logrus.Fields{
					"from": op.Provider,
					"to":   candidate,
				})
				return result, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
		}
	}

	// Cached response. This path does not touch provider health.
	if m.config.EnableCaching && m.cache != nil {
		value, ok := m.cache.Get(ctx, op.cacheKey())
		m.metrics.RecordCacheLookup(ok)
		if ok {
			m.logger.LogRecoveryEvent(ctx, "cache_hit", op.Name, logrus.Fields{
				"provider": op.Provider,
			})
			return value, nil
		}
	}

	// Degraded static response
	if m.config.HasStrategy(StrategyGracefulDegradation) {
		m.metrics.RecordDegradedResponse()
		m.logger.LogRecoveryEvent(ctx, "degraded_response", op.Name, logrus.Fields{
			"provider": op.Provider,
			"industry": op.Industry,
		})
		m.alertExhaustion(ctx, op, lastErr)
		return m.degradedResponse(op), nil
	}

	m.alertExhaustion(ctx, op, lastErr)

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New(errors.KindUnknown, "all recovery strategies failed")
}

// tryProvider runs the operation against one provider through the retry
// engine and records the outcome into the health tracker
func (m *Manager) tryProvider(ctx context.Context, op Operation, provider string) (interface{}, error) {
	start := time.Now()

	retryConfig := m.retrier.config
	retryConfig.OnRetry = func(attempt int, err error, delay time.Duration) {
		m.metrics.RecordRetry(provider)
	}

	result, err := NewRetrier(retryConfig).ExecuteWithResult(ctx, func(ctx context.Context) (interface{}, error) {
		return op.Invoke(ctx, provider)
	})

	duration := time.Since(start)

	fields := logrus.Fields{
		"operation":  op.Name,
		"arg_shapes": op.argShapes(),
	}

	if err != nil {
		m.tracker.RecordFailure(provider, err)
		m.metrics.RecordProviderRequest(provider, "failure", duration)
		fields["error"] = err.Error()
		m.logger.LogProviderEvent(ctx, "request_failed", provider, duration, fields)
		return nil, err
	}

	m.tracker.RecordSuccess(provider, duration)
	m.metrics.RecordProviderRequest(provider, "success", duration)
	m.logger.LogProviderEvent(ctx, "request_succeeded", provider, duration, fields)

	if m.config.EnableCaching && m.cache != nil {
		m.cache.Put(ctx, op.cacheKey(), result)
	}

	return result, nil
}

// degradedResponse synthesizes the static reduced-fidelity answer
func (m *Manager) degradedResponse(op Operation) *DegradedResponse {
	message := "We're currently experiencing technical difficulties and can't generate a full response."
	if op.Query != "" {
		message = fmt.Sprintf("We're currently unable to generate a full answer for %q. Please try again shortly.", op.Query)
	}
	if op.Industry != "" {
		message += fmt.Sprintf(" Our %s guidance will be back as soon as service is restored.", op.Industry)
	}

	return &DegradedResponse{
		Message:  message,
		Query:    op.Query,
		Industry: op.Industry,
		Degraded: true,
	}
}

func (m *Manager) handleBreakerOpen(provider string, failureCount int) {
	m.metrics.RecordBreakerOpen(provider)

	if m.alerts == nil {
		return
	}

	m.alerts.SendAlert(context.Background(), Alert{
		Severity:    SeverityError,
		Title:       "Circuit Breaker Opened",
		Description: fmt.Sprintf("Provider '%s' circuit opened after %d failures", provider, failureCount),
		Source:      "recovery_manager",
		Tags: map[string]string{
			"provider": provider,
		},
	})
}

func (m *Manager) alertExhaustion(ctx context.Context, op Operation, lastErr error) {
	if m.alerts == nil {
		return
	}

	description := fmt.Sprintf("All recovery strategies exhausted for operation '%s'", op.Name)
	if lastErr != nil {
		description += ": " + lastErr.Error()
	}

	m.alerts.SendAlert(ctx, Alert{
		Severity:    SeverityCritical,
		Title:       "Recovery Strategies Exhausted",
		Description: description,
		Source:      "recovery_manager",
		Tags: map[string]string{
			"operation": op.Name,
			"provider":  op.Provider,
		},
	})
}
