package resilience

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/contextcraft/contextcraft/pkg/logging"
)

const (
	// emaSmoothing is the weight given to the newest latency sample
	emaSmoothing = 0.2
	// unhealthyAfter is the consecutive-failure count that marks a provider unhealthy
	unhealthyAfter = 3
)

// ProviderHealth holds the per-provider counters maintained by the tracker
type ProviderHealth struct {
	Provider            string        `json:"provider"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	TotalRequests       int           `json:"total_requests"`
	SuccessfulRequests  int           `json:"successful_requests"`
	LastSuccessAt       time.Time     `json:"last_success_at,omitempty"`
	LastFailureAt       time.Time     `json:"last_failure_at,omitempty"`
	AvgResponseTime     time.Duration `json:"avg_response_time"`
	Healthy             bool          `json:"healthy"`
}

// ProviderStatus combines health counters with derived values and the
// paired breaker state, for reporting
type ProviderStatus struct {
	ProviderHealth
	SuccessRate float64      `json:"success_rate"`
	Available   bool         `json:"available"`
	Breaker     BreakerState `json:"circuit_breaker"`
}

// OverallHealth summarizes the state of the whole provider fleet
type OverallHealth string

const (
	OverallHealthy  OverallHealth = "healthy"
	OverallDegraded OverallHealth = "degraded"
	OverallCritical OverallHealth = "critical"
	OverallUnknown  OverallHealth = "unknown"
)

// HealthReport is the full fleet snapshot returned by Report
type HealthReport struct {
	Providers    map[string]ProviderStatus `json:"providers"`
	Overall      OverallHealth             `json:"overall_health"`
	HealthyCount int                       `json:"healthy_count"`
	TotalCount   int                       `json:"total_count"`
}

type providerState struct {
	health  ProviderHealth
	breaker *CircuitBreaker
}

// HealthTracker maintains health counters and a circuit breaker per
// registered provider. All state is in-memory and guarded by a single lock;
// it lives for the lifetime of the process.
type HealthTracker struct {
	mutex     sync.Mutex
	providers map[string]*providerState

	threshold int
	cooldown  time.Duration

	logger *logging.Logger
	now    func() time.Time

	// onBreakerOpen fires outside the provider mutation but inside the
	// tracker lock, so handlers must not call back into the tracker
	onBreakerOpen func(provider string, failureCount int)
}

// NewHealthTracker creates a tracker whose breakers open after threshold
// failures and stay open for cooldown
func NewHealthTracker(threshold int, cooldown time.Duration) *HealthTracker {
	return &HealthTracker{
		providers: make(map[string]*providerState),
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logging.GetLogger(),
		now:       time.Now,
	}
}

// Register initializes a fresh health record and circuit breaker for the
// provider. Registering an existing provider replaces its prior stats;
// registration is expected once at startup.
func (t *HealthTracker) Register(provider string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.register(provider)
}

func (t *HealthTracker) register(provider string) *providerState {
	breaker := NewCircuitBreaker(provider, t.threshold, t.cooldown)
	breaker.now = func() time.Time { return t.now() }
	breaker.onStateChange = func(name string, open bool) {
		t.logger.Info("Circuit breaker state changed",
			"provider", name,
			"open", open,
		)
	}

	state := &providerState{
		health: ProviderHealth{
			Provider: provider,
			Healthy:  true,
		},
		breaker: breaker,
	}
	t.providers[provider] = state

	t.logger.Debug("Provider registered", "provider", provider)
	return state
}

func (t *HealthTracker) lookup(provider string) *providerState {
	if state, ok := t.providers[provider]; ok {
		return state
	}
	return t.register(provider)
}

// RecordSuccess records a successful call, resets the failure streak and
// the paired circuit breaker, and folds the latency sample into the
// exponential moving average.
func (t *HealthTracker) RecordSuccess(provider string, responseTime time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	state := t.lookup(provider)
	h := &state.health

	h.TotalRequests++
	h.SuccessfulRequests++
	h.ConsecutiveFailures = 0
	h.Healthy = true
	h.LastSuccessAt = t.now()

	if h.AvgResponseTime == 0 {
		h.AvgResponseTime = responseTime
	} else {
		avg := float64(h.AvgResponseTime)*(1-emaSmoothing) + float64(responseTime)*emaSmoothing
		h.AvgResponseTime = time.Duration(avg)
	}

	state.breaker.Reset()
}

// RecordFailure records a failed call, marks the provider unhealthy after
// three consecutive failures, and feeds the paired circuit breaker.
func (t *HealthTracker) RecordFailure(provider string, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	state := t.lookup(provider)
	h := &state.health

	h.TotalRequests++
	h.ConsecutiveFailures++
	h.LastFailureAt = t.now()

	if h.ConsecutiveFailures >= unhealthyAfter {
		h.Healthy = false
	}

	wasOpen := state.breaker.State().Open
	state.breaker.RecordFailure()
	breakerState := state.breaker.State()

	t.logger.Warn("Provider failure recorded",
		"provider", provider,
		"consecutive_failures", h.ConsecutiveFailures,
		"healthy", h.Healthy,
		"error", errString(err),
	)

	if !wasOpen && breakerState.Open && t.onBreakerOpen != nil {
		t.onBreakerOpen(provider, breakerState.FailureCount)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SuccessRate returns successfulRequests/totalRequests, or 0.0 when the
// provider has seen no requests
func (t *HealthTracker) SuccessRate(provider string) float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	state, ok := t.providers[provider]
	if !ok || state.health.TotalRequests == 0 {
		return 0.0
	}
	return float64(state.health.SuccessfulRequests) / float64(state.health.TotalRequests)
}

// IsAvailable reports whether calls may be routed to the provider.
// Unregistered providers are always available (fail open). An open breaker
// whose cooldown elapsed is lazily closed here.
func (t *HealthTracker) IsAvailable(provider string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	state, ok := t.providers[provider]
	if !ok {
		return true
	}
	return state.breaker.Allow()
}

// RankHealthy filters the candidates to providers that are both available
// and healthy, ordered by descending success rate then ascending average
// latency. Unknown providers rank as healthy with infinite latency, last.
func (t *HealthTracker) RankHealthy(candidates []string) []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	type ranked struct {
		provider string
		rate     float64
		latency  float64
	}

	eligible := make([]ranked, 0, len(candidates))
	for _, candidate := range candidates {
		state, ok := t.providers[candidate]
		if !ok {
			eligible = append(eligible, ranked{candidate, 0.0, math.Inf(1)})
			continue
		}
		if !state.breaker.Allow() || !state.health.Healthy {
			continue
		}

		rate := 0.0
		if state.health.TotalRequests > 0 {
			rate = float64(state.health.SuccessfulRequests) / float64(state.health.TotalRequests)
		}
		eligible = append(eligible, ranked{candidate, rate, float64(state.health.AvgResponseTime)})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].rate != eligible[j].rate {
			return eligible[i].rate > eligible[j].rate
		}
		return eligible[i].latency < eligible[j].latency
	})

	result := make([]string, len(eligible))
	for i, r := range eligible {
		result[i] = r.provider
	}
	return result
}

// Reset zeroes the provider's health record and breaker
func (t *HealthTracker) Reset(provider string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.register(provider)
}

// Report returns a snapshot of every registered provider plus the derived
// overall health: unknown with no providers, critical with none
// healthy-and-available, degraded when at most half are, healthy only when
// a strict majority is.
func (t *HealthTracker) Report() HealthReport {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	report := HealthReport{
		Providers:  make(map[string]ProviderStatus, len(t.providers)),
		TotalCount: len(t.providers),
	}

	for name, state := range t.providers {
		rate := 0.0
		if state.health.TotalRequests > 0 {
			rate = float64(state.health.SuccessfulRequests) / float64(state.health.TotalRequests)
		}

		available := state.breaker.Allow()
		if state.health.Healthy && available {
			report.HealthyCount++
		}

		report.Providers[name] = ProviderStatus{
			ProviderHealth: state.health,
			SuccessRate:    rate,
			Available:      available,
			Breaker:        state.breaker.State(),
		}
	}

	switch {
	case report.TotalCount == 0:
		report.Overall = OverallUnknown
	case report.HealthyCount == 0:
		report.Overall = OverallCritical
	case report.HealthyCount*2 <= report.TotalCount:
		report.Overall = OverallDegraded
	default:
		report.Overall = OverallHealthy
	}

	return report
}
