// Package resilience provides the error-recovery layer that wraps calls to
// external AI providers: per-provider health tracking, circuit breakers,
// retry with exponential backoff, multi-provider fallback chains, response
// caching, and graceful degradation.
//
// # Circuit Breaker Pattern
//
// Each provider gets a circuit breaker that opens after repeated failures
// and closes again lazily once the cooldown has elapsed. There is no
// half-open probe: the first availability check after the cooldown resets
// the breaker and the next call proceeds normally.
//
// # Retry with Exponential Backoff
//
// The retry mechanism automatically retries failed operations with
// exponential backoff and jitter. The final error is returned unchanged so
// callers can distinguish "gave up" from "recovered".
//
//	retrier := resilience.NewRetrier(resilience.DefaultRetryConfig())
//	err := retrier.Execute(ctx, func(ctx context.Context) error {
//		return riskyOperation(ctx)
//	})
//
// # Recovery Orchestration
//
// The Manager composes the pieces: it tries the primary provider through the
// retry engine, falls back to healthy alternates ranked by performance, then
// to a cached response, and finally to a degraded static response.
//
//	mgr := resilience.NewManager(resilience.DefaultRecoveryConfig())
//	mgr.RegisterProvider("openai")
//	mgr.RegisterProvider("anthropic")
//
//	result, err := mgr.Execute(ctx, resilience.Operation{
//		Name:      "generate_response",
//		Provider:  "openai",
//		Fallbacks: []string{"anthropic"},
//		Query:     query,
//		Industry:  industry,
//		Invoke: func(ctx context.Context, provider string) (interface{}, error) {
//			return clients[provider].Generate(ctx, query, industry)
//		},
//	})
//
// # Error Alerting
//
// The alerting system routes alerts raised on breaker trips, unhealthy
// providers, and total strategy exhaustion.
//
//	am := resilience.NewAlertManager()
//	am.AddHandler(resilience.NewLoggingAlertHandler())
//
// All components are safe for concurrent use. Health state and the response
// cache live in process memory only.
package resilience
