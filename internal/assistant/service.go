package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contextcraft/contextcraft/internal/providers"
	appErrors "github.com/contextcraft/contextcraft/pkg/errors"
	"github.com/contextcraft/contextcraft/pkg/logging"
	"github.com/contextcraft/contextcraft/pkg/resilience"
)

// Request is a business query for the assistant
type Request struct {
	Query    string `json:"query" binding:"required"`
	Industry string `json:"industry,omitempty"`
	// Provider optionally pins the primary provider for this request
	Provider string `json:"provider,omitempty"`
}

// Result is the assistant's answer plus recovery metadata
type Result struct {
	RequestID string        `json:"request_id"`
	Response  interface{}   `json:"response"`
	Degraded  bool          `json:"degraded"`
	Duration  time.Duration `json:"duration"`
}

// Service answers business queries through the error-recovery layer.
// Provider selection, retries, fallback routing, and degradation all
// happen inside the recovery manager; the service supplies the provider
// invocation and the fallback ordering.
type Service struct {
	registry  *providers.Registry
	manager   *resilience.Manager
	logger    *logging.Logger
	primary   string
	fallbacks []string
}

// NewService creates the assistant service. The configured providers are
// registered with the recovery manager up front so health reporting
// covers them before the first request arrives.
func NewService(registry *providers.Registry, manager *resilience.Manager, logger *logging.Logger, primary string, fallbacks []string) *Service {
	s := &Service{
		registry:  registry,
		manager:   manager,
		logger:    logger,
		primary:   primary,
		fallbacks: fallbacks,
	}

	manager.RegisterProvider(primary)
	for _, name := range fallbacks {
		manager.RegisterProvider(name)
	}

	return s
}

// Ask answers a query, recovering across providers as needed
func (s *Service) Ask(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, appErrors.NewValidationError("query is required")
	}

	requestID := uuid.New().String()
	ctx = logging.WithRequestID(ctx, requestID)
	start := time.Now()

	primary := s.primary
	fallbacks := s.fallbacks
	if req.Provider != "" {
		primary = req.Provider
		fallbacks = s.fallbacksExcluding(req.Provider)
	}

	op := resilience.Operation{
		Name:      "assistant.ask",
		Provider:  primary,
		Fallbacks: fallbacks,
		Query:     req.Query,
		Industry:  req.Industry,
		Args:      []interface{}{req.Query, req.Industry},
		Invoke: func(ctx context.Context, provider string) (interface{}, error) {
			client, ok := s.registry.Get(provider)
			if !ok {
				return nil, appErrors.NewConfigurationError("no client registered for provider " + provider)
			}
			return client.Complete(ctx, req.Query, req.Industry)
		},
	}

	response, err := s.manager.Execute(ctx, op)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("assistant request failed")
		return nil, err
	}

	degraded := false
	if dr, ok := response.(*resilience.DegradedResponse); ok {
		degraded = dr.Degraded
	}

	return &Result{
		RequestID: requestID,
		Response:  response,
		Degraded:  degraded,
		Duration:  time.Since(start),
	}, nil
}

// fallbacksExcluding returns the full provider chain minus the pinned
// primary, preserving configured order
func (s *Service) fallbacksExcluding(pinned string) []string {
	chain := make([]string, 0, len(s.fallbacks)+1)
	if s.primary != pinned {
		chain = append(chain, s.primary)
	}
	for _, name := range s.fallbacks {
		if name != pinned {
			chain = append(chain, name)
		}
	}
	return chain
}
