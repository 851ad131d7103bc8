package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextcraft/contextcraft/internal/providers"
	appErrors "github.com/contextcraft/contextcraft/pkg/errors"
	"github.com/contextcraft/contextcraft/pkg/logging"
	"github.com/contextcraft/contextcraft/pkg/resilience"
)

func newTestService(t *testing.T, clients ...*providers.SimulatedClient) (*Service, *resilience.Manager) {
	t.Helper()

	registry := providers.NewRegistry()
	names := make([]string, 0, len(clients))
	for _, client := range clients {
		registry.Add(client)
		names = append(names, client.Name())
	}

	config := resilience.DefaultRecoveryConfig()
	config.MaxRetries = 0
	config.BaseDelay = time.Millisecond
	manager := resilience.NewManager(config)

	svc := NewService(registry, manager, logging.GetLogger(), names[0], names[1:])
	return svc, manager
}

func TestService_Ask(t *testing.T) {
	openai := providers.NewSimulatedClient("openai", providers.SimulatedConfig{})
	svc, _ := newTestService(t, openai)

	result, err := svc.Ask(context.Background(), Request{Query: "expansion plan", Industry: "Logistics"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RequestID)
	assert.False(t, result.Degraded)

	resp, ok := result.Response.(*providers.Response)
	require.True(t, ok)
	assert.Equal(t, "openai", resp.Provider)
}

func TestService_Ask_EmptyQuery(t *testing.T) {
	svc, _ := newTestService(t, providers.NewSimulatedClient("openai", providers.SimulatedConfig{}))

	_, err := svc.Ask(context.Background(), Request{Query: "   "})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestService_Ask_FallsBack(t *testing.T) {
	openai := providers.NewSimulatedClient("openai", providers.SimulatedConfig{})
	anthropic := providers.NewSimulatedClient("anthropic", providers.SimulatedConfig{})
	openai.SetForceFailure(true)

	svc, manager := newTestService(t, openai, anthropic)

	result, err := svc.Ask(context.Background(), Request{Query: "q"})
	require.NoError(t, err)

	resp, ok := result.Response.(*providers.Response)
	require.True(t, ok)
	assert.Equal(t, "anthropic", resp.Provider)

	report := manager.GetHealthReport()
	assert.Equal(t, 1, report.Providers["openai"].TotalRequests)
	assert.Equal(t, 0, report.Providers["openai"].SuccessfulRequests)
	assert.Equal(t, 1, report.Providers["anthropic"].SuccessfulRequests)
}

func TestService_Ask_DegradedWhenAllProvidersFail(t *testing.T) {
	openai := providers.NewSimulatedClient("openai", providers.SimulatedConfig{})
	anthropic := providers.NewSimulatedClient("anthropic", providers.SimulatedConfig{})
	openai.SetForceFailure(true)
	anthropic.SetForceFailure(true)

	svc, _ := newTestService(t, openai, anthropic)

	result, err := svc.Ask(context.Background(), Request{Query: "forecast", Industry: "Energy"})
	require.NoError(t, err)
	assert.True(t, result.Degraded)

	dr, ok := result.Response.(*resilience.DegradedResponse)
	require.True(t, ok)
	assert.Equal(t, "forecast", dr.Query)
	assert.Equal(t, "Energy", dr.Industry)
}

func TestService_Ask_PinnedProvider(t *testing.T) {
	openai := providers.NewSimulatedClient("openai", providers.SimulatedConfig{})
	anthropic := providers.NewSimulatedClient("anthropic", providers.SimulatedConfig{})

	svc, _ := newTestService(t, openai, anthropic)

	result, err := svc.Ask(context.Background(), Request{Query: "q", Provider: "anthropic"})
	require.NoError(t, err)

	resp, ok := result.Response.(*providers.Response)
	require.True(t, ok)
	assert.Equal(t, "anthropic", resp.Provider)
}

func TestService_Ask_UnknownPinnedProviderFallsBack(t *testing.T) {
	openai := providers.NewSimulatedClient("openai", providers.SimulatedConfig{})

	svc, _ := newTestService(t, openai)

	// The pinned provider has no client, so the configured chain takes over
	result, err := svc.Ask(context.Background(), Request{Query: "q", Provider: "mistral"})
	require.NoError(t, err)

	resp, ok := result.Response.(*providers.Response)
	require.True(t, ok)
	assert.Equal(t, "openai", resp.Provider)
}
