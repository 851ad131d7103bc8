package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/contextcraft/contextcraft/pkg/errors"
)

func TestSimulatedClient_Complete(t *testing.T) {
	client := NewSimulatedClient("openai", SimulatedConfig{})

	resp, err := client.Complete(context.Background(), "pricing strategy", "Retail")
	require.NoError(t, err)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "pricing strategy", resp.Query)
	assert.Equal(t, "Retail", resp.Industry)
	assert.Contains(t, resp.Content, "retail")
}

func TestSimulatedClient_ForceFailure(t *testing.T) {
	client := NewSimulatedClient("openai", SimulatedConfig{})
	client.SetForceFailure(true)

	_, err := client.Complete(context.Background(), "q", "")
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.KindProvider))

	client.SetForceFailure(false)
	_, err = client.Complete(context.Background(), "q", "")
	assert.NoError(t, err)

	requests, failures := client.Stats()
	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, failures)
}

func TestSimulatedClient_FailureRate(t *testing.T) {
	client := NewSimulatedClient("flaky", SimulatedConfig{FailureRate: 0.2})

	var failures int
	for i := 0; i < 100; i++ {
		if _, err := client.Complete(context.Background(), "q", ""); err != nil {
			failures++
		}
	}
	// Failure decisions key off the request counter, so exactly 20 of
	// 100 requests fail.
	assert.Equal(t, 20, failures)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Add(NewSimulatedClient("openai", SimulatedConfig{}))
	registry.Add(NewSimulatedClient("anthropic", SimulatedConfig{}))

	client, ok := registry.Get("openai")
	require.True(t, ok)
	assert.Equal(t, "openai", client.Name())

	_, ok = registry.Get("missing")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"openai", "anthropic"}, registry.Names())
}
