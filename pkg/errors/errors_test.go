package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewProviderError("openai", "request failed")
	assert.Equal(t, "provider: request failed", err.Error())
	assert.Equal(t, "openai", err.Provider)

	cause := errors.New("boom")
	wrapped := NewNetworkError("upstream unreachable").WithCause(cause)
	assert.Contains(t, wrapped.Error(), "upstream unreachable")
	assert.Contains(t, wrapped.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewContextError("context generation failed").
		WithContext("industry", "healthcare").
		WithContext("attempt", 2)

	assert.Equal(t, "healthcare", err.Context["industry"])
	assert.Equal(t, 2, err.Context["attempt"])
}

func TestKindDispatch(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"provider", NewProviderError("anthropic", "oops"), KindProvider},
		{"configuration", NewConfigurationError("missing key"), KindConfiguration},
		{"network", NewNetworkError("no route"), KindNetwork},
		{"validation", NewValidationError("bad input"), KindValidation},
		{"context", NewContextError("no context"), KindContext},
		{"foreign error", errors.New("plain"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, GetKind(tt.err))
			assert.True(t, IsKind(tt.err, tt.kind))
		})
	}
}

func TestWrapExternal(t *testing.T) {
	// Already-typed errors pass through unchanged
	typed := NewValidationError("bad")
	assert.Same(t, typed, WrapExternal("openai", typed))

	// Connection failures become network errors
	netErr := WrapExternal("openai", fmt.Errorf("dial tcp 10.0.0.1:443: i/o timeout"))
	assert.Equal(t, KindNetwork, netErr.Kind)

	// Everything else is attributed to the provider
	provErr := WrapExternal("openai", errors.New("status 500"))
	require.Equal(t, KindProvider, provErr.Kind)
	assert.Equal(t, "openai", provErr.Provider)

	assert.Nil(t, WrapExternal("openai", nil))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"rate limited", NewProviderError("openai", "Rate Limit exceeded"), "too many requests"},
		{"bad credentials", NewProviderError("openai", "invalid API key"), "credentials"},
		{"auth failure", NewProviderError("openai", "authentication failed"), "credentials"},
		{"slow provider", NewProviderError("openai", "request timeout after 30s"), "too long"},
		{"generic provider", NewProviderError("openai", "internal error"), "temporarily unavailable"},
		{"configuration", NewConfigurationError("missing key"), "not configured"},
		{"network", NewNetworkError("unreachable"), "trouble reaching"},
		{"validation", NewValidationError("empty query"), "check your input"},
		{"context", NewContextError("no profile"), "context"},
		{"foreign error", errors.New("whatever"), "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, UserMessage(tt.err), tt.contains)
		})
	}

	assert.Empty(t, UserMessage(nil))
}
