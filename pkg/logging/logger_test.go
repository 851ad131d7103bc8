package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()

	logger, err := NewLogger(&Config{
		Level:       "debug",
		Format:      "json",
		Output:      "stdout",
		ServiceName: "contextcraft-test",
		Version:     "test",
	})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return logger, buf
}

func parseLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, err := NewLogger(&Config{Level: "nope", Format: "json", Output: "stdout"})
	assert.Error(t, err)

	_, err = NewLogger(&Config{Level: "info", Format: "xml", Output: "stdout"})
	assert.Error(t, err)
}

func TestLogger_KeyValuePairs(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Info("provider registered", "provider", "openai", "threshold", 5)

	entry := parseLogLine(t, buf)
	assert.Equal(t, "provider registered", entry["message"])
	assert.Equal(t, "openai", entry["provider"])
	assert.Equal(t, float64(5), entry["threshold"])
	assert.Equal(t, "contextcraft-test", entry["service"])
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newTestLogger(t)

	ctx := WithCorrelationID(context.Background(), "abc-123")
	logger.WithContext(ctx).Info("hello")

	entry := parseLogLine(t, buf)
	assert.Equal(t, "abc-123", entry["correlation_id"])
	assert.Equal(t, "abc-123", GetCorrelationID(ctx))
}

func TestLogger_LogProviderEvent(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.LogProviderEvent(context.Background(), "request_succeeded", "anthropic",
		125*time.Millisecond, logrus.Fields{"attempts": 2})

	entry := parseLogLine(t, buf)
	assert.Equal(t, "request_succeeded", entry["event"])
	assert.Equal(t, "anthropic", entry["provider"])
	assert.Equal(t, float64(125), entry["duration_ms"])
	assert.Equal(t, float64(2), entry["attempts"])
}

func TestLogger_LogRecoveryEvent(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.LogRecoveryEvent(context.Background(), "fallback_used", "generate_response",
		logrus.Fields{"from": "openai", "to": "anthropic"})

	entry := parseLogLine(t, buf)
	assert.Equal(t, "fallback_used", entry["event"])
	assert.Equal(t, "generate_response", entry["operation"])
	assert.Equal(t, "anthropic", entry["to"])
}

func TestNewCorrelationID_Unique(t *testing.T) {
	assert.NotEqual(t, NewCorrelationID(), NewCorrelationID())
}
