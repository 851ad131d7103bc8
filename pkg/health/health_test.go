package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextcraft/contextcraft/pkg/logging"
)

func staticChecker(name string, status Status, err error) Checker {
	return NewCustomChecker(name, func(ctx context.Context) (Status, string, error) {
		return status, string(status), err
	})
}

func TestService_CheckHealth(t *testing.T) {
	svc := NewService(logging.GetLogger())
	svc.RegisterChecker("a", staticChecker("a", StatusHealthy, nil))
	svc.RegisterChecker("b", staticChecker("b", StatusHealthy, nil))

	resp := svc.CheckHealth(context.Background())
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestService_CheckHealth_DegradedAndUnhealthy(t *testing.T) {
	svc := NewService(logging.GetLogger())
	svc.RegisterChecker("ok", staticChecker("ok", StatusHealthy, nil))
	svc.RegisterChecker("slow", staticChecker("slow", StatusDegraded, nil))

	resp := svc.CheckHealth(context.Background())
	assert.Equal(t, StatusDegraded, resp.Status)

	// An unhealthy check dominates a degraded one
	svc.RegisterChecker("down", staticChecker("down", StatusUnhealthy, errors.New("nope")))
	resp = svc.CheckHealth(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, "nope", resp.Checks["down"].Error)
}

func TestCustomChecker_ErrorForcesUnhealthy(t *testing.T) {
	checker := NewCustomChecker("x", func(ctx context.Context) (Status, string, error) {
		return StatusHealthy, "fine", errors.New("boom")
	})

	check := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "boom", check.Error)
}

func TestHandler_StatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		status   Status
		wantCode int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusPartialContent},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(logging.GetLogger())
			svc.RegisterChecker("c", staticChecker("c", tt.status, nil))

			router := gin.New()
			router.GET("/health", svc.Handler())
			router.GET("/health/ready", svc.ReadinessHandler())

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := NewService(logging.GetLogger())
	svc.RegisterChecker("down", staticChecker("down", StatusUnhealthy, nil))

	router := gin.New()
	router.GET("/health/ready", svc.ReadinessHandler())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"ready":false`)
}
