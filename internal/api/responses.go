package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/contextcraft/contextcraft/pkg/errors"
	"github.com/contextcraft/contextcraft/pkg/resilience"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents an API error
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func requestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    "BAD_REQUEST",
			Message: message,
		},
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    "NOT_FOUND",
			Message: message,
		},
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// ErrorResponseFromError sends an error response based on the error kind.
// The body carries the user-safe message, never the raw provider error.
func ErrorResponseFromError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	if resilience.IsCircuitBreakerError(err) {
		statusCode = http.StatusServiceUnavailable
		code = "PROVIDER_UNAVAILABLE"
	} else {
		switch appErrors.GetKind(err) {
		case appErrors.KindValidation:
			statusCode = http.StatusBadRequest
			code = "VALIDATION_ERROR"
		case appErrors.KindProvider:
			statusCode = http.StatusBadGateway
			code = "PROVIDER_ERROR"
		case appErrors.KindNetwork:
			statusCode = http.StatusBadGateway
			code = "NETWORK_ERROR"
		case appErrors.KindContext:
			statusCode = http.StatusRequestTimeout
			code = "REQUEST_CANCELLED"
		case appErrors.KindConfiguration:
			statusCode = http.StatusInternalServerError
			code = "CONFIGURATION_ERROR"
		}
	}

	apiError := &APIError{
		Code:    code,
		Message: appErrors.UserMessage(err),
	}

	var appErr *appErrors.AppError
	if stderrors.As(err, &appErr) && len(appErr.Context) > 0 {
		apiError.Details = appErr.Context
	}

	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}
