package errors

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the failure categories raised by provider-facing code.
// The kind is decided at the throw site, never reconstructed from message text.
type Kind string

const (
	KindProvider      Kind = "provider"
	KindConfiguration Kind = "configuration"
	KindNetwork       Kind = "network"
	KindValidation    Kind = "validation"
	KindContext       Kind = "context"
	KindUnknown       Kind = "unknown"
)

// AppError represents an application error with structured context
type AppError struct {
	Kind      Kind                   `json:"kind"`
	Message   string                 `json:"message"`
	Provider  string                 `json:"provider,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new application error with the given kind
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithCause attaches the underlying cause to the error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithContext adds a structured context entry to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Constructors per kind

func NewProviderError(provider, message string) *AppError {
	err := New(KindProvider, message)
	err.Provider = provider
	return err
}

func NewConfigurationError(message string) *AppError {
	return New(KindConfiguration, message)
}

func NewNetworkError(message string) *AppError {
	return New(KindNetwork, message)
}

func NewValidationError(message string) *AppError {
	return New(KindValidation, message)
}

func NewContextError(message string) *AppError {
	return New(KindContext, message)
}

// WrapExternal wraps an opaque third-party error at the provider boundary.
// This is the only place where message sniffing is acceptable: the upstream
// SDKs do not expose typed errors, so the kind is inferred from the text.
func WrapExternal(provider string, err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection") || strings.Contains(msg, "dial") {
		return NewNetworkError(err.Error()).WithCause(err).WithContext("provider", provider)
	}
	return NewProviderError(provider, err.Error()).WithCause(err)
}

// GetKind returns the error kind, or KindUnknown for foreign errors
func GetKind(err error) Kind {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind checks if the error is of a specific kind
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// User-facing message templates. Each kind maps to exactly one template;
// provider errors get a more specific sub-message for the common upstream
// failure modes.
const (
	msgProvider      = "The AI service is temporarily unavailable. Please try again in a moment."
	msgProviderRate  = "The AI service is receiving too many requests. Please wait a moment and try again."
	msgProviderAuth  = "The AI service rejected our credentials. Please contact support if this persists."
	msgProviderSlow  = "The AI service took too long to respond. Please try again."
	msgConfiguration = "The application is not configured correctly. Please contact support."
	msgNetwork       = "We're having trouble reaching the AI service. Please check your connection and try again."
	msgValidation    = "The request could not be processed. Please check your input and try again."
	msgContext       = "We couldn't prepare the context for your request. Please try again."
	msgUnknown       = "An unexpected error occurred. Please try again."
)

// UserMessage maps an error deterministically to a user-facing message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return msgUnknown
	}

	switch appErr.Kind {
	case KindProvider:
		msg := strings.ToLower(appErr.Message)
		switch {
		case strings.Contains(msg, "rate limit"):
			return msgProviderRate
		case strings.Contains(msg, "authentication") || strings.Contains(msg, "api key"):
			return msgProviderAuth
		case strings.Contains(msg, "timeout"):
			return msgProviderSlow
		default:
			return msgProvider
		}
	case KindConfiguration:
		return msgConfiguration
	case KindNetwork:
		return msgNetwork
	case KindValidation:
		return msgValidation
	case KindContext:
		return msgContext
	default:
		return msgUnknown
	}
}
