package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error into the closed taxonomy the handlers and
// provider boundaries switch on. Downstream code branches on Kind, never
// on provider message text.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConfiguration      Kind = "configuration"
	KindProviderAuth       Kind = "provider_auth"
	KindProviderPermission Kind = "provider_permission"
	KindProviderRequest    Kind = "provider_request"
	KindTransientNetwork   Kind = "transient_network"
	KindPersistence        Kind = "persistence"
	KindInternal           Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindInternal,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewConfigurationError marks a feature as unavailable because a required
// credential or setting is absent. Reported as 503, never retried.
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindConfiguration,
		Message: message,
	}
}

// NewProviderAuthError wraps an expired or invalid provider credential.
// The provider message is surfaced verbatim so the operator can remediate.
func NewProviderAuthError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindProviderAuth,
		Message: message,
	}
}

// NewProviderPermissionError wraps an insufficient-access rejection from a
// provider. The message should point at the specific grant to fix.
func NewProviderPermissionError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindProviderPermission,
		Message: message,
	}
}

// NewProviderRequestError wraps a malformed-payload rejection from a provider.
func NewProviderRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindProviderRequest,
		Message: message,
	}
}

// NewTransientNetworkError wraps a timeout or connection failure. Safe to
// retry at a higher layer; never auto-retried here.
func NewTransientNetworkError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindTransientNetwork,
		Message: message,
	}
}

// NewPersistenceError wraps a database failure. Fatal for the whole checkout.
func NewPersistenceError(message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}
