// Package apperrors defines the application error taxonomy and the logging
// and HTTP mapping built on it. Every error that reaches a client passes
// through this package so no two code paths format failures differently.
package apperrors

import (
	"fmt"
	"net/http"
)

// Severity ranks how loudly an error should be reported.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Category classifies the failure domain.
type Category string

const (
	CategoryValidation     Category = "VALIDATION"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryAuthorization  Category = "AUTHORIZATION"
	CategoryNotFound       Category = "NOT_FOUND"
	CategoryConflict       Category = "CONFLICT"
	CategoryDatabase       Category = "DATABASE"
	CategoryExternalAPI    Category = "EXTERNAL_API"
	CategoryRateLimit      Category = "RATE_LIMIT"
	CategorySystem         Category = "SYSTEM"
)

// AppError is a classified application error. Operational errors are
// expected user-facing failures whose Message is safe to return; everything
// else is surfaced generically.
type AppError struct {
	Message     string
	Code        string
	StatusCode  int
	Severity    Severity
	Category    Category
	Operational bool

	// Context carries error-kind-specific detail, kept as flat string
	// pairs so log serialization never meets an unserializable value.
	Context   map[string]string
	UserID    string
	RequestID string

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

// WithContext attaches one context pair and returns the error for chaining.
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithUser records the acting user.
func (e *AppError) WithUser(userID string) *AppError {
	e.UserID = userID
	return e
}

// WithRequest records the request id.
func (e *AppError) WithRequest(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// Preset constructors. Each fixes the status code, severity, category and
// operational flag for one error kind.

func NewValidation(message string) *AppError {
	return &AppError{
		Message:     message,
		Code:        "VALIDATION_ERROR",
		StatusCode:  http.StatusBadRequest,
		Severity:    SeverityLow,
		Category:    CategoryValidation,
		Operational: true,
	}
}

func NewAuthentication(message string) *AppError {
	return &AppError{
		Message:     message,
		Code:        "AUTHENTICATION_ERROR",
		StatusCode:  http.StatusUnauthorized,
		Severity:    SeverityMedium,
		Category:    CategoryAuthentication,
		Operational: true,
	}
}

func NewAuthorization(message string) *AppError {
	return &AppError{
		Message:     message,
		Code:        "AUTHORIZATION_ERROR",
		StatusCode:  http.StatusForbidden,
		Severity:    SeverityMedium,
		Category:    CategoryAuthorization,
		Operational: true,
	}
}

func NewNotFound(resource string) *AppError {
	return &AppError{
		Message:     resource + " not found",
		Code:        "NOT_FOUND",
		StatusCode:  http.StatusNotFound,
		Severity:    SeverityLow,
		Category:    CategoryNotFound,
		Operational: true,
	}
}

func NewConflict(message string) *AppError {
	return &AppError{
		Message:     message,
		Code:        "CONFLICT",
		StatusCode:  http.StatusConflict,
		Severity:    SeverityMedium,
		Category:    CategoryConflict,
		Operational: true,
	}
}

func NewRateLimit(message string) *AppError {
	return &AppError{
		Message:     message,
		Code:        "RATE_LIMIT_EXCEEDED",
		StatusCode:  http.StatusTooManyRequests,
		Severity:    SeverityMedium,
		Category:    CategoryRateLimit,
		Operational: true,
	}
}

// NewDatabase wraps a storage failure. Not operational: the driver message
// never reaches a client.
func NewDatabase(message string, cause error) *AppError {
	return &AppError{
		Message:     message,
		Code:        "DATABASE_ERROR",
		StatusCode:  http.StatusInternalServerError,
		Severity:    SeverityHigh,
		Category:    CategoryDatabase,
		Operational: false,
		cause:       cause,
	}
}

// NewExternalAPI wraps an upstream dependency failure (payment gateway,
// email provider).
func NewExternalAPI(message string, cause error) *AppError {
	return &AppError{
		Message:     message,
		Code:        "EXTERNAL_API_ERROR",
		StatusCode:  http.StatusBadGateway,
		Severity:    SeverityHigh,
		Category:    CategoryExternalAPI,
		Operational: false,
		cause:       cause,
	}
}
