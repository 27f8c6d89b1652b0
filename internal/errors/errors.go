package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication and session errors (AUTH-001 to AUTH-099)
	ErrCodeAuthValidation   ErrorCode = "AUTH-001"
	ErrCodeAuthRejected     ErrorCode = "AUTH-002"
	ErrCodeAuthNoSession    ErrorCode = "AUTH-003"
	ErrCodeAuthSessionEnded ErrorCode = "AUTH-004"

	// API transport errors (API-001 to API-099)
	ErrCodeAPINetwork ErrorCode = "API-001"
	ErrCodeAPIStatus  ErrorCode = "API-002"
	ErrCodeAPIDecode  ErrorCode = "API-003"

	// Token store errors (STORE-001 to STORE-099)
	ErrCodeStoreRead  ErrorCode = "STORE-001"
	ErrCodeStoreWrite ErrorCode = "STORE-002"
	ErrCodeStoreClear ErrorCode = "STORE-003"
	ErrCodeStoreOpen  ErrorCode = "STORE-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigLoad       ErrorCode = "CONFIG-001"
	ErrCodeConfigSave       ErrorCode = "CONFIG-002"
	ErrCodeConfigUnknownKey ErrorCode = "CONFIG-003"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG-004"
)

// AppError represents an enhanced error with a code and suggestions
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Family returns the code prefix, e.g. "AUTH" for "AUTH-003".
func (c ErrorCode) Family() string {
	family, _, _ := strings.Cut(string(c), "-")
	return family
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Common error constructors for frequently used errors

// NewNoSessionError is returned when a gated operation runs without a token.
func NewNoSessionError() *AppError {
	return New(ErrCodeAuthNoSession, "not logged in").
		WithSuggestion("Run 'clientdesk login' to authenticate").
		WithSuggestion("Or start the interactive app with 'clientdesk ui'")
}

// NewSessionEndedError is returned after the server rejected the stored token.
func NewSessionEndedError(cause error) *AppError {
	return Wrap(ErrCodeAuthSessionEnded, "session is no longer valid and was cleared", cause).
		WithSuggestion("Run 'clientdesk login' to sign in again")
}

// NewCredentialsInvalidError wraps login input rejected before any request
// was sent.
func NewCredentialsInvalidError(cause error) *AppError {
	return Wrap(ErrCodeAuthValidation, "login input rejected", cause).
		WithSuggestion("Check the e-mail address and password, then try again")
}

// NewLoginRejectedError wraps a failed token exchange.
func NewLoginRejectedError(email string, cause error) *AppError {
	return Wrap(ErrCodeAuthRejected, fmt.Sprintf("login failed for %s", email), cause).
		WithSuggestion("Check your e-mail and password").
		WithSuggestion("Verify the API URL with 'clientdesk config get api.base_url'")
}

// NewStoreError wraps a token store failure.
func NewStoreError(code ErrorCode, path string, cause error) *AppError {
	return Wrap(code, fmt.Sprintf("token store %s", path), cause).
		WithSuggestion("Check permissions on the clientdesk home directory").
		WithSuggestion(fmt.Sprintf("Remove %s to start over, then run 'clientdesk login'", path))
}

// NewAPIError wraps a failed request to the clients API. Codes outside the
// API family are treated as ErrCodeAPIStatus.
func NewAPIError(code ErrorCode, cause error) *AppError {
	switch code {
	case ErrCodeAPINetwork:
		return Wrap(code, "clients API unreachable", cause).
			WithSuggestion("Check api.base_url, or start a local API with 'clientdesk mock-server'")
	case ErrCodeAPIDecode:
		return Wrap(code, "unexpected response from the clients API", cause).
			WithSuggestion("Check api.base_url, or disable checks with 'clientdesk config set api.validate_responses false'")
	default:
		return Wrap(ErrCodeAPIStatus, "clients API request failed", cause).
			WithSuggestion("Retry later, or check the API server logs")
	}
}

// NewConfigUnknownKeyError creates an unknown configuration key error
func NewConfigUnknownKeyError(key string, known []string) *AppError {
	return New(ErrCodeConfigUnknownKey, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion(fmt.Sprintf("Valid keys: %s", strings.Join(known, ", ")))
}

// NewConfigLoadError creates a configuration parse error
func NewConfigLoadError(path string, cause error) *AppError {
	return Wrap(ErrCodeConfigLoad, fmt.Sprintf("failed to load configuration: %s", path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion("Show the effective configuration with 'clientdesk config view'")
}
