package ux

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions.
// Coded errors already carry their own suggestions and are returned as-is.
func EnhanceError(err error, layout *HomeLayout) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.As(err); ok && len(appErr.Suggestions) > 0 {
		return err
	}

	if api.IsNetwork(err) {
		return NewErrorWithSuggestion(err,
			"Check that the API is reachable (api.base_url), or start a local one with 'clientdesk mock-server'")
	}
	if api.IsUnauthorized(err) {
		return NewErrorWithSuggestion(err, "Sign in again with 'clientdesk login'")
	}
	if api.IsDecode(err) {
		return NewErrorWithSuggestion(err,
			"The server answered with an unexpected body. Check api.base_url, or disable checks with 'clientdesk config set api.validate_responses false'")
	}

	errMsg := err.Error()

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on the clientdesk home directory, or choose another with --home")
	}

	// Database errors
	if strings.Contains(errMsg, "database is locked") {
		return NewErrorWithSuggestion(err,
			"Another clientdesk process holds the token store. Close it and try again")
	}

	// Generic suggestion based on error type
	if strings.Contains(errMsg, "failed to") && layout != nil {
		return NewErrorWithSuggestion(err,
			fmt.Sprintf("Next steps: %s", layout.SuggestNextSteps()))
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string, layout *HomeLayout) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err, layout)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
