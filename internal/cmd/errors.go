package cmd

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
)

// ErrorWithSuggestion wraps an error with actionable recovery suggestions
type ErrorWithSuggestion struct {
	Message     string
	Suggestions []string
	err         error
}

func (e *ErrorWithSuggestion) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}

	if e.err != nil {
		b.WriteString("\n\nDetails: ")
		b.WriteString(e.err.Error())
	}

	return b.String()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.err
}

// NewErrorWithSuggestions creates an error with recovery suggestions
func NewErrorWithSuggestions(msg string, err error, suggestions ...string) error {
	return &ErrorWithSuggestion{
		Message:     msg,
		Suggestions: suggestions,
		err:         err,
	}
}

// ValidationError creates a helpful error for a flag value outside its set.
func ValidationError(field string, value interface{}, validValues string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("invalid argument for %s: %v", field, value),
		nil,
		fmt.Sprintf("Valid values: %s", validValues),
		"Run with --help to see all available options",
	)
}

// NotInteractiveError is returned when a command needs a terminal it does
// not have.
func NotInteractiveError(what string, alternatives ...string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("%s needs an interactive terminal", what),
		nil,
		alternatives...,
	)
}

// MissingCredentialsError is returned by login when prompting is not
// possible and a flag is missing.
func MissingCredentialsError() error {
	return NewErrorWithSuggestions(
		"invalid argument: e-mail and password are required",
		nil,
		"Pass --email and --password-stdin, e.g. echo \"$PASSWORD\" | clientdesk login --email you@example.com --password-stdin",
		"Run 'clientdesk login' in a terminal to be prompted",
	)
}

// LogFileNotFoundError is returned by logs before anything was written.
func LogFileNotFoundError(path string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("no log file at %s", path),
		nil,
		"The terminal app writes it; run 'clientdesk ui' first",
		"Check logging.enable_file: clientdesk config get logging.enable_file",
	)
}

// apiError tags a failed fetch with its API error code. Errors that
// already carry a code pass through.
func apiError(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch api.Kind(err) {
	case "network":
		return apperrors.NewAPIError(apperrors.ErrCodeAPINetwork, err)
	case "decode":
		return apperrors.NewAPIError(apperrors.ErrCodeAPIDecode, err)
	case "status":
		return apperrors.NewAPIError(apperrors.ErrCodeAPIStatus, err)
	}
	return err
}
