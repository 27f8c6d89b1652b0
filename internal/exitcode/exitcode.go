package exitcode

import (
	"errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/session"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates rejected input, such as a malformed e-mail
	ValidationError = 3

	// DataError indicates an unusable server response or local file
	DataError = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the user cancelled with Ctrl+C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Typed errors anywhere in the chain win over message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code, ok := fromTyped(err); ok {
		return code
	}

	errMsg := strings.ToLower(err.Error())

	// Authentication errors
	if strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}
	if strings.Contains(errMsg, "forbidden") || strings.Contains(errMsg, "not logged in") {
		return AuthError
	}
	if strings.Contains(errMsg, "expired token") || strings.Contains(errMsg, "invalid credentials") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection refused") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}
	if strings.Contains(errMsg, "no such host") || strings.Contains(errMsg, "no route to host") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}
	if strings.Contains(errMsg, "invalid argument") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

func fromTyped(err error) (int, bool) {
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return NetworkError, true
	}

	var unauthErr *api.UnauthorizedError
	if errors.As(err, &unauthErr) {
		return AuthError, true
	}

	var decodeErr *api.DecodeError
	if errors.As(err, &decodeErr) {
		return DataError, true
	}

	var validationErr *session.ValidationError
	if errors.As(err, &validationErr) {
		return ValidationError, true
	}

	if appErr, ok := apperrors.As(err); ok {
		switch appErr.Code {
		case apperrors.ErrCodeAuthValidation:
			return ValidationError, true
		case apperrors.ErrCodeConfigUnknownKey, apperrors.ErrCodeConfigInvalid:
			return UsageError, true
		case apperrors.ErrCodeAPIDecode, apperrors.ErrCodeStoreRead, apperrors.ErrCodeConfigLoad:
			return DataError, true
		case apperrors.ErrCodeAPINetwork:
			return NetworkError, true
		}
		if appErr.Code.Family() == "AUTH" {
			return AuthError, true
		}
		return GeneralError, true
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return GeneralError, true
	}

	return 0, false
}
