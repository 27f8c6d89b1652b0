package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError reports a transport failure: DNS, refused connection,
// timeout or a cancelled context. No HTTP status was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnauthorizedError is returned for 401 and 403 responses.
type UnauthorizedError struct {
	StatusCode int
	Detail     string
}

func (e *UnauthorizedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unauthorized (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("unauthorized (%d)", e.StatusCode)
}

// StatusError is any other non-2xx response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// DecodeError means the server answered 2xx but the body was unusable.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err carries an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

// IsNetwork reports whether err carries a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsDecode reports whether err carries a DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// Kind names the class of a fetch failure: "unauthorized", "network",
// "decode", "status" or "other".
func Kind(err error) string {
	var status *StatusError
	switch {
	case IsUnauthorized(err):
		return "unauthorized"
	case IsNetwork(err):
		return "network"
	case IsDecode(err):
		return "decode"
	case errors.As(err, &status):
		return "status"
	default:
		return "other"
	}
}

func statusError(code int, body []byte) error {
	detail := errorDetail(body)
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return &UnauthorizedError{StatusCode: code, Detail: detail}
	}
	return &StatusError{StatusCode: code, Detail: detail}
}

// errorResponse covers FastAPI ({"detail": ...}) and the common
// {"error": ...} / {"message": ...} envelopes.
type errorResponse struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func errorDetail(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return strings.TrimSpace(truncate(string(body), 200))
	}

	if len(resp.Detail) > 0 {
		var s string
		if err := json.Unmarshal(resp.Detail, &s); err == nil {
			return s
		}
		// 422 validation errors arrive as a list of {loc, msg, type}.
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(resp.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if resp.Error != "" {
		return resp.Error
	}
	return resp.Message
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
