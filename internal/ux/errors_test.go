package ux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
)

func TestNewErrorWithSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		suggestion string
		wantNil    bool
	}{
		{
			name:       "nil error returns nil",
			err:        nil,
			suggestion: "some suggestion",
			wantNil:    true,
		},
		{
			name:       "error with suggestion",
			err:        errors.New("something failed"),
			suggestion: "try this fix",
			wantNil:    false,
		},
		{
			name:       "error without suggestion",
			err:        errors.New("something failed"),
			suggestion: "",
			wantNil:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewErrorWithSuggestion(tt.err, tt.suggestion)
			if tt.wantNil {
				if result != nil {
					t.Errorf("NewErrorWithSuggestion() = %v, want nil", result)
				}
				return
			}

			if result == nil {
				t.Fatal("NewErrorWithSuggestion() returned nil, want error")
			}

			errMsg := result.Error()
			if !strings.Contains(errMsg, tt.err.Error()) {
				t.Errorf("Error message %q does not contain original error %q", errMsg, tt.err.Error())
			}

			if tt.suggestion != "" && !strings.Contains(errMsg, tt.suggestion) {
				t.Errorf("Error message %q does not contain suggestion %q", errMsg, tt.suggestion)
			}
		})
	}
}

func TestErrorWithSuggestion_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		suggestion string
		wantMsg    string
	}{
		{
			name:       "with suggestion",
			err:        errors.New("test error"),
			suggestion: "do this",
			wantMsg:    "test error\n\n💡 Suggestion: do this",
		},
		{
			name:       "without suggestion",
			err:        errors.New("test error"),
			suggestion: "",
			wantMsg:    "test error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ErrorWithSuggestion{
				Err:        tt.err,
				Suggestion: tt.suggestion,
			}

			if e.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", e.Error(), tt.wantMsg)
			}
		})
	}
}

func TestErrorWithSuggestion_Unwrap(t *testing.T) {
	origErr := errors.New("original error")
	e := &ErrorWithSuggestion{
		Err:        origErr,
		Suggestion: "some suggestion",
	}

	unwrapped := e.Unwrap()
	if unwrapped != origErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, origErr)
	}
}

func TestEnhanceError(t *testing.T) {
	layout := NewHomeLayout(t.TempDir())

	tests := []struct {
		name           string
		err            error
		wantNil        bool
		wantSuggestion string
	}{
		{
			name:    "nil error returns nil",
			err:     nil,
			wantNil: true,
		},
		{
			name:           "network error",
			err:            &api.NetworkError{Method: "GET", URL: "http://localhost:8000/client", Err: errors.New("connection refused")},
			wantSuggestion: "clientdesk mock-server",
		},
		{
			name:           "wrapped unauthorized",
			err:            fmt.Errorf("listing clients: %w", &api.UnauthorizedError{StatusCode: 401}),
			wantSuggestion: "clientdesk login",
		},
		{
			name:           "decode error",
			err:            &api.DecodeError{Err: errors.New("unexpected EOF")},
			wantSuggestion: "api.validate_responses",
		},
		{
			name:           "permission denied",
			err:            errors.New("open /home/ana/.clientdesk/credentials.json: permission denied"),
			wantSuggestion: "--home",
		},
		{
			name:           "sqlite lock",
			err:            errors.New("upsert access_token: database is locked"),
			wantSuggestion: "Close it",
		},
		{
			name:           "generic failure gets next steps",
			err:            errors.New("failed to do something"),
			wantSuggestion: "api.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EnhanceError(tt.err, layout)
			if tt.wantNil {
				if result != nil {
					t.Errorf("EnhanceError() = %v, want nil", result)
				}
				return
			}

			if !strings.Contains(result.Error(), tt.wantSuggestion) {
				t.Errorf("EnhanceError() = %q, want suggestion containing %q", result.Error(), tt.wantSuggestion)
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("EnhanceError() lost the original error")
			}
		})
	}
}

func TestEnhanceError_KeepsCodedSuggestions(t *testing.T) {
	err := apperrors.NewNoSessionError()

	if got := EnhanceError(err, nil); got != error(err) {
		t.Errorf("EnhanceError() = %v, want the coded error unchanged", got)
	}
}

func TestEnhanceError_UnknownPassesThrough(t *testing.T) {
	err := errors.New("something odd")

	if got := EnhanceError(err, nil); got != err {
		t.Errorf("EnhanceError() = %v, want unchanged", got)
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil, "ctx", nil) != nil {
		t.Error("FormatError(nil) should be nil")
	}

	err := FormatError(errors.New("boom"), "loading configuration", nil)
	if !strings.HasPrefix(err.Error(), "loading configuration: boom") {
		t.Errorf("FormatError() = %q", err.Error())
	}
}

func TestSuggestNextSteps(t *testing.T) {
	home := t.TempDir()
	layout := NewHomeLayout(home)

	if got := layout.SuggestNextSteps(); !strings.Contains(got, "config set api.base_url") {
		t.Errorf("without config: %q", got)
	}

	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := layout.SuggestNextSteps(); !strings.Contains(got, "clientdesk login") {
		t.Errorf("without credentials: %q", got)
	}

	if err := os.WriteFile(layout.StorageDB(), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if got := layout.SuggestNextSteps(); !strings.Contains(got, "clients list") {
		t.Errorf("with sqlite store: %q", got)
	}
}
