package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/felixgeelhaar/clientdesk/internal/session"
)

// PromptForCredentials asks for whichever of e-mail and password is
// missing. Both fields validate inline.
func PromptForCredentials(creds session.Credentials) (session.Credentials, error) {
	var fields []huh.Field
	if creds.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("E-mail").
			Placeholder("you@example.com").
			Value(&creds.Email).
			Validate(session.ValidateEmail))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password).
			Validate(session.ValidatePassword))
	}
	if len(fields) == 0 {
		return creds, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return session.Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	return creds.Normalize(), nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsInteractive returns true if both stdin and stdout are terminals.
func IsInteractive() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}

// ciEnvVars disable prompts when any of them is set.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}
