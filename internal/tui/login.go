package tui

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/clientdesk/internal/session"
)

const (
	fieldEmail    = "email"
	fieldPassword = "password"
)

// newLoginForm builds the sign-in form. Both fields validate inline, so the
// form cannot complete with credentials that would fail locally.
func newLoginForm(email string, noColor bool) *huh.Form {
	password := ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(fieldEmail).
				Title("E-mail").
				Placeholder("you@example.com").
				Value(&email).
				Validate(session.ValidateEmail),
			huh.NewInput().
				Key(fieldPassword).
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(session.ValidatePassword),
		),
	).WithShowHelp(true)

	if noColor {
		form = form.WithTheme(huh.ThemeBase())
	} else {
		form = form.WithTheme(huh.ThemeCharm())
	}
	return form
}

// credentialsFrom reads the submitted values of a completed form.
func credentialsFrom(form *huh.Form) session.Credentials {
	return session.Credentials{
		Email:    strings.TrimSpace(form.GetString(fieldEmail)),
		Password: form.GetString(fieldPassword),
	}
}
