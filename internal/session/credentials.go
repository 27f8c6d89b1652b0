package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/asaskevich/govalidator"
)

// MinPasswordLength is the shortest accepted password, after trimming.
const MinPasswordLength = 6

// Credentials are the login form values. They are never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Normalize trims surrounding whitespace from both fields.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		Email:    strings.TrimSpace(c.Email),
		Password: strings.TrimSpace(c.Password),
	}
}

// Validate checks both fields and reports every failure at once.
func (c Credentials) Validate() error {
	c = c.Normalize()
	fields := map[string]string{}
	if err := ValidateEmail(c.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := ValidatePassword(c.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateEmail is also used as the inline validator of the e-mail field.
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("e-mail is required")
	}
	if !govalidator.IsEmail(s) {
		return fmt.Errorf("enter a valid e-mail address")
	}
	return nil
}

// ValidatePassword is also used as the inline validator of the password field.
func ValidatePassword(s string) error {
	if len([]rune(strings.TrimSpace(s))) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidationError maps form fields to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid credentials: " + strings.Join(parts, "; ")
}
