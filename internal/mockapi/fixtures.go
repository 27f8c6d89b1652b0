package mockapi

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/clientdesk/internal/api"
)

// User is an account the mock server accepts. Either Password or
// PasswordHash (bcrypt) must be set.
type User struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

// Fixtures is the data served by the mock API.
type Fixtures struct {
	Users   []User             `yaml:"users"`
	Clients []api.ClientRecord `yaml:"clients"`
}

// DefaultFixtures returns a demo account and a handful of clients.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Users: []User{
			{Email: "demo@clientdesk.dev", Password: "secret123"},
		},
		Clients: []api.ClientRecord{
			{
				Name:             "Acme Health",
				PanelName:        "Premium",
				EffectiveStartAt: api.MustTimestamp("2024-01-01T00:00:00"),
				EffectiveEndAt:   api.MustTimestamp("2024-12-31T00:00:00"),
			},
			{
				Name:             "Blue River Clinic",
				PanelName:        "Standard",
				EffectiveStartAt: api.MustTimestamp("2023-06-15T00:00:00"),
				EffectiveEndAt:   api.MustTimestamp("2025-06-14T00:00:00"),
			},
			{
				Name:             "Cedar Labs",
				PanelName:        "Basic",
				EffectiveStartAt: api.MustTimestamp("2024-03-01T00:00:00"),
				EffectiveEndAt:   api.MustTimestamp("2025-02-28T00:00:00"),
			},
			{
				Name:             "Delta Care",
				PanelName:        "Premium",
				EffectiveStartAt: api.MustTimestamp("2022-09-01T00:00:00"),
			},
		},
	}
}

// ParseFixtures decodes YAML fixtures and checks every user is usable.
func ParseFixtures(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// Validate rejects users without an e-mail or a password, and duplicates.
func (f Fixtures) Validate() error {
	seen := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("users[%d] (%s): password or password_hash is required", i, u.Email)
		}
		if seen[email] {
			return fmt.Errorf("users[%d]: duplicate email %s", i, u.Email)
		}
		seen[email] = true
	}
	return nil
}
