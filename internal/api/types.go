package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenResponse is the body of a successful POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// ClientRecord is one entry of GET /client. Records are rendered as
// received; start/end ordering is not checked.
type ClientRecord struct {
	Name             string    `json:"name" yaml:"name"`
	PanelName        string    `json:"panel_name" yaml:"panel_name"`
	EffectiveStartAt Timestamp `json:"effective_start_at" yaml:"effective_start_at"`
	EffectiveEndAt   Timestamp `json:"effective_end_at" yaml:"effective_end_at"`
}

// Timestamp decodes the server's date fields, which may or may not carry a
// zone offset. Zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the first matching layout.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MustTimestamp is ParseTimestamp for literals in fixtures and tests.
func MustTimestamp(s string) Timestamp {
	ts, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// UnmarshalJSON accepts null, "" or any layout in timestampLayouts.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

// MarshalJSON writes RFC 3339 with any fractional seconds, or null for
// the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// MarshalYAML mirrors MarshalJSON.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Format(time.RFC3339Nano), nil
}

// UnmarshalYAML lets fixtures use the same layouts as the wire format.
func (t *Timestamp) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}
