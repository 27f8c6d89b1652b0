package health

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/clientdesk/internal/session"
)

// StoreChecker reads the token store. A missing token is healthy; an
// unreadable store is not.
type StoreChecker struct {
	store session.Store
}

// NewStoreChecker creates a checker for store.
func NewStoreChecker(store session.Store) *StoreChecker {
	return &StoreChecker{store: store}
}

// Name returns the name of this health check.
func (c *StoreChecker) Name() string {
	return "token-store"
}

// Check loads the stored token without using it.
func (c *StoreChecker) Check(ctx context.Context) *Result {
	stored, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoToken):
		return Healthy("no saved session").
			WithDetail("location", c.store.Location())
	case err != nil:
		return Unhealthy("token store is unreadable").
			WithDetail("location", c.store.Location()).
			WithDetail("error", err.Error()).
			WithDetail("suggestion", "Run 'clientdesk logout' to reset it")
	}

	r := Healthy("session saved").
		WithDetail("location", c.store.Location()).
		WithDetail("token", session.Fingerprint(session.Token(stored.AccessToken)))
	if stored.Email != "" {
		r.WithDetail("email", stored.Email)
	}
	if !stored.SavedAt.IsZero() {
		r.WithDetail("saved_at", stored.SavedAt)
	}
	return r
}
