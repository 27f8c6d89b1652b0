package session

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
)

// State is the session lifecycle state.
type State int

const (
	// Unauthenticated means no token is held.
	Unauthenticated State = iota
	// Authenticated means a token is held. It may still be rejected by the server.
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// Manager owns the access token: it is the only writer of both the
// in-memory value and the persisted copy.
type Manager struct {
	store  Store
	auth   Authenticator
	logger *log.Logger
	now    func() time.Time

	// writeMu serializes changes to the persisted token.
	writeMu sync.Mutex

	mu    sync.RWMutex
	token Token
	email string
}

// NewManager creates a session manager. Call Initialize before use.
func NewManager(store Store, auth Authenticator, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Manager{
		store:  store,
		auth:   auth,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// Initialize adopts a previously stored token, if any. It makes no
// network calls. An unreadable stored token is discarded and the store
// cleared, leaving the session unauthenticated; only a store that can be
// neither read nor cleared is an error.
func (m *Manager) Initialize(ctx context.Context) error {
	stored, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		m.set("", "")
		m.logger.DebugContext(ctx, "no stored token", "store", m.store.Location())
		return nil
	}
	if err != nil {
		m.set("", "")
		m.logger.WarnContext(ctx, "discarding unreadable stored token",
			"store", m.store.Location(), "error", err.Error())
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			return apperrors.NewStoreError(apperrors.ErrCodeStoreRead, m.store.Location(),
				errors.Join(err, clearErr))
		}
		return nil
	}

	m.set(Token(stored.AccessToken), stored.Email)
	m.logger.DebugContext(ctx, "restored stored token",
		"store", m.store.Location(),
		"fingerprint", Fingerprint(Token(stored.AccessToken)))
	return nil
}

// Login validates creds, exchanges them for a token, persists it and
// makes it current. Validation failures return *ValidationError without
// touching the network. Authentication failures are returned as-is,
// wrapped with a login error code, and leave the state unchanged.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	creds = creds.Normalize()
	if err := creds.Validate(); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "session", "login")
	defer span.End()

	raw, err := m.auth.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		m.logger.WarnContext(ctx, "login rejected", "email", creds.Email, "error", err.Error())
		telemetry.RecordError(span, err, "rejected")
		return apperrors.NewLoginRejectedError(creds.Email, err)
	}

	stored := Stored{
		AccessToken: raw,
		Email:       creds.Email,
		SavedAt:     m.now().UTC(),
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.store.Save(ctx, stored); err != nil {
		telemetry.RecordError(span, err, "store")
		return apperrors.NewStoreError(apperrors.ErrCodeStoreWrite, m.store.Location(), err)
	}

	m.set(Token(raw), creds.Email)
	telemetry.RecordSuccess(span)
	m.logger.InfoContext(ctx, "logged in",
		"email", creds.Email,
		"fingerprint", Fingerprint(Token(raw)))
	return nil
}

// Invalidate clears the current and the persisted token. Calling it on
// an unauthenticated session is a no-op. The in-memory token is dropped
// even when the store fails.
func (m *Manager) Invalidate(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "session", "invalidate")
	defer span.End()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	prev, _ := m.Current()
	m.set("", "")

	if err := m.store.Clear(ctx); err != nil {
		telemetry.RecordError(span, err, "store")
		return apperrors.NewStoreError(apperrors.ErrCodeStoreClear, m.store.Location(), err)
	}

	if prev != "" {
		m.logger.InfoContext(ctx, "session invalidated", "fingerprint", Fingerprint(prev))
	}
	return nil
}

// Expire ends the session after the server rejected token. It does
// nothing and reports false when token is no longer current, so a late
// rejection cannot end a newer login. A persisted token that differs from
// token, written by another process, is left in place.
func (m *Manager) Expire(ctx context.Context, token Token) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if current, ok := m.Current(); !ok || current != token {
		m.logger.DebugContext(ctx, "ignoring rejection of a replaced token",
			"fingerprint", Fingerprint(token))
		return false, nil
	}
	m.set("", "")
	m.logger.InfoContext(ctx, "session expired", "fingerprint", Fingerprint(token))

	if stored, err := m.store.Load(ctx); err == nil && stored.AccessToken != token.Value() {
		return true, nil
	}
	if err := m.store.Clear(ctx); err != nil {
		return true, apperrors.NewStoreError(apperrors.ErrCodeStoreClear, m.store.Location(), err)
	}
	return true, nil
}

// Current returns the token and whether one is held.
func (m *Manager) Current() (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// State reports Authenticated when a token is held.
func (m *Manager) State() State {
	if _, ok := m.Current(); ok {
		return Authenticated
	}
	return Unauthenticated
}

// Email is the address of the last successful login, when known.
func (m *Manager) Email() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.email
}

// StoreLocation describes the backing store.
func (m *Manager) StoreLocation() string {
	return m.store.Location()
}

func (m *Manager) set(token Token, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.email = email
}
