// Package clients fetches the client list for the current session and
// shapes it for display.
package clients

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/session"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
)

// ErrNoSession is returned by Load when called without a token.
var ErrNoSession = errors.New("no session token")

// Source lists client records for a bearer token. *api.Client implements it.
type Source interface {
	ListClients(ctx context.Context, token string) ([]api.ClientRecord, error)
}

// Expirer ends the session holding a rejected token. *session.Manager
// implements it.
type Expirer interface {
	Expire(ctx context.Context, token session.Token) (bool, error)
}

// Loader performs the token-gated client list fetch.
type Loader struct {
	source   Source
	sessions Expirer
	logger   *log.Logger
}

// NewLoader creates a Loader.
func NewLoader(source Source, sessions Expirer, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Loader{
		source:   source,
		sessions: sessions,
		logger:   logger.With("component", "clients"),
	}
}

// Load fetches the records in the order the server returned them.
//
// A rejected token (401/403) ends the session, if token is still the
// current one, and returns an AUTH-004 error wrapping the
// *api.UnauthorizedError. Every other failure is returned unchanged and
// the session is kept.
func (l *Loader) Load(ctx context.Context, token session.Token) ([]api.ClientRecord, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	ctx, span := telemetry.StartSpan(ctx, "clients", "load",
		attribute.String("session.fingerprint", session.Fingerprint(token)))
	defer span.End()

	records, err := l.source.ListClients(ctx, token.Value())
	if err == nil {
		l.logger.DebugContext(ctx, "clients loaded", "count", len(records))
		telemetry.RecordSuccess(span, attribute.Int("clients.count", len(records)))
		return records, nil
	}
	telemetry.RecordError(span, err, api.Kind(err))

	if !api.IsUnauthorized(err) {
		l.logger.WarnContext(ctx, "client list fetch failed", "error", err.Error())
		return nil, err
	}

	l.logger.InfoContext(ctx, "token rejected", "fingerprint", session.Fingerprint(token))
	expired, expErr := l.sessions.Expire(ctx, token)
	if expErr != nil {
		l.logger.LogErrorContext(ctx, "failed to clear session", expErr)
	}
	span.SetAttributes(attribute.Bool("session.invalidated", expired))
	return nil, apperrors.NewSessionEndedError(err)
}
