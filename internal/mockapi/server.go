// Package mockapi is a local stand-in for the clients API: POST /token
// and GET /client with the same shapes and error bodies.
package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/metrics"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
)

// DefaultTokenTTL is how long issued tokens are accepted.
const DefaultTokenTTL = time.Hour

const (
	detailBadCredentials = "Incorrect username or password"
	detailInvalidToken   = "Could not validate credentials"

	maxFormBytes = 1 << 20
)

type issuedToken struct {
	email   string
	expires time.Time
}

// Server serves the mock API.
type Server struct {
	router   *mux.Router
	handler  http.Handler
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time

	users   map[string][]byte
	clients []api.ClientRecord

	mu     sync.Mutex
	tokens map[string]issuedToken
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets how long tokens stay valid. Zero or less means they
// never expire.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock replaces time.Now, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the cost used to hash plain-text fixture passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry, m *metrics.Metrics) Option {
	return func(s *Server) {
		s.registry = reg
		s.metrics = m
	}
}

// New builds a server for fixtures. Plain-text passwords are hashed here.
func New(f Fixtures, opts ...Option) (*Server, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		logger:     log.DefaultLogger(),
		tokenTTL:   DefaultTokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		users:      make(map[string][]byte, len(f.Users)),
		tokens:     make(map[string]issuedToken),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry, s.metrics = metrics.NewRegistry()
	}
	s.logger = s.logger.With("component", "mockapi")

	for _, u := range f.Users {
		hash := []byte(u.PasswordHash)
		if u.PasswordHash == "" {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(u.Password), s.bcryptCost)
			if err != nil {
				return nil, err
			}
		}
		s.users[normalizeEmail(u.Email)] = hash
	}

	s.clients = make([]api.ClientRecord, len(f.Clients))
	copy(s.clients, f.Clients)

	s.router = s.routes()
	s.handler = otelhttp.NewHandler(s.router, "mockapi",
		otelhttp.WithTracerProvider(telemetry.GetTracerProvider()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/client", s.handleClients).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.HandlerFor(s.registry)).Methods(http.MethodGet)

	r.NotFoundHandler = s.instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	}))
	r.MethodNotAllowedHandler = s.instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}))
	return r
}

// ServeHTTP implements http.Handler. Each request gets a server span,
// joined to the caller's trace when it sent one.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Registry returns the Prometheus registry behind /metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Revoke invalidates one token. It reports whether the token was live.
func (s *Server) Revoke(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		return false
	}
	delete(s.tokens, token)
	s.metrics.RecordRevocations(1)
	s.metrics.ActiveTokens.Set(float64(len(s.tokens)))
	return true
}

// RevokeAll invalidates every token and returns how many there were.
func (s *Server) RevokeAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tokens)
	s.tokens = make(map[string]issuedToken)
	s.metrics.RecordRevocations(n)
	s.metrics.ActiveTokens.Set(0)
	return n
}

// ActiveTokens returns the number of tokens currently accepted.
func (s *Server) ActiveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// Users returns the number of accounts.
func (s *Server) Users() int { return len(s.users) }

// handleToken implements POST /token with form fields username and password.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	var missing []fieldError
	if username == "" {
		missing = append(missing, missingField("username"))
	}
	if password == "" {
		missing = append(missing, missingField("password"))
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": missing})
		return
	}

	email := normalizeEmail(username)
	hash, ok := s.users[email]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		s.metrics.RecordLogin(false)
		s.logger.InfoContext(r.Context(), "login rejected", "email", email)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, detailBadCredentials)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = issuedToken{email: email, expires: s.expiry()}
	s.metrics.ActiveTokens.Set(float64(len(s.tokens)))
	s.mu.Unlock()

	s.metrics.RecordLogin(true)
	s.logger.InfoContext(r.Context(), "token issued", "email", email)
	writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// handleClients implements GET /client.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(r); !ok {
		s.metrics.RecordListing(false)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, detailInvalidToken)
		return
	}

	s.metrics.RecordListing(true)
	writeJSON(w, http.StatusOK, s.clients)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorize returns the e-mail behind a live bearer token. Expired tokens
// are dropped on sight.
func (s *Server) authorize(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	if !issued.expires.IsZero() && !s.now().Before(issued.expires) {
		delete(s.tokens, token)
		s.metrics.RecordRevocations(1)
		s.metrics.ActiveTokens.Set(float64(len(s.tokens)))
		return "", false
	}
	return issued.email, true
}

func (s *Server) expiry() time.Time {
	if s.tokenTTL <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.tokenTTL)
}

// instrument records metrics and a log line per request, labelled with the
// route template rather than the raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.metrics.RecordRequest(route, r.Method, rec.status, elapsed)
		s.logger.DebugContext(r.Context(), "request served",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"request_id", r.Header.Get("X-Request-ID"),
			"duration_ms", elapsed.Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missingField(name string) fieldError {
	return fieldError{Loc: []string{"body", name}, Msg: "field required", Type: "value_error.missing"}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
