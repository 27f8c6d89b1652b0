package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
)

// ErrNoToken is returned by Store.Load when nothing is stored.
var ErrNoToken = errors.New("no stored token")

// Storage backends accepted by OpenStore.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Stored is what a Store persists between runs.
type Stored struct {
	AccessToken string    `json:"access_token"`
	Email       string    `json:"email,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store defines the interface for token persistence.
//
// Implementations must be safe for concurrent use. Clear on an empty
// store is not an error.
type Store interface {
	// Load returns the stored token or ErrNoToken.
	Load(ctx context.Context) (Stored, error)

	// Save replaces whatever is stored.
	Save(ctx context.Context, s Stored) error

	// Clear removes the stored token.
	Clear(ctx context.Context) error

	// Location describes where tokens live, for messages and logs.
	Location() string

	Close() error
}

// StoreConfig selects and locates a backend.
type StoreConfig struct {
	Backend string
	// Path is the credentials file or sqlite database. Relative paths are
	// resolved against Home.
	Path string
	Home string
}

// DefaultPath returns the conventional file name for backend.
func DefaultPath(backend string) string {
	switch backend {
	case BackendSQLite:
		return "storage.db"
	default:
		return "credentials.json"
	}
}

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath(backend)
	}
	if !filepath.IsAbs(path) && cfg.Home != "" {
		path = filepath.Join(cfg.Home, path)
	}

	switch backend {
	case BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		st, err := OpenSQLiteStore(ctx, path)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.ErrCodeStoreOpen, path, err)
		}
		return st, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (supported: %s, %s, %s)",
			backend, BackendFile, BackendSQLite, BackendMemory)
	}
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu     sync.Mutex
	stored *Stored
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored token or ErrNoToken.
func (m *MemoryStore) Load(ctx context.Context) (Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stored == nil {
		return Stored{}, ErrNoToken
	}
	return *m.stored, nil
}

// Save replaces the stored token.
func (m *MemoryStore) Save(ctx context.Context, s Stored) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stored = &s
	return nil
}

// Clear forgets the stored token.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stored = nil
	return nil
}

// Location implements Store.
func (m *MemoryStore) Location() string { return "memory" }

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
