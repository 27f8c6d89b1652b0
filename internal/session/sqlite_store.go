package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Keys used in the local_storage table.
const (
	KeyAccessToken = "access_token"
	KeyEmail       = "email"
)

const localStorageSchema = `
	CREATE TABLE IF NOT EXISTS local_storage (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)
`

// SQLiteStore is a small key/value table with the shape of browser
// local storage. The token lives under KeyAccessToken.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway store.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and is
	// plenty for one token.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, localStorageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// GetItem returns the value stored under key, and whether it exists.
func (s *SQLiteStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM local_storage WHERE key = ? LIMIT 1`

	var value string
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem inserts or replaces key.
func (s *SQLiteStore) SetItem(ctx context.Context, key, value string) error {
	return setItem(ctx, s.db, key, value, time.Now().UTC())
}

// RemoveItem deletes key. Missing keys are ignored.
func (s *SQLiteStore) RemoveItem(ctx context.Context, key string) error {
	return removeItem(ctx, s.db, key)
}

// Load reads the token row and its companion e-mail.
func (s *SQLiteStore) Load(ctx context.Context) (Stored, error) {
	const q = `SELECT value, updated_at FROM local_storage WHERE key = ? LIMIT 1`

	var out Stored
	err := s.db.QueryRowContext(ctx, q, KeyAccessToken).Scan(&out.AccessToken, &out.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Stored{}, ErrNoToken
	}
	if err != nil {
		return Stored{}, fmt.Errorf("select %s: %w", KeyAccessToken, err)
	}
	if out.AccessToken == "" {
		return Stored{}, ErrNoToken
	}

	email, _, err := s.GetItem(ctx, KeyEmail)
	if err != nil {
		return Stored{}, err
	}
	out.Email = email
	return out, nil
}

// Save writes both keys in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st Stored) error {
	savedAt := st.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := setItem(ctx, tx, KeyAccessToken, st.AccessToken, savedAt); err != nil {
			return err
		}
		if st.Email == "" {
			return removeItem(ctx, tx, KeyEmail)
		}
		return setItem(ctx, tx, KeyEmail, st.Email, savedAt)
	})
}

// Clear removes both keys.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := removeItem(ctx, tx, KeyAccessToken); err != nil {
			return err
		}
		return removeItem(ctx, tx, KeyEmail)
	})
}

// Location implements Store.
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setItem(ctx context.Context, db execer, key, value string, at time.Time) error {
	const q = `
		INSERT INTO local_storage (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, q, key, value, at); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func removeItem(ctx context.Context, db execer, key string) error {
	const q = `DELETE FROM local_storage WHERE key = ?`
	if _, err := db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
