// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoCredentials = errors.New("no stored credentials")
	ErrNotFound      = errors.New("key not found")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// SCHEMA
// =============================================================================

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1

	// DefaultFileName is the database file name inside the config directory.
	DefaultFileName = "state.db"
)

const schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Credentials table: at most one row (id = 1), replaced on each login
CREATE TABLE IF NOT EXISTS credentials (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    token TEXT NOT NULL,
    email TEXT NOT NULL,
    username TEXT NOT NULL,
    full_name TEXT,
    roles TEXT NOT NULL,     -- JSON array of role names
    saved_at INTEGER NOT NULL -- Unix timestamp
);

-- Settings table: display preferences keyed by name
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
) WITHOUT ROWID;
`

// =============================================================================
// CREDENTIALS
// =============================================================================

// Credentials is the locally persisted sign-in state. The token is a
// bearer token for the accounts backend; the rest is display identity.
type Credentials struct {
	Token    string    `json:"token"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
	Roles    []string  `json:"roles"`
	SavedAt  time.Time `json:"savedAt"`
}

// =============================================================================
// STORE
// =============================================================================

// Store wraps the SQLite database holding credentials and settings.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the database at path and applies the
// schema. The containing directory is created with 0755; the database
// file itself is tightened to 0600 since it holds a bearer token.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	// Single writer keeps "busy" errors out of the UI event loop.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %v", ErrDatabaseError, err)
	}
	if _, err := db.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		fmt.Sprintf("%d", SchemaVersion),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to secure database file: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCredentials replaces the stored credentials with creds.
func (s *Store) SaveCredentials(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := json.Marshal(creds.Roles)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now()
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO credentials (id, token, email, username, full_name, roles, saved_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)`,
		creds.Token, creds.Email, creds.Username, creds.FullName, string(roles), creds.SavedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// LoadCredentials returns the stored credentials, or ErrNoCredentials
// if nobody is signed in.
func (s *Store) LoadCredentials() (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		creds   Credentials
		roles   string
		savedAt int64
	)
	err := s.db.QueryRow(
		`SELECT token, email, username, full_name, roles, saved_at FROM credentials WHERE id = 1`,
	).Scan(&creds.Token, &creds.Email, &creds.Username, &creds.FullName, &roles, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if err := json.Unmarshal([]byte(roles), &creds.Roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	creds.SavedAt = time.Unix(savedAt, 0)
	return &creds, nil
}

// ClearCredentials removes the credential row. Clearing when nothing is
// stored is not an error; logout must always succeed locally.
func (s *Store) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetSetting stores a preference value under key.
func (s *Store) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// GetSetting returns the value stored under key, or ErrNotFound.
func (s *Store) GetSetting(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return value, nil
}

// AllSettings returns every stored preference.
func (s *Store) AllSettings() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DeleteSetting removes a preference. Missing keys are ignored.
func (s *Store) DeleteSetting(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// ResetSettings removes all stored preferences.
func (s *Store) ResetSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}
