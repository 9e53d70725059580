// Package store provides the client's local state database. It holds small
// key/value pairs such as the session token; fetched market data is never
// written here.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// Keys used by the application.
const (
	KeySessionToken = "session_token"
)

// StateStore is a SQLite-backed key/value store.
type StateStore struct {
	db *sql.DB
}

// Open opens (or creates) the state database at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*StateStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS local_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &StateStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or ErrNotFound.
func (s *StateStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *StateStore) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO local_state (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Delete removes the value stored under key. Deleting a missing key is not
// an error.
func (s *StateStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM local_state WHERE key = ?`, key)
	return err
}
