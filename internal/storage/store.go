// Package storage is the page's local persistent storage: an origin-scoped
// key/value table kept in a sqlite file, surviving across page sessions.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"
)

// validKey matches alphanumeric, dash, underscore, and dot characters only.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	if !validKey.MatchString(key) {
		return fmt.Errorf("key contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed")
	}
	return nil
}

const schema = `CREATE TABLE IF NOT EXISTS local_storage (
	origin TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (origin, key)
)`

// Store holds local storage for every origin in one sqlite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the storage database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// DefaultPath returns the default storage database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pagewarden", "storage.db")
	}
	return filepath.Join(home, ".pagewarden", "storage.db")
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Area returns the storage area for one origin.
func (s *Store) Area(origin string) *Area {
	return &Area{store: s, origin: origin}
}

// Area is the key/value view of a single origin, the equivalent of a page's localStorage.
type Area struct {
	store  *Store
	origin string
}

// Origin returns the origin this area is scoped to.
func (a *Area) Origin() string { return a.origin }

// Get returns the stored value for key. ok is false when the key is absent.
func (a *Area) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, fmt.Errorf("invalid storage key: %w", err)
	}

	var value string
	err := a.store.db.QueryRow(
		`SELECT value FROM local_storage WHERE origin = ? AND key = ?`,
		a.origin, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (a *Area) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("invalid storage key: %w", err)
	}

	_, err := a.store.db.Exec(
		`INSERT INTO local_storage (origin, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(origin, key) DO UPDATE SET value = excluded.value`,
		a.origin, key, value,
	)
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (a *Area) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("invalid storage key: %w", err)
	}

	if _, err := a.store.db.Exec(
		`DELETE FROM local_storage WHERE origin = ? AND key = ?`,
		a.origin, key,
	); err != nil {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

// OriginOf derives the storage origin from a page location.
// file: locations and unparseable input share the "null" origin, as browsers do.
func OriginOf(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || u.Scheme == "file" || u.Host == "" {
		return "null"
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
