// Package userstore provides the credential and preference store.
// Clean Architecture: Adapter implementing ports.UserStore.
package userstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserExists is returned by Create when the username is already taken.
var ErrUserExists = errors.New("username already taken")

// Store persists user accounts in SQLite with bcrypt password hashes.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the user store at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// initSchema creates the necessary tables.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		preferences TEXT DEFAULT '{"language":"zh","notification":true}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create registers a new account with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, string(hash),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Verify checks credentials. A wrong password or unknown user is (false, nil).
func (s *Store) Verify(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE username = ?", username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("comparing password: %w", err)
	}
	return true, nil
}

// Preferences returns the stored preferences for a user.
func (s *Store) Preferences(ctx context.Context, username string) (entities.Preferences, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT preferences FROM users WHERE username = ?", username,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Preferences{}, fmt.Errorf("unknown user %q", username)
	}
	if err != nil {
		return entities.Preferences{}, fmt.Errorf("querying preferences: %w", err)
	}

	prefs := entities.DefaultPreferences()
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
			return entities.Preferences{}, fmt.Errorf("decoding preferences: %w", err)
		}
	}
	return prefs, nil
}

// SetPreferences replaces the stored preferences for a user.
func (s *Store) SetPreferences(ctx context.Context, username string, prefs entities.Preferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET preferences = ? WHERE username = ?", string(raw), username,
	)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown user %q", username)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
