// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when creating a user whose email is
// already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Store wraps the SQLite database holding users, stages, applications,
// and sessions.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the SQLite database in dataDir and runs
// pending migrations. Pass ":memory:" as dataDir for an in-memory
// database (used by tests).
func OpenStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "funnel.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent
	// handlers; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (store *Store) Close() error {
	return store.db.Close()
}

// migrate applies embedded SQL migration files that haven't run yet.
func (store *Store) migrate() error {
	if _, err := store.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Name() < entries[b].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var applied int
		if err := store.db.QueryRow(
			"SELECT COUNT(*) FROM schema_version WHERE version = ?", version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := store.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- Stages ---

// Stages returns the stage catalog in order_index order.
func (store *Store) Stages() ([]stage.CatalogEntry, error) {
	rows, err := store.db.Query(
		`SELECT id, name, order_index, is_terminal FROM stages ORDER BY order_index ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []stage.CatalogEntry
	for rows.Next() {
		var entry stage.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.OrderIndex, &entry.IsTerminal); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DefaultStage returns the stage with the lowest order_index. New
// applications land there when no stage is named.
func (store *Store) DefaultStage() (stage.CatalogEntry, error) {
	var entry stage.CatalogEntry
	err := store.db.QueryRow(
		`SELECT id, name, order_index, is_terminal FROM stages ORDER BY order_index ASC LIMIT 1`,
	).Scan(&entry.ID, &entry.Name, &entry.OrderIndex, &entry.IsTerminal)
	if err == sql.ErrNoRows {
		return stage.CatalogEntry{}, ErrNotFound
	}
	return entry, err
}

// StageByID looks up one stage by its numeric ID.
func (store *Store) StageByID(id int) (stage.CatalogEntry, error) {
	var entry stage.CatalogEntry
	err := store.db.QueryRow(
		`SELECT id, name, order_index, is_terminal FROM stages WHERE id = ?`, id,
	).Scan(&entry.ID, &entry.Name, &entry.OrderIndex, &entry.IsTerminal)
	if err == sql.ErrNoRows {
		return stage.CatalogEntry{}, ErrNotFound
	}
	return entry, err
}

// --- Users ---

// CreateUser inserts a new user. Returns ErrDuplicateEmail when the
// email is already registered.
func (store *Store) CreateUser(email string, name, provider, providerSub *string) (api.User, error) {
	var existing int
	if err := store.db.QueryRow(
		"SELECT COUNT(*) FROM users WHERE email = ?", email,
	).Scan(&existing); err != nil {
		return api.User{}, err
	}
	if existing > 0 {
		return api.User{}, ErrDuplicateEmail
	}

	result, err := store.db.Exec(
		`INSERT INTO users (email, name, provider, provider_sub, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		email, name, provider, providerSub, nowStamp(),
	)
	if err != nil {
		return api.User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return api.User{}, err
	}
	return store.UserByID(int(id))
}

// UserByID looks up one user.
func (store *Store) UserByID(id int) (api.User, error) {
	var user api.User
	err := store.db.QueryRow(
		`SELECT id, email, name, provider, provider_sub FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Provider, &user.ProviderSub)
	if err == sql.ErrNoRows {
		return api.User{}, ErrNotFound
	}
	return user, err
}

// UserByEmail looks up one user by email.
func (store *Store) UserByEmail(email string) (api.User, error) {
	var user api.User
	err := store.db.QueryRow(
		`SELECT id, email, name, provider, provider_sub FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Provider, &user.ProviderSub)
	if err == sql.ErrNoRows {
		return api.User{}, ErrNotFound
	}
	return user, err
}

// --- Sessions ---

// CreateSession records a session token for a user.
func (store *Store) CreateSession(token string, userID int) error {
	_, err := store.db.Exec(
		`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, nowStamp(),
	)
	return err
}

// SessionUser resolves a session token to its user. Returns
// ErrNotFound for unknown tokens.
func (store *Store) SessionUser(token string) (api.User, error) {
	var userID int
	err := store.db.QueryRow(
		"SELECT user_id FROM sessions WHERE token = ?", token,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return api.User{}, ErrNotFound
	}
	if err != nil {
		return api.User{}, err
	}
	return store.UserByID(userID)
}

// DeleteSession removes a session token. Unknown tokens are a no-op.
func (store *Store) DeleteSession(token string) error {
	_, err := store.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}
