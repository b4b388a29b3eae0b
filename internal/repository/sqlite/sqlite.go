// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database. It lives inside the Go binary and stores
// everything in a single file, so a development server needs no database to
// be installed. Tests use ":memory:" for a fresh database per test.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite C code.
//
// DATABASE/SQL OVERVIEW:
// Key types from the standard library:
//   - sql.DB     : a connection pool (NOT a single connection!)
//   - sql.Row    : a single result row
//   - sql.Rows   : multiple result rows (must be closed!)
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/faceless/internal/repository"
)

// Compile-time check that *DB satisfies the full Store interface.
// If a method is missing or has the wrong signature, this line fails to build.
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
// The methods are split across files by entity (user.go, post.go, ...).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/faceless.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	// "sqlite" is the driver name registered by the modernc.org/sqlite import.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// PRAGMAs like foreign_keys are per-connection, and every ":memory:"
	// connection is its own empty database. Pinning the pool to a single
	// connection makes both behave as if there were one database handle.
	// SQLite only allows one writer at a time anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets readers proceed while a write is in progress.
	// In-memory databases silently stay in "memory" journal mode.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so New can run this on every
// start against an existing file.
//
// UNIQUENESS:
// likes, saves and subscriptions each have a UNIQUE index on their pair of
// ids. The establish operations rely on it: INSERT ... ON CONFLICT DO NOTHING
// turns a second like into a no-op instead of a duplicate row.
//
// NULLABLE UNIQUE COLUMNS:
// users.email and users.username are NULL when unset. SQLite treats NULLs
// as distinct, so any number of users can have no username.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			email             TEXT UNIQUE,
			first_name        TEXT NOT NULL DEFAULT '',
			last_name         TEXT NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			username          TEXT UNIQUE,
			bio               TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// media_urls is a JSON array stored as TEXT; SQLite has no array type.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			type       TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			media_urls TEXT NOT NULL DEFAULT '[]',
			category   TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
		CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			post_id    INTEGER NOT NULL REFERENCES posts(id),
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			post_id    INTEGER NOT NULL REFERENCES posts(id),
			created_at DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_user_post ON likes(user_id, post_id);

		CREATE TABLE IF NOT EXISTS saves (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			post_id    INTEGER NOT NULL REFERENCES posts(id),
			created_at DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_saves_user_post ON saves(user_id, post_id);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			subscriber_id    TEXT NOT NULL REFERENCES users(id),
			subscribed_to_id TEXT NOT NULL REFERENCES users(id),
			created_at       DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_pair
			ON subscriptions(subscriber_id, subscribed_to_id);
	`)
	if err != nil {
		return fmt.Errorf("creating relationship tables: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
//
// The typed check covers the real driver; the string check covers errors
// that were re-wrapped somewhere and lost their type.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// encodeMedia / decodeMedia convert between []string and the JSON TEXT column.
// decodeMedia never returns nil so an empty list serialises as [].
func encodeMedia(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMedia(raw string) ([]string, error) {
	urls := []string{}
	if raw == "" {
		return urls, nil
	}
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, err
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}
