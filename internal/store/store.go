// Package store persists job history and the image registry to a SQLite
// database, migrated with goose from embedded .sql files.
package store

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// DB wraps a SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) a database at path and brings its schema up to
// date. path == ":memory:" opens a private in-memory database, used by the
// package's own tests.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	baseFS, err := fs.Sub(sqlMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	goose.SetBaseFS(baseFS)

	if err := goose.Up(conn, "."); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
