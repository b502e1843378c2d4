// Package database is the relational persistence layer for subscribers,
// calendar connections, appointments and slots.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

func notFoundOr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Store wraps the sqlite database.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(logger *slog.Logger, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Debug("Applied database schema", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func applySchema(db *sqlx.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		level INTEGER NOT NULL DEFAULT 1,
		timezone INTEGER
	);
	CREATE TABLE IF NOT EXISTS calendars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL REFERENCES subscribers(id),
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		user TEXT NOT NULL,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		calendar_id INTEGER NOT NULL REFERENCES calendars(id),
		title TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		appointment_id INTEGER NOT NULL REFERENCES appointments(id),
		start TEXT NOT NULL,
		duration INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_calendars_owner ON calendars (owner_id);
	CREATE INDEX IF NOT EXISTS idx_appointments_calendar ON appointments (calendar_id);
	CREATE INDEX IF NOT EXISTS idx_slots_appointment ON slots (appointment_id);
	`)
	return err
}
