// Package sqlite implements the attendance storage backend on an embedded
// SQLite database using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	_ "modernc.org/sqlite"
)

// schema is the authoritative attendance schema. The column layout is shared
// with the original desktop deployments, so existing databases keep working.
const schema = `
CREATE TABLE IF NOT EXISTS students (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT,
	department TEXT,
	batch TEXT,
	face_encoding BLOB,
	photo_path TEXT,
	registration_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id TEXT NOT NULL REFERENCES students(student_id),
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Present',
	UNIQUE(student_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);
CREATE INDEX IF NOT EXISTS idx_students_student_id ON students(student_id);
`

// Store manages the SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and if necessary creates) the SQLite database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The recognition loop is single-threaded; one writer connection keeps
	// the uniqueness constraint the only coordination point.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// DB returns the underlying sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Initialize opens the SQLite store and registers it as the active storage
// backend. Failure here is the one fatal startup error the system has.
func Initialize(cfg *config.DatabaseConfig) (*Store, error) {
	store, err := Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
	}

	students := NewStudentRepository(store)
	attendance := NewAttendanceRepository(store)

	database.RegisterBackend(
		"sqlite",
		func() database.StudentWriter { return students },
		func() database.AttendanceWriter { return attendance },
		func() database.Maintenance { return store },
	)
	return store, nil
}
