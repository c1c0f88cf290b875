// Package mysql provides read-only access to an external roster system's
// MySQL database. It is only used for bulk-importing students; the imported
// records land in the attendance store without face encodings until a photo
// is registered.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MySQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MySQL connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MySQL DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// RosterEntry is one student row read from the external system.
type RosterEntry struct {
	StudentID  string
	Name       string
	Email      string
	Department string
	Batch      string
}

// ListRoster reads all students from the external system's students table.
func (p *Pool) ListRoster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT student_id, name, COALESCE(email, ''), COALESCE(department, ''), COALESCE(batch, '')
		FROM students
		ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var entries []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.StudentID, &e.Name, &e.Email, &e.Department, &e.Batch); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return entries, nil
}
