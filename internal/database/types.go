package database

import (
	"errors"
	"time"
)

// Student represents a registered identity.
type Student struct {
	ID               int64
	StudentID        string    // unique external identifier
	Name             string
	Email            string
	Department       string
	Batch            string
	Encoding         []float64 // face embedding, nil until a photo is registered
	PhotoPath        string
	RegistrationDate time.Time
}

// HasEncoding reports whether the student has a usable face embedding.
func (s *Student) HasEncoding() bool {
	return len(s.Encoding) > 0
}

// AttendanceRecord represents one logged presence event for a student on a
// calendar date. At most one record exists per (student, date) pair.
type AttendanceRecord struct {
	ID        int64
	StudentID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM:SS
	Status    string // Present, Absent or Late

	// Joined student fields, populated by listing queries
	Name       string
	Department string
	Batch      string
}

// DayCount holds the number of present students for one session date.
type DayCount struct {
	Date    string
	Present int
}

// StoreInfo describes the state of the attendance store for diagnostics.
type StoreInfo struct {
	Path      string // database file path (empty for server backends)
	SizeBytes int64  // database file size (0 for server backends)
	Students  int
	Records   int
}

// Sentinel errors shared across storage backends.
var (
	// ErrNotFound indicates the requested student or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateStudent indicates an insert with an already-registered student id.
	ErrDuplicateStudent = errors.New("student id already registered")
)
