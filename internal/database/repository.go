package database

import (
	"context"
)

// StudentReader provides read-only access to registered students
type StudentReader interface {
	// Get retrieves a student by external student id, returns ErrNotFound if missing
	Get(ctx context.Context, studentID string) (*Student, error)
	// Exists checks whether a student id is registered
	Exists(ctx context.Context, studentID string) (bool, error)
	// List returns all students ordered by name
	List(ctx context.Context) ([]Student, error)
	// Search returns students whose id, name or department matches the term.
	// The term is normalized (lowercase, diacritics removed) before matching.
	Search(ctx context.Context, term string) ([]Student, error)
	// Departments returns the distinct non-empty department names
	Departments(ctx context.Context) ([]string, error)
	// Batches returns the distinct non-empty batch names
	Batches(ctx context.Context) ([]string, error)
	// Count returns the total number of registered students
	Count(ctx context.Context) (int, error)
}

// StudentWriter provides write access to registered students
type StudentWriter interface {
	StudentReader

	// Insert registers a new student. Returns ErrDuplicateStudent if the
	// student id is already taken.
	Insert(ctx context.Context, student *Student) error

	// UpdateFields updates the editable profile fields of a student
	UpdateFields(ctx context.Context, studentID, name, email, department, batch string) error

	// UpdateEncoding replaces the stored face encoding and photo path.
	// Called when a registration photo is added or changed.
	UpdateEncoding(ctx context.Context, studentID string, encoding []float64, photoPath string) error

	// Delete removes a student and their attendance rows
	Delete(ctx context.Context, studentID string) error
}

// AttendanceReader provides read-only access to attendance records
type AttendanceReader interface {
	// IsMarked checks whether attendance exists for (student, date)
	IsMarked(ctx context.Context, studentID, date string) (bool, error)
	// ListByDate returns the records for one date joined with student fields,
	// newest first
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
	// History returns a student's records, optionally bounded by from/to dates
	// (inclusive, empty string means unbounded)
	History(ctx context.Context, studentID, from, to string) ([]AttendanceRecord, error)
	// ListRange returns records within [from, to] with optional department and
	// batch filters (empty string means no filter)
	ListRange(ctx context.Context, from, to, department, batch string) ([]AttendanceRecord, error)
	// Recent returns the most recent records up to limit
	Recent(ctx context.Context, limit int) ([]AttendanceRecord, error)
	// PresentCount returns how many students were present on a date
	PresentCount(ctx context.Context, date string) (int, error)
	// SessionDays returns the number of distinct dates with any record
	SessionDays(ctx context.Context) (int, error)
	// PresentDays returns how many days a student has been present
	PresentDays(ctx context.Context, studentID string) (int, error)
	// DailyCounts returns per-date present counts within [from, to]
	DailyCounts(ctx context.Context, from, to string) ([]DayCount, error)
	// CountRecords returns the total number of attendance records
	CountRecords(ctx context.Context) (int, error)
}

// AttendanceWriter provides write access to attendance records
type AttendanceWriter interface {
	AttendanceReader

	// Insert attempts to add a record for (student, date). The insert is
	// idempotent: if a record already exists the call succeeds with
	// inserted=false and the stored row is left untouched.
	Insert(ctx context.Context, studentID, date, timeOfDay, status string) (inserted bool, err error)

	// SetStatus overrides the status of an existing record.
	// Returns ErrNotFound if no record exists for (student, date).
	SetStatus(ctx context.Context, studentID, date, status string) error

	// Delete removes a single record. Returns ErrNotFound if missing.
	Delete(ctx context.Context, studentID, date string) error
}

// Maintenance provides user-initiated recovery and housekeeping operations
type Maintenance interface {
	// Backup copies the database to a timestamped file in destDir and
	// returns the backup path
	Backup(ctx context.Context, destDir string) (string, error)
	// Restore replaces the database content from a backup file
	Restore(ctx context.Context, backupPath string) error
	// ClearAll deletes all students and attendance records
	ClearAll(ctx context.Context) error
	// Info returns size and row counts for diagnostics
	Info(ctx context.Context) (*StoreInfo, error)
}
