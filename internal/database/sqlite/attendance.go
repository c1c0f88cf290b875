package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository provides SQLite-backed attendance storage.
type AttendanceRepository struct {
	store *Store
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(store *Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

const recordColumns = `a.id, a.student_id, a.date, a.time, a.status,
	s.name, COALESCE(s.department, ''), COALESCE(s.batch, '')`

func scanRecords(rows *sql.Rows) ([]database.AttendanceRecord, error) {
	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.Time, &rec.Status,
			&rec.Name, &rec.Department, &rec.Batch)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// Insert attempts to add a record for (student, date). The UNIQUE(student_id,
// date) constraint makes a second insert for the same day a no-op: the call
// succeeds with inserted=false and the stored row is untouched.
func (r *AttendanceRepository) Insert(ctx context.Context, studentID, date, timeOfDay, status string) (bool, error) {
	result, err := r.store.db.ExecContext(ctx, `
		INSERT INTO attendance (student_id, date, time, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(student_id, date) DO NOTHING`,
		studentID, date, timeOfDay, status,
	)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert attendance rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsMarked checks whether attendance exists for (student, date).
func (r *AttendanceRepository) IsMarked(ctx context.Context, studentID, date string) (bool, error) {
	var exists bool
	err := r.store.db.QueryRowContext(
		ctx, "SELECT EXISTS(SELECT 1 FROM attendance WHERE student_id = ? AND date = ?)",
		studentID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance marked: %w", err)
	}
	return exists, nil
}

// ListByDate returns the records for one date joined with student fields.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM attendance a JOIN students s ON s.student_id = a.student_id
		WHERE a.date = ?
		ORDER BY a.time DESC`

	rows, err := r.store.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query attendance by date: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// History returns a student's records, optionally bounded by from/to dates.
func (r *AttendanceRepository) History(ctx context.Context, studentID, from, to string) ([]database.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM attendance a JOIN students s ON s.student_id = a.student_id
		WHERE a.student_id = ?`
	args := []any{studentID}

	if from != "" {
		query += " AND a.date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND a.date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY a.date DESC, a.time DESC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListRange returns records within [from, to] with optional department and
// batch filters.
func (r *AttendanceRepository) ListRange(ctx context.Context, from, to, department, batch string) ([]database.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM attendance a JOIN students s ON s.student_id = a.student_id
		WHERE a.date >= ? AND a.date <= ?`
	args := []any{from, to}

	if department != "" {
		query += " AND s.department = ?"
		args = append(args, department)
	}
	if batch != "" {
		query += " AND s.batch = ?"
		args = append(args, batch)
	}
	query += " ORDER BY a.date, s.name"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Recent returns the most recent records up to limit.
func (r *AttendanceRepository) Recent(ctx context.Context, limit int) ([]database.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM attendance a JOIN students s ON s.student_id = a.student_id
		ORDER BY a.date DESC, a.time DESC
		LIMIT ?`

	rows, err := r.store.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent attendance: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// PresentCount returns how many students were present on a date.
func (r *AttendanceRepository) PresentCount(ctx context.Context, date string) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(
		ctx, "SELECT COUNT(*) FROM attendance WHERE date = ? AND status = 'Present'", date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count present: %w", err)
	}
	return count, nil
}

// SessionDays returns the number of distinct dates with any record.
func (r *AttendanceRepository) SessionDays(ctx context.Context) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT date) FROM attendance").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count session days: %w", err)
	}
	return count, nil
}

// PresentDays returns how many days a student has been present.
func (r *AttendanceRepository) PresentDays(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(
		ctx, "SELECT COUNT(*) FROM attendance WHERE student_id = ? AND status = 'Present'", studentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count present days: %w", err)
	}
	return count, nil
}

// DailyCounts returns per-date present counts within [from, to].
func (r *AttendanceRepository) DailyCounts(ctx context.Context, from, to string) ([]database.DayCount, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT date, COUNT(*) FROM attendance
		WHERE date >= ? AND date <= ? AND status = 'Present'
		GROUP BY date ORDER BY date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()

	var counts []database.DayCount
	for rows.Next() {
		var c database.DayCount
		if err := rows.Scan(&c.Date, &c.Present); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily counts: %w", err)
	}
	return counts, nil
}

// CountRecords returns the total number of attendance records.
func (r *AttendanceRepository) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance").Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance records: %w", err)
	}
	return count, nil
}

// SetStatus overrides the status of an existing record. This is the explicit
// manual action; the recognition loop never updates records.
func (r *AttendanceRepository) SetStatus(ctx context.Context, studentID, date, status string) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE attendance SET status = ? WHERE student_id = ? AND date = ?",
		status, studentID, date,
	)
	if err != nil {
		return fmt.Errorf("update attendance status: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a single record.
func (r *AttendanceRepository) Delete(ctx context.Context, studentID, date string) error {
	result, err := r.store.db.ExecContext(ctx,
		"DELETE FROM attendance WHERE student_id = ? AND date = ?", studentID, date,
	)
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	return requireAffected(result)
}

// Interface compliance.
var _ database.AttendanceWriter = (*AttendanceRepository)(nil)
