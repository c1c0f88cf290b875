package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/student"
)

// StudentRepository provides SQLite-backed student storage.
type StudentRepository struct {
	store *Store
}

// NewStudentRepository creates a new SQLite student repository.
func NewStudentRepository(store *Store) *StudentRepository {
	return &StudentRepository{store: store}
}

const studentColumns = "id, student_id, name, email, department, batch, face_encoding, photo_path, registration_date"

// scanStudent scans one student row. Rows whose encoding blob fails to
// decode keep a nil encoding so loaders can skip them.
func scanStudent(row interface{ Scan(...any) error }) (*database.Student, error) {
	var s database.Student
	var email, department, batch, photoPath sql.NullString
	var encoding []byte
	var registered string

	err := row.Scan(&s.ID, &s.StudentID, &s.Name, &email, &department, &batch, &encoding, &photoPath, &registered)
	if err != nil {
		return nil, err
	}

	s.Email = email.String
	s.Department = department.String
	s.Batch = batch.String
	s.PhotoPath = photoPath.String

	if t, err := time.Parse("2006-01-02 15:04:05", registered); err == nil {
		s.RegistrationDate = t
	}

	if len(encoding) > 0 {
		if vec, err := database.DecodeEmbedding(encoding); err == nil {
			s.Encoding = vec
		}
	}
	return &s, nil
}

func scanStudents(rows *sql.Rows) ([]database.Student, error) {
	var students []database.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// Get retrieves a student by external student id.
func (r *StudentRepository) Get(ctx context.Context, studentID string) (*database.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE student_id = ?"
	s, err := scanStudent(r.store.db.QueryRowContext(ctx, query, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	return s, nil
}

// Exists checks whether a student id is registered.
func (r *StudentRepository) Exists(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := r.store.db.QueryRowContext(
		ctx, "SELECT EXISTS(SELECT 1 FROM students WHERE student_id = ?)", studentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student exists: %w", err)
	}
	return exists, nil
}

// List returns all students ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	query := "SELECT " + studentColumns + " FROM students ORDER BY name"
	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// Search returns students matching the term by id, name or department.
// The term is normalized (lowercase, no diacritics) before matching.
func (r *StudentRepository) Search(ctx context.Context, term string) ([]database.Student, error) {
	pattern := "%" + student.NormalizeName(term) + "%"
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE LOWER(student_id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(department) LIKE ?
		ORDER BY name`

	rows, err := r.store.db.QueryContext(ctx, query, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// Departments returns the distinct non-empty department names.
func (r *StudentRepository) Departments(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "department")
}

// Batches returns the distinct non-empty batch names.
func (r *StudentRepository) Batches(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "batch")
}

func (r *StudentRepository) distinctColumn(ctx context.Context, column string) ([]string, error) {
	// column is one of the fixed identifiers above, never user input
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM students WHERE %s IS NOT NULL AND %s != '' ORDER BY %s",
		column, column, column, column,
	)
	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", column, err)
	}
	return values, nil
}

// Count returns the total number of registered students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Insert registers a new student. A taken student id yields ErrDuplicateStudent.
func (r *StudentRepository) Insert(ctx context.Context, s *database.Student) error {
	registered := s.RegistrationDate
	if registered.IsZero() {
		registered = time.Now()
	}

	result, err := r.store.db.ExecContext(ctx, `
		INSERT INTO students (student_id, name, email, department, batch, face_encoding, photo_path, registration_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO NOTHING`,
		s.StudentID, s.Name, nullable(s.Email), nullable(s.Department), nullable(s.Batch),
		database.EncodeEmbedding(s.Encoding), nullable(s.PhotoPath),
		registered.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert student rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrDuplicateStudent
	}

	if id, err := result.LastInsertId(); err == nil {
		s.ID = id
	}
	return nil
}

// UpdateFields updates the editable profile fields of a student.
func (r *StudentRepository) UpdateFields(ctx context.Context, studentID, name, email, department, batch string) error {
	result, err := r.store.db.ExecContext(ctx, `
		UPDATE students SET name = ?, email = ?, department = ?, batch = ?
		WHERE student_id = ?`,
		name, nullable(email), nullable(department), nullable(batch), studentID,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(result)
}

// UpdateEncoding replaces the stored face encoding and photo path.
func (r *StudentRepository) UpdateEncoding(ctx context.Context, studentID string, encoding []float64, photoPath string) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE students SET face_encoding = ?, photo_path = ? WHERE student_id = ?",
		database.EncodeEmbedding(encoding), nullable(photoPath), studentID,
	)
	if err != nil {
		return fmt.Errorf("update encoding: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a student and their attendance rows.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}

	// Attendance rows reference students.student_id, remove them first
	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE student_id = ?", studentID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete attendance rows: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM students WHERE student_id = ?", studentID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return database.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// nullable converts an empty string to a SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// requireAffected maps a zero-row update to ErrNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Interface compliance.
var _ database.StudentWriter = (*StudentRepository)(nil)
