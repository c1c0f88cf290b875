package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/student"
	"github.com/pgvector/pgvector-go"
)

// StudentRepository provides PostgreSQL-backed student storage. Encodings are
// stored in a pgvector column so server-side distance queries stay available.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "id, student_id, name, email, department, batch, face_encoding, photo_path, registration_date"

// vectorToFloat64 converts a pgvector value back to the float64 layout the
// matcher operates on.
func vectorToFloat64(v pgvector.Vector) []float64 {
	slice := v.Slice()
	if len(slice) == 0 {
		return nil
	}
	out := make([]float64, len(slice))
	for i, f := range slice {
		out[i] = float64(f)
	}
	return out
}

// float64ToVector converts an embedding to the float32 pgvector layout.
// Returns nil for empty embeddings (stored as NULL).
func float64ToVector(vec []float64) any {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	for i, f := range vec {
		out[i] = float32(f)
	}
	return pgvector.NewVector(out)
}

// nullVector scans a nullable vector column.
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (n *nullVector) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	if err := n.vec.Scan(src); err != nil {
		return err
	}
	n.valid = true
	return nil
}

func scanStudent(row interface{ Scan(...any) error }) (*database.Student, error) {
	var s database.Student
	var email, department, batch, photoPath sql.NullString
	var encoding nullVector
	var registered time.Time

	err := row.Scan(&s.ID, &s.StudentID, &s.Name, &email, &department, &batch, &encoding, &photoPath, &registered)
	if err != nil {
		return nil, err
	}

	s.Email = email.String
	s.Department = department.String
	s.Batch = batch.String
	s.PhotoPath = photoPath.String
	s.RegistrationDate = registered
	if encoding.valid {
		s.Encoding = vectorToFloat64(encoding.vec)
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
	query := "SELECT " + studentColumns + " FROM students WHERE student_id = $1"
	s, err := scanStudent(r.pool.QueryRow(ctx, query, studentID))
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
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1)", studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student exists: %w", err)
	}
	return exists, nil
}

// List returns all students ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+studentColumns+" FROM students ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// Search returns students matching the term by id, name or department.
// The term is normalized in Go; unaccent folds the stored columns to match.
func (r *StudentRepository) Search(ctx context.Context, term string) ([]database.Student, error) {
	pattern := "%" + student.NormalizeName(term) + "%"
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE LOWER(student_id) LIKE $1
		   OR LOWER(unaccent(name)) LIKE $1
		   OR LOWER(unaccent(COALESCE(department, ''))) LIKE $1
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, pattern)
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
	rows, err := r.pool.Query(ctx, query)
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
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

	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (student_id, name, email, department, batch, face_encoding, photo_path, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id) DO NOTHING
		RETURNING id`,
		s.StudentID, s.Name, nullable(s.Email), nullable(s.Department), nullable(s.Batch),
		float64ToVector(s.Encoding), nullable(s.PhotoPath), registered,
	).Scan(&s.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrDuplicateStudent
	}
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdateFields updates the editable profile fields of a student.
func (r *StudentRepository) UpdateFields(ctx context.Context, studentID, name, email, department, batch string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE students SET name = $1, email = $2, department = $3, batch = $4
		WHERE student_id = $5`,
		name, nullable(email), nullable(department), nullable(batch), studentID,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(result)
}

// UpdateEncoding replaces the stored face encoding and photo path.
func (r *StudentRepository) UpdateEncoding(ctx context.Context, studentID string, encoding []float64, photoPath string) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE students SET face_encoding = $1, photo_path = $2 WHERE student_id = $3",
		float64ToVector(encoding), nullable(photoPath), studentID,
	)
	if err != nil {
		return fmt.Errorf("update encoding: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a student and their attendance rows.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE student_id = $1", studentID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete attendance rows: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM students WHERE student_id = $1", studentID)
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
