package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Backup writes a consistent snapshot of the database to a timestamped file
// in destDir and returns the backup path. Recovery is user-initiated; there
// are no automatic backups.
func (s *Store) Backup(ctx context.Context, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	name := fmt.Sprintf("attendance_backup_%s.db", time.Now().Format("20060102_150405"))
	dest := filepath.Join(destDir, name)

	// VACUUM INTO produces a consistent single-file snapshot even in WAL mode.
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return dest, nil
}

// Restore replaces the database content from a backup file. The backup is
// verified by opening it before any live data is touched.
func (s *Store) Restore(ctx context.Context, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not accessible: %w", err)
	}

	// Verify the backup opens and carries the expected tables.
	verify, err := Open(backupPath)
	if err != nil {
		return fmt.Errorf("backup verification failed: %w", err)
	}
	if err := verify.Close(); err != nil {
		return fmt.Errorf("closing backup after verification: %w", err)
	}

	// ATTACH is not allowed inside a transaction, attach first.
	if _, err := s.db.ExecContext(ctx, "ATTACH DATABASE ? AS backup", backupPath); err != nil {
		return fmt.Errorf("attaching backup: %w", err)
	}
	defer s.db.ExecContext(ctx, "DETACH DATABASE backup")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore transaction: %w", err)
	}

	statements := []string{
		"DELETE FROM attendance",
		"DELETE FROM students",
		`INSERT INTO students (id, student_id, name, email, department, batch, face_encoding, photo_path, registration_date)
			SELECT id, student_id, name, email, department, batch, face_encoding, photo_path, registration_date FROM backup.students`,
		`INSERT INTO attendance (id, student_id, date, time, status)
			SELECT id, student_id, date, time, status FROM backup.attendance`,
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("restoring rows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}

// ClearAll deletes all students and attendance records.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear transaction: %w", err)
	}

	for _, stmt := range []string{"DELETE FROM attendance", "DELETE FROM students"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("clearing tables: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

// Info returns size and row counts for diagnostics.
func (s *Store) Info(ctx context.Context) (*database.StoreInfo, error) {
	info := &database.StoreInfo{Path: s.path}

	if stat, err := os.Stat(s.path); err == nil {
		info.SizeBytes = stat.Size()
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&info.Students); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance").Scan(&info.Records); err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	return info, nil
}

// Interface compliance.
var _ database.Maintenance = (*Store)(nil)
