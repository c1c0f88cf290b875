package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// PoolMaintenance implements housekeeping for the PostgreSQL backend.
// File-level backup and restore belong to the server's own tooling
// (pg_dump/pg_restore), so those operations report unsupported here.
type PoolMaintenance struct {
	pool *Pool
}

// NewMaintenance creates the maintenance facade for a pool.
func NewMaintenance(pool *Pool) *PoolMaintenance {
	return &PoolMaintenance{pool: pool}
}

// ErrUnsupported indicates an operation the PostgreSQL backend delegates to
// server-side tooling.
var ErrUnsupported = errors.New("not supported by the postgres backend, use pg_dump/pg_restore")

// Backup is unsupported for PostgreSQL.
func (m *PoolMaintenance) Backup(ctx context.Context, destDir string) (string, error) {
	return "", ErrUnsupported
}

// Restore is unsupported for PostgreSQL.
func (m *PoolMaintenance) Restore(ctx context.Context, backupPath string) error {
	return ErrUnsupported
}

// ClearAll deletes all students and attendance records.
func (m *PoolMaintenance) ClearAll(ctx context.Context) error {
	tx, err := m.pool.db.BeginTx(ctx, nil)
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

// Info returns row counts for diagnostics. Size comes from the server.
func (m *PoolMaintenance) Info(ctx context.Context) (*database.StoreInfo, error) {
	info := &database.StoreInfo{}

	if err := m.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&info.Students); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	if err := m.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance").Scan(&info.Records); err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	if err := m.pool.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&info.SizeBytes); err != nil {
		return nil, fmt.Errorf("database size: %w", err)
	}
	return info, nil
}

// Interface compliance.
var _ database.Maintenance = (*PoolMaintenance)(nil)
