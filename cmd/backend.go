package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/database/sqlite"
)

// initStorage opens the configured storage backend and registers it as the
// active one. The returned function closes the backend.
func initStorage(cfg *config.Config) (func(), error) {
	switch cfg.Database.Driver {
	case "sqlite":
		store, err := sqlite.Initialize(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return func() { _ = store.Close() }, nil
	case "postgres":
		if err := postgres.Initialize(&cfg.Database); err != nil {
			return nil, err
		}
		return func() { _ = postgres.GetGlobalPool().Close() }, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q (supported: sqlite, postgres)", cfg.Database.Driver)
	}
}

// openStores returns the repositories of the active backend.
func openStores() (database.StudentWriter, database.AttendanceWriter, error) {
	students, err := database.GetStudentWriter()
	if err != nil {
		return nil, nil, err
	}
	attendance, err := database.GetAttendanceWriter()
	if err != nil {
		return nil, nil, err
	}
	return students, attendance, nil
}
