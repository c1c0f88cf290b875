package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestStudent(t *testing.T, repo *StudentRepository, studentID, name string) {
	t.Helper()
	err := repo.Insert(context.Background(), &database.Student{
		StudentID:  studentID,
		Name:       name,
		Department: "CS",
		Batch:      "2024",
		Encoding:   []float64{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("failed to insert student %s: %v", studentID, err)
	}
}

func TestStudentRepository_InsertAndGet(t *testing.T) {
	store := openTestStore(t)
	repo := NewStudentRepository(store)
	ctx := context.Background()

	insertTestStudent(t, repo, "S001", "Alice Example")

	s, err := repo.Get(ctx, "S001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if s.Name != "Alice Example" {
		t.Errorf("expected name 'Alice Example', got '%s'", s.Name)
	}
	if s.Department != "CS" {
		t.Errorf("expected department 'CS', got '%s'", s.Department)
	}
	if len(s.Encoding) != 3 {
		t.Errorf("expected 3 encoding components, got %d", len(s.Encoding))
	}
	if s.RegistrationDate.IsZero() {
		t.Error("expected registration date to be set")
	}
}

func TestStudentRepository_DuplicateInsert(t *testing.T) {
	store := openTestStore(t)
	repo := NewStudentRepository(store)
	ctx := context.Background()

	insertTestStudent(t, repo, "S001", "Alice Example")

	err := repo.Insert(ctx, &database.Student{StudentID: "S001", Name: "Someone Else"})
	if err != database.ErrDuplicateStudent {
		t.Errorf("expected ErrDuplicateStudent, got %v", err)
	}

	// The original row is untouched
	s, err := repo.Get(ctx, "S001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if s.Name != "Alice Example" {
		t.Errorf("expected original name preserved, got '%s'", s.Name)
	}
}

func TestStudentRepository_GetMissing(t *testing.T) {
	store := openTestStore(t)
	repo := NewStudentRepository(store)

	_, err := repo.Get(context.Background(), "missing")
	if err != database.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentRepository_EncodingRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := NewStudentRepository(store)
	ctx := context.Background()

	vec := make([]float64, 128)
	for i := range vec {
		vec[i] = float64(i) * 0.007
	}
	if err := repo.Insert(ctx, &database.Student{StudentID: "S002", Name: "Bob", Encoding: vec}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	s, err := repo.Get(ctx, "S002")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// A stored encoding reloaded and compared to itself yields distance 0
	if d := database.EuclideanDistance(vec, s.Encoding); d != 0 {
		t.Errorf("expected distance 0 after round trip, got %f", d)
	}
}

func TestStudentRepository_UpdateEncoding(t *testing.T) {
	store := openTestStore(t)
	repo := NewStudentRepository(store)
	ctx := context.Background()

	insertTestStudent(t, repo, "S001", "Alice Example")

	newVec := []float64{0.9, 0.8, 0.7}
	if err := repo.UpdateEncoding(ctx, "S001", newVec, "photos/S001.jpg"); err != nil {
		t.Fatalf("update encoding failed: %v", err)
	}

	s, _ := repo.Get(ctx, "S001")
	if database.EuclideanDistance(s.Encoding, newVec) != 0 {
		t.Error("expected encoding to be replaced")
	}
	if s.PhotoPath != "photos/S001.jpg" {
		t.Errorf("expected photo path update, got '%s'", s.PhotoPath)
	}

	if err := repo.UpdateEncoding(ctx, "missing", newVec, ""); err != database.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing student, got %v", err)
	}
}

func TestStudentRepository_SearchAndListings(t *testing.T) {
	store := openTestStore(t)
	repo := NewStudentRepository(store)
	ctx := context.Background()

	insertTestStudent(t, repo, "S001", "Alice Example")
	insertTestStudent(t, repo, "S002", "Bob Sample")

	results, err := repo.Search(ctx, "alice")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].StudentID != "S001" {
		t.Errorf("expected search to find S001, got %d results", len(results))
	}

	departments, err := repo.Departments(ctx)
	if err != nil {
		t.Fatalf("departments failed: %v", err)
	}
	if len(departments) != 1 || departments[0] != "CS" {
		t.Errorf("expected single department 'CS', got %v", departments)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 students, got %d", len(all))
	}
	// Ordered by name
	if all[0].Name != "Alice Example" {
		t.Errorf("expected Alice first, got '%s'", all[0].Name)
	}
}

func TestStudentRepository_Delete(t *testing.T) {
	store := openTestStore(t)
	students := NewStudentRepository(store)
	attendance := NewAttendanceRepository(store)
	ctx := context.Background()

	insertTestStudent(t, students, "S001", "Alice Example")
	if _, err := attendance.Insert(ctx, "S001", "2024-01-10", "09:00:00", "Present"); err != nil {
		t.Fatalf("insert attendance failed: %v", err)
	}

	if err := students.Delete(ctx, "S001"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := students.Get(ctx, "S001"); err != database.ErrNotFound {
		t.Errorf("expected student gone, got %v", err)
	}
	count, _ := attendance.CountRecords(ctx)
	if count != 0 {
		t.Errorf("expected attendance rows removed with student, got %d", count)
	}

	if err := students.Delete(ctx, "missing"); err != database.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing student, got %v", err)
	}
}

func TestAttendanceRepository_IdempotentInsert(t *testing.T) {
	store := openTestStore(t)
	students := NewStudentRepository(store)
	attendance := NewAttendanceRepository(store)
	ctx := context.Background()

	insertTestStudent(t, students, "S001", "Alice Example")

	inserted, err := attendance.Insert(ctx, "S001", "2024-01-10", "09:00:00", "Present")
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if !inserted {
		t.Error("expected first insert to report inserted")
	}

	// Second insert for the same day is a no-op, not an error
	inserted, err = attendance.Insert(ctx, "S001", "2024-01-10", "10:30:00", "Present")
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if inserted {
		t.Error("expected second insert to report already recorded")
	}

	records, err := attendance.ListByDate(ctx, "2024-01-10")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one stored row, got %d", len(records))
	}
	if records[0].Time != "09:00:00" {
		t.Errorf("expected original time preserved, got '%s'", records[0].Time)
	}

	// A different day creates a new row
	inserted, err = attendance.Insert(ctx, "S001", "2024-01-11", "09:05:00", "Present")
	if err != nil {
		t.Fatalf("next-day insert failed: %v", err)
	}
	if !inserted {
		t.Error("expected next-day insert to report inserted")
	}
}

func TestAttendanceRepository_HistoryAndRange(t *testing.T) {
	store := openTestStore(t)
	students := NewStudentRepository(store)
	attendance := NewAttendanceRepository(store)
	ctx := context.Background()

	insertTestStudent(t, students, "S001", "Alice Example")
	insertTestStudent(t, students, "S002", "Bob Sample")
	for _, date := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
		if _, err := attendance.Insert(ctx, "S001", date, "09:00:00", "Present"); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if _, err := attendance.Insert(ctx, "S002", "2024-01-11", "09:10:00", "Present"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	history, err := attendance.History(ctx, "S001", "2024-01-11", "")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 bounded history rows, got %d", len(history))
	}

	ranged, err := attendance.ListRange(ctx, "2024-01-10", "2024-01-11", "CS", "")
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(ranged) != 3 {
		t.Errorf("expected 3 rows in range, got %d", len(ranged))
	}

	days, err := attendance.SessionDays(ctx)
	if err != nil {
		t.Fatalf("session days failed: %v", err)
	}
	if days != 3 {
		t.Errorf("expected 3 session days, got %d", days)
	}

	presentDays, err := attendance.PresentDays(ctx, "S001")
	if err != nil {
		t.Fatalf("present days failed: %v", err)
	}
	if presentDays != 3 {
		t.Errorf("expected 3 present days for S001, got %d", presentDays)
	}

	counts, err := attendance.DailyCounts(ctx, "2024-01-10", "2024-01-12")
	if err != nil {
		t.Fatalf("daily counts failed: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 daily counts, got %d", len(counts))
	}
	if counts[1].Date != "2024-01-11" || counts[1].Present != 2 {
		t.Errorf("expected 2 present on 2024-01-11, got %+v", counts[1])
	}
}

func TestAttendanceRepository_StatusOverrideAndDelete(t *testing.T) {
	store := openTestStore(t)
	students := NewStudentRepository(store)
	attendance := NewAttendanceRepository(store)
	ctx := context.Background()

	insertTestStudent(t, students, "S001", "Alice Example")
	if _, err := attendance.Insert(ctx, "S001", "2024-01-10", "09:00:00", "Present"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := attendance.SetStatus(ctx, "S001", "2024-01-10", "Late"); err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	records, _ := attendance.ListByDate(ctx, "2024-01-10")
	if records[0].Status != "Late" {
		t.Errorf("expected status 'Late', got '%s'", records[0].Status)
	}

	if err := attendance.SetStatus(ctx, "S001", "2024-02-01", "Late"); err != database.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing record, got %v", err)
	}

	if err := attendance.Delete(ctx, "S001", "2024-01-10"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := attendance.Delete(ctx, "S001", "2024-01-10"); err != database.ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_BackupAndRestore(t *testing.T) {
	store := openTestStore(t)
	students := NewStudentRepository(store)
	attendance := NewAttendanceRepository(store)
	ctx := context.Background()

	insertTestStudent(t, students, "S001", "Alice Example")
	if _, err := attendance.Insert(ctx, "S001", "2024-01-10", "09:00:00", "Present"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	backupPath, err := store.Backup(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	// Wipe and restore
	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	count, _ := students.Count(ctx)
	if count != 0 {
		t.Fatalf("expected empty store after clear, got %d students", count)
	}

	if err := store.Restore(ctx, backupPath); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	s, err := students.Get(ctx, "S001")
	if err != nil {
		t.Fatalf("expected student back after restore: %v", err)
	}
	if s.Name != "Alice Example" {
		t.Errorf("expected restored name, got '%s'", s.Name)
	}
	marked, _ := attendance.IsMarked(ctx, "S001", "2024-01-10")
	if !marked {
		t.Error("expected attendance row back after restore")
	}
}

func TestStore_Info(t *testing.T) {
	store := openTestStore(t)
	students := NewStudentRepository(store)
	ctx := context.Background()

	insertTestStudent(t, students, "S001", "Alice Example")

	info, err := store.Info(ctx)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.Students != 1 {
		t.Errorf("expected 1 student, got %d", info.Students)
	}
	if info.SizeBytes == 0 {
		t.Error("expected non-zero database size")
	}
	if info.Path == "" {
		t.Error("expected database path in info")
	}
}

func TestStore_RestoreRejectsGarbage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Restore(ctx, filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error for missing backup file")
	}
}
