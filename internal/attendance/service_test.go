package attendance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func newTestService(t *testing.T) (*Service, *mock.MockStudentStore, *mock.MockAttendanceStore) {
	t.Helper()
	students, attendance := newTestStores()
	svc := NewService(students, attendance, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) }
	return svc, students, attendance
}

func TestManualEntry(t *testing.T) {
	svc, students, attendance := newTestService(t)
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})

	inserted, err := svc.ManualEntry(context.Background(), "S001", "2024-01-09", constants.StatusLate)
	if err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected a new row")
	}

	records, _ := attendance.ListByDate(context.Background(), "2024-01-09")
	if len(records) != 1 || records[0].Status != constants.StatusLate {
		t.Errorf("unexpected records: %+v", records)
	}

	// Duplicate date reports false without error
	inserted, err = svc.ManualEntry(context.Background(), "S001", "2024-01-09", constants.StatusPresent)
	if err != nil {
		t.Fatalf("duplicate manual entry errored: %v", err)
	}
	if inserted {
		t.Error("expected duplicate to report not inserted")
	}
}

func TestManualEntry_UnknownStudent(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ManualEntry(context.Background(), "GHOST", "2024-01-09", constants.StatusPresent)
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOverrideStatusAndRemove(t *testing.T) {
	svc, students, attendance := newTestService(t)
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})
	if _, err := svc.ManualEntry(context.Background(), "S001", "2024-01-09", constants.StatusPresent); err != nil {
		t.Fatal(err)
	}

	if err := svc.OverrideStatus(context.Background(), "S001", "2024-01-09", constants.StatusAbsent); err != nil {
		t.Fatalf("override failed: %v", err)
	}
	records, _ := attendance.ListByDate(context.Background(), "2024-01-09")
	if records[0].Status != constants.StatusAbsent {
		t.Errorf("expected Absent, got %s", records[0].Status)
	}

	if err := svc.RemoveRecord(context.Background(), "S001", "2024-01-09"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := svc.RemoveRecord(context.Background(), "S001", "2024-01-09"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestDayStatistics(t *testing.T) {
	svc, students, _ := newTestService(t)
	for _, id := range []string{"S001", "S002", "S003", "S004"} {
		students.AddStudent(database.Student{StudentID: id, Name: id})
	}
	svc.MarkNow(context.Background(), "S001", 0.9)
	svc.MarkNow(context.Background(), "S002", 0.9)
	if _, err := svc.ManualEntry(context.Background(), "S003", "2024-01-10", constants.StatusAbsent); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.DayStatistics(context.Background(), "2024-01-10")
	if err != nil {
		t.Fatalf("day statistics failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("expected 4 total, got %d", stats.Total)
	}
	// Only Present rows count; the Absent row does not
	if stats.Present != 2 {
		t.Errorf("expected 2 present, got %d", stats.Present)
	}
	if stats.Absent != 2 {
		t.Errorf("expected 2 absent, got %d", stats.Absent)
	}
	if math.Abs(stats.Percentage-50.0) > 1e-9 {
		t.Errorf("expected 50%%, got %f", stats.Percentage)
	}
}

func TestDayStatistics_NoStudents(t *testing.T) {
	svc, _, _ := newTestService(t)

	stats, err := svc.DayStatistics(context.Background(), "2024-01-10")
	if err != nil {
		t.Fatalf("day statistics failed: %v", err)
	}
	if stats.Percentage != 0 {
		t.Errorf("expected zero percentage with no students, got %f", stats.Percentage)
	}
}

func TestStudentPercentage(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice", Department: "CS"})
	students.AddStudent(database.Student{StudentID: "S002", Name: "Bob"})

	// Three session days, Alice present on two
	for _, date := range []string{"2024-01-08", "2024-01-09"} {
		if _, err := svc.ManualEntry(context.Background(), "S001", date, constants.StatusPresent); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.ManualEntry(context.Background(), "S002", "2024-01-10", constants.StatusPresent); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.StudentPercentage(context.Background(), "S001")
	if err != nil {
		t.Fatalf("student percentage failed: %v", err)
	}
	if stats.PresentDays != 2 || stats.TotalDays != 3 {
		t.Errorf("expected 2/3 days, got %d/%d", stats.PresentDays, stats.TotalDays)
	}
	if math.Abs(stats.Percentage-200.0/3.0) > 1e-9 {
		t.Errorf("unexpected percentage %f", stats.Percentage)
	}
	if stats.Name != "Alice" || stats.Department != "CS" {
		t.Errorf("expected joined profile fields, got %+v", stats)
	}
}

func TestStudentPercentage_UnknownStudent(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.StudentPercentage(context.Background(), "GHOST"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDefaulters(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})
	students.AddStudent(database.Student{StudentID: "S002", Name: "Bob"})
	students.AddStudent(database.Student{StudentID: "S003", Name: "Carol"})

	// Four session days: Alice 4/4, Bob 2/4, Carol 1/4
	dates := []string{"2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09"}
	for _, date := range dates {
		if _, err := svc.ManualEntry(context.Background(), "S001", date, constants.StatusPresent); err != nil {
			t.Fatal(err)
		}
	}
	for _, date := range dates[:2] {
		if _, err := svc.ManualEntry(context.Background(), "S002", date, constants.StatusPresent); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.ManualEntry(context.Background(), "S003", dates[0], constants.StatusPresent); err != nil {
		t.Fatal(err)
	}

	defaulters, err := svc.Defaulters(context.Background(), 75.0)
	if err != nil {
		t.Fatalf("defaulters failed: %v", err)
	}
	if len(defaulters) != 2 {
		t.Fatalf("expected 2 defaulters, got %d", len(defaulters))
	}
	// Worst first
	if defaulters[0].StudentID != "S003" || defaulters[1].StudentID != "S002" {
		t.Errorf("unexpected order: %s, %s", defaulters[0].StudentID, defaulters[1].StudentID)
	}
}

func TestDefaulters_NoSessions(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})

	defaulters, err := svc.Defaulters(context.Background(), 75.0)
	if err != nil {
		t.Fatalf("defaulters failed: %v", err)
	}
	if len(defaulters) != 0 {
		t.Errorf("expected no defaulters before any session, got %d", len(defaulters))
	}
}
