package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func newTestStores() (*mock.MockStudentStore, *mock.MockAttendanceStore) {
	students := mock.NewMockStudentStore()
	attendance := mock.NewMockAttendanceStore()
	attendance.Students = students
	return students, attendance
}

func TestRecord_InsertsNewRow(t *testing.T) {
	students, attendance := newTestStores()
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})
	recorder := NewRecorder(students, attendance, nil)

	at := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	outcome := recorder.Record(context.Background(), "S001", 0.9, at)

	if outcome.Kind != Inserted {
		t.Fatalf("expected Inserted, got %s (%s)", outcome.Kind, outcome.Reason)
	}
	if outcome.Date != "2024-01-10" {
		t.Errorf("expected date 2024-01-10, got %s", outcome.Date)
	}

	marked, err := attendance.IsMarked(context.Background(), "S001", "2024-01-10")
	if err != nil || !marked {
		t.Errorf("expected a stored row, marked=%v err=%v", marked, err)
	}
}

func TestRecord_SecondAttemptSameDayReportsAlreadyExists(t *testing.T) {
	students, attendance := newTestStores()
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})
	recorder := NewRecorder(students, attendance, nil)

	morning := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)

	if outcome := recorder.Record(context.Background(), "S001", 0.9, morning); outcome.Kind != Inserted {
		t.Fatalf("first attempt: expected Inserted, got %s", outcome.Kind)
	}
	if outcome := recorder.Record(context.Background(), "S001", 0.8, afternoon); outcome.Kind != AlreadyExists {
		t.Fatalf("second attempt: expected AlreadyExists, got %s", outcome.Kind)
	}

	count, err := attendance.CountRecords(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one row, got %d", count)
	}

	// The stored time stays from the first attempt
	records, err := attendance.ListByDate(context.Background(), "2024-01-10")
	if err != nil || len(records) != 1 {
		t.Fatalf("listing failed: %v (%d records)", err, len(records))
	}
	if records[0].Time != "09:00:00" {
		t.Errorf("expected original time preserved, got %s", records[0].Time)
	}
}

func TestRecord_NextDayInsertsNewRow(t *testing.T) {
	students, attendance := newTestStores()
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})
	recorder := NewRecorder(students, attendance, nil)

	day1 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	recorder.Record(context.Background(), "S001", 0.9, day1)
	if outcome := recorder.Record(context.Background(), "S001", 0.9, day2); outcome.Kind != Inserted {
		t.Fatalf("expected Inserted for the next day, got %s", outcome.Kind)
	}

	count, _ := attendance.CountRecords(context.Background())
	if count != 2 {
		t.Errorf("expected two rows, got %d", count)
	}
}

func TestRecord_UnregisteredStudentFails(t *testing.T) {
	students, attendance := newTestStores()
	recorder := NewRecorder(students, attendance, nil)

	outcome := recorder.Record(context.Background(), "GHOST", 0.9, time.Now())

	if outcome.Kind != Failed {
		t.Fatalf("expected Failed, got %s", outcome.Kind)
	}
	if outcome.Reason != "not registered" {
		t.Errorf("expected reason 'not registered', got %q", outcome.Reason)
	}
	if len(attendance.InsertCalls) != 0 {
		t.Error("expected no insert attempt for an unregistered student")
	}
}

func TestRecord_StorageErrorFails(t *testing.T) {
	students, attendance := newTestStores()
	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice"})
	attendance.InsertError = errors.New("database is locked")
	recorder := NewRecorder(students, attendance, nil)

	outcome := recorder.Record(context.Background(), "S001", 0.9, time.Now())

	if outcome.Kind != Failed {
		t.Fatalf("expected Failed, got %s", outcome.Kind)
	}
	if outcome.Reason != "database is locked" {
		t.Errorf("unexpected reason %q", outcome.Reason)
	}
	// One attempt, no retries
	if len(attendance.InsertCalls) != 1 {
		t.Errorf("expected exactly one insert attempt, got %d", len(attendance.InsertCalls))
	}
}

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind     OutcomeKind
		expected string
	}{
		{Inserted, "inserted"},
		{AlreadyExists, "already exists"},
		{Failed, "failed"},
		{OutcomeKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}
