package report

import (
	"context"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func seededGenerator(t *testing.T) *Generator {
	t.Helper()
	students := mock.NewMockStudentStore()
	attStore := mock.NewMockAttendanceStore()
	attStore.Students = students

	students.AddStudent(database.Student{StudentID: "S001", Name: "Alice Smith", Department: "CS", Batch: "2024"})
	students.AddStudent(database.Student{StudentID: "S002", Name: "Bob Jones", Department: "CS", Batch: "2024"})
	students.AddStudent(database.Student{StudentID: "S003", Name: "Carol White", Department: "EE", Batch: "2023"})

	ctx := context.Background()
	mustInsert := func(id, date string) {
		t.Helper()
		if _, err := attStore.Insert(ctx, id, date, "09:00:00", constants.StatusPresent); err != nil {
			t.Fatal(err)
		}
	}
	// Two session days: all present on day one, only Alice on day two
	mustInsert("S001", "2024-01-10")
	mustInsert("S002", "2024-01-10")
	mustInsert("S003", "2024-01-10")
	mustInsert("S001", "2024-01-11")

	svc := attendance.NewService(students, attStore, nil)
	return NewGenerator(students, attStore, svc)
}

func TestDaily(t *testing.T) {
	g := seededGenerator(t)

	report, err := g.Daily(context.Background(), "2024-01-10")
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}
	if len(report.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(report.Rows))
	}
	if len(report.Columns) != 6 {
		t.Errorf("expected 6 columns, got %d", len(report.Columns))
	}
	// Joined student fields come through
	if report.Rows[0][1] == "" {
		t.Error("expected a joined name in the report row")
	}
}

func TestStudentHistory(t *testing.T) {
	g := seededGenerator(t)

	report, err := g.StudentHistory(context.Background(), "S001", "", "")
	if err != nil {
		t.Fatalf("history report failed: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}

	bounded, err := g.StudentHistory(context.Background(), "S001", "2024-01-11", "2024-01-11")
	if err != nil {
		t.Fatal(err)
	}
	if len(bounded.Rows) != 1 {
		t.Errorf("expected 1 bounded row, got %d", len(bounded.Rows))
	}

	if _, err := g.StudentHistory(context.Background(), "GHOST", "", ""); err == nil {
		t.Error("expected an error for an unknown student")
	}
}

func TestRange_WithFilters(t *testing.T) {
	g := seededGenerator(t)

	all, err := g.Range(context.Background(), "2024-01-01", "2024-01-31", "", "")
	if err != nil {
		t.Fatalf("range report failed: %v", err)
	}
	if len(all.Rows) != 4 {
		t.Errorf("expected 4 rows, got %d", len(all.Rows))
	}

	cs, err := g.Range(context.Background(), "2024-01-01", "2024-01-31", "CS", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Rows) != 3 {
		t.Errorf("expected 3 CS rows, got %d", len(cs.Rows))
	}
}

func TestDepartments(t *testing.T) {
	g := seededGenerator(t)

	report, err := g.Departments(context.Background())
	if err != nil {
		t.Fatalf("departments report failed: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 departments, got %d", len(report.Rows))
	}

	byDept := map[string][]string{}
	for _, row := range report.Rows {
		byDept[row[0]] = row
	}
	// CS: 2 students x 2 days, 3 present days -> 75%
	if byDept["CS"][3] != "75.0%" {
		t.Errorf("expected CS 75.0%%, got %s", byDept["CS"][3])
	}
	// EE: 1 student x 2 days, 1 present day -> 50%
	if byDept["EE"][3] != "50.0%" {
		t.Errorf("expected EE 50.0%%, got %s", byDept["EE"][3])
	}
}

func TestDefaulters(t *testing.T) {
	g := seededGenerator(t)

	report, err := g.Defaulters(context.Background(), 75.0)
	if err != nil {
		t.Fatalf("defaulters report failed: %v", err)
	}
	// Bob and Carol are at 50%, Alice at 100%
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 defaulters, got %d", len(report.Rows))
	}
	for _, row := range report.Rows {
		if row[0] == "S001" {
			t.Error("S001 has full attendance and must not be listed")
		}
	}
}

func TestMonthly(t *testing.T) {
	g := seededGenerator(t)

	report, err := g.Monthly(context.Background(), 2024, time.January)
	if err != nil {
		t.Fatalf("monthly report failed: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 session days, got %d", len(report.Rows))
	}
	// Day one: 3 of 3 students
	if report.Rows[0][0] != "2024-01-10" || report.Rows[0][2] != "100.0%" {
		t.Errorf("unexpected first row: %v", report.Rows[0])
	}
}

func TestSummary(t *testing.T) {
	g := seededGenerator(t)

	report, err := g.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary report failed: %v", err)
	}

	metrics := map[string]string{}
	for _, row := range report.Rows {
		metrics[row[0]] = row[1]
	}
	if metrics["Total Students"] != "3" {
		t.Errorf("expected 3 students, got %s", metrics["Total Students"])
	}
	if metrics["Total Records"] != "4" {
		t.Errorf("expected 4 records, got %s", metrics["Total Records"])
	}
	if metrics["Session Days"] != "2" {
		t.Errorf("expected 2 session days, got %s", metrics["Session Days"])
	}
}
