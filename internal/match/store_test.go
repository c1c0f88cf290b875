package match

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestStoreReload_SkipsUnusableRows(t *testing.T) {
	students := mock.NewMockStudentStore()
	students.AddStudent(database.Student{StudentID: "S001", Name: "a", Encoding: []float64{1, 2, 3}})
	students.AddStudent(database.Student{StudentID: "S002", Name: "b"}) // never photographed
	students.AddStudent(database.Student{StudentID: "S003", Name: "c", Encoding: []float64{1, 2}}) // wrong dimension

	store := NewStore(students, 3)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("expected 1 usable encoding, got %d", store.Count())
	}
	if store.Skipped() != 1 {
		t.Errorf("expected 1 skipped row, got %d", store.Skipped())
	}
	if all := store.All(); len(all) != 1 || all[0].StudentID != "S001" {
		t.Errorf("unexpected store contents: %+v", all)
	}
}

func TestStoreReload_PropagatesRepositoryError(t *testing.T) {
	students := mock.NewMockStudentStore()
	students.ListError = errors.New("disk gone")

	store := NewStore(students, 3)
	if err := store.Reload(context.Background()); err == nil {
		t.Fatal("expected reload to fail")
	}
}

func TestStoreReload_ReplacesPreviousContents(t *testing.T) {
	students := mock.NewMockStudentStore()
	students.AddStudent(database.Student{StudentID: "S001", Name: "a", Encoding: []float64{1, 2, 3}})

	store := NewStore(students, 3)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	students.AddStudent(database.Student{StudentID: "S002", Name: "b", Encoding: []float64{4, 5, 6}})
	if store.Count() != 1 {
		t.Errorf("store changed without reload: %d", store.Count())
	}

	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("second reload failed: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("expected 2 encodings after reload, got %d", store.Count())
	}
}

func TestStoreIndexEntries(t *testing.T) {
	students := mock.NewMockStudentStore()
	students.AddStudent(database.Student{StudentID: "S001", Name: "a", Encoding: []float64{1, 2, 3}})
	students.AddStudent(database.Student{StudentID: "S002", Name: "b", Encoding: []float64{4, 5, 6}})

	store := NewStore(students, 3)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	entries := store.IndexEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 index entries, got %d", len(entries))
	}
	for i, e := range store.All() {
		if entries[i].StudentID != e.StudentID {
			t.Errorf("entry %d: expected %s, got %s", i, e.StudentID, entries[i].StudentID)
		}
	}
}
