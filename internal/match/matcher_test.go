package match

import (
	"context"
	"math"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

// loadedStore builds a store over the given encodings via the mock repository.
func loadedStore(t *testing.T, dim int, encodings ...Encoding) *Store {
	t.Helper()
	students := mock.NewMockStudentStore()
	for i, e := range encodings {
		students.AddStudent(database.Student{
			ID:        int64(i + 1),
			StudentID: e.StudentID,
			Name:      e.StudentID,
			Encoding:  e.Vector,
		})
	}

	store := NewStore(students, dim)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	return store
}

// vectorAtDistance returns a copy of base displaced by exactly d along the
// first axis.
func vectorAtDistance(base []float64, d float64) []float64 {
	v := append([]float64(nil), base...)
	v[0] += d
	return v
}

func TestClassify_ExactMatchHasFullConfidence(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3}
	store := loadedStore(t, 3, Encoding{StudentID: "S001", Vector: a})
	matcher := NewMatcher(store, 0.6)

	result := matcher.Classify(a)

	if !result.Known {
		t.Fatal("expected a match for the stored vector itself")
	}
	if result.StudentID != "S001" {
		t.Errorf("expected S001, got %s", result.StudentID)
	}
	if result.Distance != 0 {
		t.Errorf("expected distance 0, got %f", result.Distance)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", result.Confidence)
	}
}

func TestClassify_BeyondToleranceIsUnknown(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3}
	store := loadedStore(t, 3, Encoding{StudentID: "S001", Vector: a})
	matcher := NewMatcher(store, 0.6)

	result := matcher.Classify(vectorAtDistance(a, 0.65))

	if result.Known {
		t.Errorf("expected unknown at distance 0.65 with tolerance 0.6, got match %s", result.StudentID)
	}
}

func TestClassify_MatchIffDistanceStrictlyBelowTolerance(t *testing.T) {
	a := []float64{0, 0, 0}
	store := loadedStore(t, 3, Encoding{StudentID: "S001", Vector: a})

	tests := []struct {
		name      string
		tolerance float64
		distance  float64
		match     bool
	}{
		{"well inside", 0.6, 0.3, true},
		{"just inside", 0.6, 0.59, true},
		{"exactly at tolerance", 0.6, 0.6, false},
		{"outside", 0.6, 0.7, false},
		{"strict tolerance", 0.4, 0.45, false},
		{"loose tolerance", 0.8, 0.45, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := NewMatcher(store, tt.tolerance)
			result := matcher.Classify(vectorAtDistance(a, tt.distance))
			if result.Known != tt.match {
				t.Errorf("tolerance %f distance %f: expected match=%v, got %v",
					tt.tolerance, tt.distance, tt.match, result.Known)
			}
		})
	}
}

func TestClassify_ConfidenceMonotonicallyDecreasing(t *testing.T) {
	a := []float64{0, 0, 0}
	store := loadedStore(t, 3, Encoding{StudentID: "S001", Vector: a})
	matcher := NewMatcher(store, 0.6)

	prev := math.Inf(1)
	for _, d := range []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.59} {
		result := matcher.Classify(vectorAtDistance(a, d))
		if !result.Known {
			t.Fatalf("expected match at distance %f", d)
		}
		if result.Confidence >= prev {
			t.Errorf("confidence did not decrease: %f at distance %f after %f", result.Confidence, d, prev)
		}
		prev = result.Confidence
	}
}

func TestClassify_EmptyStoreAlwaysUnknown(t *testing.T) {
	store := loadedStore(t, 3)
	matcher := NewMatcher(store, 0.6)

	result := matcher.Classify([]float64{0.1, 0.2, 0.3})

	if result.Known {
		t.Error("expected unknown for empty encoding store")
	}
}

func TestClassify_MalformedQueryIsUnknown(t *testing.T) {
	store := loadedStore(t, 3, Encoding{StudentID: "S001", Vector: []float64{0.1, 0.2, 0.3}})
	matcher := NewMatcher(store, 0.6)

	tests := []struct {
		name  string
		query []float64
	}{
		{"nil", nil},
		{"empty", []float64{}},
		{"wrong dimension", []float64{0.1, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := matcher.Classify(tt.query); result.Known {
				t.Error("expected unknown for malformed query")
			}
		})
	}
}

func TestClassify_PicksNearestIdentity(t *testing.T) {
	base := []float64{0, 0, 0}
	store := loadedStore(t, 3,
		Encoding{StudentID: "S001", Vector: vectorAtDistance(base, 0.5)},
		Encoding{StudentID: "S002", Vector: vectorAtDistance(base, 0.1)},
		Encoding{StudentID: "S003", Vector: vectorAtDistance(base, 0.3)},
	)
	matcher := NewMatcher(store, 0.6)

	result := matcher.Classify(base)

	if result.StudentID != "S002" {
		t.Errorf("expected nearest identity S002, got %s", result.StudentID)
	}
}

func TestClassify_TieBreaksToFirstLoaded(t *testing.T) {
	// Two identical encodings: the first-loaded one wins, deterministically.
	shared := []float64{0.2, 0.2, 0.2}
	store := loadedStore(t, 3,
		Encoding{StudentID: "S001", Vector: shared},
		Encoding{StudentID: "S002", Vector: shared},
	)
	matcher := NewMatcher(store, 0.6)

	for range 10 {
		result := matcher.Classify(shared)
		if result.StudentID != "S001" {
			t.Fatalf("expected tie to resolve to first-loaded S001, got %s", result.StudentID)
		}
	}
}

func TestClassify_RoundTripMatchesForAnyTolerance(t *testing.T) {
	vec := make([]float64, 128)
	for i := range vec {
		vec[i] = float64(i) * 0.01
	}
	store := loadedStore(t, 128, Encoding{StudentID: "S001", Vector: vec})

	for _, tolerance := range []float64{0.4, 0.6, 0.8, 0.001} {
		matcher := NewMatcher(store, tolerance)
		result := matcher.Classify(vec)
		if !result.Known {
			t.Errorf("expected self-match for tolerance %f", tolerance)
		}
	}
}

func TestClassify_WithHNSWIndex(t *testing.T) {
	base := []float64{0, 0, 0}
	store := loadedStore(t, 3,
		Encoding{StudentID: "S001", Vector: vectorAtDistance(base, 0.5)},
		Encoding{StudentID: "S002", Vector: vectorAtDistance(base, 0.1)},
	)

	index := database.NewEncodingIndex()
	if err := index.Build(store.IndexEntries()); err != nil {
		t.Fatalf("index build failed: %v", err)
	}

	matcher := NewMatcher(store, 0.6)
	matcher.UseIndex(index)

	result := matcher.Classify(base)
	if !result.Known || result.StudentID != "S002" {
		t.Errorf("expected indexed lookup to find S002, got %+v", result)
	}

	// Outside tolerance stays unknown through the index path too
	far := matcher.Classify(vectorAtDistance(base, 5))
	if far.Known {
		t.Error("expected unknown beyond tolerance with index attached")
	}
}
