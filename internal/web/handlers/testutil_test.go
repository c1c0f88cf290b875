package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/kozaktomas/face-attendance/internal/student"
)

// fakeEncoder returns a canned embedding for every photo.
type fakeEncoder struct {
	embedding []float64
	err       error
}

func (f *fakeEncoder) EncodeOne(ctx context.Context, image []byte) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

// fakeDetector returns one detection per configured embedding.
type fakeDetector struct {
	embeddings [][]float64
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) ([]encoder.Detection, error) {
	var faces []encoder.Detection
	for _, e := range f.embeddings {
		faces = append(faces, encoder.Detection{Embedding: e, Score: 0.99})
	}
	return faces, nil
}

// testEnv bundles the mock-backed services used by handler tests.
type testEnv struct {
	students   *mock.MockStudentStore
	attendance *mock.MockAttendanceStore
	encoder    *fakeEncoder

	studentSvc    *student.Service
	attendanceSvc *attendance.Service
	reports       *report.Generator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	students := mock.NewMockStudentStore()
	attStore := mock.NewMockAttendanceStore()
	attStore.Students = students
	enc := &fakeEncoder{embedding: []float64{0.1, 0.2, 0.3}}

	attendanceSvc := attendance.NewService(students, attStore, nil)
	return &testEnv{
		students:      students,
		attendance:    attStore,
		encoder:       enc,
		studentSvc:    student.NewService(students, enc, t.TempDir(), nil),
		attendanceSvc: attendanceSvc,
		reports:       report.NewGenerator(students, attStore, attendanceSvc),
	}
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message.
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
