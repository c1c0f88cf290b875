package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-attendance/internal/report"
)

func TestReportsDaily_JSON(t *testing.T) {
	env := newTestEnv(t)
	seedAttendance(t, env)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Daily(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily?date=2024-01-10", nil))

	assertStatusCode(t, rec, http.StatusOK)
	var rep report.Report
	parseJSONResponse(t, rec, &rep)
	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rep.Rows))
	}
	if !strings.Contains(rep.Title, "2024-01-10") {
		t.Errorf("unexpected title %q", rep.Title)
	}
}

func TestReportsDaily_BadDate(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Daily(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily?date=yesterday", nil))

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestReportsDaily_CSVDownload(t *testing.T) {
	env := newTestEnv(t)
	seedAttendance(t, env)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Daily(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/daily?date=2024-01-10&format=csv", nil))

	assertStatusCode(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected an attachment disposition, got %q", cd)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// Header plus two records
	if len(rows) != 3 {
		t.Errorf("expected 3 CSV rows, got %d", len(rows))
	}
}

func TestReportsDaily_XLSXDownload(t *testing.T) {
	env := newTestEnv(t)
	seedAttendance(t, env)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Daily(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/daily?date=2024-01-10&format=xlsx", nil))

	assertStatusCode(t, rec, http.StatusOK)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Attendance")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 sheet rows, got %d", len(rows))
	}
}

func TestReportsDaily_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	seedAttendance(t, env)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Daily(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/daily?date=2024-01-10&format=pdf", nil))

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestReportsStudent_NotFound(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportsHandler(env.reports)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/reports/student/GHOST", nil),
		map[string]string{"id": "GHOST"},
	)
	rec := httptest.NewRecorder()
	handler.Student(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestReportsRange_RequiresBounds(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Range(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/range?from=2024-01-01", nil))

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestReportsDefaulters_BadThreshold(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Defaulters(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/defaulters?threshold=150", nil))

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestReportsMonthly(t *testing.T) {
	env := newTestEnv(t)
	seedAttendance(t, env)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Monthly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/monthly?year=2024&month=1", nil))

	assertStatusCode(t, rec, http.StatusOK)
	var rep report.Report
	parseJSONResponse(t, rec, &rep)
	// One row per session day in January
	if len(rep.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rep.Rows))
	}
}

func TestReportsMonthly_BadMonth(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Monthly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/monthly?year=2024&month=13", nil))

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestReportsSummary(t *testing.T) {
	env := newTestEnv(t)
	seedAttendance(t, env)
	handler := NewReportsHandler(env.reports)

	rec := httptest.NewRecorder()
	handler.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary", nil))

	assertStatusCode(t, rec, http.StatusOK)
	var rep report.Report
	parseJSONResponse(t, rec, &rep)

	metrics := make(map[string]string, len(rep.Rows))
	for _, row := range rep.Rows {
		metrics[row[0]] = row[1]
	}
	if metrics["Total Students"] != "2" {
		t.Errorf("expected 2 total students, got %q", metrics["Total Students"])
	}
	if metrics["Session Days"] != "2" {
		t.Errorf("expected 2 session days, got %q", metrics["Session Days"])
	}
}
