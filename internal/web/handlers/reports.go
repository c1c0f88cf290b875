package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

// ReportsHandler builds and serves the report suite.
type ReportsHandler struct {
	generator *report.Generator
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(g *report.Generator) *ReportsHandler {
	return &ReportsHandler{generator: g}
}

// Daily serves the daily report for ?date= (default today).
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if err := validate.Date(date); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.generator.Daily(r.Context(), date)
	h.serve(w, r, rep, err)
}

// Student serves one student's history report.
func (h *ReportsHandler) Student(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	for _, d := range []string{from, to} {
		if d != "" && !validate.DateValid(d) {
			respondError(w, http.StatusBadRequest, "date bounds must be in YYYY-MM-DD format")
			return
		}
	}

	rep, err := h.generator.StudentHistory(r.Context(), chi.URLParam(r, "id"), from, to)
	h.serve(w, r, rep, err)
}

// Range serves the date-range report.
func (h *ReportsHandler) Range(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if !validate.DateValid(from) || !validate.DateValid(to) {
		respondError(w, http.StatusBadRequest, "from and to dates are required in YYYY-MM-DD format")
		return
	}

	rep, err := h.generator.Range(r.Context(), from, to, q.Get("department"), q.Get("batch"))
	h.serve(w, r, rep, err)
}

// Departments serves the per-department statistics report.
func (h *ReportsHandler) Departments(w http.ResponseWriter, r *http.Request) {
	rep, err := h.generator.Departments(r.Context())
	h.serve(w, r, rep, err)
}

// Defaulters serves the below-threshold report, ?threshold= optional.
func (h *ReportsHandler) Defaulters(w http.ResponseWriter, r *http.Request) {
	threshold := constants.DefaultDefaulterThreshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil || t <= 0 || t > 100 {
			respondError(w, http.StatusBadRequest, "threshold must be a percentage")
			return
		}
		threshold = t
	}

	rep, err := h.generator.Defaulters(r.Context(), threshold)
	h.serve(w, r, rep, err)
}

// Monthly serves the monthly report for ?year= and ?month=.
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		respondError(w, http.StatusBadRequest, "year is required")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		respondError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}

	rep, genErr := h.generator.Monthly(r.Context(), year, time.Month(month))
	h.serve(w, r, rep, genErr)
}

// Summary serves the overall summary report.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rep, err := h.generator.Summary(r.Context())
	h.serve(w, r, rep, err)
}

// serve renders a report as JSON, or as a file download when ?format=csv
// or ?format=xlsx is given.
func (h *ReportsHandler) serve(w http.ResponseWriter, r *http.Request, rep *report.Report, err error) {
	if err != nil {
		respondStoreError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "":
		respondJSON(w, http.StatusOK, rep)
	case "csv":
		var buf bytes.Buffer
		if err := report.WriteCSV(rep, &buf); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sendDownload(w, &buf, rep.Title+".csv", "text/csv")
	case "xlsx":
		var buf bytes.Buffer
		if err := report.WriteXLSX(rep, &buf); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sendDownload(w, &buf, rep.Title+".xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

func sendDownload(w http.ResponseWriter, buf *bytes.Buffer, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
