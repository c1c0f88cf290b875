package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

// AttendanceHandler handles attendance record endpoints.
type AttendanceHandler struct {
	service *attendance.Service
	records database.AttendanceReader
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *attendance.Service, records database.AttendanceReader) *AttendanceHandler {
	return &AttendanceHandler{service: svc, records: records}
}

// RecordResponse is the API shape of an attendance record.
type RecordResponse struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Batch      string `json:"batch,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
}

func toRecordResponses(records []database.AttendanceRecord) []RecordResponse {
	resp := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, RecordResponse{
			StudentID:  r.StudentID,
			Name:       r.Name,
			Department: r.Department,
			Batch:      r.Batch,
			Date:       r.Date,
			Time:       r.Time,
			Status:     r.Status,
		})
	}
	return resp
}

// Today lists the records for the current date.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	h.listDate(w, r, time.Now().Format("2006-01-02"))
}

// ByDate lists the records for one date.
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := validate.Date(date); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.listDate(w, r, date)
}

func (h *AttendanceHandler) listDate(w http.ResponseWriter, r *http.Request, date string) {
	records, err := h.records.ListByDate(r.Context(), date)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}

// ByStudent lists one student's history, optionally bounded with
// ?from= and ?to=.
func (h *AttendanceHandler) ByStudent(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d != "" && !validate.DateValid(d) {
			respondError(w, http.StatusBadRequest, "date bounds must be in YYYY-MM-DD format")
			return
		}
	}

	records, err := h.records.History(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}

// Range lists records within ?from= and ?to=, with optional ?department=
// and ?batch= filters.
func (h *AttendanceHandler) Range(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if !validate.DateValid(from) || !validate.DateValid(to) {
		respondError(w, http.StatusBadRequest, "from and to dates are required in YYYY-MM-DD format")
		return
	}

	records, err := h.records.ListRange(r.Context(), from, to, q.Get("department"), q.Get("batch"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}

// Recent lists the most recent records, up to ?limit= (default 10).
func (h *AttendanceHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.records.Recent(r.Context(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}

// markRequest is a manual attendance entry.
type markRequest struct {
	StudentID string `json:"student_id" validate:"required,student_id"`
	Date      string `json:"date" validate:"required,attendance_date"`
	Status    string `json:"status" validate:"omitempty,attendance_status"`
}

// Mark creates a manual attendance entry.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = constants.StatusPresent
	}

	inserted, err := h.service.ManualEntry(r.Context(), req.StudentID, req.Date, req.Status)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"inserted": inserted})
}

// statusRequest overrides the status of an existing record.
type statusRequest struct {
	Status string `json:"status" validate:"required,attendance_status"`
}

// SetStatus overrides a record's status.
func (h *AttendanceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := validate.Date(date); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.OverrideStatus(r.Context(), chi.URLParam(r, "id"), date, req.Status); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes one attendance record.
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := validate.Date(date); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.RemoveRecord(r.Context(), chi.URLParam(r, "id"), date); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
