package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	service *attendance.Service
	records database.AttendanceReader
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *attendance.Service, records database.AttendanceReader) *StatsHandler {
	return &StatsHandler{service: svc, records: records}
}

// StatsResponse is the dashboard payload.
type StatsResponse struct {
	Date         string           `json:"date"`
	Total        int              `json:"total_students"`
	Present      int              `json:"present"`
	Absent       int              `json:"absent"`
	Percentage   float64          `json:"percentage"`
	SessionDays  int              `json:"session_days"`
	TotalRecords int              `json:"total_records"`
	Recent       []RecordResponse `json:"recent"`
}

// Get returns today's statistics along with the recent records.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format("2006-01-02")

	day, err := h.service.DayStatistics(r.Context(), today)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	sessionDays, err := h.records.SessionDays(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	totalRecords, err := h.records.CountRecords(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	recent, err := h.records.Recent(r.Context(), constants.DefaultRecentLimit)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Date:         day.Date,
		Total:        day.Total,
		Present:      day.Present,
		Absent:       day.Absent,
		Percentage:   day.Percentage,
		SessionDays:  sessionDays,
		TotalRecords: totalRecords,
		Recent:       toRecordResponses(recent),
	})
}
