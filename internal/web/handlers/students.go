package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/student"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

// StudentsHandler handles student roster endpoints.
type StudentsHandler struct {
	service *student.Service
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(svc *student.Service) *StudentsHandler {
	return &StudentsHandler{service: svc}
}

// StudentResponse is the API shape of a student.
type StudentResponse struct {
	StudentID        string `json:"student_id"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Department       string `json:"department,omitempty"`
	Batch            string `json:"batch,omitempty"`
	HasEncoding      bool   `json:"has_encoding"`
	RegistrationDate string `json:"registration_date,omitempty"`
}

func toStudentResponse(s *database.Student) StudentResponse {
	resp := StudentResponse{
		StudentID:   s.StudentID,
		Name:        s.Name,
		Email:       s.Email,
		Department:  s.Department,
		Batch:       s.Batch,
		HasEncoding: s.HasEncoding(),
	}
	if !s.RegistrationDate.IsZero() {
		resp.RegistrationDate = s.RegistrationDate.Format(time.RFC3339)
	}
	return resp
}

// List returns all students, or a filtered set with ?search=.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		students []database.Student
		err      error
	)
	if term := r.URL.Query().Get("search"); term != "" {
		students, err = h.service.Search(r.Context(), term)
	} else {
		students, err = h.service.List(r.Context())
	}
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := make([]StudentResponse, 0, len(students))
	for i := range students {
		resp = append(resp, toStudentResponse(&students[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Get returns one student.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStudentResponse(st))
}

// createStudentRequest carries the registration form.
type createStudentRequest struct {
	StudentID  string `json:"student_id" validate:"required,student_id"`
	Name       string `json:"name" validate:"required,person_name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department" validate:"max=100"`
	Batch      string `json:"batch" validate:"max=50"`
}

// Create registers a new student. The request is a multipart form with the
// profile fields and an optional photo part.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := createStudentRequest{
		StudentID:  r.FormValue("student_id"),
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Department: r.FormValue("department"),
		Batch:      r.FormValue("batch"),
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	photo, err := readPhotoPart(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.service.Register(r.Context(), req.StudentID, req.Name, req.Email, req.Department, req.Batch, photo)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toStudentResponse(st))
}

// updateStudentRequest carries the editable profile fields.
type updateStudentRequest struct {
	Name       string `json:"name" validate:"required,person_name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department" validate:"max=100"`
	Batch      string `json:"batch" validate:"max=50"`
}

// Update changes a student's profile fields.
func (h *StudentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Update(r.Context(), id, req.Name, req.Email, req.Department, req.Batch); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdatePhoto replaces a student's photo and recomputes the encoding.
func (h *StudentsHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	photo, err := readPhotoPart(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if photo == nil {
		respondError(w, http.StatusBadRequest, "photo part is required")
		return
	}

	if err := h.service.UpdatePhoto(r.Context(), chi.URLParam(r, "id"), photo); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes a student and their attendance rows.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Departments returns the distinct department names.
func (h *StudentsHandler) Departments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.service.Departments(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, departments)
}

// Batches returns the distinct batch names.
func (h *StudentsHandler) Batches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.Batches(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

// readPhotoPart reads the optional "photo" part of a multipart form.
func readPhotoPart(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("photo")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
