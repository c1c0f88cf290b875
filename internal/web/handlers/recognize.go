package handlers

import (
	"io"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
)

// RecognizeHandler runs one recognition pass over an uploaded frame.
type RecognizeHandler struct {
	session *recognizer.Session
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(session *recognizer.Session) *RecognizeHandler {
	return &RecognizeHandler{session: session}
}

// Recognize accepts a multipart frame upload, classifies every face in it
// and records attendance for confident matches. One synchronous pass, same
// semantics as a recognition loop tick.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("frame")
	if err != nil {
		respondError(w, http.StatusBadRequest, "frame part is required")
		return
	}
	defer file.Close()

	frame, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read frame")
		return
	}

	result, err := h.session.ProcessFrame(r.Context(), frame)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
