package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// ConfigHandler serves a sanitized view of the runtime settings.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// ConfigResponse exposes the settings the dashboard needs. Credentials and
// connection strings never leave the process.
type ConfigResponse struct {
	Tolerance        float64 `json:"tolerance"`
	Model            string  `json:"model"`
	FrameSampling    int     `json:"frame_sampling"`
	DisplayThreshold float64 `json:"display_threshold"`
	EmbeddingDim     int     `json:"embedding_dim"`
	Driver           string  `json:"driver"`
	Theme            string  `json:"theme"`
	WindowWidth      int     `json:"window_width"`
	WindowHeight     int     `json:"window_height"`
	CameraIndex      int     `json:"camera_index"`
	CameraFPS        int     `json:"camera_fps"`
}

// Get returns the sanitized settings.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Tolerance:        h.config.Recognition.Tolerance,
		Model:            h.config.Recognition.Model,
		FrameSampling:    h.config.Recognition.FrameSampling,
		DisplayThreshold: h.config.Recognition.DisplayThreshold,
		EmbeddingDim:     h.config.Recognition.EmbeddingDim,
		Driver:           h.config.Database.Driver,
		Theme:            h.config.UI.Theme,
		WindowWidth:      h.config.UI.WindowWidth,
		WindowHeight:     h.config.UI.WindowHeight,
		CameraIndex:      h.config.Camera.Index,
		CameraFPS:        h.config.Camera.FPS,
	})
}
