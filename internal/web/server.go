// Package web runs the HTTP API server for the attendance dashboard.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/kozaktomas/face-attendance/internal/student"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

// Services bundles everything the API serves.
type Services struct {
	Students    *student.Service
	Attendance  *attendance.Service
	Reports     *report.Generator
	Recognition *recognizer.Session
	Records     database.AttendanceReader
}

// Server represents the web server.
type Server struct {
	config         *config.Config
	services       Services
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	log            *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, services Services, host string, port int, sessionSecret string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	s := &Server{
		config:         cfg,
		services:       services,
		router:         r,
		sessionManager: middleware.NewSessionManager(sessionSecret),
		log:            log,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // Frame uploads and exports can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting web server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
