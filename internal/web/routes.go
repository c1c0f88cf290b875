package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(s.config, s.sessionManager)
	studentsHandler := handlers.NewStudentsHandler(s.services.Students)
	attendanceHandler := handlers.NewAttendanceHandler(s.services.Attendance, s.services.Records)
	reportsHandler := handlers.NewReportsHandler(s.services.Reports)
	recognizeHandler := handlers.NewRecognizeHandler(s.services.Recognition)
	statsHandler := handlers.NewStatsHandler(s.services.Attendance, s.services.Records)
	configHandler := handlers.NewConfigHandler(s.config)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/session", authHandler.Session)

		// Everything else requires a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			// Students
			r.Get("/students", studentsHandler.List)
			r.Post("/students", studentsHandler.Create)
			r.Get("/students/departments", studentsHandler.Departments)
			r.Get("/students/batches", studentsHandler.Batches)
			r.Get("/students/{id}", studentsHandler.Get)
			r.Put("/students/{id}", studentsHandler.Update)
			r.Put("/students/{id}/photo", studentsHandler.UpdatePhoto)
			r.Delete("/students/{id}", studentsHandler.Delete)

			// Attendance
			r.Get("/attendance/today", attendanceHandler.Today)
			r.Get("/attendance/recent", attendanceHandler.Recent)
			r.Get("/attendance/range", attendanceHandler.Range)
			r.Get("/attendance/date/{date}", attendanceHandler.ByDate)
			r.Get("/attendance/student/{id}", attendanceHandler.ByStudent)
			r.Post("/attendance", attendanceHandler.Mark)
			r.Put("/attendance/{id}/{date}", attendanceHandler.SetStatus)
			r.Delete("/attendance/{id}/{date}", attendanceHandler.Delete)

			// Recognition
			r.Post("/recognize", recognizeHandler.Recognize)

			// Reports
			r.Get("/reports/daily", reportsHandler.Daily)
			r.Get("/reports/student/{id}", reportsHandler.Student)
			r.Get("/reports/range", reportsHandler.Range)
			r.Get("/reports/departments", reportsHandler.Departments)
			r.Get("/reports/defaulters", reportsHandler.Defaulters)
			r.Get("/reports/monthly", reportsHandler.Monthly)
			r.Get("/reports/summary", reportsHandler.Summary)

			// Dashboard
			r.Get("/stats", statsHandler.Get)
			r.Get("/config", configHandler.Get)
		})
	})
}
