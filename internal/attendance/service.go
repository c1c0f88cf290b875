package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// DayStats summarizes attendance for one calendar date.
type DayStats struct {
	Date       string  `json:"date"`
	Total      int     `json:"total_students"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

// StudentStats summarizes one student's attendance over all session days.
type StudentStats struct {
	StudentID   string  `json:"student_id"`
	Name        string  `json:"name"`
	Department  string  `json:"department,omitempty"`
	Batch       string  `json:"batch,omitempty"`
	PresentDays int     `json:"present_days"`
	TotalDays   int     `json:"total_days"`
	Percentage  float64 `json:"percentage"`
}

// Service bundles the recorder with manual entry and statistics.
type Service struct {
	recorder   *Recorder
	students   database.StudentReader
	attendance database.AttendanceWriter
	log        *zap.Logger
	now        func() time.Time
}

// NewService creates an attendance service over the given repositories.
func NewService(students database.StudentReader, attendance database.AttendanceWriter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		recorder:   NewRecorder(students, attendance, log),
		students:   students,
		attendance: attendance,
		log:        log,
		now:        time.Now,
	}
}

// MarkNow records presence for the student at the current time. Used by the
// recognition loop and the recognize API endpoint.
func (s *Service) MarkNow(ctx context.Context, studentID string, confidence float64) Outcome {
	return s.recorder.Record(ctx, studentID, confidence, s.now())
}

// ManualEntry records attendance for an explicit date and status. Unlike
// the recognition path it is an administrative action: a duplicate date is
// reported back to the operator, a missing student is an error.
func (s *Service) ManualEntry(ctx context.Context, studentID, date, status string) (bool, error) {
	known, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return false, fmt.Errorf("could not check student: %w", err)
	}
	if !known {
		return false, fmt.Errorf("student %q: %w", studentID, database.ErrNotFound)
	}

	inserted, err := s.attendance.Insert(ctx, studentID, date, s.now().Format("15:04:05"), status)
	if err != nil {
		return false, fmt.Errorf("could not insert attendance: %w", err)
	}
	if inserted {
		s.log.Info("manual attendance entry",
			zap.String("student_id", studentID),
			zap.String("date", date),
			zap.String("status", status),
		)
	}
	return inserted, nil
}

// OverrideStatus changes the status of an existing record.
func (s *Service) OverrideStatus(ctx context.Context, studentID, date, status string) error {
	if err := s.attendance.SetStatus(ctx, studentID, date, status); err != nil {
		return fmt.Errorf("could not override status: %w", err)
	}
	s.log.Info("attendance status overridden",
		zap.String("student_id", studentID),
		zap.String("date", date),
		zap.String("status", status),
	)
	return nil
}

// RemoveRecord deletes a single attendance record.
func (s *Service) RemoveRecord(ctx context.Context, studentID, date string) error {
	if err := s.attendance.Delete(ctx, studentID, date); err != nil {
		return fmt.Errorf("could not remove attendance record: %w", err)
	}
	return nil
}

// DayStatistics computes totals for one date. Absent counts every
// registered student without a Present row on that date.
func (s *Service) DayStatistics(ctx context.Context, date string) (*DayStats, error) {
	total, err := s.students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count students: %w", err)
	}
	present, err := s.attendance.PresentCount(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("could not count present students: %w", err)
	}

	stats := &DayStats{Date: date, Total: total, Present: present, Absent: total - present}
	if total > 0 {
		stats.Percentage = float64(present) / float64(total) * 100
	}
	return stats, nil
}

// StudentPercentage computes one student's attendance over all session days.
// With no sessions held yet the percentage is zero.
func (s *Service) StudentPercentage(ctx context.Context, studentID string) (*StudentStats, error) {
	st, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("could not load student: %w", err)
	}

	totalDays, err := s.attendance.SessionDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count session days: %w", err)
	}
	presentDays, err := s.attendance.PresentDays(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("could not count present days: %w", err)
	}

	stats := &StudentStats{
		StudentID:   st.StudentID,
		Name:        st.Name,
		Department:  st.Department,
		Batch:       st.Batch,
		PresentDays: presentDays,
		TotalDays:   totalDays,
	}
	if totalDays > 0 {
		stats.Percentage = float64(presentDays) / float64(totalDays) * 100
	}
	return stats, nil
}

// Defaulters lists students whose attendance percentage is strictly below
// the threshold, worst first. With no sessions held the list is empty.
func (s *Service) Defaulters(ctx context.Context, threshold float64) ([]StudentStats, error) {
	totalDays, err := s.attendance.SessionDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count session days: %w", err)
	}
	if totalDays == 0 {
		return nil, nil
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list students: %w", err)
	}

	var defaulters []StudentStats
	for _, st := range students {
		presentDays, err := s.attendance.PresentDays(ctx, st.StudentID)
		if err != nil {
			return nil, fmt.Errorf("could not count present days for %s: %w", st.StudentID, err)
		}
		pct := float64(presentDays) / float64(totalDays) * 100
		if pct < threshold {
			defaulters = append(defaulters, StudentStats{
				StudentID:   st.StudentID,
				Name:        st.Name,
				Department:  st.Department,
				Batch:       st.Batch,
				PresentDays: presentDays,
				TotalDays:   totalDays,
				Percentage:  pct,
			})
		}
	}

	sort.Slice(defaulters, func(i, j int) bool {
		if defaulters[i].Percentage != defaulters[j].Percentage {
			return defaulters[i].Percentage < defaulters[j].Percentage
		}
		return defaulters[i].StudentID < defaulters[j].StudentID
	})
	return defaulters, nil
}
