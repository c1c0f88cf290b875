// Package attendance records presence events and computes attendance
// statistics on top of them.
package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// OutcomeKind enumerates the possible results of a recording attempt.
type OutcomeKind int

const (
	// Inserted means a new attendance row was created.
	Inserted OutcomeKind = iota
	// AlreadyExists means the student already had a row for the date.
	// Not an error; the stored row is untouched.
	AlreadyExists
	// Failed means the attempt did not complete; Reason carries the cause.
	Failed
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already exists"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one recording attempt.
type Outcome struct {
	Kind      OutcomeKind
	StudentID string
	Date      string
	Reason    string // set when Kind == Failed
}

// Recorder writes attendance events. One synchronous insert per call;
// duplicates for the same (student, date) are reported, never retried.
type Recorder struct {
	students   database.StudentReader
	attendance database.AttendanceWriter
	log        *zap.Logger
}

// NewRecorder creates a recorder over the given repositories.
func NewRecorder(students database.StudentReader, attendance database.AttendanceWriter, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{students: students, attendance: attendance, log: log}
}

// Record attempts to log presence for the student at the given moment.
// Confidence is informational only; it never changes the decision.
func (r *Recorder) Record(ctx context.Context, studentID string, confidence float64, at time.Time) Outcome {
	date := at.Format("2006-01-02")
	timeOfDay := at.Format("15:04:05")

	known, err := r.students.Exists(ctx, studentID)
	if err != nil {
		r.log.Error("attendance lookup failed", zap.String("student_id", studentID), zap.Error(err))
		return Outcome{Kind: Failed, StudentID: studentID, Date: date, Reason: err.Error()}
	}
	if !known {
		return Outcome{Kind: Failed, StudentID: studentID, Date: date, Reason: "not registered"}
	}

	inserted, err := r.attendance.Insert(ctx, studentID, date, timeOfDay, constants.StatusPresent)
	if err != nil {
		r.log.Error("attendance insert failed", zap.String("student_id", studentID), zap.String("date", date), zap.Error(err))
		return Outcome{Kind: Failed, StudentID: studentID, Date: date, Reason: err.Error()}
	}
	if !inserted {
		return Outcome{Kind: AlreadyExists, StudentID: studentID, Date: date}
	}

	r.log.Info("attendance recorded",
		zap.String("student_id", studentID),
		zap.String("date", date),
		zap.String("time", timeOfDay),
		zap.Float64("confidence", confidence),
	)
	return Outcome{Kind: Inserted, StudentID: studentID, Date: date}
}
