package student

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mysql"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

// ImportResult summarizes a roster import run.
type ImportResult struct {
	Imported int
	Skipped  int // already registered
	Invalid  int // failed field validation
}

// Roster lists students from an external system. Satisfied by mysql.Pool.
type Roster interface {
	ListRoster(ctx context.Context) ([]mysql.RosterEntry, error)
}

// ImportRoster copies students from the external roster into the attendance
// store. Imported students carry no face encoding until a photo is
// registered. Existing and invalid entries are counted and skipped; the
// optional progress callback fires once per processed entry.
func (s *Service) ImportRoster(ctx context.Context, roster Roster, progress func(done, total int)) (*ImportResult, error) {
	entries, err := roster.ListRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read roster: %w", err)
	}

	result := &ImportResult{}
	for i, e := range entries {
		if progress != nil {
			progress(i+1, len(entries))
		}

		if err := validate.StudentFields(e.StudentID, e.Name, e.Email, e.Department, e.Batch); err != nil {
			s.log.Warn("skipping invalid roster entry",
				zap.String("student_id", e.StudentID),
				zap.Error(err),
			)
			result.Invalid++
			continue
		}

		_, err := s.Register(ctx, e.StudentID, e.Name, e.Email, e.Department, e.Batch, nil)
		switch {
		case errors.Is(err, database.ErrDuplicateStudent):
			result.Skipped++
		case err != nil:
			return result, fmt.Errorf("could not import %s: %w", e.StudentID, err)
		default:
			result.Imported++
		}
	}

	s.log.Info("roster import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("invalid", result.Invalid),
	)
	return result, nil
}
