package student

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

// Encoder computes a face embedding from a registration photo. Satisfied by
// encoder.Client; photos must contain exactly one face.
type Encoder interface {
	EncodeOne(ctx context.Context, image []byte) ([]float64, error)
}

// Service manages student registration and profiles.
type Service struct {
	repo     database.StudentWriter
	encoder  Encoder
	photoDir string
	log      *zap.Logger
}

// NewService creates a student service. photoDir receives a copy of every
// registration photo, named after the student id.
func NewService(repo database.StudentWriter, enc Encoder, photoDir string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, encoder: enc, photoDir: photoDir, log: log}
}

// Register validates and stores a new student. When photo bytes are given
// the face embedding is computed and the photo is kept under the photo
// directory; without a photo the student is registered unencoded and can be
// completed later with UpdatePhoto.
func (s *Service) Register(ctx context.Context, studentID, name, email, department, batch string, photo []byte) (*database.Student, error) {
	if err := validate.StudentFields(studentID, name, email, department, batch); err != nil {
		return nil, err
	}

	st := &database.Student{
		StudentID:        studentID,
		Name:             name,
		Email:            email,
		Department:       department,
		Batch:            batch,
		RegistrationDate: time.Now(),
	}

	if len(photo) > 0 {
		embedding, err := s.encoder.EncodeOne(ctx, photo)
		if err != nil {
			return nil, fmt.Errorf("could not encode registration photo: %w", err)
		}
		photoPath, err := s.storePhoto(studentID, photo)
		if err != nil {
			return nil, err
		}
		st.Encoding = embedding
		st.PhotoPath = photoPath
	}

	if err := s.repo.Insert(ctx, st); err != nil {
		return nil, err
	}

	s.log.Info("student registered",
		zap.String("student_id", studentID),
		zap.Bool("has_encoding", st.HasEncoding()),
	)
	return st, nil
}

// Update changes the editable profile fields.
func (s *Service) Update(ctx context.Context, studentID, name, email, department, batch string) error {
	if err := validate.StudentFields(studentID, name, email, department, batch); err != nil {
		return err
	}
	if err := s.repo.UpdateFields(ctx, studentID, name, email, department, batch); err != nil {
		return fmt.Errorf("could not update student: %w", err)
	}
	return nil
}

// UpdatePhoto replaces a student's photo and recomputes the embedding.
func (s *Service) UpdatePhoto(ctx context.Context, studentID string, photo []byte) error {
	if _, err := s.repo.Get(ctx, studentID); err != nil {
		return fmt.Errorf("could not load student: %w", err)
	}

	embedding, err := s.encoder.EncodeOne(ctx, photo)
	if err != nil {
		return fmt.Errorf("could not encode photo: %w", err)
	}
	photoPath, err := s.storePhoto(studentID, photo)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEncoding(ctx, studentID, embedding, photoPath); err != nil {
		return fmt.Errorf("could not store new encoding: %w", err)
	}

	s.log.Info("student photo updated", zap.String("student_id", studentID))
	return nil
}

// Remove deletes a student along with their attendance rows. The stored
// photo is removed best effort; a leftover file is not an error.
func (s *Service) Remove(ctx context.Context, studentID string) error {
	st, err := s.repo.Get(ctx, studentID)
	if err != nil {
		return fmt.Errorf("could not load student: %w", err)
	}

	if err := s.repo.Delete(ctx, studentID); err != nil {
		return fmt.Errorf("could not delete student: %w", err)
	}

	if st.PhotoPath != "" {
		if err := os.Remove(st.PhotoPath); err != nil && !os.IsNotExist(err) {
			s.log.Warn("could not remove student photo",
				zap.String("student_id", studentID),
				zap.String("path", st.PhotoPath),
				zap.Error(err),
			)
		}
	}

	s.log.Info("student removed", zap.String("student_id", studentID))
	return nil
}

// Get returns one student by id.
func (s *Service) Get(ctx context.Context, studentID string) (*database.Student, error) {
	return s.repo.Get(ctx, studentID)
}

// List returns all students ordered by name.
func (s *Service) List(ctx context.Context) ([]database.Student, error) {
	return s.repo.List(ctx)
}

// Search returns students matching the term by id, name or department.
func (s *Service) Search(ctx context.Context, term string) ([]database.Student, error) {
	return s.repo.Search(ctx, term)
}

// Departments returns the distinct department names.
func (s *Service) Departments(ctx context.Context) ([]string, error) {
	return s.repo.Departments(ctx)
}

// Batches returns the distinct batch names.
func (s *Service) Batches(ctx context.Context) ([]string, error) {
	return s.repo.Batches(ctx)
}

// storePhoto writes the registration photo as <photoDir>/<student_id>.jpg.
func (s *Service) storePhoto(studentID string, photo []byte) (string, error) {
	if err := os.MkdirAll(s.photoDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create photo directory: %w", err)
	}
	path := filepath.Join(s.photoDir, studentID+".jpg")
	if err := os.WriteFile(path, photo, 0o644); err != nil {
		return "", fmt.Errorf("could not store photo: %w", err)
	}
	return path, nil
}
