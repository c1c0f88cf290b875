package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/encoder"
)

var studentRegisterCmd = &cobra.Command{
	Use:   "register <student-id> <name>",
	Short: "Register a new student",
	Long: `Register a new student, optionally with a face photo.

The photo must show exactly one face; it is encoded by the face encoder
service and the embedding is stored for recognition.

Examples:
  face-attendance student register S001 "Alice Smith" --department CS --photo alice.jpg
  face-attendance student register S002 "Bob Jones" --batch 2024`,
	Args: cobra.ExactArgs(2),
	RunE: runStudentRegister,
}

var studentPhotoCmd = &cobra.Command{
	Use:   "photo <student-id> <photo-file>",
	Short: "Set or replace a student's face photo",
	Args:  cobra.ExactArgs(2),
	RunE:  runStudentPhoto,
}

func init() {
	studentCmd.AddCommand(studentRegisterCmd)
	studentCmd.AddCommand(studentPhotoCmd)

	studentRegisterCmd.Flags().String("email", "", "Student email address")
	studentRegisterCmd.Flags().String("department", "", "Department name")
	studentRegisterCmd.Flags().String("batch", "", "Batch name")
	studentRegisterCmd.Flags().String("photo", "", "Path to a face photo")
}

// explainEncodingError turns the encoder sentinels into actionable messages.
func explainEncodingError(err error) error {
	switch {
	case errors.Is(err, encoder.ErrNoFace):
		return errors.New("no face detected in the photo, use a clear frontal shot")
	case errors.Is(err, encoder.ErrMultipleFaces):
		return errors.New("multiple faces detected, the photo must show exactly one person")
	default:
		return err
	}
}

func runStudentRegister(cmd *cobra.Command, args []string) error {
	studentID, name := args[0], args[1]
	email := mustGetString(cmd, "email")
	department := mustGetString(cmd, "department")
	batch := mustGetString(cmd, "batch")
	photoPath := mustGetString(cmd, "photo")

	var photo []byte
	if photoPath != "" {
		data, err := os.ReadFile(photoPath)
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}
		photo = data
	}

	cfg := config.Load()
	svc, closeStorage, err := newStudentService(cfg, photo != nil)
	if err != nil {
		return err
	}
	defer closeStorage()

	st, err := svc.Register(context.Background(), studentID, name, email, department, batch, photo)
	if err != nil {
		return explainEncodingError(err)
	}

	if st.HasEncoding() {
		fmt.Printf("Registered %s (%s) with face encoding\n", st.Name, st.StudentID)
	} else {
		fmt.Printf("Registered %s (%s) without a photo, recognition disabled until one is set\n", st.Name, st.StudentID)
	}
	return nil
}

func runStudentPhoto(cmd *cobra.Command, args []string) error {
	studentID, photoPath := args[0], args[1]

	photo, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	cfg := config.Load()
	svc, closeStorage, err := newStudentService(cfg, true)
	if err != nil {
		return err
	}
	defer closeStorage()

	if err := svc.UpdatePhoto(context.Background(), studentID, photo); err != nil {
		return explainEncodingError(err)
	}
	fmt.Printf("Updated face encoding for %s\n", studentID)
	return nil
}
