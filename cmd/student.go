package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/student"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage registered students",
	Long:  `Commands for registering, listing and removing students.`,
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered students",
	RunE:  runStudentList,
}

var studentShowCmd = &cobra.Command{
	Use:   "show <student-id>",
	Short: "Show one student's details and attendance percentage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentShow,
}

var studentUpdateCmd = &cobra.Command{
	Use:   "update <student-id>",
	Short: "Update a student's profile fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentUpdate,
}

var studentRemoveCmd = &cobra.Command{
	Use:   "remove <student-id>",
	Short: "Remove a student and their attendance records",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentRemove,
}

func init() {
	rootCmd.AddCommand(studentCmd)
	studentCmd.AddCommand(studentListCmd)
	studentCmd.AddCommand(studentShowCmd)
	studentCmd.AddCommand(studentUpdateCmd)
	studentCmd.AddCommand(studentRemoveCmd)

	studentListCmd.Flags().String("search", "", "Filter by id, name or department")
	studentUpdateCmd.Flags().String("name", "", "New name")
	studentUpdateCmd.Flags().String("email", "", "New email address")
	studentUpdateCmd.Flags().String("department", "", "New department")
	studentUpdateCmd.Flags().String("batch", "", "New batch")
	studentRemoveCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

// newStudentService opens the storage backend and wires the student service
// for one-shot CLI commands. The encoder client is only created when a
// command actually uploads a photo.
func newStudentService(cfg *config.Config, withEncoder bool) (*student.Service, func(), error) {
	closeStorage, err := initStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	students, _, err := openStores()
	if err != nil {
		closeStorage()
		return nil, nil, err
	}

	var enc student.Encoder
	if withEncoder {
		client, err := newEncoderClient(cfg)
		if err != nil {
			closeStorage()
			return nil, nil, fmt.Errorf("creating encoder client: %w", err)
		}
		enc = client
	}

	return student.NewService(students, enc, cfg.Paths.PhotoDir, nil), closeStorage, nil
}

func runStudentList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	svc, closeStorage, err := newStudentService(cfg, false)
	if err != nil {
		return err
	}
	defer closeStorage()

	ctx := context.Background()
	search := mustGetString(cmd, "search")

	var students []database.Student
	if search != "" {
		students, err = svc.Search(ctx, search)
	} else {
		students, err = svc.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}

	if len(students) == 0 {
		fmt.Println("No students found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEPARTMENT\tBATCH\tENCODED")
	for _, s := range students {
		encoded := "no"
		if s.HasEncoding() {
			encoded = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.StudentID, s.Name, s.Department, s.Batch, encoded)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d students\n", len(students))
	return nil
}

func runStudentShow(cmd *cobra.Command, args []string) error {
	studentID := args[0]

	cfg := config.Load()
	closeStorage, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	students, records, err := openStores()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := students.Get(ctx, studentID)
	if err != nil {
		return fmt.Errorf("looking up student: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", st.StudentID)
	fmt.Fprintf(w, "Name:\t%s\n", st.Name)
	fmt.Fprintf(w, "Email:\t%s\n", st.Email)
	fmt.Fprintf(w, "Department:\t%s\n", st.Department)
	fmt.Fprintf(w, "Batch:\t%s\n", st.Batch)
	fmt.Fprintf(w, "Registered:\t%s\n", st.RegistrationDate.Format("2006-01-02"))
	encoded := "no"
	if st.HasEncoding() {
		encoded = "yes"
	}
	fmt.Fprintf(w, "Face encoded:\t%s\n", encoded)

	stats, err := attendance.NewService(students, records, nil).StudentPercentage(ctx, studentID)
	if err != nil {
		return fmt.Errorf("computing attendance: %w", err)
	}
	fmt.Fprintf(w, "Attendance:\t%d of %d days (%.1f%%)\n",
		stats.PresentDays, stats.TotalDays, stats.Percentage)
	w.Flush()
	return nil
}

func runStudentUpdate(cmd *cobra.Command, args []string) error {
	studentID := args[0]

	cfg := config.Load()
	svc, closeStorage, err := newStudentService(cfg, false)
	if err != nil {
		return err
	}
	defer closeStorage()

	ctx := context.Background()
	st, err := svc.Get(ctx, studentID)
	if err != nil {
		return fmt.Errorf("looking up student: %w", err)
	}

	// Unset flags keep the stored values
	name, email := st.Name, st.Email
	department, batch := st.Department, st.Batch
	if cmd.Flags().Changed("name") {
		name = mustGetString(cmd, "name")
	}
	if cmd.Flags().Changed("email") {
		email = mustGetString(cmd, "email")
	}
	if cmd.Flags().Changed("department") {
		department = mustGetString(cmd, "department")
	}
	if cmd.Flags().Changed("batch") {
		batch = mustGetString(cmd, "batch")
	}

	if err := svc.Update(ctx, studentID, name, email, department, batch); err != nil {
		return fmt.Errorf("updating student: %w", err)
	}
	fmt.Printf("Updated %s\n", studentID)
	return nil
}

func runStudentRemove(cmd *cobra.Command, args []string) error {
	studentID := args[0]
	skipConfirm := mustGetBool(cmd, "yes")

	cfg := config.Load()
	svc, closeStorage, err := newStudentService(cfg, false)
	if err != nil {
		return err
	}
	defer closeStorage()

	ctx := context.Background()
	st, err := svc.Get(ctx, studentID)
	if err != nil {
		return fmt.Errorf("looking up student: %w", err)
	}

	if !skipConfirm {
		prompt := fmt.Sprintf("Remove %s (%s) and all their attendance records? [y/N]: ", st.Name, st.StudentID)
		if !confirmAction(prompt) {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := svc.Remove(ctx, studentID); err != nil {
		return fmt.Errorf("removing student: %w", err)
	}
	fmt.Printf("Removed %s (%s)\n", st.Name, st.StudentID)
	return nil
}
