package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "View and edit attendance records",
}

var attendanceTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's attendance",
	RunE:  runAttendanceToday,
}

var attendanceListCmd = &cobra.Command{
	Use:   "list <date>",
	Short: "Show the attendance records for a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceList,
}

var attendanceMarkCmd = &cobra.Command{
	Use:   "mark <student-id> [date]",
	Short: "Mark a student present (defaults to today)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAttendanceMark,
}

var attendanceStatusCmd = &cobra.Command{
	Use:   "status <student-id> <date> <Present|Absent|Late>",
	Short: "Override the status of an existing record",
	Args:  cobra.ExactArgs(3),
	RunE:  runAttendanceStatus,
}

var attendanceRemoveCmd = &cobra.Command{
	Use:   "remove <student-id> <date>",
	Short: "Remove a single attendance record",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttendanceRemove,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceTodayCmd)
	attendanceCmd.AddCommand(attendanceListCmd)
	attendanceCmd.AddCommand(attendanceMarkCmd)
	attendanceCmd.AddCommand(attendanceStatusCmd)
	attendanceCmd.AddCommand(attendanceRemoveCmd)

	attendanceMarkCmd.Flags().String("status", constants.StatusPresent, "Status to record: Present, Absent or Late")
}

// newAttendanceService opens the storage backend and wires the attendance
// service for one-shot CLI commands.
func newAttendanceService(cfg *config.Config) (*attendance.Service, database.AttendanceReader, func(), error) {
	closeStorage, err := initStorage(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	students, records, err := openStores()
	if err != nil {
		closeStorage()
		return nil, nil, nil, err
	}
	return attendance.NewService(students, records, nil), records, closeStorage, nil
}

func printRecords(records []database.AttendanceRecord) {
	if len(records) == 0 {
		fmt.Println("No records")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.StudentID, r.Name, r.Time, r.Status)
	}
	w.Flush()
}

func showDay(ctx context.Context, svc *attendance.Service, records database.AttendanceReader, date string) error {
	day, err := svc.DayStatistics(ctx, date)
	if err != nil {
		return fmt.Errorf("computing day statistics: %w", err)
	}
	list, err := records.ListByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	fmt.Printf("Attendance for %s\n\n", date)
	printRecords(list)
	fmt.Printf("\nPresent: %d of %d (%.1f%%)\n", day.Present, day.Total, day.Percentage)
	return nil
}

func runAttendanceToday(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	svc, records, closeStorage, err := newAttendanceService(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	return showDay(context.Background(), svc, records, time.Now().Format("2006-01-02"))
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	date := args[0]
	if err := validate.Date(date); err != nil {
		return err
	}

	cfg := config.Load()
	svc, records, closeStorage, err := newAttendanceService(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	return showDay(context.Background(), svc, records, date)
}

func runAttendanceMark(cmd *cobra.Command, args []string) error {
	studentID := args[0]
	date := time.Now().Format("2006-01-02")
	if len(args) == 2 {
		date = args[1]
	}
	status := mustGetString(cmd, "status")

	if err := validate.Date(date); err != nil {
		return err
	}
	if err := validate.Status(status); err != nil {
		return err
	}

	cfg := config.Load()
	svc, _, closeStorage, err := newAttendanceService(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	inserted, err := svc.ManualEntry(context.Background(), studentID, date, status)
	if err != nil {
		return fmt.Errorf("marking attendance: %w", err)
	}
	if inserted {
		fmt.Printf("Marked %s as %s on %s\n", studentID, status, date)
	} else {
		fmt.Printf("%s already has a record for %s, left unchanged\n", studentID, date)
	}
	return nil
}

func runAttendanceStatus(cmd *cobra.Command, args []string) error {
	studentID, date, status := args[0], args[1], args[2]
	if err := validate.Date(date); err != nil {
		return err
	}
	if err := validate.Status(status); err != nil {
		return err
	}

	cfg := config.Load()
	svc, _, closeStorage, err := newAttendanceService(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	if err := svc.OverrideStatus(context.Background(), studentID, date, status); err != nil {
		return fmt.Errorf("overriding status: %w", err)
	}
	fmt.Printf("Set %s to %s on %s\n", studentID, status, date)
	return nil
}

func runAttendanceRemove(cmd *cobra.Command, args []string) error {
	studentID, date := args[0], args[1]
	if err := validate.Date(date); err != nil {
		return err
	}

	cfg := config.Load()
	svc, _, closeStorage, err := newAttendanceService(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	if err := svc.RemoveRecord(context.Background(), studentID, date); err != nil {
		return fmt.Errorf("removing record: %w", err)
	}
	fmt.Printf("Removed record for %s on %s\n", studentID, date)
	return nil
}
