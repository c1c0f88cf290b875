package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/kozaktomas/face-attendance/internal/validate"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate attendance reports",
	Long: `Generate attendance reports and optionally export them.

Without --export the report is printed as a table. With --export csv or
--export xlsx a timestamped file is written to the export directory.`,
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily [date]",
	Short: "Daily attendance report (defaults to today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportDaily,
}

var reportStudentCmd = &cobra.Command{
	Use:   "student <student-id>",
	Short: "One student's attendance history",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportStudent,
}

var reportRangeCmd = &cobra.Command{
	Use:   "range <from> <to>",
	Short: "Records within a date range",
	Args:  cobra.ExactArgs(2),
	RunE:  runReportRange,
}

var reportDepartmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Per-department attendance statistics",
	RunE:  runReportDepartments,
}

var reportDefaultersCmd = &cobra.Command{
	Use:   "defaulters",
	Short: "Students below the attendance threshold",
	RunE:  runReportDefaulters,
}

var reportMonthlyCmd = &cobra.Command{
	Use:   "monthly <year> <month>",
	Short: "Day-by-day counts for a month",
	Args:  cobra.ExactArgs(2),
	RunE:  runReportMonthly,
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Overall attendance summary",
	RunE:  runReportSummary,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDailyCmd)
	reportCmd.AddCommand(reportStudentCmd)
	reportCmd.AddCommand(reportRangeCmd)
	reportCmd.AddCommand(reportDepartmentsCmd)
	reportCmd.AddCommand(reportDefaultersCmd)
	reportCmd.AddCommand(reportMonthlyCmd)
	reportCmd.AddCommand(reportSummaryCmd)

	reportCmd.PersistentFlags().String("export", "", "Export format: csv or xlsx")

	reportStudentCmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	reportStudentCmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	reportRangeCmd.Flags().String("department", "", "Filter by department")
	reportRangeCmd.Flags().String("batch", "", "Filter by batch")
	reportDefaultersCmd.Flags().Float64("threshold", constants.DefaultDefaulterThreshold, "Attendance percentage threshold")
}

// newReportGenerator opens the storage backend and wires the report generator.
func newReportGenerator(cfg *config.Config) (*report.Generator, func(), error) {
	closeStorage, err := initStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	students, records, err := openStores()
	if err != nil {
		closeStorage()
		return nil, nil, err
	}
	svc := attendance.NewService(students, records, nil)
	return report.NewGenerator(students, records, svc), closeStorage, nil
}

// outputReport prints the report as a table or exports it to a file.
func outputReport(cfg *config.Config, cmd *cobra.Command, rep *report.Report) error {
	format := mustGetString(cmd, "export")
	if format != "" {
		path, err := report.Export(rep, cfg.Paths.ExportDir, format)
		if err != nil {
			return fmt.Errorf("exporting report: %w", err)
		}
		fmt.Printf("Report written to %s\n", path)
		return nil
	}

	fmt.Printf("%s\n\n", rep.Title)
	if len(rep.Rows) == 0 {
		fmt.Println("No data")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(rep.Columns, "\t"))
	for _, row := range rep.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	return nil
}

func runReportDaily(cmd *cobra.Command, args []string) error {
	date := time.Now().Format("2006-01-02")
	if len(args) == 1 {
		date = args[0]
	}
	if err := validate.Date(date); err != nil {
		return err
	}

	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.Daily(context.Background(), date)
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}

func runReportStudent(cmd *cobra.Command, args []string) error {
	from := mustGetString(cmd, "from")
	to := mustGetString(cmd, "to")
	for _, d := range []string{from, to} {
		if d != "" && !validate.DateValid(d) {
			return fmt.Errorf("invalid date bound %q, expected YYYY-MM-DD", d)
		}
	}

	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.StudentHistory(context.Background(), args[0], from, to)
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}

func runReportRange(cmd *cobra.Command, args []string) error {
	from, to := args[0], args[1]
	if !validate.DateValid(from) || !validate.DateValid(to) {
		return fmt.Errorf("from and to must be dates in YYYY-MM-DD format")
	}

	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.Range(context.Background(), from, to,
		mustGetString(cmd, "department"), mustGetString(cmd, "batch"))
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}

func runReportDepartments(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.Departments(context.Background())
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}

func runReportDefaulters(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	if threshold <= 0 || threshold > 100 {
		return fmt.Errorf("threshold must be a percentage between 0 and 100")
	}

	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.Defaulters(context.Background(), threshold)
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}

func runReportMonthly(cmd *cobra.Command, args []string) error {
	var year, month int
	if _, err := fmt.Sscanf(args[0], "%d", &year); err != nil || year < 2000 || year > 2200 {
		return fmt.Errorf("invalid year %q", args[0])
	}
	if _, err := fmt.Sscanf(args[1], "%d", &month); err != nil || month < 1 || month > 12 {
		return fmt.Errorf("invalid month %q", args[1])
	}

	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.Monthly(context.Background(), year, time.Month(month))
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	gen, closeStorage, err := newReportGenerator(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	rep, err := gen.Summary(context.Background())
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd, rep)
}
