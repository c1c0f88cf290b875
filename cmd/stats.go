package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show attendance statistics and store diagnostics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	svc, records, closeStorage, err := newAttendanceService(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	ctx := context.Background()
	today := time.Now().Format("2006-01-02")

	day, err := svc.DayStatistics(ctx, today)
	if err != nil {
		return fmt.Errorf("computing day statistics: %w", err)
	}
	sessionDays, err := records.SessionDays(ctx)
	if err != nil {
		return fmt.Errorf("counting session days: %w", err)
	}

	maintenance, err := database.GetMaintenance()
	if err != nil {
		return err
	}
	info, err := maintenance.Info(ctx)
	if err != nil {
		return fmt.Errorf("reading store info: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s\n", database.BackendName())
	if info.Path != "" {
		fmt.Fprintf(w, "Database:\t%s (%s)\n", info.Path, humanize.Bytes(uint64(info.SizeBytes)))
	}
	fmt.Fprintf(w, "Students:\t%d\n", info.Students)
	fmt.Fprintf(w, "Attendance records:\t%d\n", info.Records)
	fmt.Fprintf(w, "Session days:\t%d\n", sessionDays)
	fmt.Fprintf(w, "Present today:\t%d of %d (%.1f%%)\n", day.Present, day.Total, day.Percentage)
	w.Flush()
	return nil
}
