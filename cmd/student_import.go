package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/mysql"
)

var studentImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import students from the external roster system",
	Long: `Import students from the external roster system's MySQL database.

Already-registered student ids are skipped, invalid rows are reported and
the rest are registered without a face encoding. Set ROSTER_MYSQL_DSN to
point at the roster database.`,
	RunE: runStudentImport,
}

func init() {
	studentCmd.AddCommand(studentImportCmd)
}

func newImportProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Importing students"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}

func runStudentImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Roster.MySQLDSN == "" {
		return errors.New("ROSTER_MYSQL_DSN environment variable is required")
	}

	roster, err := mysql.NewPool(cfg.Roster.MySQLDSN)
	if err != nil {
		return fmt.Errorf("connecting to roster database: %w", err)
	}
	defer roster.Close()

	svc, closeStorage, err := newStudentService(cfg, false)
	if err != nil {
		return err
	}
	defer closeStorage()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = newImportProgressBar(total)
		}
		_ = bar.Set(done)
	}

	result, err := svc.ImportRoster(context.Background(), roster, progress)
	if err != nil {
		return fmt.Errorf("importing roster: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Skipped (already registered): %d\n", result.Skipped)
	fmt.Printf("Invalid: %d\n", result.Invalid)
	if result.Imported > 0 {
		fmt.Println("\nImported students have no face encoding yet; set photos with 'student photo'.")
	}
	return nil
}
