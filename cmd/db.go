package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the database to a timestamped file",
	RunE:  runDbBackup,
}

var dbRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Replace the database content from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runDbRestore,
}

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all students and attendance records",
	RunE:  runDbClear,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database size and row counts",
	RunE:  runDbStatus,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbBackupCmd)
	dbCmd.AddCommand(dbRestoreCmd)
	dbCmd.AddCommand(dbClearCmd)
	dbCmd.AddCommand(dbStatusCmd)

	dbBackupCmd.Flags().String("dir", "backups", "Directory to write the backup into")
	dbRestoreCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	dbClearCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// openMaintenance opens the storage backend and returns its maintenance
// interface along with the close function.
func openMaintenance(cfg *config.Config) (database.Maintenance, func(), error) {
	closeStorage, err := initStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	maintenance, err := database.GetMaintenance()
	if err != nil {
		closeStorage()
		return nil, nil, err
	}
	return maintenance, closeStorage, nil
}

func runDbBackup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	maintenance, closeStorage, err := openMaintenance(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	path, err := maintenance.Backup(context.Background(), mustGetString(cmd, "dir"))
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	fmt.Printf("Backup written to %s\n", path)
	return nil
}

func runDbRestore(cmd *cobra.Command, args []string) error {
	backupPath := args[0]
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}

	if !mustGetBool(cmd, "yes") {
		if !confirmAction("Restoring replaces the current database content. Continue? [y/N]: ") {
			fmt.Println("Cancelled")
			return nil
		}
	}

	cfg := config.Load()
	maintenance, closeStorage, err := openMaintenance(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	if err := maintenance.Restore(context.Background(), backupPath); err != nil {
		return fmt.Errorf("restoring database: %w", err)
	}
	fmt.Printf("Database restored from %s\n", backupPath)
	return nil
}

func runDbClear(cmd *cobra.Command, args []string) error {
	if !mustGetBool(cmd, "yes") {
		if !confirmAction("Delete ALL students and attendance records? [y/N]: ") {
			fmt.Println("Cancelled")
			return nil
		}
	}

	cfg := config.Load()
	maintenance, closeStorage, err := openMaintenance(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	if err := maintenance.ClearAll(context.Background()); err != nil {
		return fmt.Errorf("clearing database: %w", err)
	}
	fmt.Println("Database cleared")
	return nil
}

func runDbStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	maintenance, closeStorage, err := openMaintenance(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	info, err := maintenance.Info(context.Background())
	if err != nil {
		return fmt.Errorf("reading store info: %w", err)
	}

	fmt.Printf("Backend: %s\n", database.BackendName())
	if info.Path != "" {
		fmt.Printf("Path: %s\n", info.Path)
		fmt.Printf("Size: %s\n", humanize.Bytes(uint64(info.SizeBytes)))
	}
	fmt.Printf("Students: %d\n", info.Students)
	fmt.Printf("Attendance records: %d\n", info.Records)
	return nil
}
