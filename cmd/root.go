package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "A face recognition attendance system",
	Long: `Face Attendance marks student attendance from camera frames using
face recognition. It manages student registration, runs the recognition
loop, serves a web dashboard and generates attendance reports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to an .env file to load")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	if envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	_ = godotenv.Load()
}
