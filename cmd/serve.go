package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/logger"
	"github.com/kozaktomas/face-attendance/internal/match"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/kozaktomas/face-attendance/internal/student"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the attendance web server.
The server provides the dashboard API: student management, attendance
records, reports and a synchronous frame recognition endpoint.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// newEncoderClient builds the face encoder service client from configuration.
func newEncoderClient(cfg *config.Config) (*encoder.Client, error) {
	return encoder.New(cfg.Encoder.URL, cfg.Recognition.Model,
		time.Duration(cfg.Encoder.TimeoutSeconds)*time.Second)
}

// buildMatcher loads the registered encodings and builds the matcher over
// them, with the optional HNSW index on top.
func buildMatcher(ctx context.Context, students database.StudentReader, cfg *config.Config) (*match.Store, *match.Matcher, error) {
	store := match.NewStore(students, cfg.Recognition.EmbeddingDim)
	if err := store.Reload(ctx); err != nil {
		return nil, nil, fmt.Errorf("loading encodings: %w", err)
	}
	if store.Skipped() > 0 {
		fmt.Printf("Warning: skipped %d unusable encodings\n", store.Skipped())
	}

	matcher := match.NewMatcher(store, cfg.Recognition.Tolerance)
	if index := initEncodingIndex(store, cfg.Database.HNSWIndexPath); index != nil {
		matcher.UseIndex(index)
	}
	return store, matcher, nil
}

// initEncodingIndex builds or loads the HNSW index for fast encoding lookup.
// A nil return means the matcher falls back to the linear scan.
func initEncodingIndex(store *match.Store, indexPath string) *database.EncodingIndex {
	index := database.NewEncodingIndex()
	if indexPath != "" {
		fmt.Printf("Loading HNSW index from %s...\n", indexPath)
		if err := index.Load(indexPath); err != nil {
			fmt.Printf("Warning: failed to load HNSW index: %v\n", err)
		}
	}
	if index.IsEmpty() {
		if err := index.Build(store.IndexEntries()); err != nil {
			fmt.Printf("Warning: failed to build HNSW index: %v\n", err)
			fmt.Printf("Matching will use the linear scan (slower for large rosters)\n")
			return nil
		}
	}
	index.SetPath(indexPath)
	fmt.Printf("HNSW index ready with %d encodings\n", index.Count())
	return index
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	log, err := logger.New(cfg.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	closeStorage, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()
	fmt.Printf("Using %s backend\n", database.BackendName())

	students, attendanceRepo, err := openStores()
	if err != nil {
		return err
	}

	enc, err := newEncoderClient(cfg)
	if err != nil {
		return fmt.Errorf("creating encoder client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, matcher, err := buildMatcher(ctx, students, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d face encodings\n", store.Count())

	attendanceSvc := attendance.NewService(students, attendanceRepo, log)
	studentSvc := student.NewService(students, enc, cfg.Paths.PhotoDir, log)
	reports := report.NewGenerator(students, attendanceRepo, attendanceSvc)
	session := recognizer.NewSession(nil, enc, matcher, attendanceSvc, recognizer.Options{
		FrameSampling:    cfg.Recognition.FrameSampling,
		DisplayThreshold: cfg.Recognition.DisplayThreshold,
	}, log)

	port, host, sessionSecret := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, web.Services{
		Students:    studentSvc,
		Attendance:  attendanceSvc,
		Reports:     reports,
		Recognition: session,
		Records:     attendanceRepo,
	}, host, port, sessionSecret, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
