package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/logger"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run the recognition loop over the frame spool",
	Long: `Run the recognition loop.

The loop consumes frames dropped into the spool directory by the camera
daemon, classifies every face and records attendance for confident
matches. It runs until interrupted.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("spool", "", "Frame spool directory (defaults to CAMERA_SPOOL_DIR)")
	recognizeCmd.Flags().Float64("interval", 1.0, "Seconds between frame grabs")
	recognizeCmd.Flags().Bool("downscale", true, "Halve frame resolution before detection")
}

// printTick writes one line per classified face to the terminal.
func printTick(result recognizer.TickResult) {
	if !result.Sampled || result.Faces == 0 {
		return
	}
	for _, m := range result.Matches {
		switch {
		case m.Outcome != nil && m.Outcome.Kind == attendance.Inserted:
			fmt.Printf("[%s] %s marked present (confidence %.2f)\n",
				result.Frame, m.Result.StudentID, m.Result.Confidence)
		case m.Result.Known:
			fmt.Printf("[%s] %s recognized (confidence %.2f)\n",
				result.Frame, m.Result.StudentID, m.Result.Confidence)
		default:
			fmt.Printf("[%s] unknown face\n", result.Frame)
		}
	}
}

func runRecognize(cmd *cobra.Command, args []string) error {
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

	if err := enc.Ping(ctx); err != nil {
		return fmt.Errorf("face encoder service unreachable: %w", err)
	}

	store, matcher, err := buildMatcher(ctx, students, cfg)
	if err != nil {
		return err
	}
	if store.Count() == 0 {
		fmt.Println("Warning: no face encodings registered, every face will be unknown")
	} else {
		fmt.Printf("Loaded %d face encodings\n", store.Count())
	}

	spoolDir := mustGetString(cmd, "spool")
	if spoolDir == "" {
		spoolDir = cfg.Camera.SpoolDir
	}
	source, err := recognizer.NewSpoolSource(spoolDir)
	if err != nil {
		return fmt.Errorf("opening spool directory: %w", err)
	}

	session := recognizer.NewSession(source, enc, matcher,
		attendance.NewService(students, attendanceRepo, log),
		recognizer.Options{
			Interval:         time.Duration(mustGetFloat64(cmd, "interval") * float64(time.Second)),
			FrameSampling:    cfg.Recognition.FrameSampling,
			DisplayThreshold: cfg.Recognition.DisplayThreshold,
			Downscale:        mustGetBool(cmd, "downscale"),
		}, log)
	session.OnTick(printTick)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping recognition loop...")
		cancel()
	}()

	fmt.Printf("Watching %s (tolerance %.2f, model %s)\n",
		spoolDir, matcher.Tolerance(), cfg.Recognition.Model)
	fmt.Println("Press Ctrl+C to stop")

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("recognition loop: %w", err)
	}
	return nil
}
