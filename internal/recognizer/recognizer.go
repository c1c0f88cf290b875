package recognizer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/match"
)

// Detector finds faces in an encoded image. Satisfied by encoder.Client.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]encoder.Detection, error)
}

// FaceMatch is one classified face within a processed frame.
type FaceMatch struct {
	Box     encoder.Box         `json:"box"`
	Result  match.Result        `json:"result"`
	Outcome *attendance.Outcome `json:"outcome,omitempty"` // set when the match was recorded
}

// TickResult describes what happened in one loop iteration.
type TickResult struct {
	Frame   string      `json:"frame"`
	Sampled bool        `json:"sampled"` // false when the frame was skipped by sampling
	Faces   int         `json:"faces"`
	Matches []FaceMatch `json:"matches"`
}

// Options tune the recognition session.
type Options struct {
	Interval         time.Duration // tick period between frame grabs
	FrameSampling    int           // process every Nth frame, minimum 1
	DisplayThreshold float64       // minimum confidence to record a match
	Downscale        bool          // halve frame resolution before detection
}

// Session is the recognition loop. It is single threaded: one frame is
// grabbed, classified and recorded per tick, sequentially. A slow tick
// delays the next frame; there is no queue and no backpressure.
type Session struct {
	source     FrameSource
	detector   Detector
	matcher    *match.Matcher
	attendance *attendance.Service
	opts       Options
	log        *zap.Logger
	sink       func(TickResult)

	frames int // frames seen so far, drives sampling
}

// NewSession wires a recognition session together.
func NewSession(source FrameSource, detector Detector, matcher *match.Matcher, svc *attendance.Service, opts Options, log *zap.Logger) *Session {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FrameSampling < 1 {
		opts.FrameSampling = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		source:     source,
		detector:   detector,
		matcher:    matcher,
		attendance: svc,
		opts:       opts,
		log:        log,
	}
}

// OnTick registers a sink receiving every processed tick, for display.
func (s *Session) OnTick(sink func(TickResult)) {
	s.sink = sink
}

// Run drives the loop until the context is cancelled. Frame source errors
// are logged and the loop continues; cancellation is the only way out.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.log.Info("recognition session started",
		zap.Duration("interval", s.opts.Interval),
		zap.Int("frame_sampling", s.opts.FrameSampling),
		zap.Float64("display_threshold", s.opts.DisplayThreshold),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("recognition session stopped")
			return ctx.Err()
		case <-ticker.C:
			result, err := s.tick(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				s.log.Warn("tick failed", zap.Error(err))
				continue
			}
			if result != nil && s.sink != nil {
				s.sink(*result)
			}
		}
	}
}

// tick grabs and processes a single frame. A nil result means the source
// had nothing to offer.
func (s *Session) tick(ctx context.Context) (*TickResult, error) {
	frame, err := s.source.Next(ctx)
	if err != nil {
		if errors.Is(err, ErrNoFrame) {
			return nil, nil
		}
		return nil, err
	}

	s.frames++
	if s.frames%s.opts.FrameSampling != 0 {
		return &TickResult{Frame: frame.Name, Sampled: false}, nil
	}

	result, err := s.ProcessFrame(ctx, frame.Data)
	if err != nil {
		return nil, err
	}
	result.Frame = frame.Name

	for _, m := range result.Matches {
		if m.Outcome != nil && m.Outcome.Kind == attendance.Inserted {
			s.log.Info("match recorded",
				zap.String("frame", frame.Name),
				zap.String("student_id", m.Result.StudentID),
				zap.Float64("confidence", m.Result.Confidence),
			)
		}
	}
	return result, nil
}

// ProcessFrame runs one synchronous recognition pass over an image:
// detect, classify, and record every known match at or above the display
// threshold. Shared by the loop and the recognize API endpoint.
func (s *Session) ProcessFrame(ctx context.Context, data []byte) (*TickResult, error) {
	scale := 1
	if s.opts.Downscale {
		scaled, halved, err := HalfScale(data)
		if err != nil {
			return nil, err
		}
		if halved {
			scale = 2
		}
		data = scaled
	}

	faces, err := s.detector.Detect(ctx, data)
	if err != nil {
		return nil, err
	}

	result := &TickResult{Sampled: true, Faces: len(faces)}
	for _, face := range faces {
		m := FaceMatch{Box: scaleBox(face.Box, scale), Result: s.matcher.Classify(face.Embedding)}
		if m.Result.Known && m.Result.Confidence >= s.opts.DisplayThreshold {
			outcome := s.attendance.MarkNow(ctx, m.Result.StudentID, m.Result.Confidence)
			m.Outcome = &outcome
		}
		result.Matches = append(result.Matches, m)
	}
	return result, nil
}

// scaleBox maps a box detected on a downscaled frame back to the original
// frame coordinates.
func scaleBox(b encoder.Box, factor int) encoder.Box {
	if factor == 1 {
		return b
	}
	return encoder.Box{
		Top:    b.Top * factor,
		Right:  b.Right * factor,
		Bottom: b.Bottom * factor,
		Left:   b.Left * factor,
	}
}
