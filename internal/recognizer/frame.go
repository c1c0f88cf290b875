// Package recognizer runs the recognition session: a timer-driven loop that
// pulls frames from a source, classifies the faces in them and records
// attendance for confident matches.
package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Frame is one captured image waiting for recognition.
type Frame struct {
	Name string // source-specific identifier, e.g. file name
	Data []byte // encoded image bytes
}

// FrameSource delivers frames to the recognition loop. ErrNoFrame means
// nothing is waiting right now; the loop tries again on the next tick.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
}

// ErrNoFrame signals an empty source, not a failure.
var ErrNoFrame = fmt.Errorf("no frame available")

// SpoolSource reads frames from a directory filled by an external camera
// daemon or by API uploads. Files are consumed in name order and removed
// after pickup, so timestamped names give chronological processing.
type SpoolSource struct {
	dir string
}

// NewSpoolSource creates a spool-directory frame source.
func NewSpoolSource(dir string) (*SpoolSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create spool directory: %w", err)
	}
	return &SpoolSource{dir: dir}, nil
}

// Next returns the alphabetically first frame file and deletes it.
func (s *SpoolSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("could not read spool directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, ErrNoFrame
	}
	sort.Strings(names)

	path := filepath.Join(s.dir, names[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read frame %s: %w", names[0], err)
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("could not remove consumed frame %s: %w", names[0], err)
	}

	return &Frame{Name: names[0], Data: data}, nil
}

// HalfScale decodes a frame and re-encodes it at half resolution. Smaller
// frames cut the encoder round trip roughly in quarter; detected boxes are
// scaled back up for display. Frames that are already tiny pass through
// unchanged, reported by the second return value.
func HalfScale(data []byte) ([]byte, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("could not decode frame: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 64 || height < 64 {
		return data, false, nil
	}

	resized := image.NewRGBA(image.Rect(0, 0, width/2, height/2))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false, fmt.Errorf("could not encode resized frame: %w", err)
	}
	return buf.Bytes(), true, nil
}
