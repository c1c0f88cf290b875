// Package encoder is the HTTP client for the external face detection and
// embedding service. The service receives an image and returns zero or more
// detected faces, each with a bounding box and an embedding vector; all
// machine-learning work happens on its side of the boundary.
package encoder

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Registration photos must contain exactly one face.
var (
	ErrNoFace        = errors.New("no face detected")
	ErrMultipleFaces = errors.New("multiple faces detected")
)

// Box is a face bounding box in pixel coordinates of the submitted image.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Detection is one face found in a frame.
type Detection struct {
	Box       Box       `json:"box"`
	Embedding []float64 `json:"embedding"`
	Score     float64   `json:"score"`
}

// Client talks to the encoder service.
type Client struct {
	baseURL *url.URL
	model   string // detection model forwarded with every request
	http    *http.Client
}

// New creates an encoder client. model selects the detection backend
// ("hog" or "cnn"); an empty timeout falls back to 30 seconds.
func New(rawURL, model string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid encoder URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid encoder URL: unsupported scheme %q", parsed.Scheme)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if model == "" {
		model = "hog"
	}

	return &Client{
		baseURL: parsed,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	return c.baseURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}
