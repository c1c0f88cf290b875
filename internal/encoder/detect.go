package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type detectResponse struct {
	Faces []Detection `json:"faces"`
}

// Detect submits an image and returns the faces found in it, possibly none.
// The configured detection model is forwarded with the request.
func (c *Client) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("could not write image data: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("could not write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL("detect"), &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detect failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result detectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return result.Faces, nil
}

// EncodeOne submits a registration photo and returns its single face
// embedding. Photos with zero or more than one face are rejected.
func (c *Client) EncodeOne(ctx context.Context, image []byte) ([]float64, error) {
	faces, err := c.Detect(ctx, image)
	if err != nil {
		return nil, err
	}

	switch len(faces) {
	case 0:
		return nil, ErrNoFace
	case 1:
		return faces[0].Embedding, nil
	default:
		return nil, ErrMultipleFaces
	}
}

// Ping checks that the encoder service is reachable and healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL("health"), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("encoder service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("encoder health check failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}
