// Package render is the HTTP client for the rendering backend the preview
// pipeline consumes. The backend is opaque: it takes an image path and a
// fully-resolved adjustment set and returns encoded preview bytes.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"raylight/internal/adjust"
	"raylight/internal/httpclient"
	"raylight/internal/logging"

	"github.com/rs/zerolog"
)

// renderRequest is the wire format of one preview render call.
type renderRequest struct {
	Path        string             `json:"path"`
	Adjustments adjust.Adjustments `json:"adjustments"`
}

// Client talks to the rendering backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a render client for the given backend URL.
func NewClient(baseURL string) *Client {
	log := logging.Component("render")
	return &Client{
		httpClient: httpclient.New(log, 2),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		log:        log,
	}
}

// RenderPreview requests one rendered preview. The backend accepts
// concurrent calls; failures are per-call and terminal.
func (c *Client) RenderPreview(ctx context.Context, imagePath string, adjustments adjust.Adjustments) ([]byte, error) {
	payload, err := json.Marshal(renderRequest{Path: imagePath, Adjustments: adjustments})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("render backend returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered preview: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("render backend returned an empty preview")
	}

	return data, nil
}

// Ping probes the backend health endpoint for the settings screen's
// connection test.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("render backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("render backend health check returned status %d", resp.StatusCode)
	}

	return nil
}
