package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"raylight/internal/httpclient"
	"raylight/internal/logging"

	"github.com/rs/zerolog"
)

// Client talks to the community preset repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a catalog client for the given repository URL.
func NewClient(repoURL string) *Client {
	log := logging.Component("catalog")
	return &Client{
		httpClient: httpclient.New(log, 3),
		baseURL:    strings.TrimSuffix(repoURL, "/"),
		log:        log,
	}
}

// Fetch retrieves the full preset catalog. There is no pagination; the
// repository serves the complete list in one response.
func (c *Client) Fetch(ctx context.Context) ([]Preset, error) {
	url := c.baseURL + "/presets"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preset catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("preset repository returned status %d", resp.StatusCode)
	}

	var presets []Preset
	if err := json.NewDecoder(resp.Body).Decode(&presets); err != nil {
		return nil, fmt.Errorf("failed to decode preset catalog: %w", err)
	}

	c.log.Info().Int("count", len(presets)).Msg("fetched community preset catalog")
	return presets, nil
}
