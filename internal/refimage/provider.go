// Package refimage supplies the reference image previews are rendered
// against: a staged copy of the built-in default, or a user-chosen file.
package refimage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"raylight/internal/httpclient"
	"raylight/internal/logging"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// Staged copies are bounded so preview renders stay cheap.
const maxStagedEdge = 2048

const stagedFileName = "default.jpg"

// Provider owns the active reference image path. Exactly one path is
// active at a time; replacing it is what invalidates previews upstream.
type Provider struct {
	mu         sync.Mutex
	log        zerolog.Logger
	httpClient *http.Client
	stagedDir  string
	defaultURL string
	active     string
}

// NewProvider creates a provider staging into stagedDir.
func NewProvider(stagedDir, defaultURL string) *Provider {
	log := logging.Component("refimage")
	return &Provider{
		log:        log,
		httpClient: httpclient.New(log, 3),
		stagedDir:  stagedDir,
		defaultURL: defaultURL,
	}
}

// Active returns the current reference image path, or "" if none is set.
func (p *Provider) Active() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// SetLocal switches the active reference image to a user-selected file.
func (p *Provider) SetLocal(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("reference image not readable: %w", err)
	}

	p.mu.Lock()
	p.active = path
	p.mu.Unlock()

	p.log.Info().Str("path", path).Msg("reference image switched to local file")
	return nil
}

// EnsureDefault makes sure a staged copy of the built-in default image
// exists, fetching it once, and activates it if no image is active yet.
// It returns the active path.
func (p *Provider) EnsureDefault(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.active != "" {
		active := p.active
		p.mu.Unlock()
		return active, nil
	}
	p.mu.Unlock()

	stagedPath := filepath.Join(p.stagedDir, stagedFileName)
	if _, err := os.Stat(stagedPath); err != nil {
		data, err := p.fetchDefault(ctx)
		if err != nil {
			return "", err
		}
		if err := Stage(data, stagedPath); err != nil {
			return "", err
		}
		p.log.Info().Str("path", stagedPath).Msg("staged default reference image")
	}

	p.mu.Lock()
	p.active = stagedPath
	p.mu.Unlock()
	return stagedPath, nil
}

func (p *Provider) fetchDefault(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.defaultURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch default reference image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("default reference image fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Stage materializes image bytes as a bounded, orientation-corrected JPEG
// at dst.
func Stage(data []byte, dst string) error {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode reference image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxStagedEdge || bounds.Dy() > maxStagedEdge {
		img = imaging.Fit(img, maxStagedEdge, maxStagedEdge, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	return imaging.Save(img, dst, imaging.JPEGQuality(90))
}
