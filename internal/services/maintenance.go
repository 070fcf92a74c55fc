package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"raylight/internal/common"
	"raylight/internal/config"
	"raylight/internal/logging"
	"raylight/internal/render"

	"github.com/rs/zerolog"
)

// MaintenanceService backs the settings screen's housekeeping actions.
type MaintenanceService struct {
	config *config.Config
	log    zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(cfg *config.Config) *MaintenanceService {
	return &MaintenanceService{
		config: cfg,
		log:    logging.Component("maintenance"),
	}
}

// ClearThumbnailCache removes every entry from the thumbnail cache
// directory. The directory itself is kept.
func (s *MaintenanceService) ClearThumbnailCache() error {
	cacheDir := s.config.ThumbnailCacheDir
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(cacheDir, entry.Name())); err != nil {
			return err
		}
	}

	s.log.Info().Int("entries", len(entries)).Msg("thumbnail cache cleared")
	return nil
}

// ClearSidecars deletes every sidecar file under root, returning how many
// were removed.
func (s *MaintenanceService) ClearSidecars(root string) (int, error) {
	removed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, common.SidecarExtension) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	s.log.Info().Str("root", root).Int("removed", removed).Msg("sidecar files cleared")
	return removed, nil
}

// TestRenderConnection probes a rendering backend URL for the settings
// screen's connection test.
func (s *MaintenanceService) TestRenderConnection(ctx context.Context, backendURL string) error {
	return render.NewClient(backendURL).Ping(ctx)
}
