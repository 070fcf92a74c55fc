// Package download persists community presets locally. Its status
// lifecycle is independent of the preview pipeline: downloading a preset
// never waits on that preset's preview render.
package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"raylight/internal/catalog"
	"raylight/internal/common"
	"raylight/internal/httpclient"
	"raylight/internal/logging"
	"raylight/internal/lut"
	"raylight/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Status is the per-preset download state shown in the browser.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusDownloading Status = "downloading"
	StatusSuccess     Status = "success"
)

// Notifier receives status transitions for the presentation layer.
type Notifier func(name string, status Status)

// presetFile is the on-disk format of a downloaded preset.
type presetFile struct {
	Name        string         `json:"name"`
	Creator     string         `json:"creator,omitempty"`
	Adjustments map[string]any `json:"adjustments"`
	LutFile     string         `json:"lut_file,omitempty"`
}

// Service downloads presets into the presets directory and records them
// in the database.
type Service struct {
	log        zerolog.Logger
	db         *gorm.DB
	httpClient *http.Client
	presetsDir string
	notify     Notifier

	mu       sync.Mutex
	statuses map[string]Status
}

// NewService creates a download service. notify may be nil.
func NewService(db *gorm.DB, presetsDir string, notify Notifier) *Service {
	log := logging.Component("download")
	if notify == nil {
		notify = func(string, Status) {}
	}
	return &Service{
		log:        log,
		db:         db,
		httpClient: httpclient.New(log, 3),
		presetsDir: presetsDir,
		notify:     notify,
		statuses:   make(map[string]Status),
	}
}

// Status returns the current status for a preset name.
func (s *Service) Status(name string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[name]; ok {
		return status
	}
	return StatusIdle
}

// Statuses returns a copy of all non-idle statuses.
func (s *Service) Statuses() map[string]Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make(map[string]Status, len(s.statuses))
	for name, status := range s.statuses {
		statuses[name] = status
	}
	return statuses
}

// Download persists one preset. On failure the status reverts to idle so
// the user can retry; the source adjustments stay in the catalog snapshot.
func (s *Service) Download(ctx context.Context, preset catalog.Preset) error {
	s.setStatus(preset.Name, StatusDownloading)

	if err := s.persist(ctx, preset); err != nil {
		s.setStatus(preset.Name, StatusIdle)
		s.log.Error().Err(err).Str("preset", preset.Name).Msg("preset download failed")
		return err
	}

	s.setStatus(preset.Name, StatusSuccess)
	s.log.Info().Str("preset", preset.Name).Msg("preset downloaded")
	return nil
}

func (s *Service) setStatus(name string, status Status) {
	s.mu.Lock()
	s.statuses[name] = status
	s.mu.Unlock()
	s.notify(name, status)
}

func (s *Service) persist(ctx context.Context, preset catalog.Preset) error {
	if err := os.MkdirAll(s.presetsDir, common.DefaultFilePermissions); err != nil {
		return err
	}

	var lutFile string
	if preset.LutURL != "" {
		fetched, err := s.fetchLut(ctx, preset)
		if err != nil {
			return err
		}
		lutFile = fetched
	}

	file := presetFile{
		Name:        preset.Name,
		Creator:     preset.Creator,
		Adjustments: preset.Adjustments,
		LutFile:     lutFile,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	presetPath := filepath.Join(s.presetsDir, safeFileName(preset.Name)+common.PresetFileExtension)
	if err := os.WriteFile(presetPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	record := models.DownloadedPreset{
		Name:     preset.Name,
		Creator:  preset.Creator,
		FilePath: presetPath,
		LutPath:  lutFile,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record downloaded preset: %w", err)
	}

	return nil
}

// fetchLut downloads and validates a preset's referenced LUT file. An
// unparseable LUT fails the whole download; a broken LUT on disk would
// render every image through it wrong.
func (s *Service) fetchLut(ctx context.Context, preset catalog.Preset) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, preset.LutURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch preset LUT: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("preset LUT fetch returned status %d", resp.StatusCode)
	}

	ext := filepath.Ext(preset.LutURL)
	if ext == "" {
		ext = ".cube"
	}
	lutPath := filepath.Join(s.presetsDir, "luts", safeFileName(preset.Name)+ext)
	if err := os.MkdirAll(filepath.Dir(lutPath), common.DefaultFilePermissions); err != nil {
		return "", err
	}

	out, err := os.Create(lutPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(lutPath)
		return "", fmt.Errorf("failed to write preset LUT: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if _, err := lut.Parse(lutPath); err != nil {
		os.Remove(lutPath)
		return "", fmt.Errorf("preset LUT is invalid: %w", err)
	}

	return lutPath, nil
}

func safeFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(name)
}
