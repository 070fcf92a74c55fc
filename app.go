package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"raylight/internal/catalog"
	"raylight/internal/common"
	"raylight/internal/config"
	"raylight/internal/database"
	"raylight/internal/download"
	"raylight/internal/logging"
	"raylight/internal/lut"
	"raylight/internal/models"
	"raylight/internal/preview"
	"raylight/internal/refimage"
	"raylight/internal/render"
	"raylight/internal/services"

	"github.com/rs/zerolog"
	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx             context.Context
	log             zerolog.Logger
	config          *config.Config
	settingsService *services.SettingsService
	maintenance     *services.MaintenanceService
	catalogClient   *catalog.Client
	refProvider     *refimage.Provider
	refWatcher      *refimage.Watcher
	downloads       *download.Service
	pipeline        *preview.Pipeline

	mu      sync.Mutex
	presets []catalog.Preset
}

// BrowserPreset is one community preset as listed on the browser screen.
type BrowserPreset struct {
	Name           string `json:"name"`
	Creator        string `json:"creator,omitempty"`
	DownloadStatus string `json:"download_status"`
}

// DownloadUpdate is pushed to the frontend while a preset download runs.
type DownloadUpdate struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// eventPublisher forwards pipeline updates to the frontend as Wails events.
type eventPublisher struct {
	app *App
}

func (p *eventPublisher) PublishEntry(view preview.EntryView) {
	wailsruntime.EventsEmit(p.app.ctx, "previews:entry", view)
}

func (p *eventPublisher) PublishSettled() {
	wailsruntime.EventsEmit(p.app.ctx, "previews:settled")
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{
		log: logging.Component("app"),
	}
}

// OnStartup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx

	cfg := config.New()
	a.config = cfg

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to initialize database")
		return
	}

	a.settingsService = services.NewSettingsService(db)
	a.maintenance = services.NewMaintenanceService(cfg)

	settings, err := a.settingsService.GetSettings()
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to load settings")
		defaults := models.DefaultSettings()
		settings = &defaults
	}

	a.catalogClient = catalog.NewClient(settings.CommunityRepoURL)
	a.refProvider = refimage.NewProvider(cfg.StagedImageDir, config.DefaultReferenceImageURL)
	a.downloads = download.NewService(db, cfg.PresetsDir, func(name string, status download.Status) {
		wailsruntime.EventsEmit(a.ctx, "preset:download", DownloadUpdate{Name: name, Status: string(status)})
	})

	renderer := render.NewClient(settings.RenderBackendURL)
	a.pipeline = preview.New(renderer, &eventPublisher{app: a})

	watcher, err := refimage.NewWatcher(func(path string) {
		a.pipeline.SetReferenceImage(path)
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("Reference image watcher unavailable")
	} else {
		a.refWatcher = watcher
	}

	a.log.Info().
		Str("app_data", cfg.AppDataDir).
		Str("database", cfg.DatabasePath).
		Str("render_backend", settings.RenderBackendURL).
		Msg("Raylight initialized")
}

// OnShutdown releases pipeline resources before the window closes.
func (a *App) OnShutdown(ctx context.Context) {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.refWatcher != nil {
		a.refWatcher.Close()
	}
}

// GetSettings returns the persisted application settings
func (a *App) GetSettings() (*models.SettingsData, error) {
	return a.settingsService.GetSettings()
}

// UpdateSettings updates application settings
func (a *App) UpdateSettings(data map[string]interface{}) error {
	return a.settingsService.UpdateSettings(data)
}

// ClearThumbnailCache removes all cached thumbnails
func (a *App) ClearThumbnailCache() error {
	return a.maintenance.ClearThumbnailCache()
}

// ClearSidecars removes all edit sidecar files under the given root
// and returns how many were deleted.
func (a *App) ClearSidecars(root string) (int, error) {
	return a.maintenance.ClearSidecars(root)
}

// TestRenderConnection checks whether the render backend is reachable
func (a *App) TestRenderConnection(backendURL string) error {
	return a.maintenance.TestRenderConnection(a.ctx, backendURL)
}

// LoadCommunityPresets fetches the community catalog, kicks off preview
// rendering, and returns the preset list. A fetch failure yields an empty
// list so the browser screen can show its empty state.
func (a *App) LoadCommunityPresets() []BrowserPreset {
	presets, err := a.catalogClient.Fetch(a.ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("Community catalog fetch failed")
		presets = nil
	}
	presets = catalog.SortedByName(presets)

	a.mu.Lock()
	a.presets = presets
	a.mu.Unlock()

	refPath, err := a.refProvider.EnsureDefault(a.ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("Default reference image unavailable")
	} else if a.refWatcher != nil {
		if err := a.refWatcher.Set(refPath); err != nil {
			a.log.Warn().Err(err).Str("path", refPath).Msg("Failed to watch reference image")
		}
	}

	a.pipeline.SetReferenceImage(refPath)
	a.pipeline.SetCatalog(presets)

	statuses := a.downloads.Statuses()
	list := make([]BrowserPreset, 0, len(presets))
	for _, p := range presets {
		status := download.StatusIdle
		if s, ok := statuses[p.Name]; ok {
			status = s
		}
		list = append(list, BrowserPreset{
			Name:           p.Name,
			Creator:        p.Creator,
			DownloadStatus: string(status),
		})
	}
	return list
}

// GetPreviewState returns the current preview map for the browser screen
func (a *App) GetPreviewState() preview.SnapshotView {
	return a.pipeline.Snapshot()
}

// SelectReferenceImage opens a file dialog for choosing a custom reference
// image. Cancelling the dialog leaves the current image untouched.
func (a *App) SelectReferenceImage() (string, error) {
	selection, err := wailsruntime.OpenFileDialog(a.ctx, wailsruntime.OpenDialogOptions{
		Title: "Select reference image",
		Filters: []wailsruntime.FileFilter{
			{
				DisplayName: "Images (*.jpg, *.jpeg, *.png)",
				Pattern:     "*.jpg;*.jpeg;*.png",
			},
		},
	})
	if err != nil {
		return "", err
	}
	if selection == "" {
		return a.refProvider.Active(), nil
	}

	if err := a.refProvider.SetLocal(selection); err != nil {
		return "", err
	}
	if a.refWatcher != nil {
		if err := a.refWatcher.Set(selection); err != nil {
			a.log.Warn().Err(err).Str("path", selection).Msg("Failed to watch reference image")
		}
	}
	a.pipeline.SetReferenceImage(selection)
	return selection, nil
}

// SelectRootDirectory opens a directory dialog for choosing the photo
// library root used by sidecar cleanup. The selection is remembered.
func (a *App) SelectRootDirectory() (string, error) {
	selection, err := wailsruntime.OpenDirectoryDialog(a.ctx, wailsruntime.OpenDialogOptions{
		Title: "Select photo library root",
	})
	if err != nil {
		return "", err
	}
	if selection == "" {
		return "", nil
	}

	if err := a.settingsService.UpdateSettings(map[string]interface{}{"last_root_path": selection}); err != nil {
		a.log.Warn().Err(err).Msg("Failed to persist root path")
	}
	return selection, nil
}

// ImportLut copies a user-chosen LUT file into the local library after
// validating that it parses. Returns the imported path, or "" if the
// dialog was cancelled.
func (a *App) ImportLut() (string, error) {
	selection, err := wailsruntime.OpenFileDialog(a.ctx, wailsruntime.OpenDialogOptions{
		Title: "Import LUT",
		Filters: []wailsruntime.FileFilter{
			{
				DisplayName: "LUT Files (*.cube, *.3dl, *.png)",
				Pattern:     "*.cube;*.3dl;*.png",
			},
		},
	})
	if err != nil {
		return "", err
	}
	if selection == "" {
		return "", nil
	}

	if _, err := lut.Parse(selection); err != nil {
		return "", fmt.Errorf("not a usable LUT: %w", err)
	}

	base := filepath.Base(selection)
	dst := filepath.Join(a.config.PresetsDir, "luts", base)
	if _, err := os.Stat(dst); err == nil {
		// Keep an existing LUT with the same name.
		ext := filepath.Ext(base)
		dst = filepath.Join(a.config.PresetsDir, "luts",
			strings.TrimSuffix(base, ext)+"-"+common.GenerateUUID()[:8]+ext)
	}
	if err := common.CopyFile(selection, dst); err != nil {
		return "", err
	}

	a.log.Info().Str("path", dst).Msg("LUT imported")
	return dst, nil
}

// DownloadCommunityPreset downloads the named preset into the local
// library. Status transitions are pushed via "preset:download" events.
func (a *App) DownloadCommunityPreset(name string) error {
	a.mu.Lock()
	preset, ok := catalog.FindByName(a.presets, name)
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown preset: %s", name)
	}
	return a.downloads.Download(a.ctx, preset)
}

// GetDownloadStatuses returns the download status of every preset that
// has one, keyed by preset name.
func (a *App) GetDownloadStatuses() map[string]string {
	statuses := a.downloads.Statuses()
	out := make(map[string]string, len(statuses))
	for name, status := range statuses {
		out[name] = string(status)
	}
	return out
}
