package services

import (
	"raylight/internal/models"

	"gorm.io/gorm"
)

// SettingsService handles application settings operations
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// GetSettings gets the current application settings
func (s *SettingsService) GetSettings() (*models.SettingsData, error) {
	settings, err := models.GetOrCreateSettings(s.db)
	if err != nil {
		return nil, err
	}

	data := settings.GetSettings()
	return &data, nil
}

// UpdateSettings updates application settings
func (s *SettingsService) UpdateSettings(data map[string]interface{}) error {
	settings, err := models.GetOrCreateSettings(s.db)
	if err != nil {
		return err
	}

	current := settings.GetSettings()

	// Update fields from request data
	if val, ok := data["theme"]; ok {
		if theme, ok := val.(string); ok {
			current.Theme = theme
		}
	}

	if val, ok := data["preview_resolution"]; ok {
		if resolution, ok := val.(float64); ok {
			current.PreviewResolution = int(resolution)
		}
	}

	if val, ok := data["render_backend_url"]; ok {
		if url, ok := val.(string); ok {
			current.RenderBackendURL = url
		}
	}

	if val, ok := data["community_repo_url"]; ok {
		if url, ok := val.(string); ok {
			current.CommunityRepoURL = url
		}
	}

	if val, ok := data["enable_lut_previews"]; ok {
		if enabled, ok := val.(bool); ok {
			current.EnableLutPreviews = enabled
		}
	}

	if val, ok := data["autosave_sidecars"]; ok {
		if enabled, ok := val.(bool); ok {
			current.AutosaveSidecars = enabled
		}
	}

	if val, ok := data["last_root_path"]; ok {
		if path, ok := val.(string); ok {
			current.LastRootPath = path
		}
	}

	if val, ok := data["show_browser_cta"]; ok {
		if show, ok := val.(bool); ok {
			current.ShowBrowserCTA = show
		}
	}

	// Save updated settings
	if err := settings.SetSettings(current); err != nil {
		return err
	}

	return s.db.Save(settings).Error
}
