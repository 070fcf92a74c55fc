package models

import (
	"encoding/json"
	"time"

	"raylight/internal/config"

	"gorm.io/gorm"
)

// Settings represents application settings in the database
type Settings struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SettingsJSON string    `gorm:"type:text" json:"settings_json"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SettingsData represents the structured settings data
type SettingsData struct {
	Theme             string `json:"theme"`
	PreviewResolution int    `json:"preview_resolution"`
	RenderBackendURL  string `json:"render_backend_url"`
	CommunityRepoURL  string `json:"community_repo_url"`
	EnableLutPreviews bool   `json:"enable_lut_previews"`
	AutosaveSidecars  bool   `json:"autosave_sidecars"`
	LastRootPath      string `json:"last_root_path"`
	ShowBrowserCTA    bool   `json:"show_browser_cta"`
}

// DefaultSettings returns default settings values
func DefaultSettings() SettingsData {
	return SettingsData{
		Theme:             "dark",
		PreviewResolution: 1080,
		RenderBackendURL:  config.DefaultRenderBackendURL,
		CommunityRepoURL:  config.DefaultCommunityRepoURL,
		EnableLutPreviews: true,
		AutosaveSidecars:  true,
		LastRootPath:      "",
		ShowBrowserCTA:    true,
	}
}

// GetSettings parses and returns the settings data
func (s *Settings) GetSettings() SettingsData {
	if s.SettingsJSON == "" {
		return DefaultSettings()
	}

	var data SettingsData
	if err := json.Unmarshal([]byte(s.SettingsJSON), &data); err != nil {
		return DefaultSettings()
	}

	return data
}

// SetSettings sets the settings data
func (s *Settings) SetSettings(data SettingsData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.SettingsJSON = string(raw)
	return nil
}

// GetOrCreateSettings gets or creates the global settings instance
func GetOrCreateSettings(db *gorm.DB) (*Settings, error) {
	var settings Settings

	result := db.First(&settings, 1)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			settings = Settings{ID: 1}

			if err := settings.SetSettings(DefaultSettings()); err != nil {
				return nil, err
			}

			if err := db.Create(&settings).Error; err != nil {
				return nil, err
			}
		} else {
			return nil, result.Error
		}
	}

	return &settings, nil
}
