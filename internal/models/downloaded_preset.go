package models

import "time"

// DownloadedPreset records a community preset that was persisted locally.
type DownloadedPreset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	Creator   string    `json:"creator"`
	FilePath  string    `json:"file_path"`
	LutPath   string    `json:"lut_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
