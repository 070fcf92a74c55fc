package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultCommunityRepoURL is where the community preset catalog lives.
	DefaultCommunityRepoURL = "https://presets.raylight.app/api/v1"

	// DefaultReferenceImageURL is the built-in preview reference image,
	// staged locally on first use.
	DefaultReferenceImageURL = "https://assets.raylight.app/reference/default.jpg"

	// DefaultRenderBackendURL is the local rendering backend the preview
	// pipeline talks to unless the user configures another one.
	DefaultRenderBackendURL = "http://127.0.0.1:8188"
)

// Config holds application configuration
type Config struct {
	AppDataDir        string
	DatabasePath      string
	StagedImageDir    string
	PresetsDir        string
	ThumbnailCacheDir string
}

// New creates a new configuration instance
func New() *Config {
	cfg := &Config{}
	cfg.setupDirectories()
	return cfg
}

func (c *Config) setupDirectories() {
	c.AppDataDir = getAppDataDir()
	c.StagedImageDir = filepath.Join(c.AppDataDir, "staged")
	c.PresetsDir = filepath.Join(c.AppDataDir, "presets")
	c.ThumbnailCacheDir = filepath.Join(c.AppDataDir, "thumbnails")
	c.DatabasePath = filepath.Join(c.AppDataDir, "database.sqlite3")

	for _, dir := range []string{c.AppDataDir, c.StagedImageDir, c.PresetsDir, c.ThumbnailCacheDir} {
		os.MkdirAll(dir, 0755)
	}
}

func getAppDataDir() string {
	if runtime.GOOS == "darwin" {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", "Raylight")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".raylight")
	}
	return filepath.Join(configDir, "raylight")
}
