package common

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// Sidecar files store per-image edits next to the originals.
	SidecarExtension = ".rldata"

	// Preset files written by the community browser's download action.
	PresetFileExtension = ".rlpreset"

	// File operation constants
	DefaultFilePermissions = 0755
)

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// CopyFile copies a file from src to dst, creating parent directories as needed
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), DefaultFilePermissions); err != nil {
		return err
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
