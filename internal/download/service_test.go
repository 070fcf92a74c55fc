package download

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"raylight/internal/adjust"
	"raylight/internal/catalog"
	"raylight/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.AutoMigrate(&models.DownloadedPreset{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func TestDownload(t *testing.T) {
	db := setupTestDB(t)
	presetsDir := t.TempDir()

	var mu sync.Mutex
	var transitions []Status
	service := NewService(db, presetsDir, func(name string, status Status) {
		mu.Lock()
		transitions = append(transitions, status)
		mu.Unlock()
	})

	preset := catalog.Preset{
		Name:        "Moody Film",
		Creator:     "ada",
		Adjustments: adjust.Adjustments{"contrast": 20.0},
	}

	if err := service.Download(context.Background(), preset); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := service.Status("Moody Film"); got != StatusSuccess {
		t.Errorf("Expected status success, got %s", got)
	}

	mu.Lock()
	if len(transitions) != 2 || transitions[0] != StatusDownloading || transitions[1] != StatusSuccess {
		t.Errorf("Expected downloading then success, got %v", transitions)
	}
	mu.Unlock()

	// Preset file written with the catalog adjustments.
	presetPath := filepath.Join(presetsDir, "Moody_Film.rlpreset")
	raw, err := os.ReadFile(presetPath)
	if err != nil {
		t.Fatalf("Expected preset file at %s: %v", presetPath, err)
	}
	var file presetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		t.Fatalf("Failed to parse preset file: %v", err)
	}
	if file.Adjustments["contrast"] != float64(20) {
		t.Errorf("Expected contrast 20 in preset file, got %v", file.Adjustments["contrast"])
	}

	// Database record created.
	var record models.DownloadedPreset
	if err := db.First(&record, "name = ?", "Moody Film").Error; err != nil {
		t.Fatalf("Expected database record: %v", err)
	}
	if record.FilePath != presetPath {
		t.Errorf("Expected file path %s, got %s", presetPath, record.FilePath)
	}
}

func TestDownload_WithLut(t *testing.T) {
	cube := "LUT_3D_SIZE 2\n" +
		"0 0 0\n1 0 0\n0 1 0\n1 1 0\n0 0 1\n1 0 1\n0 1 1\n1 1 1\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cube))
	}))
	defer server.Close()

	db := setupTestDB(t)
	presetsDir := t.TempDir()
	service := NewService(db, presetsDir, nil)

	preset := catalog.Preset{
		Name:        "Teal",
		LutURL:      server.URL + "/teal.cube",
		Adjustments: adjust.Adjustments{},
	}

	if err := service.Download(context.Background(), preset); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	lutPath := filepath.Join(presetsDir, "luts", "Teal.cube")
	if _, err := os.Stat(lutPath); err != nil {
		t.Fatalf("Expected LUT file at %s: %v", lutPath, err)
	}

	var record models.DownloadedPreset
	if err := db.First(&record, "name = ?", "Teal").Error; err != nil {
		t.Fatalf("Expected database record: %v", err)
	}
	if record.LutPath != lutPath {
		t.Errorf("Expected LUT path %s, got %s", lutPath, record.LutPath)
	}
}

func TestDownload_InvalidLutRevertsToIdle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("LUT_3D_SIZE 2\n0 0 0\n")) // truncated
	}))
	defer server.Close()

	db := setupTestDB(t)
	service := NewService(db, t.TempDir(), nil)

	preset := catalog.Preset{Name: "Broken", LutURL: server.URL + "/broken.cube"}

	if err := service.Download(context.Background(), preset); err == nil {
		t.Fatal("Expected error for invalid LUT")
	}

	if got := service.Status("Broken"); got != StatusIdle {
		t.Errorf("Expected status reverted to idle, got %s", got)
	}
}

func TestDownload_RetrySucceedsAfterFailure(t *testing.T) {
	var failing = true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("LUT_3D_SIZE 2\n" +
			"0 0 0\n1 0 0\n0 1 0\n1 1 0\n0 0 1\n1 0 1\n0 1 1\n1 1 1\n"))
	}))
	defer server.Close()

	db := setupTestDB(t)
	service := NewService(db, t.TempDir(), nil)
	preset := catalog.Preset{Name: "Flaky", LutURL: server.URL + "/flaky.cube"}

	if err := service.Download(context.Background(), preset); err == nil {
		t.Fatal("Expected first attempt to fail")
	}
	if got := service.Status("Flaky"); got != StatusIdle {
		t.Errorf("Expected idle after failure, got %s", got)
	}

	failing = false
	if err := service.Download(context.Background(), preset); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if got := service.Status("Flaky"); got != StatusSuccess {
		t.Errorf("Expected success after retry, got %s", got)
	}
}

func TestStatus_DefaultsToIdle(t *testing.T) {
	service := NewService(setupTestDB(t), t.TempDir(), nil)

	if got := service.Status("Unknown"); got != StatusIdle {
		t.Errorf("Expected idle for unknown preset, got %s", got)
	}
	if statuses := service.Statuses(); len(statuses) != 0 {
		t.Errorf("Expected no recorded statuses, got %v", statuses)
	}
}
