package refimage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestStage(t *testing.T) {
	tempDir := t.TempDir()
	dst := filepath.Join(tempDir, "staged", "default.jpg")

	if err := Stage(encodePNG(t, 64, 48), dst); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	staged, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("Failed to open staged image: %v", err)
	}

	bounds := staged.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 48 {
		t.Errorf("Expected 64x48 staged image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestStage_BoundsLargeImages(t *testing.T) {
	tempDir := t.TempDir()
	dst := filepath.Join(tempDir, "default.jpg")

	if err := Stage(encodePNG(t, maxStagedEdge*2, maxStagedEdge), dst); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	staged, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("Failed to open staged image: %v", err)
	}

	bounds := staged.Bounds()
	if bounds.Dx() > maxStagedEdge || bounds.Dy() > maxStagedEdge {
		t.Errorf("Expected staged image bounded to %d, got %dx%d", maxStagedEdge, bounds.Dx(), bounds.Dy())
	}
}

func TestStage_BadBytes(t *testing.T) {
	tempDir := t.TempDir()
	if err := Stage([]byte("not an image"), filepath.Join(tempDir, "out.jpg")); err == nil {
		t.Fatal("Expected error for undecodable bytes")
	}
}

func TestEnsureDefault_FetchesAndStages(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write(encodePNG(t, 32, 32))
	}))
	defer server.Close()

	provider := NewProvider(t.TempDir(), server.URL)

	path, err := provider.EnsureDefault(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected staged file at %s: %v", path, err)
	}

	if provider.Active() != path {
		t.Errorf("Expected active path %s, got %s", path, provider.Active())
	}

	// Second call reuses the staged copy and the active path.
	if _, err := provider.EnsureDefault(context.Background()); err != nil {
		t.Fatalf("Expected no error on second call, got %v", err)
	}
	if fetches != 1 {
		t.Errorf("Expected exactly one fetch, got %d", fetches)
	}
}

func TestEnsureDefault_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewProvider(t.TempDir(), server.URL)

	if _, err := provider.EnsureDefault(context.Background()); err == nil {
		t.Fatal("Expected error when default image cannot be fetched")
	}

	if provider.Active() != "" {
		t.Errorf("Expected no active image after failed staging, got %s", provider.Active())
	}
}

func TestSetLocal(t *testing.T) {
	tempDir := t.TempDir()
	imgPath := filepath.Join(tempDir, "shot.png")
	if err := os.WriteFile(imgPath, encodePNG(t, 16, 16), 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}

	provider := NewProvider(tempDir, "http://unused")

	if err := provider.SetLocal(imgPath); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if provider.Active() != imgPath {
		t.Errorf("Expected active %s, got %s", imgPath, provider.Active())
	}

	// EnsureDefault must not replace a user selection.
	path, err := provider.EnsureDefault(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != imgPath {
		t.Errorf("Expected user selection kept, got %s", path)
	}
}

func TestSetLocal_Missing(t *testing.T) {
	provider := NewProvider(t.TempDir(), "http://unused")
	if err := provider.SetLocal("/nonexistent/image.png"); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestWatcher_ReportsRewrite(t *testing.T) {
	tempDir := t.TempDir()
	imgPath := filepath.Join(tempDir, "shot.png")
	if err := os.WriteFile(imgPath, encodePNG(t, 8, 8), 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}

	changed := make(chan string, 1)
	watcher, err := NewWatcher(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Set(imgPath); err != nil {
		t.Fatalf("Failed to watch image: %v", err)
	}

	if err := os.WriteFile(imgPath, encodePNG(t, 8, 8), 0644); err != nil {
		t.Fatalf("Failed to rewrite image: %v", err)
	}

	select {
	case path := <-changed:
		if filepath.Clean(path) != filepath.Clean(imgPath) {
			t.Errorf("Expected change for %s, got %s", imgPath, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for rewrite notification")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	tempDir := t.TempDir()
	imgPath := filepath.Join(tempDir, "shot.png")
	if err := os.WriteFile(imgPath, encodePNG(t, 8, 8), 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}

	changed := make(chan string, 1)
	watcher, err := NewWatcher(func(path string) { changed <- path })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Set(imgPath); err != nil {
		t.Fatalf("Failed to watch image: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tempDir, "other.png"), encodePNG(t, 8, 8), 0644); err != nil {
		t.Fatalf("Failed to write sibling: %v", err)
	}

	select {
	case path := <-changed:
		t.Errorf("Expected no notification for sibling file, got %s", path)
	case <-time.After(1500 * time.Millisecond):
	}
}
