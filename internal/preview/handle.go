package preview

import (
	"encoding/base64"
	"fmt"
	"sync"
)

// Handle is an owned displayable image resource wrapping one rendered
// preview. The pipeline releases every handle it installs exactly once:
// on replacement, invalidation, or teardown, whichever comes first.
type Handle struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

func newHandle(data []byte) *Handle {
	return &Handle{data: data}
}

// Bytes returns the encoded preview bytes, or nil after release.
func (h *Handle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}

// DataURL encodes the preview as a data URL the web view can display
// directly. Empty after release.
func (h *Handle) DataURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(h.data)
}

// Release frees the resource. Releasing twice is a bug in the caller and
// reported as an error.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return fmt.Errorf("preview handle released twice")
	}
	h.released = true
	h.data = nil
	return nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
