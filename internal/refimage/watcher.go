package refimage

import (
	"path/filepath"
	"sync"
	"time"

	"raylight/internal/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 500 * time.Millisecond

// Watcher reports on-disk rewrites of the active reference image so the
// owner can invalidate previews rendered against the stale bytes.
type Watcher struct {
	log      zerolog.Logger
	fsw      *fsnotify.Watcher
	onChange func(path string)
	done     chan struct{}

	mu      sync.Mutex
	path    string
	watched string
}

// NewWatcher starts a watcher; onChange fires with the image path after a
// rewrite, debounced.
func NewWatcher(onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		log:      logging.Component("refimage-watch"),
		fsw:      fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Set switches the watched file. Watching the parent directory instead of
// the file itself survives editors that replace the file on save.
func (w *Watcher) Set(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(path)
	if w.watched != "" && w.watched != dir {
		w.fsw.Remove(w.watched)
		w.watched = ""
	}
	if w.watched == "" {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.watched = dir
	}

	w.path = path
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.mu.Lock()
			match := w.path != "" && filepath.Clean(event.Name) == filepath.Clean(w.path)
			w.mu.Unlock()
			if match {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("reference image watch error")

		case <-ticker.C:
			for name, at := range pending {
				if time.Since(at) < watchDebounce {
					continue
				}
				delete(pending, name)
				w.log.Info().Str("path", name).Msg("reference image rewritten on disk")
				w.onChange(name)
			}

		case <-w.done:
			return
		}
	}
}
