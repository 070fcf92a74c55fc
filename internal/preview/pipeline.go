// Package preview generates and owns the community browser's preview
// images: one render per catalog preset against the active reference
// image, re-run whenever either input changes.
package preview

import (
	"context"
	"sort"
	"sync"

	"raylight/internal/adjust"
	"raylight/internal/catalog"
	"raylight/internal/logging"

	"github.com/rs/zerolog"
)

// Renderer produces one encoded preview for an image path and a
// fully-resolved adjustment set. It must tolerate concurrent calls.
type Renderer interface {
	RenderPreview(ctx context.Context, imagePath string, adjustments adjust.Adjustments) ([]byte, error)
}

// Publisher receives preview state updates for the presentation layer.
type Publisher interface {
	PublishEntry(view EntryView)
	PublishSettled()
}

// Pipeline owns the preview map and its image resources. The presentation
// layer only reads, via Snapshot and the Publisher events.
type Pipeline struct {
	log       zerolog.Logger
	renderer  Renderer
	publisher Publisher
	baseline  adjust.Adjustments

	mu         sync.Mutex
	generation uint64
	catalog    []catalog.Preset
	creators   map[string]string
	refPath    string
	entries    map[string]*Entry
	closed     bool
}

// New creates an idle pipeline. It stays idle until both a catalog
// snapshot and a reference image are set.
func New(renderer Renderer, publisher Publisher) *Pipeline {
	return &Pipeline{
		log:       logging.Component("preview"),
		renderer:  renderer,
		publisher: publisher,
		baseline:  adjust.Baseline(),
		creators:  make(map[string]string),
		entries:   make(map[string]*Entry),
	}
}

// SetCatalog replaces the catalog snapshot and restarts the pipeline.
func (p *Pipeline) SetCatalog(presets []catalog.Preset) {
	p.mu.Lock()
	p.catalog = make([]catalog.Preset, len(presets))
	copy(p.catalog, presets)
	p.creators = make(map[string]string, len(presets))
	for _, preset := range presets {
		p.creators[preset.Name] = preset.Creator
	}
	p.restartLocked()
	p.mu.Unlock()
}

// SetReferenceImage replaces the reference image and restarts the
// pipeline. All previews rendered against the old image are invalidated
// before the new run starts.
func (p *Pipeline) SetReferenceImage(path string) {
	p.mu.Lock()
	p.refPath = path
	p.restartLocked()
	p.mu.Unlock()
}

// Close tears the pipeline down, releasing every installed resource.
// In-flight renders finish on their own and are discarded by the
// generation check.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.restartLocked()
	p.mu.Unlock()
	p.log.Debug().Msg("preview pipeline closed")
}

// restartLocked is the single invalidation point: it supersedes any
// in-flight run, releases the old map, and starts a new run when both
// inputs are present.
func (p *Pipeline) restartLocked() {
	p.generation++
	p.releaseAllLocked()
	p.entries = make(map[string]*Entry)

	if p.closed || len(p.catalog) == 0 || p.refPath == "" {
		return
	}

	for _, preset := range p.catalog {
		p.entries[preset.Name] = &Entry{State: StatePending}
	}

	gen := p.generation
	presets := p.catalog
	ref := p.refPath
	p.log.Info().
		Uint64("generation", gen).
		Int("presets", len(presets)).
		Str("reference", ref).
		Msg("starting preview run")
	go p.run(gen, presets, ref)
}

func (p *Pipeline) releaseAllLocked() {
	for name, entry := range p.entries {
		if entry.Handle == nil {
			continue
		}
		if err := entry.Handle.Release(); err != nil {
			p.log.Error().Err(err).Str("preset", name).Msg("preview handle release failed")
		}
		entry.Handle = nil
	}
}

// run fans out one render per preset and waits for all of them to settle
// before publishing the all-settled signal.
func (p *Pipeline) run(gen uint64, presets []catalog.Preset, refPath string) {
	var wg sync.WaitGroup
	for _, preset := range presets {
		wg.Add(1)
		go func(preset catalog.Preset) {
			defer wg.Done()
			merged := adjust.Merge(p.baseline, preset.Adjustments)
			data, err := p.renderer.RenderPreview(context.Background(), refPath, merged)
			p.resolve(gen, preset.Name, data, err)
		}(preset)
	}
	wg.Wait()

	p.mu.Lock()
	settled := gen == p.generation && p.allSettledLocked()
	p.mu.Unlock()

	if settled {
		p.log.Info().Uint64("generation", gen).Msg("all previews settled")
		p.publisher.PublishSettled()
	}
}

// resolve installs one render result, unless the run it belongs to has
// been superseded, in which case the result is discarded.
func (p *Pipeline) resolve(gen uint64, name string, data []byte, renderErr error) {
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.log.Debug().Str("preset", name).Uint64("generation", gen).Msg("discarding result from superseded run")
		return
	}

	entry, ok := p.entries[name]
	if !ok {
		p.mu.Unlock()
		return
	}

	if renderErr != nil {
		entry.State = StateFailed
		entry.Handle = nil
	} else {
		if entry.Handle != nil {
			if err := entry.Handle.Release(); err != nil {
				p.log.Error().Err(err).Str("preset", name).Msg("preview handle release failed")
			}
		}
		entry.Handle = newHandle(data)
		entry.State = StateReady
	}
	view := p.viewLocked(name, entry)
	p.mu.Unlock()

	if renderErr != nil {
		p.log.Warn().Err(renderErr).Str("preset", name).Msg("preview render failed")
	}
	p.publisher.PublishEntry(view)
}

// Snapshot returns a read-only copy of the current preview state.
func (p *Pipeline) Snapshot() SnapshotView {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make(map[string]EntryView, len(p.entries))
	for name, entry := range p.entries {
		entries[name] = p.viewLocked(name, entry)
	}

	return SnapshotView{
		Entries:    entries,
		AllSettled: p.allSettledLocked(),
	}
}

// Tiles returns the ready entries sorted by preset name ascending, the
// list the browser actually displays. Pending and failed entries are
// omitted.
func (p *Pipeline) Tiles() []EntryView {
	p.mu.Lock()
	defer p.mu.Unlock()

	tiles := make([]EntryView, 0, len(p.entries))
	for name, entry := range p.entries {
		if entry.State != StateReady {
			continue
		}
		tiles = append(tiles, p.viewLocked(name, entry))
	}
	sort.Slice(tiles, func(i, j int) bool {
		return tiles[i].Name < tiles[j].Name
	})
	return tiles
}

// AllSettled reports whether every entry of a non-empty catalog has
// settled. Used by the browser's one-time call-to-action.
func (p *Pipeline) AllSettled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allSettledLocked()
}

func (p *Pipeline) allSettledLocked() bool {
	if len(p.entries) == 0 {
		return false
	}
	for _, entry := range p.entries {
		if !entry.settled() {
			return false
		}
	}
	return true
}

func (p *Pipeline) viewLocked(name string, entry *Entry) EntryView {
	view := EntryView{
		Name:    name,
		Creator: p.creators[name],
		Status:  entry.State.String(),
	}
	if entry.State == StateReady && entry.Handle != nil {
		view.DataURL = entry.Handle.DataURL()
	}
	return view
}
