// Package catalog fetches and models the community preset catalog.
package catalog

import (
	"sort"

	"raylight/internal/adjust"
)

// Preset is one community preset as served by the repository. Immutable
// once fetched; Name is unique within a catalog snapshot.
type Preset struct {
	Name        string             `json:"name"`
	Creator     string             `json:"creator,omitempty"`
	LutURL      string             `json:"lut_url,omitempty"`
	Adjustments adjust.Adjustments `json:"adjustments"`
}

// SortedByName returns a copy of presets ordered by name ascending, the
// order the browser lists them in.
func SortedByName(presets []Preset) []Preset {
	sorted := make([]Preset, len(presets))
	copy(sorted, presets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// FindByName returns the preset with the given name from a snapshot.
func FindByName(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
