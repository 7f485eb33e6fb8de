package cags

import (
	"fmt"
	"strings"
)

// ManifestEntry gives the number of enhancement layers shipped for one
// attribute. Zero means the attribute only has a base-layer contribution.
type ManifestEntry struct {
	Name   string `json:"name"`
	Layers int    `json:"layers"`
}

// Manifest is the ordered, immutable attribute table that drives the fetch
// sequence. File names are derived from it, so it must match the asset's
// naming convention.
type Manifest struct {
	entries []ManifestEntry
}

var defaultManifestEntries = []ManifestEntry{
	{Name: "scaling", Layers: 6},
	{Name: "rotation_re", Layers: 4},
	{Name: "rotation_im", Layers: 6},
	{Name: "opacity", Layers: 5},
	{Name: "features_dc", Layers: 6},
	{Name: "features_rest_0", Layers: 5},
	{Name: "features_rest_1", Layers: 0},
	{Name: "features_rest_2", Layers: 0},
}

// DefaultManifest returns the attribute table for the current asset format.
func DefaultManifest() Manifest {
	m, _ := NewManifest(defaultManifestEntries...)
	return m
}

// NewManifest copies entries into a Manifest. Names must be unique, non-empty
// and contain no path separators or dots; layer counts must be non-negative.
func NewManifest(entries ...ManifestEntry) (Manifest, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]ManifestEntry, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Name == "":
			return Manifest{}, fmt.Errorf("manifest: empty attribute name")
		case strings.ContainsAny(e.Name, "./\\"):
			return Manifest{}, fmt.Errorf("manifest: attribute name %q must not contain '.', '/' or '\\'", e.Name)
		case e.Layers < 0:
			return Manifest{}, fmt.Errorf("manifest: attribute %q has negative layer count %d", e.Name, e.Layers)
		case seen[e.Name]:
			return Manifest{}, fmt.Errorf("manifest: duplicate attribute %q", e.Name)
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return Manifest{entries: out}, nil
}

// Entries returns a copy of the table in fetch order.
func (m Manifest) Entries() []ManifestEntry {
	out := make([]ManifestEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// LayerCounts returns attribute name → enhancement layer count.
func (m Manifest) LayerCounts() map[string]int {
	out := make(map[string]int, len(m.entries))
	for _, e := range m.entries {
		out[e.Name] = e.Layers
	}
	return out
}

// TotalFiles is the number of files a full load fetches: the base codebook
// and codes plus a codebook and codes file per enhancement layer.
func (m Manifest) TotalFiles() int {
	total := 2
	for _, e := range m.entries {
		total += 2 * e.Layers
	}
	return total
}
