package cags

import (
	"fmt"
	"strings"
)

// ResourceKind distinguishes codebook payloads from codes payloads.
type ResourceKind int

const (
	Codebook ResourceKind = iota
	Codes
)

func (k ResourceKind) String() string {
	switch k {
	case Codebook:
		return "codebook"
	case Codes:
		return "codes"
	default:
		return fmt.Sprintf("ResourceKind(%d)", int(k))
	}
}

// File names relative to an asset's base path.
const (
	BaseCodebookFile = "point_cloud.codebook.npz"
	BaseCodesFile    = "point_cloud.drc"
)

// Resource describes one file of an asset.
type Resource struct {
	URL       string
	Kind      ResourceKind
	Attribute string // empty for the base layer
	Layer     int    // 0 for the base layer, 1.. for enhancement layers
}

// IsBase reports whether r belongs to the base layer.
func (r Resource) IsBase() bool { return r.Attribute == "" }

func (r Resource) String() string {
	if r.IsBase() {
		return "base " + r.Kind.String()
	}
	return fmt.Sprintf("%s layer %d %s", r.Attribute, r.Layer, r.Kind)
}

// EnhancementFile returns the file name for an enhancement layer payload.
func EnhancementFile(attr string, layer int, kind ResourceKind) string {
	suffix := "codebook.npz"
	if kind == Codes {
		suffix = "codes.npz"
	}
	return fmt.Sprintf("point_cloud.layer.%s.%d.%s", attr, layer, suffix)
}

// JoinURL appends name to basePath with a single '/'.
func JoinURL(basePath, name string) string {
	return strings.TrimSuffix(basePath, "/") + "/" + name
}

// Resources lists every file of the asset in load order: the base codebook,
// all enhancement codebooks, the base codes, then all enhancement codes.
// Within each group attributes follow manifest order and layers count up
// from 1.
func (m Manifest) Resources(basePath string) []Resource {
	out := make([]Resource, 0, m.TotalFiles())
	out = append(out, Resource{URL: JoinURL(basePath, BaseCodebookFile), Kind: Codebook})
	out = m.appendEnhancements(out, basePath, Codebook)
	out = append(out, Resource{URL: JoinURL(basePath, BaseCodesFile), Kind: Codes})
	return m.appendEnhancements(out, basePath, Codes)
}

func (m Manifest) appendEnhancements(out []Resource, basePath string, kind ResourceKind) []Resource {
	for _, e := range m.entries {
		for i := 1; i <= e.Layers; i++ {
			out = append(out, Resource{
				URL:       JoinURL(basePath, EnhancementFile(e.Name, i, kind)),
				Kind:      kind,
				Attribute: e.Name,
				Layer:     i,
			})
		}
	}
	return out
}
