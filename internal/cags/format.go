package cags

import (
	"path"
	"strings"
)

// SceneFormat identifies a splat scene file format by extension.
type SceneFormat int

const (
	FormatUnknown SceneFormat = iota
	FormatPly
	FormatSplat
	FormatKSplat
	FormatSpz
	FormatCAGS
)

func (f SceneFormat) String() string {
	switch f {
	case FormatPly:
		return "ply"
	case FormatSplat:
		return "splat"
	case FormatKSplat:
		return "ksplat"
	case FormatSpz:
		return "spz"
	case FormatCAGS:
		return "cags"
	default:
		return "unknown"
	}
}

// FormatFromPath sniffs the scene format from a file name or URL. Query
// strings and fragments are ignored; the match is case-insensitive.
func FormatFromPath(p string) SceneFormat {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".ply":
		return FormatPly
	case ".splat":
		return FormatSplat
	case ".ksplat":
		return FormatKSplat
	case ".spz":
		return FormatSpz
	case ".drc", ".cags":
		return FormatCAGS
	default:
		return FormatUnknown
	}
}

// BasePath returns fileName up to, not including, its last '/'. A name with
// no separator resolves to the current directory ".".
func BasePath(fileName string) string {
	i := strings.LastIndex(fileName, "/")
	if i < 0 {
		return "."
	}
	return fileName[:i]
}
