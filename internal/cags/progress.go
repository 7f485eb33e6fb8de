package cags

import "fmt"

// Phase is the coarse load stage reported with each progress update.
type Phase int

const (
	Downloading Phase = iota
	Processing
	Done
)

func (p Phase) String() string {
	switch p {
	case Downloading:
		return "Downloading"
	case Processing:
		return "Processing"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ProgressFunc receives progress updates on the loading goroutine. It sits on
// the path between fetches and should return quickly.
type ProgressFunc func(percent float64, label string, phase Phase, message string)

// Fixed checkpoints. Downloads fill [0, DownloadShare]; the rest covers
// dequantize and conversion.
const (
	DownloadShare     = 90.0
	DequantizePercent = 90.0
	ConvertPercent    = 95.0
	DonePercent       = 100.0
)

// Progress counts fetched files for one load.
type Progress struct {
	FilesLoaded int
	TotalFiles  int
}

// Percent maps the file count onto [0, DownloadShare].
func (p Progress) Percent() float64 {
	if p.TotalFiles <= 0 {
		return 0
	}
	return float64(p.FilesLoaded) / float64(p.TotalFiles) * DownloadShare
}

// Tracker reports Progress through an optional ProgressFunc.
type Tracker struct {
	Progress
	fn ProgressFunc
}

// NewTracker starts a tracker for totalFiles. fn may be nil.
func NewTracker(totalFiles int, fn ProgressFunc) *Tracker {
	return &Tracker{Progress: Progress{TotalFiles: totalFiles}, fn: fn}
}

// Downloading reports the current download percentage with message.
func (t *Tracker) Downloading(message string) {
	if t == nil || t.fn == nil {
		return
	}
	percent := t.Percent()
	t.fn(percent, fmt.Sprintf("%.1f%%", percent), Downloading, message)
}

// FileLoaded counts one fetched and registered file and reports it.
func (t *Tracker) FileLoaded(message string) {
	if t == nil {
		return
	}
	t.FilesLoaded++
	t.Downloading(message)
}

// Checkpoint reports one of the fixed stage percentages.
func (t *Tracker) Checkpoint(percent float64, phase Phase, message string) {
	if t == nil || t.fn == nil {
		return
	}
	t.fn(percent, fmt.Sprintf("%.0f%%", percent), phase, message)
}
