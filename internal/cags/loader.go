package cags

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/splat.report/internal/fetch"
	"github.com/banshee-data/splat.report/internal/monitoring"
	"github.com/banshee-data/splat.report/internal/splat"
)

// LoadOptions are the per-load caller settings.
type LoadOptions struct {
	// OnProgress is optional.
	OnProgress ProgressFunc
	SHDegree   int
	// Headers are sent with every fetch.
	Headers map[string]string
	// Finalize is handed to the Finalizer untouched.
	Finalize splat.FinalizeOptions
}

// Result is everything a completed load produced.
type Result struct {
	BasePath string
	Splats   *splat.Array
	Buffer   *splat.Buffer
}

// Loader loads layered CAGS assets. A Loader holds no per-load state, so one
// value may serve concurrent loads as long as its factory hands out a fresh
// engine each time.
type Loader struct {
	Manifest  Manifest
	Fetcher   fetch.Fetcher
	NewEngine EngineFactory
	// Finalizer defaults to splat.Generator when nil.
	Finalizer splat.Finalizer
}

// NewLoader returns a Loader for the default manifest.
func NewLoader(fetcher fetch.Fetcher, factory EngineFactory) *Loader {
	return &Loader{
		Manifest:  DefaultManifest(),
		Fetcher:   fetcher,
		NewEngine: factory,
		Finalizer: splat.Generator{},
	}
}

// LoadFromURL loads the asset whose file name is fileName and finalizes it
// into a renderer buffer.
func (l *Loader) LoadFromURL(ctx context.Context, fileName string, opts LoadOptions) (*splat.Buffer, error) {
	res, err := l.Load(ctx, fileName, opts)
	if err != nil {
		return nil, err
	}
	return res.Buffer, nil
}

// Load is LoadFromURL keeping the intermediate splat array.
func (l *Loader) Load(ctx context.Context, fileName string, opts LoadOptions) (*Result, error) {
	stop := monitoring.Timed("CAGS load")
	defer stop()

	tracker := NewTracker(l.Manifest.TotalFiles(), opts.OnProgress)
	tracker.Checkpoint(0, Downloading, "")

	basePath := BasePath(fileName)
	arr, err := l.loadSplats(ctx, basePath, opts, tracker)
	if err != nil {
		monitoring.Logf("cags: failed to load %s: %v", fileName, err)
		return nil, err
	}

	finalizer := l.Finalizer
	if finalizer == nil {
		finalizer = splat.Generator{}
	}
	buf, err := finalizer.Finalize(arr, opts.Finalize)
	if err != nil {
		monitoring.Logf("cags: failed to finalize %s: %v", fileName, err)
		return nil, err
	}
	return &Result{BasePath: basePath, Splats: arr, Buffer: buf}, nil
}

// LoadSplats loads the asset under basePath into an ordered splat array.
func (l *Loader) LoadSplats(ctx context.Context, basePath string, opts LoadOptions) (*splat.Array, error) {
	return l.loadSplats(ctx, basePath, opts, NewTracker(l.Manifest.TotalFiles(), opts.OnProgress))
}

func (l *Loader) loadSplats(ctx context.Context, basePath string, opts LoadOptions, tracker *Tracker) (*splat.Array, error) {
	if l.Fetcher == nil {
		return nil, errors.New("cags: loader has no fetcher")
	}
	if l.NewEngine == nil {
		return nil, errors.New("cags: loader has no engine factory")
	}
	engine, err := l.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("create decode engine: %w", err)
	}
	if engine == nil {
		return nil, errors.New("cags: engine factory returned nil")
	}
	defer engine.Dispose()

	layers := LayerLoader{Manifest: l.Manifest, Fetcher: l.Fetcher}
	attrs, err := layers.Load(ctx, engine, basePath, opts.Headers, tracker)
	if err != nil {
		return nil, err
	}
	defer attrs.Release()

	if pos := engine.Position(); pos != nil {
		attrs.Set(AttrPosition, pos)
	}
	numPoints := engine.PointCount()
	monitoring.Logf("CAGS loaded %d points", numPoints)

	tracker.Checkpoint(ConvertPercent, Processing, "Converting to splat array...")
	arr, err := Converter{SHDegree: opts.SHDegree}.Convert(attrs, numPoints)
	if err != nil {
		return nil, err
	}
	tracker.Checkpoint(DonePercent, Done, "")
	return arr, nil
}
