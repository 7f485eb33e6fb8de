package cags

import (
	"context"
	"fmt"

	"github.com/banshee-data/splat.report/internal/fetch"
	"github.com/banshee-data/splat.report/internal/monitoring"
)

// LayerLoader fetches an asset's files in manifest order and registers each
// with a DecodeEngine, then dequantizes.
type LayerLoader struct {
	Manifest Manifest
	Fetcher  fetch.Fetcher
}

// Load runs the fetch-and-register sequence against engine and returns the
// dequantized attributes. It stops at the first failure. The caller owns
// engine and must dispose it; the caller also releases the returned set.
func (l *LayerLoader) Load(ctx context.Context, engine DecodeEngine, basePath string, headers map[string]string, tracker *Tracker) (*Attributes, error) {
	counts := l.Manifest.LayerCounts()

	for _, res := range l.Manifest.Resources(basePath) {
		tracker.Downloading(loadingMessage(res, counts[res.Attribute]))

		data, err := l.Fetcher.Fetch(ctx, res.URL, headers)
		if err != nil {
			monitoring.Logf("cags: failed to fetch %s: %v", res.URL, err)
			return nil, fmt.Errorf("load %s: %w", res, err)
		}
		if err := register(ctx, engine, res, data); err != nil {
			r := res
			return nil, &DecodeError{Stage: registerStage(res), Resource: &r, Err: err}
		}

		tracker.FileLoaded(loadedMessage(res))
	}

	tracker.Checkpoint(DequantizePercent, Processing, "Dequantizing data...")
	stop := monitoring.Timed("CAGS dequantization")
	attrs, err := engine.Dequantize(ctx)
	stop()
	if err != nil {
		return nil, &DecodeError{Stage: "dequantize", Err: err}
	}
	if attrs == nil {
		return nil, &DecodeError{Stage: "dequantize", Err: fmt.Errorf("engine returned no attributes")}
	}
	return attrs, nil
}

func register(ctx context.Context, engine DecodeEngine, res Resource, data []byte) error {
	switch {
	case res.IsBase() && res.Kind == Codebook:
		return engine.LoadBaseLayerCodebook(ctx, data)
	case res.IsBase():
		return engine.LoadBaseLayerCodes(ctx, data)
	case res.Kind == Codebook:
		return engine.LoadEnhancementLayerCodebook(ctx, res.Attribute, data)
	default:
		return engine.LoadEnhancementLayerCodes(ctx, res.Attribute, data)
	}
}

func registerStage(res Resource) string {
	layer := "enhancement"
	if res.IsBase() {
		layer = "base"
	}
	return fmt.Sprintf("load %s layer %s", layer, res.Kind)
}

func loadingMessage(res Resource, layers int) string {
	if res.IsBase() {
		return fmt.Sprintf("Loading base %s...", res.Kind)
	}
	return fmt.Sprintf("Loading enhancement %s: %s layer %d/%d", res.Kind, res.Attribute, res.Layer, layers)
}

func loadedMessage(res Resource) string {
	if res.IsBase() {
		return fmt.Sprintf("Base %s loaded", res.Kind)
	}
	return fmt.Sprintf("Enhancement %s loaded: %s layer %d", res.Kind, res.Attribute, res.Layer)
}
