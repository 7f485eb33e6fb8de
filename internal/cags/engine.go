package cags

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DecodeEngine accumulates codebooks and codes and dequantizes them. The
// loader drives one engine per load, never concurrently, and calls Dispose
// exactly once when the load ends.
type DecodeEngine interface {
	LoadBaseLayerCodebook(ctx context.Context, data []byte) error
	LoadEnhancementLayerCodebook(ctx context.Context, attr string, data []byte) error
	LoadBaseLayerCodes(ctx context.Context, data []byte) error
	LoadEnhancementLayerCodes(ctx context.Context, attr string, data []byte) error
	// Dequantize reconstructs the attribute buffers. The returned set stays
	// owned by the engine until released.
	Dequantize(ctx context.Context) (*Attributes, error)
	// Position returns the decoded xyz buffer, three values per point.
	Position() []float32
	PointCount() int
	Dispose()
}

// EngineFactory creates a fresh engine for one load.
type EngineFactory func() (DecodeEngine, error)

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]EngineFactory)
)

// RegisterEngine makes a decode backend available by name. It panics if
// factory is nil or name is already registered, following database/sql.
func RegisterEngine(name string, factory EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if factory == nil {
		panic("cags: RegisterEngine factory is nil")
	}
	if _, dup := engines[name]; dup {
		panic("cags: RegisterEngine called twice for engine " + name)
	}
	engines[name] = factory
}

// NewEngine creates an engine from the named registered backend.
func NewEngine(name string) (DecodeEngine, error) {
	enginesMu.RLock()
	factory, ok := engines[name]
	enginesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cags: unknown decode engine %q (registered: %v)", name, Engines())
	}
	return factory()
}

// EngineFactoryFor returns a factory that creates the named engine on demand.
func EngineFactoryFor(name string) EngineFactory {
	return func() (DecodeEngine, error) { return NewEngine(name) }
}

// Engines returns the sorted names of registered backends.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
