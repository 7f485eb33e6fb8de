// Package synthetic provides a deterministic DecodeEngine that needs no
// native decoder. It hashes every payload it is given into a seed and draws
// reproducible points from it, so the same files always produce the same
// cloud. Each enhancement layer registered for an attribute halves that
// attribute's quantization noise, which mimics how real layers refine the
// base reconstruction.
//
// Importing the package registers the engine as "synthetic".
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/banshee-data/splat.report/internal/cags"
	"gonum.org/v1/gonum/stat/distuv"
)

// Name is the registry name.
const Name = "synthetic"

const (
	// BytesPerPoint is how many base-codes bytes account for one point.
	BytesPerPoint = 16
	// DefaultPoints is used when the base codes payload is shorter than one
	// point, e.g. empty test fixtures.
	DefaultPoints = 256
	// MaxPoints bounds memory use for large payloads.
	MaxPoints = 1 << 20
	// RestPerPoint is the features_rest stride, enough for SH degree 3.
	RestPerPoint = 45
)

func init() {
	cags.RegisterEngine(Name, func() (cags.DecodeEngine, error) { return New(), nil })
}

var errDisposed = errors.New("synthetic: engine disposed")

// Engine is a deterministic cags.DecodeEngine.
type Engine struct {
	hash      hash.Hash64
	baseBook  bool
	baseCodes int // -1 until loaded
	books     map[string]int
	codes     map[string]int
	points    int
	position  []float32
	disposed  bool
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		hash:      fnv.New64a(),
		baseCodes: -1,
		books:     make(map[string]int),
		codes:     make(map[string]int),
	}
}

func (e *Engine) absorb(tag string, data []byte) {
	e.hash.Write([]byte(tag))
	e.hash.Write([]byte{0})
	e.hash.Write(data)
}

// LoadBaseLayerCodebook mixes the base codebook into the seed.
func (e *Engine) LoadBaseLayerCodebook(ctx context.Context, data []byte) error {
	if e.disposed {
		return errDisposed
	}
	e.absorb("base codebook", data)
	e.baseBook = true
	return ctx.Err()
}

// LoadEnhancementLayerCodebook mixes one enhancement codebook into the seed and
// counts it towards attr's layers.
func (e *Engine) LoadEnhancementLayerCodebook(ctx context.Context, attr string, data []byte) error {
	if e.disposed {
		return errDisposed
	}
	e.absorb(attr+" codebook", data)
	e.books[attr]++
	return ctx.Err()
}

// LoadBaseLayerCodes fixes the point count from the payload size. The base
// codebook must already be loaded.
func (e *Engine) LoadBaseLayerCodes(ctx context.Context, data []byte) error {
	if e.disposed {
		return errDisposed
	}
	if !e.baseBook {
		return errors.New("synthetic: base codes before base codebook")
	}
	e.absorb("base codes", data)
	e.baseCodes = len(data)
	return ctx.Err()
}

// LoadEnhancementLayerCodes requires a codebook for the same layer of attr.
func (e *Engine) LoadEnhancementLayerCodes(ctx context.Context, attr string, data []byte) error {
	if e.disposed {
		return errDisposed
	}
	if e.codes[attr] >= e.books[attr] {
		return fmt.Errorf("synthetic: %s codes layer %d has no codebook", attr, e.codes[attr]+1)
	}
	e.absorb(attr+" codes", data)
	e.codes[attr]++
	return ctx.Err()
}

// Dequantize draws the point cloud. Positions follow a normal distribution
// around the origin; every other attribute is a base value plus noise scaled
// by 2^-layers.
func (e *Engine) Dequantize(ctx context.Context) (*cags.Attributes, error) {
	if e.disposed {
		return nil, errDisposed
	}
	if !e.baseBook || e.baseCodes < 0 {
		return nil, errors.New("synthetic: base layer not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := e.baseCodes / BytesPerPoint
	if n == 0 {
		n = DefaultPoints
	}
	if n > MaxPoints {
		n = MaxPoints
	}
	e.points = n

	seed := e.hash.Sum64()
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	e.position = make([]float32, 3*n)
	for i := range e.position {
		e.position[i] = float32(unit.Rand() * 2)
	}

	scale := e.draw(unit, 3*n, -3.5, e.layers("scaling"))
	rotation := e.draw(unit, 4*n, 0, e.layers("rotation_re", "rotation_im"))
	for i := 0; i < n; i++ {
		rotation[4*i] += 1
	}
	opacity := e.draw(unit, n, 2, e.layers("opacity"))
	dc := e.draw(unit, 3*n, 0, e.layers("features_dc"))
	rest := e.draw(unit, RestPerPoint*n, 0, e.layers("features_rest_0")+2)

	attrs := cags.NewAttributes(map[string][]float32{
		cags.AttrPosition:     e.position,
		cags.AttrScale:        scale,
		cags.AttrRotation:     rotation,
		cags.AttrOpacity:      opacity,
		cags.AttrFeaturesDC:   dc,
		cags.AttrFeaturesRest: rest,
	}, nil)
	return attrs, nil
}

// layers returns the refinement count for attrs: the smallest number of
// complete codebook+codes pairs among them.
func (e *Engine) layers(attrs ...string) int {
	fewest := math.MaxInt
	for _, a := range attrs {
		if c := e.codes[a]; c < fewest {
			fewest = c
		}
	}
	return fewest
}

func (e *Engine) draw(unit distuv.Normal, size int, base float64, layers int) []float32 {
	amp := math.Ldexp(1, -layers)
	out := make([]float32, size)
	for i := range out {
		out[i] = float32(base + unit.Rand()*amp)
	}
	return out
}

// Position returns the positions drawn by the last Dequantize.
func (e *Engine) Position() []float32 { return e.position }

// PointCount is zero before Dequantize.
func (e *Engine) PointCount() int { return e.points }

// Dispose drops all state. Later calls fail.
func (e *Engine) Dispose() {
	e.disposed = true
	e.position = nil
	e.books = nil
	e.codes = nil
}
