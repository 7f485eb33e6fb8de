package synthetic

import (
	"context"
	"testing"

	"github.com/banshee-data/splat.report/internal/cags"
	"github.com/banshee-data/splat.report/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func loadBase(t *testing.T, e *Engine, codes []byte) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.LoadBaseLayerCodebook(ctx, []byte("book")))
	require.NoError(t, e.LoadBaseLayerCodes(ctx, codes))
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, b := New(), New()
	loadBase(t, a, make([]byte, 10*BytesPerPoint))
	loadBase(t, b, make([]byte, 10*BytesPerPoint))

	attrsA, err := a.Dequantize(ctx)
	require.NoError(t, err)
	attrsB, err := b.Dequantize(ctx)
	require.NoError(t, err)

	assert.Equal(t, 10, a.PointCount())
	assert.Equal(t, a.Position(), b.Position())
	assert.Equal(t, attrsA.Names(), attrsB.Names())
	opA, _ := attrsA.Get(cags.AttrOpacity)
	opB, _ := attrsB.Get(cags.AttrOpacity)
	assert.Equal(t, opA, opB)

	c := New()
	codes := make([]byte, 10*BytesPerPoint)
	codes[0] = 1
	loadBase(t, c, codes)
	_, err = c.Dequantize(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a.Position(), c.Position())
}

func TestEngine_PointCount(t *testing.T) {
	t.Parallel()
	e := New()
	loadBase(t, e, nil)
	attrs, err := e.Dequantize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPoints, e.PointCount())
	assert.Len(t, e.Position(), 3*DefaultPoints)
	rest, ok := attrs.Get(cags.AttrFeaturesRest)
	require.True(t, ok)
	assert.Len(t, rest, RestPerPoint*DefaultPoints)
}

func TestEngine_LayersReduceNoise(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coarse := New()
	loadBase(t, coarse, nil)

	fine := New()
	require.NoError(t, fine.LoadBaseLayerCodebook(ctx, nil))
	for i := 0; i < 6; i++ {
		require.NoError(t, fine.LoadEnhancementLayerCodebook(ctx, "scaling", nil))
	}
	require.NoError(t, fine.LoadBaseLayerCodes(ctx, nil))
	for i := 0; i < 6; i++ {
		require.NoError(t, fine.LoadEnhancementLayerCodes(ctx, "scaling", nil))
	}

	spread := func(e *Engine) float64 {
		attrs, err := e.Dequantize(ctx)
		require.NoError(t, err)
		scale, _ := attrs.Get(cags.AttrScale)
		xs := make([]float64, len(scale))
		for i, v := range scale {
			xs[i] = float64(v)
		}
		return stat.StdDev(xs, nil)
	}
	assert.Less(t, spread(fine)*8, spread(coarse))
}

func TestEngine_OrderingErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := New()
	assert.ErrorContains(t, e.LoadBaseLayerCodes(ctx, nil), "before base codebook")
	_, err := e.Dequantize(ctx)
	assert.ErrorContains(t, err, "base layer not loaded")
	assert.ErrorContains(t, e.LoadEnhancementLayerCodes(ctx, "opacity", nil), "opacity codes layer 1 has no codebook")

	e.Dispose()
	assert.ErrorIs(t, e.LoadBaseLayerCodebook(ctx, nil), errDisposed)
	assert.ErrorIs(t, e.LoadEnhancementLayerCodebook(ctx, "opacity", nil), errDisposed)
	assert.ErrorIs(t, e.LoadEnhancementLayerCodes(ctx, "opacity", nil), errDisposed)
	_, err = e.Dequantize(ctx)
	assert.ErrorIs(t, err, errDisposed)
	assert.Nil(t, e.Position())
}

func TestEngine_Registered(t *testing.T) {
	t.Parallel()
	assert.Contains(t, cags.Engines(), Name)
	e, err := cags.NewEngine(Name)
	require.NoError(t, err)
	assert.IsType(t, &Engine{}, e)
}

func TestEngine_FullLoad(t *testing.T) {
	t.Parallel()
	empty := fetch.FetcherFunc(func(context.Context, string, map[string]string) ([]byte, error) {
		return nil, nil
	})
	l := cags.NewLoader(empty, cags.EngineFactoryFor(Name))

	arr, err := l.LoadSplats(context.Background(), "mem://asset", cags.LoadOptions{SHDegree: 3})
	require.NoError(t, err)
	require.Equal(t, DefaultPoints, arr.Len())
	for _, r := range arr.Records() {
		assert.InDelta(t, 1.0, r.Rotation.Len(), 1e-5)
		assert.Len(t, r.SH, 45)
	}
}
