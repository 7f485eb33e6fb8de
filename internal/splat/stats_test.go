package splat

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("empty array", func(t *testing.T) {
		t.Parallel()
		a, err := NewArray(0, 0)
		require.NoError(t, err)
		assert.Equal(t, Summary{}, Summarize(a))
	})

	t.Run("bounds centroid and opacity", func(t *testing.T) {
		t.Parallel()
		a, err := NewArray(0, 3)
		require.NoError(t, err)

		a.Add(testRecord(-1, 0, 2, 255))
		a.Add(testRecord(3, 4, 2, 127))
		r := testRecord(1, 2, 2, 255)
		r.Color = [3]uint8{0, 0, 0}
		r.Rotation = mgl32.Quat{}
		a.Add(r)

		s := Summarize(a)
		assert.Equal(t, 3, s.Count)
		assert.Equal(t, mgl32.Vec3{-1, 0, 2}, s.Min)
		assert.Equal(t, mgl32.Vec3{3, 4, 2}, s.Max)
		assert.Equal(t, mgl32.Vec3{4, 4, 0}, s.Extent())
		assert.InDelta(t, 1.0, s.Centroid[0], 1e-6)
		assert.InDelta(t, 2.0, s.Centroid[1], 1e-6)
		assert.InDelta(t, (255.0+127+255)/3, s.OpacityMean, 1e-9)
		assert.Greater(t, s.OpacityStdDev, 0.0)
		assert.InDelta(t, 1.0, s.MeanScale, 1e-9)
		assert.InDelta(t, 170.0, s.ColorMean[0], 1e-9)
		assert.Equal(t, 1, s.Translucent)
		assert.Equal(t, 1, s.DegenerateRots)
	})

	t.Run("single record has zero spread", func(t *testing.T) {
		t.Parallel()
		a, err := NewArray(0, 1)
		require.NoError(t, err)
		a.Add(testRecord(0, 0, 0, 10))
		s := Summarize(a)
		assert.Equal(t, 0.0, s.OpacityStdDev)
		assert.Equal(t, 10.0, s.OpacityMean)
	})
}
