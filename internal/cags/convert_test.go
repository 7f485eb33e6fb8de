package cags

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_SinglePoint(t *testing.T) {
	t.Parallel()
	attrs := NewAttributes(map[string][]float32{
		AttrPosition:   {1, 2, 3},
		AttrScale:      {0, float32(math.Ln2), 0},
		AttrRotation:   {6, 0, 0, 8},
		AttrFeaturesDC: {0, 100, -100},
		AttrOpacity:    {0},
	}, nil)

	arr, err := Converter{}.Convert(attrs, 1)
	require.NoError(t, err)
	require.Equal(t, 1, arr.Len())
	r := arr.At(0)

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, r.Position)
	assert.InDelta(t, 1.0, r.Scale[0], 1e-6)
	assert.InDelta(t, 2.0, r.Scale[1], 1e-6)
	assert.InDelta(t, 0.6, r.Rotation.W, 1e-6)
	assert.InDelta(t, 0.0, r.Rotation.V[0], 1e-6)
	assert.InDelta(t, 0.0, r.Rotation.V[1], 1e-6)
	assert.InDelta(t, 0.8, r.Rotation.V[2], 1e-6)
	assert.Equal(t, [3]uint8{127, 255, 0}, r.Color)
	assert.Equal(t, uint8(127), r.Opacity)
	assert.Empty(t, r.SH)
}

func TestDecodeOpacity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  float32
		want uint8
	}{
		{"zero logit", 0, 127},
		{"large logit", 50, 255},
		{"very negative", -50, 0},
		{"logit 20", 20, 254},
		{"one", 1, 186},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, decodeOpacity([]float32{tt.raw}, 0))
		})
	}
	assert.Equal(t, uint8(255), decodeOpacity(nil, 0))
}

func TestDecodeScale_StaysFiniteAndPositive(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  float32
		want float32
	}{
		{"zero", 0, 1},
		{"ln2", float32(math.Ln2), 2},
		{"underflow", -200, math.SmallestNonzeroFloat32},
		{"overflow", 100, math.MaxFloat32},
		{"infinite", float32(math.Inf(1)), math.MaxFloat32},
		{"nan", float32(math.NaN()), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := decodeScale([]float32{tt.raw, tt.raw, tt.raw}, 0)
			for k := 0; k < 3; k++ {
				assert.Greater(t, s[k], float32(0))
				assert.False(t, math.IsInf(float64(s[k]), 0))
				assert.InEpsilon(t, tt.want, s[k], 1e-6)
			}
		})
	}

	tiny := decodeScale([]float32{-100, -100, -100}, 0)
	assert.Greater(t, tiny[0], float32(0))
}

func TestDecodeColor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, [3]uint8{127, 127, 127}, decodeColor([]float32{0, 0, 0}, 0))
	assert.Equal(t, [3]uint8{255, 255, 255}, decodeColor([]float32{0, 0}, 0))
	nan := float32(math.NaN())
	assert.Equal(t, [3]uint8{0, 255, 127}, decodeColor([]float32{nan, float32(math.Inf(1)), 0}, 0))
}

func TestDecodeRotation(t *testing.T) {
	t.Parallel()
	zero := decodeRotation([]float32{0, 0, 0, 0}, 0)
	assert.Equal(t, mgl32.Quat{}, zero)

	assert.Equal(t, mgl32.QuatIdent(), decodeRotation([]float32{1, 0, 0}, 0))

	q := decodeRotation([]float32{0, 0, 0, 0, 0, 3, 0, 0}, 1)
	assert.InDelta(t, 1.0, q.V[0], 1e-6)
	assert.InDelta(t, 1.0, q.Len(), 1e-6)
}

func TestConvert_ShortBuffersUseDefaults(t *testing.T) {
	t.Parallel()
	attrs := NewAttributes(map[string][]float32{
		AttrPosition: {0, 0, 0, 1, 1, 1},
		AttrScale:    {0, 0, 0},
		AttrRotation: {1, 0, 0, 0},
		AttrOpacity:  {0},
	}, nil)

	arr, err := Converter{}.Convert(attrs, 2)
	require.NoError(t, err)
	second := arr.At(1)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, second.Scale)
	assert.Equal(t, mgl32.QuatIdent(), second.Rotation)
	assert.Equal(t, [3]uint8{255, 255, 255}, second.Color)
	assert.Equal(t, uint8(255), second.Opacity)
}

func TestConvert_Aliases(t *testing.T) {
	t.Parallel()
	attrs := NewAttributes(map[string][]float32{
		AttrPositionAlias: {4, 5, 6},
		AttrScaleAlias:    {float32(math.Ln2), float32(math.Ln2), float32(math.Ln2)},
	}, nil)
	arr, err := Converter{}.Convert(attrs, 1)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, arr.At(0).Position)
	assert.InDelta(t, 2.0, arr.At(0).Scale[2], 1e-6)

	attrs.Set(AttrPosition, []float32{7, 8, 9})
	arr, err = Converter{}.Convert(attrs, 1)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{7, 8, 9}, arr.At(0).Position, "canonical name wins")
}

func TestConvert_MissingPosition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		buffers map[string][]float32
		got     int
	}{
		{"absent", map[string][]float32{AttrScale: {0, 0, 0}}, -1},
		{"short", map[string][]float32{AttrPosition: {0, 0}}, 2},
		{"long alias", map[string][]float32{AttrPositionAlias: {0, 0, 0, 0}}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			arr, err := Converter{}.Convert(NewAttributes(tt.buffers, nil), 1)
			assert.Nil(t, arr)
			var missing *MissingAttributeError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.got, missing.Got)
			assert.Equal(t, 3, missing.Want)
			assert.Equal(t, []string{AttrPosition, AttrPositionAlias}, missing.Names)
		})
	}
}

func TestConvert_SHRest(t *testing.T) {
	t.Parallel()
	rest := make([]float32, 2*45)
	for i := range rest {
		rest[i] = float32(i)
	}
	attrs := NewAttributes(map[string][]float32{
		AttrPosition:     {0, 0, 0, 1, 1, 1},
		AttrFeaturesRest: rest,
	}, nil)

	arr, err := Converter{SHDegree: 1}.Convert(attrs, 2)
	require.NoError(t, err)
	want := make([]float32, 9)
	for i := range want {
		want[i] = float32(45 + i)
	}
	if diff := cmp.Diff(want, arr.At(1).SH); diff != "" {
		t.Errorf("SH mismatch (-want +got):\n%s", diff)
	}

	rest[45] = -1
	assert.Equal(t, float32(45), arr.At(1).SH[0], "records own their coefficients")
}

func TestConvert_SHRestTooNarrow(t *testing.T) {
	t.Parallel()
	attrs := NewAttributes(map[string][]float32{
		AttrPosition:     {0, 0, 0},
		AttrFeaturesRest: {1, 2, 3},
	}, nil)
	arr, err := Converter{SHDegree: 2}.Convert(attrs, 1)
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 24), arr.At(0).SH)
}

func TestConvert_InvalidDegree(t *testing.T) {
	t.Parallel()
	_, err := Converter{SHDegree: 4}.Convert(NewAttributes(map[string][]float32{AttrPosition: {0, 0, 0}}, nil), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 3")
}

func TestConvert_ZeroPoints(t *testing.T) {
	t.Parallel()
	arr, err := Converter{}.Convert(NewAttributes(map[string][]float32{AttrPosition: {}}, nil), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, arr.Len())

	_, err = Converter{}.Convert(NewAttributes(nil, nil), 0)
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, -1, missing.Got)
}
