package cags

import (
	"fmt"
	"math"

	"github.com/banshee-data/splat.report/internal/monitoring"
	"github.com/banshee-data/splat.report/internal/splat"
	"github.com/go-gl/mathgl/mgl32"
)

// SHC0 is the zeroth-order real spherical harmonic basis constant,
// 1 / (2·sqrt(pi)).
const SHC0 = 0.28209479177387814

// Converter turns dequantized attribute buffers into splat records.
type Converter struct {
	// SHDegree selects how many higher-order SH coefficients each record
	// carries; see splat.SHComponents.
	SHDegree int
}

// Convert builds one record per point, in point-index order. Only the
// position buffer is required and it must hold exactly 3·numPoints values.
// Scale, rotation, colour and opacity fall back to (1,1,1), identity, white
// and 255 for any point their buffers do not cover.
func (c Converter) Convert(attrs *Attributes, numPoints int) (*splat.Array, error) {
	if attrs == nil {
		return nil, &MissingAttributeError{Names: []string{AttrPosition, AttrPositionAlias}, Got: -1}
	}
	if numPoints < 0 {
		return nil, fmt.Errorf("convert: negative point count %d", numPoints)
	}

	_, positions := attrs.Lookup(AttrPosition, AttrPositionAlias)
	if positions == nil {
		return nil, &MissingAttributeError{Names: []string{AttrPosition, AttrPositionAlias}, Got: -1, Want: 3 * numPoints}
	}
	if len(positions) != 3*numPoints {
		return nil, &MissingAttributeError{Names: []string{AttrPosition, AttrPositionAlias}, Got: len(positions), Want: 3 * numPoints}
	}

	out, err := splat.NewArray(c.SHDegree, numPoints)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	_, scales := attrs.Lookup(AttrScale, AttrScaleAlias)
	rotations, _ := attrs.Get(AttrRotation)
	opacities, _ := attrs.Get(AttrOpacity)
	colors, _ := attrs.Get(AttrFeaturesDC)
	shNeed := splat.SHComponents(c.SHDegree)
	shRest, shStride := restCoefficients(attrs, numPoints, shNeed)

	logFallback(AttrScale, "(1,1,1)", scales, 3, numPoints)
	logFallback(AttrRotation, "identity", rotations, 4, numPoints)
	logFallback(AttrFeaturesDC, "white", colors, 3, numPoints)
	logFallback(AttrOpacity, "255", opacities, 1, numPoints)

	for i := 0; i < numPoints; i++ {
		r := splat.Record{
			Position: mgl32.Vec3{positions[3*i], positions[3*i+1], positions[3*i+2]},
			Scale:    decodeScale(scales, i),
			Rotation: decodeRotation(rotations, i),
			Color:    decodeColor(colors, i),
			Opacity:  decodeOpacity(opacities, i),
		}
		if shRest != nil {
			// Copy: the engine may reuse rest after Release.
			r.SH = append([]float32(nil), shRest[i*shStride:i*shStride+shNeed]...)
		}
		out.Add(r)
	}
	return out, nil
}

func decodeScale(buf []float32, i int) mgl32.Vec3 {
	if len(buf) < 3*(i+1) {
		return mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Vec3{expScale(buf[3*i]), expScale(buf[3*i+1]), expScale(buf[3*i+2])}
}

// expScale keeps exp(v) finite and positive in float32.
func expScale(v float32) float32 {
	s := math.Exp(float64(v))
	switch {
	case math.IsNaN(s):
		return 1
	case s < math.SmallestNonzeroFloat32:
		return math.SmallestNonzeroFloat32
	case s > math.MaxFloat32:
		return math.MaxFloat32
	}
	return float32(s)
}

// decodeRotation reads (w, x, y, z) and normalizes. A zero quaternion is
// returned as is.
func decodeRotation(buf []float32, i int) mgl32.Quat {
	if len(buf) < 4*(i+1) {
		return mgl32.QuatIdent()
	}
	q := mgl32.Quat{W: buf[4*i], V: mgl32.Vec3{buf[4*i+1], buf[4*i+2], buf[4*i+3]}}
	if q.Len() == 0 {
		return q
	}
	return q.Normalize()
}

func decodeColor(buf []float32, i int) [3]uint8 {
	if len(buf) < 3*(i+1) {
		return [3]uint8{255, 255, 255}
	}
	var rgb [3]uint8
	for k := 0; k < 3; k++ {
		rgb[k] = clampByte(math.Floor((0.5 + SHC0*float64(buf[3*i+k])) * 255))
	}
	return rgb
}

func decodeOpacity(buf []float32, i int) uint8 {
	if len(buf) <= i {
		return 255
	}
	sigmoid := 1 / (1 + math.Exp(-float64(buf[i])))
	return clampByte(math.Floor(sigmoid * 255))
}

// clampByte clamps to [0, 255]; NaN maps to 0.
func clampByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// restCoefficients returns the features_rest buffer and its per-point stride
// when it carries at least need values per point.
func restCoefficients(attrs *Attributes, numPoints, need int) ([]float32, int) {
	if need == 0 || numPoints == 0 {
		return nil, 0
	}
	rest, ok := attrs.Get(AttrFeaturesRest)
	if !ok {
		return nil, 0
	}
	stride := len(rest) / numPoints
	if stride < need {
		monitoring.Logf("cags: %s has %d values per point, need %d; SH coefficients left at zero", AttrFeaturesRest, stride, need)
		return nil, 0
	}
	return rest, stride
}

func logFallback(name, fallback string, buf []float32, components, numPoints int) {
	covered := len(buf) / components
	if covered >= numPoints {
		return
	}
	monitoring.Logf("cags: %s covers %d of %d points; using %s for the rest", name, covered, numPoints, fallback)
}
