package splat

import (
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the spatial extent and appearance of an Array.
type Summary struct {
	Count          int        `json:"count"`
	Min            mgl32.Vec3 `json:"min"`
	Max            mgl32.Vec3 `json:"max"`
	Centroid       mgl32.Vec3 `json:"centroid"`
	OpacityMean    float64    `json:"opacity_mean"`
	OpacityStdDev  float64    `json:"opacity_stddev"`
	MeanScale      float64    `json:"mean_scale"`
	ColorMean      [3]float64 `json:"color_mean"`
	Translucent    int        `json:"translucent"` // records with opacity < 255
	DegenerateRots int        `json:"degenerate_rotations"`
}

// Summarize computes a Summary over every record in a. An empty array yields
// a zero Summary.
func Summarize(a *Array) Summary {
	n := a.Len()
	if n == 0 {
		return Summary{}
	}

	axes := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	channels := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	opacity := make([]float64, n)
	scale := make([]float64, n)

	s := Summary{Count: n}
	for i, r := range a.Records() {
		for k := 0; k < 3; k++ {
			axes[k][i] = float64(r.Position[k])
			channels[k][i] = float64(r.Color[k])
		}
		opacity[i] = float64(r.Opacity)
		scale[i] = float64(r.Scale[0]+r.Scale[1]+r.Scale[2]) / 3
		if r.Opacity < 255 {
			s.Translucent++
		}
		if r.Rotation.Len() == 0 {
			s.DegenerateRots++
		}
	}

	for k := 0; k < 3; k++ {
		s.Min[k] = float32(floats.Min(axes[k]))
		s.Max[k] = float32(floats.Max(axes[k]))
		s.Centroid[k] = float32(stat.Mean(axes[k], nil))
		s.ColorMean[k] = stat.Mean(channels[k], nil)
	}
	s.OpacityMean, s.OpacityStdDev = stat.MeanStdDev(opacity, nil)
	if n == 1 {
		s.OpacityStdDev = 0
	}
	s.MeanScale = stat.Mean(scale, nil)
	return s
}

// Extent returns the bounding box diagonal.
func (s Summary) Extent() mgl32.Vec3 {
	return s.Max.Sub(s.Min)
}
