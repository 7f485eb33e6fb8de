package splat

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Record is a single renderable splat.
type Record struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
	Color    [3]uint8
	Opacity  uint8
	// SH holds the higher-order spherical harmonic coefficients, three per
	// basis function, for the degree of the owning Array.
	SH []float32
}

// SHComponents returns the number of higher-order SH coefficients carried per
// record for a given output degree (three colour channels per basis function).
func SHComponents(degree int) int {
	switch degree {
	case 1:
		return 9
	case 2:
		return 24
	case 3:
		return 45
	default:
		return 0
	}
}

// Array is an ordered sequence of splat records sharing one SH degree.
type Array struct {
	SHDegree int
	records  []Record
}

// NewArray returns an empty array for the given SH degree with room for
// capacity records.
func NewArray(shDegree, capacity int) (*Array, error) {
	if shDegree < 0 || shDegree > 3 {
		return nil, fmt.Errorf("spherical harmonics degree must be between 0 and 3, got %d", shDegree)
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Array{SHDegree: shDegree, records: make([]Record, 0, capacity)}, nil
}

// Add appends r. Its SH slice is padded or truncated to the array degree.
func (a *Array) Add(r Record) {
	want := SHComponents(a.SHDegree)
	if len(r.SH) != want {
		sh := make([]float32, want)
		copy(sh, r.SH)
		r.SH = sh
	}
	a.records = append(a.records, r)
}

// Len returns the number of records.
func (a *Array) Len() int { return len(a.records) }

// At returns the record at index i.
func (a *Array) At(i int) Record { return a.records[i] }

// Records returns the backing slice. Callers must not modify it.
func (a *Array) Records() []Record { return a.records }
