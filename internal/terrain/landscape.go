package terrain

import (
	"math"

	"jet-fighter/internal/vecmath"
)

// Heightfield is a deterministic rolling landscape over a square XZ extent.
type Heightfield struct {
	Extent     float64
	Resolution int
	Amplitude  float64
	Phase      float64 // derived from the seed so different seeds roll differently
}

// HeightAt returns the ground height at (x, z).
func (h Heightfield) HeightAt(x, z float64) float64 {
	a := h.Amplitude
	y := a*(1+math.Sin(0.55*x+h.Phase)*math.Cos(0.45*z-h.Phase)) +
		0.4*a*math.Sin(1.3*x+0.7*z+2*h.Phase)
	// Rim hills along the landscape border.
	r := math.Max(math.Abs(x), math.Abs(z))
	if edge := r - 0.8*h.Extent; edge > 0 {
		y += edge * edge * 0.6
	}
	return y
}

// Mesh tessellates the heightfield into a Resolution x Resolution quad grid.
func (h Heightfield) Mesh() *Mesh {
	m := NewMesh("landscape")
	n := h.Resolution
	if n < 1 {
		n = 1
	}
	step := 2 * h.Extent / float64(n)

	vertex := func(i, j int) vecmath.Vec3 {
		x := -h.Extent + float64(i)*step
		z := -h.Extent + float64(j)*step
		return vecmath.V3(x, h.HeightAt(x, z), z)
	}

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m.AddQuad(vertex(i, j), vertex(i+1, j), vertex(i+1, j+1), vertex(i, j+1))
		}
	}
	return m
}
