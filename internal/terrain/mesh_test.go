package terrain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jet-fighter/internal/vecmath"
)

// floor returns a sealed 2x2 quad at height y centered on the origin.
func floor(y float64) *Mesh {
	m := NewMesh("floor")
	m.AddQuad(
		vecmath.V3(-1, y, -1), vecmath.V3(1, y, -1),
		vecmath.V3(1, y, 1), vecmath.V3(-1, y, 1),
	)
	m.Seal()
	return m
}

func TestMeshNotLoadedUntilSealed(t *testing.T) {
	m := NewMesh("x")
	m.AddTriangle(vecmath.V3(0, 0, 0), vecmath.V3(1, 0, 0), vecmath.V3(0, 0, 1))
	assert.False(t, m.Loaded())

	_, hit := m.Raycast(vecmath.V3(0.2, 1, 0.2), vecmath.V3(0, -1, 0), 5)
	assert.False(t, hit, "unloaded meshes never report hits")

	m.Seal()
	assert.True(t, m.Loaded())

	var nilMesh *Mesh
	assert.False(t, nilMesh.Loaded())
}

func TestRaycast(t *testing.T) {
	m := floor(0)

	tests := []struct {
		name    string
		origin  vecmath.Vec3
		dir     vecmath.Vec3
		maxDist float64
		hit     bool
		dist    float64
	}{
		{"straight down", vecmath.V3(0.2, 0.3, -0.4), vecmath.V3(0, -1, 0), 0.5, true, 0.3},
		{"unnormalized dir", vecmath.V3(0.5, 0.4, -0.3), vecmath.V3(0, -10, 0), 0.5, true, 0.4},
		{"from below hits back face", vecmath.V3(-0.3, -0.2, 0.5), vecmath.V3(0, 1, 0), 0.5, true, 0.2},
		{"out of range", vecmath.V3(0, 0.8, 0), vecmath.V3(0, -1, 0), 0.5, false, 0},
		{"pointing away", vecmath.V3(0, 0.3, 0), vecmath.V3(0, 1, 0), 5, false, 0},
		{"parallel", vecmath.V3(0, 0.1, 0), vecmath.V3(1, 0, 0), 5, false, 0},
		{"outside footprint", vecmath.V3(3, 0.3, 3), vecmath.V3(0, -1, 0), 5, false, 0},
		{"slanted", vecmath.V3(0, 0.3, 0), vecmath.V3(0.3, -0.3, 0), 1, true, 0.3 * math.Sqrt2},
		{"zero direction", vecmath.V3(0, 0.3, 0), vecmath.Vec3{}, 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, hit := m.Raycast(tt.origin, tt.dir, tt.maxDist)
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.InDelta(t, tt.dist, dist, 1e-9)
			}
		})
	}
}

func TestRaycastReturnsNearest(t *testing.T) {
	m := NewMesh("stack")
	m.Append(floor(0))
	m.Append(floor(0.5))
	m.Seal()

	dist, hit := m.Raycast(vecmath.V3(0.3, 1, -0.2), vecmath.V3(0, -1, 0), 2)
	require.True(t, hit)
	assert.InDelta(t, 0.5, dist, 1e-9)
}

func TestEmptyMeshSealed(t *testing.T) {
	m := NewMesh("empty")
	m.Seal()
	assert.True(t, m.Loaded())
	_, hit := m.Raycast(vecmath.Vec3{}, vecmath.UnitY, 1)
	assert.False(t, hit)
}

func TestHeightfieldMesh(t *testing.T) {
	h := Heightfield{Extent: 10, Resolution: 8, Amplitude: 0.35}
	m := h.Mesh()
	m.Seal()

	assert.Equal(t, 8*8*2, m.Len())
	min, max := m.Bounds()
	assert.InDelta(t, -10, min.X, 1e-9)
	assert.InDelta(t, 10, max.Z, 1e-9)

	// A downward ray lands on a triangle spanning the grid vertices; at a
	// vertex the surface height equals HeightAt exactly.
	x, z := 2.5, -5.0
	y := h.HeightAt(x, z)
	dist, hit := m.Raycast(vecmath.V3(x, y+1, z), vecmath.V3(0, -1, 0), 2)
	require.True(t, hit)
	assert.InDelta(t, 1, dist, 1e-9)
}

func TestPlantTreesKeepsSpawnClear(t *testing.T) {
	h := Heightfield{Extent: 10, Resolution: 4, Amplitude: 0.35}
	spawn := vecmath.V3(0, 3, 7)
	trees := PlantTrees(h, 50, rand.New(rand.NewSource(7)), spawn, 1.5)

	require.Len(t, trees, 50)
	for _, tr := range trees {
		assert.GreaterOrEqual(t, math.Hypot(tr.Base.X-spawn.X, tr.Base.Z-spawn.Z), 1.5)
		assert.InDelta(t, h.HeightAt(tr.Base.X, tr.Base.Z), tr.Base.Y, 1e-12)
		assert.Less(t, tr.Base.Y+tr.Height, spawn.Y, "trees stay below the spawn altitude")
	}

	m := FoliageMesh(trees)
	assert.Equal(t, 50*coneSegments*2, m.Len())
}

func TestConeBlocksHorizontalRay(t *testing.T) {
	m := NewMesh("cone")
	addCone(m, vecmath.V3(0, 0, 0), 0.3, 1, 8)
	m.Seal()

	// Ray toward the trunk at low height hits the side of the cone.
	dist, hit := m.Raycast(vecmath.V3(-0.6, 0.1, 0.05), vecmath.V3(1, 0, 0), 0.5)
	require.True(t, hit)
	assert.Greater(t, dist, 0.3)
	assert.Less(t, dist, 0.5)

	// Above the tip nothing is hit.
	_, hit = m.Raycast(vecmath.V3(-0.6, 1.2, 0), vecmath.V3(1, 0, 0), 2)
	assert.False(t, hit)
}
