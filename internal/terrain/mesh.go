// Package terrain provides the static collision geometry the aircraft flies
// over: a procedural heightfield landscape and a field of cone trees.
//
// Meshes are plain triangle soups indexed by an XZ spatial grid. A mesh is
// not Loaded until Seal has been called, which the async Loader does after
// generation finishes.
package terrain

import (
	"math"
	"sync"
	"sync/atomic"

	"jet-fighter/internal/spatial"
	"jet-fighter/internal/vecmath"
)

const (
	gridCellSize = 0.5
	rayEpsilon   = 1e-9
)

// Triangle is one face of a collision mesh.
type Triangle struct {
	A, B, C vecmath.Vec3
}

// Mesh is a read-only triangle mesh supporting ray casts.
type Mesh struct {
	name string
	tris []Triangle

	min, max vecmath.Vec3

	mu     sync.Mutex // guards grid query scratch
	grid   *spatial.Grid
	loaded atomic.Bool
}

// NewMesh creates an empty, unloaded mesh.
func NewMesh(name string) *Mesh {
	inf := math.Inf(1)
	return &Mesh{
		name: name,
		min:  vecmath.V3(inf, inf, inf),
		max:  vecmath.V3(-inf, -inf, -inf),
	}
}

// Name identifies the mesh in logs.
func (m *Mesh) Name() string { return m.name }

// Loaded reports whether the mesh has been sealed and may be queried.
func (m *Mesh) Loaded() bool { return m != nil && m.loaded.Load() }

// Len returns the triangle count.
func (m *Mesh) Len() int { return len(m.tris) }

// Bounds returns the axis-aligned extents of all triangles.
func (m *Mesh) Bounds() (min, max vecmath.Vec3) { return m.min, m.max }

// AddTriangle appends a face. Must not be called after Seal.
func (m *Mesh) AddTriangle(a, b, c vecmath.Vec3) {
	m.tris = append(m.tris, Triangle{a, b, c})
	for _, p := range [3]vecmath.Vec3{a, b, c} {
		m.min = vecmath.V3(math.Min(m.min.X, p.X), math.Min(m.min.Y, p.Y), math.Min(m.min.Z, p.Z))
		m.max = vecmath.V3(math.Max(m.max.X, p.X), math.Max(m.max.Y, p.Y), math.Max(m.max.Z, p.Z))
	}
}

// AddQuad appends two faces for the quad a-b-c-d.
func (m *Mesh) AddQuad(a, b, c, d vecmath.Vec3) {
	m.AddTriangle(a, b, c)
	m.AddTriangle(a, c, d)
}

// Append copies all faces of other into m.
func (m *Mesh) Append(other *Mesh) {
	for _, t := range other.tris {
		m.AddTriangle(t.A, t.B, t.C)
	}
}

// Seal builds the spatial index and marks the mesh loaded.
func (m *Mesh) Seal() {
	if len(m.tris) == 0 {
		m.grid = spatial.NewGrid(0, 0, 0, 0, gridCellSize, 0)
		m.loaded.Store(true)
		return
	}

	g := spatial.NewGrid(m.min.X, m.min.Z, m.max.X, m.max.Z, gridCellSize, len(m.tris))
	for i, t := range m.tris {
		g.InsertBounds(uint32(i),
			math.Min(t.A.X, math.Min(t.B.X, t.C.X)),
			math.Min(t.A.Z, math.Min(t.B.Z, t.C.Z)),
			math.Max(t.A.X, math.Max(t.B.X, t.C.X)),
			math.Max(t.A.Z, math.Max(t.B.Z, t.C.Z)),
		)
	}
	m.grid = g
	m.loaded.Store(true)
}

// Raycast returns the distance to the nearest face hit by the ray within
// maxDist. dir need not be normalized; a zero direction never hits.
func (m *Mesh) Raycast(origin, dir vecmath.Vec3, maxDist float64) (float64, bool) {
	if !m.Loaded() || len(m.tris) == 0 {
		return 0, false
	}
	d, err := dir.Normalize()
	if err != nil {
		return 0, false
	}

	end := origin.Add(d.Scale(maxDist))
	minX, maxX := math.Min(origin.X, end.X), math.Max(origin.X, end.X)
	minZ, maxZ := math.Min(origin.Z, end.Z), math.Max(origin.Z, end.Z)

	// Segment entirely outside the mesh footprint or height range.
	if maxX < m.min.X || minX > m.max.X || maxZ < m.min.Z || minZ > m.max.Z {
		return 0, false
	}
	if math.Max(origin.Y, end.Y) < m.min.Y || math.Min(origin.Y, end.Y) > m.max.Y {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	best := math.Inf(1)
	for _, id := range m.grid.QueryBounds(minX, minZ, maxX, maxZ) {
		if t, ok := intersect(origin, d, m.tris[id]); ok && t <= maxDist && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// intersect is the Möller–Trumbore ray/triangle test. Both faces count.
func intersect(origin, dir vecmath.Vec3, tri Triangle) (float64, bool) {
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		return 0, false // parallel
	}
	inv := 1 / det

	s := origin.Sub(tri.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * inv
	if t < rayEpsilon {
		return 0, false
	}
	return t, true
}
