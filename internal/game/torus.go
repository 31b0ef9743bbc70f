package game

import (
	"math"

	"jet-fighter/internal/vecmath"
)

// TorusMesh is merged, indexed triangle geometry for all active targets.
// Positions and normals are flat xyz triples.
type TorusMesh struct {
	Version   uint64    `json:"version"`
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices.
func (m TorusMesh) VertexCount() int { return len(m.Positions) / 3 }

// torusTemplate is a ring in the XY plane (axis +Z) centered on the origin.
type torusTemplate struct {
	positions []vecmath.Vec3
	normals   []vecmath.Vec3
	indices   []uint32
}

// newTorusTemplate tessellates a torus the same way three.js TorusGeometry
// does, so vertex order and winding match what renderers expect.
func newTorusTemplate(radius, tube float64, radialSegments, tubularSegments int) torusTemplate {
	var t torusTemplate
	for j := 0; j <= radialSegments; j++ {
		for i := 0; i <= tubularSegments; i++ {
			u := float64(i) / float64(tubularSegments) * 2 * math.Pi
			v := float64(j) / float64(radialSegments) * 2 * math.Pi

			pos := vecmath.V3(
				(radius+tube*math.Cos(v))*math.Cos(u),
				(radius+tube*math.Cos(v))*math.Sin(u),
				tube*math.Sin(v),
			)
			center := vecmath.V3(radius*math.Cos(u), radius*math.Sin(u), 0)

			t.positions = append(t.positions, pos)
			t.normals = append(t.normals, pos.Sub(center).NormalizeOr(vecmath.UnitZ))
		}
	}

	row := uint32(tubularSegments + 1)
	for j := uint32(1); j <= uint32(radialSegments); j++ {
		for i := uint32(1); i <= uint32(tubularSegments); i++ {
			a := row*j + i - 1
			b := row*(j-1) + i - 1
			c := row*(j-1) + i
			d := row*j + i
			t.indices = append(t.indices, a, b, d, b, c, d)
		}
	}
	return t
}

// appendRing writes the template rotated from +Z onto axis and moved to center.
func (t torusTemplate) appendRing(m *TorusMesh, center, axis vecmath.Vec3) {
	q := vecmath.QuatFromUnitVectors(vecmath.UnitZ, axis)
	offset := uint32(len(m.Positions) / 3)

	for i, p := range t.positions {
		p = q.Rotate(p).Add(center)
		n := q.Rotate(t.normals[i])
		m.Positions = append(m.Positions, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, idx := range t.indices {
		m.Indices = append(m.Indices, idx+offset)
	}
}
