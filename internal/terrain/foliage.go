package terrain

import (
	"math"
	"math/rand"

	"jet-fighter/internal/vecmath"
)

const (
	coneSegments  = 6
	minTreeRadius = 0.15
	maxTreeRadius = 0.35
	minTreeHeight = 0.5
	maxTreeHeight = 1.3
)

// Tree is a cone standing on the landscape.
type Tree struct {
	Base   vecmath.Vec3
	Radius float64
	Height float64
}

// PlantTrees scatters count trees over the inner area of the heightfield.
// Spots within clearRadius of clear (in XZ) are left empty.
func PlantTrees(h Heightfield, count int, rng *rand.Rand, clear vecmath.Vec3, clearRadius float64) []Tree {
	trees := make([]Tree, 0, count)
	span := 0.75 * h.Extent
	for attempts := 0; len(trees) < count && attempts < count*20; attempts++ {
		x := (rng.Float64()*2 - 1) * span
		z := (rng.Float64()*2 - 1) * span
		if math.Hypot(x-clear.X, z-clear.Z) < clearRadius {
			continue
		}
		trees = append(trees, Tree{
			Base:   vecmath.V3(x, h.HeightAt(x, z), z),
			Radius: minTreeRadius + rng.Float64()*(maxTreeRadius-minTreeRadius),
			Height: minTreeHeight + rng.Float64()*(maxTreeHeight-minTreeHeight),
		})
	}
	return trees
}

// FoliageMesh merges every tree's cone into one mesh.
func FoliageMesh(trees []Tree) *Mesh {
	m := NewMesh("foliage")
	for _, t := range trees {
		addCone(m, t.Base, t.Radius, t.Height, coneSegments)
	}
	return m
}

// addCone adds a closed cone whose base disc is centered on base.
func addCone(m *Mesh, base vecmath.Vec3, radius, height float64, segments int) {
	if segments < 4 {
		segments = 4
	}
	tip := base.Add(vecmath.V3(0, height, 0))

	for i := 0; i < segments; i++ {
		a0 := float64(i) / float64(segments) * 2 * math.Pi
		a1 := float64(i+1) / float64(segments) * 2 * math.Pi
		p0 := base.Add(vecmath.V3(radius*math.Cos(a0), 0, radius*math.Sin(a0)))
		p1 := base.Add(vecmath.V3(radius*math.Cos(a1), 0, radius*math.Sin(a1)))

		m.AddTriangle(p0, p1, tip)
		m.AddTriangle(base, p1, p0) // bottom cap
	}
}
