// Package spatial provides cache-efficient spatial data structures for
// broad-phase collision queries.
//
// Structures use preallocated slices with integer indices (not pointers)
// to minimize GC pressure and maximize cache locality.
package spatial

import (
	"math"
)

// Grid buckets entity indices into fixed-size cells over a 2D plane.
// The flight world uses it over the horizontal XZ plane so a ray cast only
// visits the terrain triangles whose footprint overlaps the ray segment.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type Grid struct {
	originX, originY float64
	cellSize         float64
	invCellSize      float64 // 1/cellSize for faster division
	cols, rows       int
	cells            [][]uint32 // cells[row*cols+col] = list of entity indices
	scratch          []uint32   // reusable buffer for query results

	// Query dedup: an entity spanning several cells is reported once.
	stamps []uint32
	stamp  uint32
}

// NewGrid creates a grid covering [minX,maxX] x [minY,maxY].
// cellSize should be close to the typical query radius.
// maxEntities is used to preallocate cell capacity.
func NewGrid(minX, minY, maxX, maxY, cellSize float64, maxEntities int) *Grid {
	cols := int(math.Ceil((maxX - minX) / cellSize))
	rows := int(math.Ceil((maxY - minY) / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	avgPerCell := maxEntities / len(cells)
	if avgPerCell < 4 {
		avgPerCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &Grid{
		originX:     minX,
		originY:     minY,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
		stamps:      make([]uint32, maxEntities),
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity at point (x, y).
func (g *Grid) Insert(entityID uint32, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], entityID)
	g.reserve(entityID)
}

// InsertBounds adds an entity to every cell overlapping the given box.
func (g *Grid) InsertBounds(entityID uint32, minX, minY, maxX, maxY float64) {
	minCol, minRow := g.clampCell(minX, minY)
	maxCol, maxRow := g.clampCell(maxX, maxY)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], entityID)
		}
	}
	g.reserve(entityID)
}

func (g *Grid) reserve(entityID uint32) {
	if int(entityID) >= len(g.stamps) {
		grown := make([]uint32, int(entityID)*2+1)
		copy(grown, g.stamps)
		g.stamps = grown
	}
}

func (g *Grid) clampCell(x, y float64) (col, row int) {
	col = int(math.Floor((x - g.originX) * g.invCellSize))
	row = int(math.Floor((y - g.originY) * g.invCellSize))

	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex computes the cell index for a position, with bounds clamping.
func (g *Grid) cellIndex(x, y float64) int {
	col, row := g.clampCell(x, y)
	return row*g.cols + col
}

// QueryRadius returns all entity IDs potentially within radius of (cx, cy),
// each ID at most once.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
// Copy the results if you need to persist them.
//
// The returned candidates may include entities outside the radius;
// the caller must perform a precise test (narrow phase).
func (g *Grid) QueryRadius(cx, cy, radius float64) []uint32 {
	return g.QueryBounds(cx-radius, cy-radius, cx+radius, cy+radius)
}

// QueryBounds returns all entity IDs in cells overlapping the box, each once.
// The returned slice is reused on subsequent calls.
func (g *Grid) QueryBounds(minX, minY, maxX, maxY float64) []uint32 {
	g.scratch = g.scratch[:0]

	g.stamp++
	if g.stamp == 0 {
		// wrapped; reset so stale stamps can't collide
		for i := range g.stamps {
			g.stamps[i] = 0
		}
		g.stamp = 1
	}

	minCol, minRow := g.clampCell(minX, minY)
	maxCol, maxRow := g.clampCell(maxX, maxY)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, id := range g.cells[row*g.cols+col] {
				if g.stamps[id] == g.stamp {
					continue
				}
				g.stamps[id] = g.stamp
				g.scratch = append(g.scratch, id)
			}
		}
	}

	return g.scratch
}

// QueryCell returns all entity IDs in the cell containing (x, y).
func (g *Grid) QueryCell(x, y float64) []uint32 {
	return g.cells[g.cellIndex(x, y)]
}

// Stats returns grid statistics for debugging/profiling.
func (g *Grid) Stats() GridStats {
	var totalEntries, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		count := len(cell)
		totalEntries += count
		if count > maxInCell {
			maxInCell = count
		}
		if count > 0 {
			nonEmpty++
		}
	}

	avgPerCell := 0.0
	if nonEmpty > 0 {
		avgPerCell = float64(totalEntries) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntries:   totalEntries,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avgPerCell,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntries   int
	MaxInCell      int
	AvgPerNonEmpty float64
}

// Dimensions returns the grid dimensions.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
