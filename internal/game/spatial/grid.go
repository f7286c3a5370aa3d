// Package spatial provides the broad- and narrow-phase structures behind the
// arena's overlap and nearest-target queries.
//
// All structures use preallocated slices with integer indices (not pointers)
// to minimize GC pressure and keep cell scans cache friendly.
package spatial

import (
	"math"
)

// SpatialGrid provides O(1) average spatial queries via fixed-size cells.
// Entities are arena slot indices inserted by their centre point.
//
// Cell size should be at least the largest target radius plus the largest
// projectile step length; callers widen every query by the largest target
// radius so that an entity whose centre sits in a neighbouring cell is still
// found.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = list of entity indices
	scratch     []uint32   // reusable buffer for query results
	count       int
}

// NewSpatialGrid creates a grid for the given world bounds.
// maxEntities is used to preallocate cell capacity.
func NewSpatialGrid(worldWidth, worldHeight, cellSize float64, maxEntities int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := max(int(math.Ceil(worldWidth/cellSize)), 1)
	rows := max(int(math.Ceil(worldHeight/cellSize)), 1)

	cells := make([][]uint32, cols*rows)
	avgPerCell := max(maxEntities/len(cells), 4)
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds an entity at position (x, y). Positions outside the world are
// clamped into the border cells.
func (g *SpatialGrid) Insert(entityID uint32, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], entityID)
	g.count++
}

func (g *SpatialGrid) clampCol(col int) int { return min(max(col, 0), g.cols-1) }
func (g *SpatialGrid) clampRow(row int) int { return min(max(row, 0), g.rows-1) }

func (g *SpatialGrid) cellIndex(x, y float64) int {
	col := g.clampCol(int(math.Floor(x * g.invCellSize)))
	row := g.clampRow(int(math.Floor(y * g.invCellSize)))
	return row*g.cols + col
}

// QueryBox returns all entity IDs whose centre lies in a cell touching the
// axis-aligned box [minX,maxX]x[minY,maxY].
//
// IMPORTANT: The returned slice is reused on subsequent calls.
// The candidates are unordered and may include entities outside the box;
// the caller must perform a narrow phase.
func (g *SpatialGrid) QueryBox(minX, minY, maxX, maxY float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol := g.clampCol(int(math.Floor(minX * g.invCellSize)))
	maxCol := g.clampCol(int(math.Floor(maxX * g.invCellSize)))
	minRow := g.clampRow(int(math.Floor(minY * g.invCellSize)))
	maxRow := g.clampRow(int(math.Floor(maxY * g.invCellSize)))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// QueryRadius returns all entity IDs potentially within radius of (cx, cy).
// Same reuse rules as QueryBox.
func (g *SpatialGrid) QueryRadius(cx, cy, radius float64) []uint32 {
	return g.QueryBox(cx-radius, cy-radius, cx+radius, cy+radius)
}

// QuerySwept returns candidates for a circle of the given radius swept from
// (ax, ay) to (bx, by). Same reuse rules as QueryBox.
func (g *SpatialGrid) QuerySwept(ax, ay, bx, by, radius float64) []uint32 {
	return g.QueryBox(
		math.Min(ax, bx)-radius, math.Min(ay, by)-radius,
		math.Max(ax, bx)+radius, math.Max(ay, by)+radius,
	)
}

// Stats returns grid statistics for debugging/profiling.
func (g *SpatialGrid) Stats() GridStats {
	var maxInCell, nonEmpty int
	for _, cell := range g.cells {
		n := len(cell)
		maxInCell = max(maxInCell, n)
		if n > 0 {
			nonEmpty++
		}
	}

	avgPerCell := 0.0
	if nonEmpty > 0 {
		avgPerCell = float64(g.count) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntities:  g.count,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avgPerCell,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells     int     `json:"totalCells"`
	NonEmptyCells  int     `json:"nonEmptyCells"`
	TotalEntities  int     `json:"totalEntities"`
	MaxInCell      int     `json:"maxInCell"`
	AvgPerNonEmpty float64 `json:"avgPerNonEmpty"`
}

// Dimensions returns the grid dimensions.
func (g *SpatialGrid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
