// grid.go implements the play-area coordinate space: bounds, wrap-around,
// world-space transforms, and the free-cell query used by the spawner.

package game

// Grid is the fixed-size coordinate space of the arena.
//
// When Wrap is enabled the grid is toroidal: exiting one edge re-enters
// from the opposite edge. When disabled, any coordinate outside
// [0,Width)x[0,Height) is fatally out of bounds for the unit holding it.
//
// Grid is pure data with query methods only; occupancy is always supplied
// by the caller.
type Grid struct {
	Width    int32
	Height   int32
	CellSize float64
	Wrap     bool

	// World-space origin of cell (0,0), derived once so ToWorld stays a
	// plain affine transform. The grid is centered on its anchor.
	originX float64
	originY float64
}

// NewGrid builds a grid with a precomputed centered origin.
func NewGrid(width, height int32, cellSize float64, wrap bool) *Grid {
	g := &Grid{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		Wrap:     wrap,
	}
	g.originX = -float64(width) * cellSize / 2
	g.originY = -float64(height) * cellSize / 2
	return g
}

// ToWorld converts a cell to the world-space position of its center.
func (g *Grid) ToWorld(p Point) (x, y float64) {
	x = g.originX + (float64(p.X)+0.5)*g.CellSize
	y = g.originY + (float64(p.Y)+0.5)*g.CellSize
	return x, y
}

// IsInside reports whether p is within bounds. Only meaningful when Wrap
// is disabled; a wrapped grid has no outside.
func (g *Grid) IsInside(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// WrapPoint reduces each axis modulo its extent using a non-negative
// modulo, so negative coordinates wrap to the high end. Idempotent.
func (g *Grid) WrapPoint(p Point) Point {
	return Point{
		X: mod(p.X, g.Width),
		Y: mod(p.Y, g.Height),
	}
}

// Normalize applies wrap when the grid is toroidal and leaves the raw
// coordinate for boundary testing otherwise.
func (g *Grid) Normalize(p Point) Point {
	if g.Wrap {
		return g.WrapPoint(p)
	}
	return p
}

// FreeCells returns every cell not present in occupied, in row-major
// order (deterministic for a seeded rng to index into). Returns an empty
// slice when the grid is saturated.
func (g *Grid) FreeCells(occupied map[Point]bool) []Point {
	free := make([]Point, 0, int(g.Width*g.Height)-len(occupied))
	for y := int32(0); y < g.Height; y++ {
		for x := int32(0); x < g.Width; x++ {
			p := Point{X: x, Y: y}
			if !occupied[p] {
				free = append(free, p)
			}
		}
	}
	return free
}

// mod is the non-negative modulo: mod(-1, n) == n-1, not -1.
func mod(a, n int32) int32 {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
