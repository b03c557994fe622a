// Package garden models a square-foot garden as a grid of one-foot cells.
package garden

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions is returned when a garden is created with a
// non-positive width or height.
var ErrInvalidDimensions = errors.New("garden dimensions must be positive")

// Cell is a single square foot of the garden. PlantID is empty while the
// cell is unplanted.
type Cell struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	PlantID string `json:"plant_id,omitempty"`
}

// Garden is a rectangular grid of cells. Dimensions are in feet.
type Garden struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Grid   []Cell `json:"grid"`
}

// New creates a garden with an initialized empty grid.
func New(width, height int) (*Garden, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	g := &Garden{Width: width, Height: height}
	g.InitGrid()
	return g, nil
}

// InitGrid (re)creates the empty grid. Cell order is column-major: x varies
// in the outer loop. Placement tie-breaking depends on this order, so it must
// stay stable.
func (g *Garden) InitGrid() {
	g.Grid = make([]Cell, 0, g.Width*g.Height)
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			g.Grid = append(g.Grid, Cell{X: x, Y: y})
		}
	}
}

// Validate checks that a garden received over the wire is internally
// consistent: positive dimensions, and every cell within bounds.
func (g *Garden) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, g.Width, g.Height)
	}
	if len(g.Grid) > g.Width*g.Height {
		return fmt.Errorf("grid has %d cells for a %dx%d garden", len(g.Grid), g.Width, g.Height)
	}
	for _, c := range g.Grid {
		if c.X < 0 || c.X >= g.Width || c.Y < 0 || c.Y >= g.Height {
			return fmt.Errorf("cell (%d,%d) outside %dx%d garden", c.X, c.Y, g.Width, g.Height)
		}
	}
	return nil
}

// Adjacent returns pointers to all cells adjacent to (x, y), including
// diagonals, clipped to the garden bounds.
func (g *Garden) Adjacent(x, y int) []*Cell {
	adjacent := make([]*Cell, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= g.Width || ny < 0 || ny >= g.Height {
				continue
			}
			if c := g.CellAt(nx, ny); c != nil {
				adjacent = append(adjacent, c)
			}
		}
	}
	return adjacent
}

// CellAt returns a pointer to the cell at (x, y), or nil when the grid does
// not contain it. Gardens over the wire may carry sparse grids, so this
// scans rather than indexing by position.
func (g *Garden) CellAt(x, y int) *Cell {
	for i := range g.Grid {
		if g.Grid[i].X == x && g.Grid[i].Y == y {
			return &g.Grid[i]
		}
	}
	return nil
}

// Occupied returns the number of planted cells.
func (g *Garden) Occupied() int {
	n := 0
	for _, c := range g.Grid {
		if c.PlantID != "" {
			n++
		}
	}
	return n
}
