package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g, err := New(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Width)
	assert.Equal(t, 2, g.Height)
	assert.Len(t, g.Grid, 6)

	// Column-major initialization order: x outer, y inner.
	assert.Equal(t, Cell{X: 0, Y: 0}, g.Grid[0])
	assert.Equal(t, Cell{X: 0, Y: 1}, g.Grid[1])
	assert.Equal(t, Cell{X: 1, Y: 0}, g.Grid[2])
}

func TestNew_InvalidDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 3}, {3, 0}, {-1, 3}, {3, -2}} {
		_, err := New(dims[0], dims[1])
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	}
}

func TestAdjacent_Corner(t *testing.T) {
	g, err := New(3, 3)
	require.NoError(t, err)

	adjacent := g.Adjacent(0, 0)
	require.Len(t, adjacent, 3)

	positions := make(map[[2]int]bool)
	for _, c := range adjacent {
		positions[[2]int{c.X, c.Y}] = true
	}
	assert.True(t, positions[[2]int{1, 0}])
	assert.True(t, positions[[2]int{0, 1}])
	assert.True(t, positions[[2]int{1, 1}])
}

func TestAdjacent_Center(t *testing.T) {
	g, err := New(3, 3)
	require.NoError(t, err)
	assert.Len(t, g.Adjacent(1, 1), 8)
}

func TestAdjacent_ReturnsLiveCells(t *testing.T) {
	g, err := New(2, 2)
	require.NoError(t, err)

	// Mutating a returned cell must be visible in the grid.
	g.Adjacent(0, 0)[0].PlantID = "tomato"
	assert.Equal(t, 1, g.Occupied())
}

func TestValidate(t *testing.T) {
	g, err := New(2, 2)
	require.NoError(t, err)
	assert.NoError(t, g.Validate())

	g.Grid[0].X = 5
	assert.Error(t, g.Validate())

	bad := Garden{Width: 0, Height: 2}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidDimensions)
}

func TestCellAt_Missing(t *testing.T) {
	g := Garden{Width: 2, Height: 2, Grid: []Cell{{X: 0, Y: 0}}}
	assert.Nil(t, g.CellAt(1, 1))
	assert.NotNil(t, g.CellAt(0, 0))
}
