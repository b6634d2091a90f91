// Package grid provides the ScalarGrid, the fixed-size float field that
// backs every terrain layer.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize is returned for grids with a non-positive dimension.
var ErrInvalidSize = errors.New("grid dimensions must be positive")

// ScalarGrid is a width × height field of float32 values with tracked
// extrema. Values are stored row-major: index = z*width + x, where row z=0 is
// the top row of a tile.
type ScalarGrid struct {
	width  int
	height int
	values []float32
	min    float32
	max    float32
}

// Cell addresses one value inside a grid.
type Cell struct {
	X, Z int
}

// Build creates a grid by evaluating fn for every cell, tracking min and max
// during the same pass.
func Build(width, height int, fn func(x, z int) float32) (*ScalarGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	g := &ScalarGrid{
		width:  width,
		height: height,
		values: make([]float32, width*height),
		min:    math.MaxFloat32,
		max:    -math.MaxFloat32,
	}
	for z := 0; z < height; z++ {
		for x := 0; x < width; x++ {
			v := fn(x, z)
			g.values[z*width+x] = v
			if v < g.min {
				g.min = v
			}
			if v > g.max {
				g.max = v
			}
		}
	}
	return g, nil
}

// FromValues wraps a row-major value slice. The slice is copied.
func FromValues(width, height int, values []float32) (*ScalarGrid, error) {
	if len(values) != width*height {
		return nil, fmt.Errorf("grid %dx%d: got %d values", width, height, len(values))
	}
	return Build(width, height, func(x, z int) float32 {
		return values[z*width+x]
	})
}

// Width returns the number of columns.
func (g *ScalarGrid) Width() int { return g.width }

// Height returns the number of rows.
func (g *ScalarGrid) Height() int { return g.height }

// Min returns the smallest value in the grid.
func (g *ScalarGrid) Min() float32 { return g.min }

// Max returns the largest value in the grid.
func (g *ScalarGrid) Max() float32 { return g.max }

// InBounds reports whether (x, z) addresses a cell.
func (g *ScalarGrid) InBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < g.width && z < g.height
}

// At returns the value at (x, z). ok is false outside the grid.
func (g *ScalarGrid) At(x, z int) (v float32, ok bool) {
	if !g.InBounds(x, z) {
		return 0, false
	}
	return g.values[z*g.width+x], true
}

// Values returns a copy of the row-major values.
func (g *ScalarGrid) Values() []float32 {
	out := make([]float32, len(g.values))
	copy(out, g.values)
	return out
}

// Clone returns a deep copy.
func (g *ScalarGrid) Clone() *ScalarGrid {
	c := *g
	c.values = g.Values()
	return &c
}

// Adjust adds delta to each listed cell once per occurrence and
// re-establishes the min/max invariant. Out-of-range cells are ignored and
// not counted. It returns the number of cells changed.
func (g *ScalarGrid) Adjust(cells []Cell, delta float32) int {
	changed := 0
	for _, c := range cells {
		if !g.InBounds(c.X, c.Z) {
			continue
		}
		g.values[c.Z*g.width+c.X] += delta
		changed++
	}
	if changed > 0 {
		g.recomputeBounds()
	}
	return changed
}

func (g *ScalarGrid) recomputeBounds() {
	g.min = math.MaxFloat32
	g.max = -math.MaxFloat32
	for _, v := range g.values {
		if v < g.min {
			g.min = v
		}
		if v > g.max {
			g.max = v
		}
	}
}
