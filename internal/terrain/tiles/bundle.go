// Package tiles maps global vertex indices onto the tile partition of a
// level and owns every generated layer grid.
package tiles

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terragen/pkg/grid"
)

var (
	ErrTileOutOfRange = errors.New("tile key outside level bounds")
	ErrBundleSize     = errors.New("bundle grid size does not match level")
	ErrBundleMissing  = errors.New("bundle layer missing")
	ErrInvalidLevel   = errors.New("invalid level dimensions")
)

// Key identifies one tile in the level grid.
type Key struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func (k Key) String() string {
	return fmt.Sprintf("(%d,%d)", k.X, k.Z)
}

// Layer names one of the four per-tile grids.
type Layer int

const (
	Height Layer = iota
	Heat
	Moisture
	UnitDensity
)

// Layers lists every layer in storage order.
var Layers = []Layer{Height, Heat, Moisture, UnitDensity}

func (l Layer) String() string {
	switch l {
	case Height:
		return "height"
	case Heat:
		return "heat"
	case Moisture:
		return "moisture"
	case UnitDensity:
		return "unit_density"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// ParseLayer resolves a layer name as printed by Layer.String.
func ParseLayer(name string) (Layer, error) {
	for _, l := range Layers {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", name)
}

// MeshSettings is the mesh configuration a bundle was generated with.
type MeshSettings struct {
	VerticesPerEdge int     `json:"vertices_per_edge"`
	MeshScale       float64 `json:"mesh_scale"`
}

// Bundle holds every layer of one tile.
type Bundle struct {
	Key         Key
	Height      *grid.ScalarGrid
	Heat        *grid.ScalarGrid
	Moisture    *grid.ScalarGrid
	UnitDensity *grid.ScalarGrid
	ColliderLOD int
	Mesh        MeshSettings
}

// Grid returns the grid for a layer.
func (b *Bundle) Grid(l Layer) *grid.ScalarGrid {
	switch l {
	case Height:
		return b.Height
	case Heat:
		return b.Heat
	case Moisture:
		return b.Moisture
	case UnitDensity:
		return b.UnitDensity
	default:
		return nil
	}
}

// Clone deep-copies the bundle.
func (b *Bundle) Clone() *Bundle {
	c := *b
	c.Height = b.Height.Clone()
	c.Heat = b.Heat.Clone()
	c.Moisture = b.Moisture.Clone()
	c.UnitDensity = b.UnitDensity.Clone()
	return &c
}

// validate checks that every layer is present and width × depth.
func (b *Bundle) validate(width, depth int) error {
	for _, l := range Layers {
		g := b.Grid(l)
		if g == nil {
			return fmt.Errorf("%w: %s", ErrBundleMissing, l)
		}
		if g.Width() != width || g.Height() != depth {
			return fmt.Errorf("%w: %s is %dx%d, want %dx%d",
				ErrBundleSize, l, g.Width(), g.Height(), width, depth)
		}
	}
	return nil
}
