package layers

import (
	"fmt"

	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/grid"
	"github.com/Faultbox/terragen/pkg/math"
	"github.com/Faultbox/terragen/pkg/noise"
)

// Generator builds tile bundles. It holds no per-tile state, so one
// generator may serve many goroutines.
type Generator struct {
	cfg         Config
	mapper      tiles.Mapper
	mesh        tiles.MeshSettings
	colliderLOD int
}

// NewGenerator validates cfg and returns a generator for the mapper's level.
func NewGenerator(cfg Config, m tiles.Mapper, meshScale float64, colliderLOD int) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg:    cfg,
		mapper: m,
		mesh: tiles.MeshSettings{
			VerticesPerEdge: m.VertexWidth,
			MeshScale:       meshScale,
		},
		colliderLOD: colliderLOD,
	}, nil
}

// Generate builds all four layers of one tile around the tile's sample
// center.
func (g *Generator) Generate(k tiles.Key) (*tiles.Bundle, error) {
	if !g.mapper.ValidKey(k) {
		return nil, fmt.Errorf("%w: %s", tiles.ErrTileOutOfRange, k)
	}
	center := g.mapper.TileCenter(k)
	n := g.mapper.VertexWidth

	height, err := g.Height(n, center)
	if err != nil {
		return nil, fmt.Errorf("tile %s height: %w", k, err)
	}
	heat, err := g.Heat(n, center, height)
	if err != nil {
		return nil, fmt.Errorf("tile %s heat: %w", k, err)
	}
	moisture, err := Unit(n, g.cfg.Moisture, center)
	if err != nil {
		return nil, fmt.Errorf("tile %s moisture: %w", k, err)
	}
	density, err := Unit(n, g.cfg.UnitDensity, center)
	if err != nil {
		return nil, fmt.Errorf("tile %s unit density: %w", k, err)
	}

	return &tiles.Bundle{
		Key:         k,
		Height:      height,
		Heat:        heat,
		Moisture:    moisture,
		UnitDensity: density,
		ColliderLOD: g.colliderLOD,
		Mesh:        g.mesh,
	}, nil
}

// Height remaps raw noise through the height curve and multiplier.
func (g *Generator) Height(n int, center math.Vec2) (*grid.ScalarGrid, error) {
	raw, err := noise.GenerateField(n, n, g.cfg.Height.Noise, center)
	if err != nil {
		return nil, err
	}
	c := g.cfg.Height.Curve
	mult := g.cfg.Height.Multiplier
	return grid.Build(n, n, func(x, z int) float32 {
		v, _ := raw.At(x, z)
		return float32(c.Evaluate(unit(v)) * mult)
	})
}

// Heat multiplies the latitude band by unit noise and adds the
// elevation bias read from the finished height grid of the same tile.
func (g *Generator) Heat(n int, center math.Vec2, height *grid.ScalarGrid) (*grid.ScalarGrid, error) {
	hc := g.cfg.Heat
	band, err := noise.GenerateLatitudeField(n, n, hc.Latitude, center)
	if err != nil {
		return nil, err
	}
	raw, err := noise.GenerateField(n, n, hc.Noise, center)
	if err != nil {
		return nil, err
	}
	return grid.Build(n, n, func(x, z int) float32 {
		b, _ := band.At(x, z)
		r, _ := raw.At(x, z)
		h, _ := height.At(x, z)
		v := float64(b) * unit(r)
		if float64(h) > hc.HighElevationThreshold {
			v += hc.MountainBias * float64(h)
		} else {
			v += hc.HighlandBias * float64(h)
		}
		return float32(v)
	})
}

// Unit samples a noise field and maps it onto [0, 1].
func Unit(n int, cfg noise.Config, center math.Vec2) (*grid.ScalarGrid, error) {
	raw, err := noise.GenerateField(n, n, cfg, center)
	if err != nil {
		return nil, err
	}
	return grid.Build(n, n, func(x, z int) float32 {
		v, _ := raw.At(x, z)
		return float32(unit(v))
	})
}

func unit(raw float32) float64 {
	return math.Clamp((float64(raw)+1)/2, 0, 1)
}
