package biome

import (
	stdmath "math"

	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/math"
)

// PlacementValidator decides whether a world position can hold a feature.
// The host application backs it with its navigation queries.
type PlacementValidator interface {
	Valid(pos math.Vec3) bool
}

// AlwaysValid accepts every position.
type AlwaysValid struct{}

func (AlwaysValid) Valid(math.Vec3) bool { return true }

// TerrainValidator accepts positions above water on gentle ground, judged
// from the stored height layer at the nearest vertex.
type TerrainValidator struct {
	Store          *tiles.Store
	MeshScale      float64
	PositionOffset math.Vec2
	WaterHeight    float32
	// MaxSlope is rise over run to the steepest neighbour; 0 disables it.
	MaxSlope float32
}

func (v TerrainValidator) Valid(pos math.Vec3) bool {
	m := v.Store.Mapper()
	vert, ok := m.NearestVertex(math.Vec2{X: float64(pos.X), Z: float64(pos.Z)}, v.MeshScale, v.PositionOffset)
	if !ok {
		return false
	}
	h, ok := v.Store.SampleGlobal(tiles.Height, vert.X, vert.Z)
	if !ok || h <= v.WaterHeight {
		return false
	}
	if v.MaxSlope <= 0 {
		return true
	}
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		n, ok := v.Store.SampleGlobal(tiles.Height, vert.X+d[0], vert.Z+d[1])
		if !ok {
			continue
		}
		if float32(stdmath.Abs(float64(n-h))/v.MeshScale) > v.MaxSlope {
			return false
		}
	}
	return true
}
