package tiles

import (
	stdmath "math"

	"github.com/Faultbox/terragen/pkg/math"
)

// HeightAt returns the terrain height at a world XZ position, bilinearly
// interpolated between the four vertices of the cell containing it. ok is
// false outside the level or when the tile is not stored.
func (s *Store) HeightAt(p math.Vec2, scale float64, offset math.Vec2) (float32, bool) {
	m := s.mapper
	if scale <= 0 {
		return 0, false
	}
	local := math.Vec2{X: (p.X - offset.X) / scale, Z: (p.Z - offset.Z) / scale}
	spanW := float64(m.VertexWidth - 1)
	spanD := float64(m.VertexDepth - 1)
	halfW := spanW / 2
	halfD := spanD / 2

	tx := clampInt(int(stdmath.Floor((local.X+halfW)/spanW)), 0, m.TilesWide-1)
	tz := clampInt(int(stdmath.Floor((local.Z+halfD)/spanD)), 0, m.TilesDeep-1)

	// Position within the tile in storage units; fz grows with lz, which
	// runs against world Z.
	fx := local.X + halfW - float64(tx)*spanW
	fz := halfD - (local.Z - float64(tz)*spanD)
	const eps = 1e-9
	if fx < -eps || fx > spanW+eps || fz < -eps || fz > spanD+eps {
		return 0, false
	}

	cellX := clampInt(int(stdmath.Floor(fx)), 0, m.VertexWidth-2)
	cellZ := clampInt(int(stdmath.Floor(fz)), 0, m.VertexDepth-2)
	fracX := float32(clampf(fx-float64(cellX), 0, 1))
	fracZ := float32(clampf(fz-float64(cellZ), 0, 1))

	var h [4]float32
	corners := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, c := range corners {
		v, ok := s.Sample(Height, LocalCoordinate{TileX: tx, TileZ: tz, X: cellX + c[0], Z: cellZ + c[1]})
		if !ok {
			return 0, false
		}
		h[i] = v
	}

	near := math.Lerp(h[0], h[1], fracX)
	far := math.Lerp(h[2], h[3], fracX)
	return math.Lerp(near, far, fracZ), true
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
