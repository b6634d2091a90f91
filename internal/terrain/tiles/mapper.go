package tiles

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/terragen/pkg/math"
)

// Vertex is a global vertex index. Every tile contributes VertexWidth
// columns and VertexDepth rows to the global index space, so a physical
// vertex on a seam has one global index per tile that stores it.
type Vertex struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// LocalCoordinate addresses one cell of one tile's grids.
type LocalCoordinate struct {
	TileX int
	TileZ int
	X     int
	Z     int
}

// Key returns the tile holding the coordinate.
func (c LocalCoordinate) Key() Key {
	return Key{X: c.TileX, Z: c.TileZ}
}

// Mapper converts between global vertex indices and tile-local cells.
//
// X maps straight through. Z is flipped inside each tile: local row 0 is the
// row with the highest global Z, matching the top-to-bottom row order of the
// generated grids.
type Mapper struct {
	TilesWide   int
	TilesDeep   int
	VertexWidth int
	VertexDepth int
}

// NewMapper returns a mapper for a level of square tiles.
func NewMapper(tilesWide, tilesDeep, verticesPerEdge int) (Mapper, error) {
	if tilesWide < 1 || tilesDeep < 1 {
		return Mapper{}, fmt.Errorf("%w: %dx%d tiles", ErrInvalidLevel, tilesWide, tilesDeep)
	}
	if verticesPerEdge < 2 {
		return Mapper{}, fmt.Errorf("%w: %d vertices per edge", ErrInvalidLevel, verticesPerEdge)
	}
	return Mapper{
		TilesWide:   tilesWide,
		TilesDeep:   tilesDeep,
		VertexWidth: verticesPerEdge,
		VertexDepth: verticesPerEdge,
	}, nil
}

// GlobalSize returns the size of the global vertex index space.
func (m Mapper) GlobalSize() (width, depth int) {
	return m.TilesWide * m.VertexWidth, m.TilesDeep * m.VertexDepth
}

// Valid reports whether a global vertex lies inside the level.
func (m Mapper) Valid(gx, gz int) bool {
	w, d := m.GlobalSize()
	return gx >= 0 && gz >= 0 && gx < w && gz < d
}

// ValidKey reports whether a tile key lies inside the level.
func (m Mapper) ValidKey(k Key) bool {
	return k.X >= 0 && k.Z >= 0 && k.X < m.TilesWide && k.Z < m.TilesDeep
}

// ValidLocal reports whether c addresses a cell of a tile in the level.
func (m Mapper) ValidLocal(c LocalCoordinate) bool {
	return m.ValidKey(c.Key()) &&
		c.X >= 0 && c.X < m.VertexWidth &&
		c.Z >= 0 && c.Z < m.VertexDepth
}

// Keys returns every tile key, row by row.
func (m Mapper) Keys() []Key {
	keys := make([]Key, 0, m.TilesWide*m.TilesDeep)
	for z := 0; z < m.TilesDeep; z++ {
		for x := 0; x < m.TilesWide; x++ {
			keys = append(keys, Key{X: x, Z: z})
		}
	}
	return keys
}

// ToLocal maps a global vertex to its tile cell. ok is false outside the
// level.
func (m Mapper) ToLocal(gx, gz int) (LocalCoordinate, bool) {
	if !m.Valid(gx, gz) {
		return LocalCoordinate{}, false
	}
	return LocalCoordinate{
		TileX: gx / m.VertexWidth,
		TileZ: gz / m.VertexDepth,
		X:     gx % m.VertexWidth,
		Z:     m.VertexDepth - (gz % m.VertexDepth) - 1,
	}, true
}

// ToGlobal is the inverse of ToLocal.
func (m Mapper) ToGlobal(c LocalCoordinate) (gx, gz int, ok bool) {
	if !m.ValidLocal(c) {
		return 0, 0, false
	}
	gx = c.TileX*m.VertexWidth + c.X
	gz = c.TileZ*m.VertexDepth + (m.VertexDepth - 1 - c.Z)
	return gx, gz, true
}

// Duplicates returns every cell that stores the same physical vertex as c,
// c first. Interior cells have no duplicates, edge cells one and corner
// cells three.
func (m Mapper) Duplicates(c LocalCoordinate) []LocalCoordinate {
	if !m.ValidLocal(c) {
		return nil
	}
	type axis struct{ tile, local int }

	xs := []axis{{c.TileX, c.X}}
	if c.X == m.VertexWidth-1 && c.TileX+1 < m.TilesWide {
		xs = append(xs, axis{c.TileX + 1, 0})
	}
	if c.X == 0 && c.TileX > 0 {
		xs = append(xs, axis{c.TileX - 1, m.VertexWidth - 1})
	}

	// Local row 0 is a tile's top edge, shared with the bottom row of the
	// tile above it.
	zs := []axis{{c.TileZ, c.Z}}
	if c.Z == 0 && c.TileZ+1 < m.TilesDeep {
		zs = append(zs, axis{c.TileZ + 1, m.VertexDepth - 1})
	}
	if c.Z == m.VertexDepth-1 && c.TileZ > 0 {
		zs = append(zs, axis{c.TileZ - 1, 0})
	}

	out := make([]LocalCoordinate, 0, len(xs)*len(zs))
	for _, z := range zs {
		for _, x := range xs {
			out = append(out, LocalCoordinate{TileX: x.tile, TileZ: z.tile, X: x.local, Z: z.local})
		}
	}
	return out
}

// IsPrimary reports whether c is the canonical copy of its physical vertex:
// the copy in the lowest tile along each axis.
func (m Mapper) IsPrimary(c LocalCoordinate) bool {
	if c.X == 0 && c.TileX > 0 {
		return false
	}
	if c.Z == m.VertexDepth-1 && c.TileZ > 0 {
		return false
	}
	return true
}

// TileCenter returns the sample center of a tile in noise space. Adjacent
// tiles are VertexWidth-1 apart so their edge samples coincide.
func (m Mapper) TileCenter(k Key) math.Vec2 {
	return math.Vec2{
		X: float64(k.X * (m.VertexWidth - 1)),
		Z: float64(k.Z * (m.VertexDepth - 1)),
	}
}

// WorldPosition returns the world XZ position of a global vertex. offset
// shifts the result and is zero unless a consumer needs its own origin.
func (m Mapper) WorldPosition(gx, gz int, scale float64, offset math.Vec2) (math.Vec2, bool) {
	c, ok := m.ToLocal(gx, gz)
	if !ok {
		return math.Vec2{}, false
	}
	center := m.TileCenter(c.Key())
	halfW := float64(m.VertexWidth-1) / 2
	halfD := float64(m.VertexDepth-1) / 2
	p := math.Vec2{
		X: center.X + float64(c.X) - halfW,
		Z: center.Z + halfD - float64(c.Z),
	}
	return p.Scale(scale).Add(offset), true
}

// NearestVertex returns the global vertex closest to a world XZ position,
// inverting WorldPosition. Positions on a seam resolve to the higher tile.
func (m Mapper) NearestVertex(p math.Vec2, scale float64, offset math.Vec2) (Vertex, bool) {
	if scale <= 0 {
		return Vertex{}, false
	}
	local := math.Vec2{X: (p.X - offset.X) / scale, Z: (p.Z - offset.Z) / scale}
	spanW := float64(m.VertexWidth - 1)
	spanD := float64(m.VertexDepth - 1)
	halfW := spanW / 2
	halfD := spanD / 2

	tx := clampInt(int(stdmath.Floor((local.X+halfW)/spanW)), 0, m.TilesWide-1)
	tz := clampInt(int(stdmath.Floor((local.Z+halfD)/spanD)), 0, m.TilesDeep-1)
	lx := int(stdmath.Round(local.X + halfW - float64(tx)*spanW))
	lz := int(stdmath.Round(halfD - (local.Z - float64(tz)*spanD)))

	gx, gz, ok := m.ToGlobal(LocalCoordinate{TileX: tx, TileZ: tz, X: lx, Z: lz})
	if !ok {
		return Vertex{}, false
	}
	return Vertex{X: gx, Z: gz}, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
