// Package biome classifies vertices into texture blends and scatters
// discrete features by local-maximum suppression over the layer grids.
package biome

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/math"
)

var (
	ErrNoTextures  = errors.New("classifier needs at least one texture layer")
	ErrTileMissing = errors.New("tile has no bundle")
)

// blendEpsilon keeps a zero blend from producing an empty ramp.
const blendEpsilon = 1e-4

// TextureLayer starts to draw where every percentage passes its start value,
// fading in over Blend.
type TextureLayer struct {
	Name          string   `yaml:"name" json:"name"`
	StartHeight   float64  `yaml:"start_height" json:"start_height"`
	StartHeat     float64  `yaml:"start_heat" json:"start_heat"`
	StartMoisture float64  `yaml:"start_moisture" json:"start_moisture"`
	Blend         float64  `yaml:"blend" json:"blend"`
	Color         [3]uint8 `yaml:"color" json:"color"`
}

// Ranges are the level-wide value ranges the percentages are taken over.
type Ranges struct {
	HeightMin, HeightMax     float32
	HeatMin, HeatMax         float32
	MoistureMin, MoistureMax float32
}

// Classification is the blend of one vertex. Weights sum to 1 unless no
// layer draws at all, in which case they are all 0 and Dominant is 0.
type Classification struct {
	Weights  []float32
	Dominant int
}

// Classifier composites texture layers in order, later layers drawing over
// earlier ones.
type Classifier struct {
	layers []TextureLayer
	ranges Ranges
}

// NewClassifier returns a classifier over the given layers.
func NewClassifier(layers []TextureLayer, r Ranges) (*Classifier, error) {
	if len(layers) == 0 {
		return nil, ErrNoTextures
	}
	return &Classifier{layers: layers, ranges: r}, nil
}

// Layers returns the texture layers in draw order.
func (c *Classifier) Layers() []TextureLayer { return c.layers }

func ramp(start, blend float64, pct float32) float32 {
	half := float32(blend / 2)
	return math.InverseLerp(-half-blendEpsilon, half, pct-float32(start))
}

// Strength returns how strongly layer i draws at the given percentages.
func (c *Classifier) Strength(i int, heightPct, heatPct, moisturePct float32) float32 {
	l := c.layers[i]
	return ramp(l.StartHeight, l.Blend, heightPct) *
		ramp(l.StartHeat, l.Blend, heatPct) *
		ramp(l.StartMoisture, l.Blend, moisturePct)
}

// Classify blends the layers for one vertex.
func (c *Classifier) Classify(height, heat, moisture float32) Classification {
	r := c.ranges
	hp := math.InverseLerp(r.HeightMin, r.HeightMax, height)
	tp := math.InverseLerp(r.HeatMin, r.HeatMax, heat)
	mp := math.InverseLerp(r.MoistureMin, r.MoistureMax, moisture)

	weights := make([]float32, len(c.layers))
	for i := range c.layers {
		s := c.Strength(i, hp, tp, mp)
		for j := 0; j < i; j++ {
			weights[j] *= 1 - s
		}
		weights[i] = s
	}

	var sum float32
	dominant := 0
	for i, w := range weights {
		sum += w
		if w > weights[dominant] {
			dominant = i
		}
	}
	if sum > 0 {
		for i := range weights {
			weights[i] /= sum
		}
	}
	return Classification{Weights: weights, Dominant: dominant}
}

// BlendMap holds the classification of every cell of one tile. Weights are
// cell-major: the weights of cell (x, z) start at (z*Width+x)*Layers.
type BlendMap struct {
	Key      tiles.Key
	Width    int
	Depth    int
	Layers   int
	Weights  []float32
	Dominant []uint8
}

// At returns the weights and dominant layer of one cell.
func (b *BlendMap) At(x, z int) ([]float32, int) {
	i := z*b.Width + x
	return b.Weights[i*b.Layers : (i+1)*b.Layers], int(b.Dominant[i])
}

// ClassifyTile classifies every cell of a stored tile.
func (c *Classifier) ClassifyTile(s *tiles.Store, k tiles.Key) (*BlendMap, error) {
	m := s.Mapper()
	if !m.ValidKey(k) {
		return nil, fmt.Errorf("%w: %s", tiles.ErrTileOutOfRange, k)
	}
	if !s.Has(k) {
		return nil, fmt.Errorf("%w: %s", ErrTileMissing, k)
	}
	if len(c.layers) > 256 {
		return nil, fmt.Errorf("%d texture layers, at most 256 fit a blend map", len(c.layers))
	}

	bm := &BlendMap{
		Key:      k,
		Width:    m.VertexWidth,
		Depth:    m.VertexDepth,
		Layers:   len(c.layers),
		Weights:  make([]float32, 0, m.VertexWidth*m.VertexDepth*len(c.layers)),
		Dominant: make([]uint8, 0, m.VertexWidth*m.VertexDepth),
	}
	for z := 0; z < m.VertexDepth; z++ {
		for x := 0; x < m.VertexWidth; x++ {
			lc := tiles.LocalCoordinate{TileX: k.X, TileZ: k.Z, X: x, Z: z}
			h, _ := s.Sample(tiles.Height, lc)
			t, _ := s.Sample(tiles.Heat, lc)
			mo, _ := s.Sample(tiles.Moisture, lc)
			cl := c.Classify(h, t, mo)
			bm.Weights = append(bm.Weights, cl.Weights...)
			bm.Dominant = append(bm.Dominant, uint8(cl.Dominant))
		}
	}
	return bm, nil
}

// DefaultTextures returns a water-to-snow palette keyed on height, with
// heat and moisture splitting the lowlands into sand, grass and forest.
func DefaultTextures() []TextureLayer {
	return []TextureLayer{
		{Name: "water", Blend: 0.02, Color: [3]uint8{40, 90, 170}},
		{Name: "sand", StartHeight: 0.08, Blend: 0.03, Color: [3]uint8{210, 195, 140}},
		{Name: "grass", StartHeight: 0.12, StartMoisture: 0.3, Blend: 0.05, Color: [3]uint8{95, 150, 60}},
		{Name: "forest", StartHeight: 0.15, StartMoisture: 0.55, Blend: 0.05, Color: [3]uint8{40, 100, 45}},
		{Name: "rock", StartHeight: 0.5, Blend: 0.08, Color: [3]uint8{120, 115, 110}},
		{Name: "snow", StartHeight: 0.75, Blend: 0.05, Color: [3]uint8{240, 245, 250}},
	}
}
