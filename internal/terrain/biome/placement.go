package biome

import (
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/math"
)

// Placement is one feature instance for the host to spawn.
type Placement struct {
	Feature  string       `json:"feature"`
	Prefab   int          `json:"prefab"`
	Position math.Vec3    `json:"position"`
	Vertex   tiles.Vertex `json:"vertex"`
	Density  float32      `json:"density"`
}

// Placer scans a populated store for feature sites.
type Placer struct {
	store          *tiles.Store
	mapper         tiles.Mapper
	validator      PlacementValidator
	meshScale      float64
	positionOffset math.Vec2
	log            *zap.Logger
}

// NewPlacer returns a placer. A nil validator accepts everything.
func NewPlacer(s *tiles.Store, v PlacementValidator, meshScale float64, positionOffset math.Vec2) *Placer {
	if v == nil {
		v = AlwaysValid{}
	}
	return &Placer{
		store:          s,
		mapper:         s.Mapper(),
		validator:      v,
		meshScale:      meshScale,
		positionOffset: positionOffset,
		log:            logger.Named("placement"),
	}
}

// Place scans every physical vertex once, in global row order, and places a
// feature where the gates pass and the density is a local maximum. The scan
// stops at MaxCount.
func (p *Placer) Place(cfg FeatureConfig) ([]Placement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layer, _ := tiles.ParseLayer(cfg.Layer)

	var (
		out      []Placement
		rejected int
	)
	w, d := p.mapper.GlobalSize()
scan:
	for gz := 0; gz < d; gz++ {
		for gx := 0; gx < w; gx++ {
			if len(out) >= cfg.MaxCount {
				p.log.Info("feature scan stopped at max count",
					zap.String("feature", cfg.Name), zap.Int("max_count", cfg.MaxCount))
				break scan
			}
			lc, _ := p.mapper.ToLocal(gx, gz)
			if !p.mapper.IsPrimary(lc) {
				continue
			}
			value, ok := p.store.Sample(layer, lc)
			if !ok || !p.gatesPass(cfg, lc, value) {
				continue
			}
			if !p.localMaximum(cfg, layer, gx, gz, value) {
				continue
			}
			pos, ok := p.position(cfg, gx, gz, lc)
			if !ok {
				rejected++
				continue
			}
			out = append(out, Placement{
				Feature:  cfg.Name,
				Prefab:   int(hash(cfg.Seed, gx, gz, -1) % uint64(cfg.Prefabs)),
				Position: pos,
				Vertex:   tiles.Vertex{X: gx, Z: gz},
				Density:  value,
			})
		}
	}

	p.log.Debug("features placed",
		zap.String("feature", cfg.Name),
		zap.Int("placed", len(out)),
		zap.Int("rejected", rejected),
	)
	return out, nil
}

func (p *Placer) gatesPass(cfg FeatureConfig, lc tiles.LocalCoordinate, density float32) bool {
	if !cfg.Density.Allows(density) {
		return false
	}
	checks := []struct {
		layer tiles.Layer
		gate  Gate
	}{
		{tiles.Height, cfg.Height},
		{tiles.Heat, cfg.Heat},
		{tiles.Moisture, cfg.Moisture},
	}
	for _, c := range checks {
		v, ok := p.store.Sample(c.layer, lc)
		if !ok || !c.gate.Allows(v) {
			return false
		}
	}
	return true
}

// localMaximum keeps a running maximum over the neighbourhood that only
// moves when a neighbour is at least Tolerance above it, then requires
// value to reach it.
func (p *Placer) localMaximum(cfg FeatureConfig, layer tiles.Layer, gx, gz int, value float32) bool {
	radius := cfg.Radius
	if float64(value) >= cfg.DenseThreshold {
		radius = 0
	}
	tol := float32(cfg.Tolerance)
	var maxValue float32
	for nz := gz - radius; nz <= gz+radius; nz++ {
		for nx := gx - radius; nx <= gx+radius; nx++ {
			n, ok := p.store.SampleGlobal(layer, nx, nz)
			if !ok {
				continue
			}
			if n-tol >= maxValue {
				maxValue = n
			}
		}
	}
	return value >= maxValue
}

// position asks the validator about the vertex, then about jittered
// positions around it.
func (p *Placer) position(cfg FeatureConfig, gx, gz int, lc tiles.LocalCoordinate) (math.Vec3, bool) {
	xz, _ := p.mapper.WorldPosition(gx, gz, p.meshScale, p.positionOffset)
	h, _ := p.store.Sample(tiles.Height, lc)
	base := math.Vec3{X: float32(xz.X), Y: h, Z: float32(xz.Z)}
	if p.validator.Valid(base) {
		return base, true
	}
	for attempt := 0; attempt < cfg.ValidatorRetries; attempt++ {
		r := hash(cfg.Seed, gx, gz, attempt)
		angle := unit(r) * 2 * stdmath.Pi
		dist := unit(r>>1^r<<7) * cfg.JitterRadius
		cand := base.Add(math.Vec3{
			X: float32(stdmath.Cos(angle) * dist),
			Z: float32(stdmath.Sin(angle) * dist),
		})
		if y, ok := p.store.HeightAt(math.Vec2{X: float64(cand.X), Z: float64(cand.Z)}, p.meshScale, p.positionOffset); ok {
			cand.Y = y
		}
		if p.validator.Valid(cand) {
			return cand, true
		}
	}
	return math.Vec3{}, false
}

// hash mixes a seed and a vertex into a well-spread value.
func hash(seed int64, gx, gz, salt int) uint64 {
	z := uint64(seed) ^ uint64(gx)*0x9e3779b97f4a7c15 ^ uint64(gz)*0xc2b2ae3d27d4eb4f ^ uint64(salt)*0x165667b19e3779f9
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func unit(v uint64) float64 {
	return float64(v>>11) / (1 << 53)
}
