package level

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/terrain/biome"
	"github.com/Faultbox/terragen/internal/terrain/layers"
	"github.com/Faultbox/terragen/internal/terrain/river"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
)

// Level is a finished level. The store holds the carved grids.
type Level struct {
	Config     Config
	Mapper     tiles.Mapper
	Store      *tiles.Store
	Rivers     []*river.Path
	Ribbons    []river.Ribbon
	BlendMaps  []*biome.BlendMap
	Placements []biome.Placement
	Stats      Stats
}

// Stats summarizes a build.
type Stats struct {
	Tiles            int
	RiversCarved     int
	RiversSkipped    int
	RiversDegenerate int
	CellsDepressed   int
	Placements       map[string]int
	GenerateTime     time.Duration
	CarveTime        time.Duration
	ClassifyTime     time.Duration
	PlaceTime        time.Duration
}

// Option adjusts a build.
type Option func(*options)

type options struct {
	validator biome.PlacementValidator
}

// WithValidator injects the host's placement validator, overriding the
// configured one.
func WithValidator(v biome.PlacementValidator) Option {
	return func(o *options) { o.validator = v }
}

// Build validates cfg and runs the whole pipeline. Tiles are generated and
// classified in parallel; rivers are carved one at a time after every tile
// is stored. Cancelling ctx stops tile work between tiles.
func Build(ctx context.Context, cfg Config, opts ...Option) (*Level, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Named("level")
	m, _ := tiles.NewMapper(cfg.TilesWide, cfg.TilesDeep, cfg.VerticesPerEdge)
	store := tiles.NewStore(m)
	lvl := &Level{
		Config: cfg,
		Mapper: m,
		Store:  store,
		Stats:  Stats{Tiles: len(m.Keys()), Placements: make(map[string]int)},
	}

	gen, err := layers.NewGenerator(cfg.Layers, m, cfg.MeshScale, cfg.ColliderLOD)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = runPool(ctx, log, "generation", m.Keys(), cfg.Workers, func(k tiles.Key) error {
		b, err := gen.Generate(k)
		if err != nil {
			return err
		}
		return store.Set(k, b)
	})
	if err != nil {
		return nil, err
	}
	if !store.Ready() {
		return nil, fmt.Errorf("level incomplete after generation")
	}
	lvl.Stats.GenerateTime = time.Since(start)

	start = time.Now()
	carver, err := river.NewCarver(store, cfg.Rivers, cfg.MeshScale)
	if err != nil {
		return nil, err
	}
	paths, rs := carver.CarveAll()
	lvl.Rivers = paths
	for _, p := range paths {
		lvl.Ribbons = append(lvl.Ribbons, river.BuildRibbon(p, cfg.Rivers.Width, cfg.Rivers.WaterOffset))
		lvl.Stats.CellsDepressed += p.Depressed
	}
	lvl.Stats.RiversCarved = rs.Carved
	lvl.Stats.RiversSkipped = rs.Skipped
	lvl.Stats.RiversDegenerate = rs.Degenerate
	lvl.Stats.CarveTime = time.Since(start)

	start = time.Now()
	classifier, err := biome.NewClassifier(cfg.Textures, LevelRanges(store))
	if err != nil {
		return nil, err
	}
	keys := m.Keys()
	lvl.BlendMaps = make([]*biome.BlendMap, len(keys))
	index := make(map[tiles.Key]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	err = runPool(ctx, log, "classification", keys, cfg.Workers, func(k tiles.Key) error {
		bm, err := classifier.ClassifyTile(store, k)
		if err != nil {
			return err
		}
		lvl.BlendMaps[index[k]] = bm
		return nil
	})
	if err != nil {
		return nil, err
	}
	lvl.Stats.ClassifyTime = time.Since(start)

	start = time.Now()
	validator := o.validator
	if validator == nil {
		validator = cfg.validator(store)
	}
	placer := biome.NewPlacer(store, validator, cfg.MeshScale, cfg.PositionOffset)
	for _, f := range cfg.Features {
		ps, err := placer.Place(f)
		if err != nil {
			return nil, err
		}
		lvl.Placements = append(lvl.Placements, ps...)
		lvl.Stats.Placements[f.Name] = len(ps)
	}
	lvl.Stats.PlaceTime = time.Since(start)

	log.Info("level built",
		zap.Int("tiles", lvl.Stats.Tiles),
		zap.Int("rivers", lvl.Stats.RiversCarved),
		zap.Int("rivers_skipped", lvl.Stats.RiversSkipped),
		zap.Int("placements", len(lvl.Placements)),
		zap.Duration("generate", lvl.Stats.GenerateTime),
		zap.Duration("carve", lvl.Stats.CarveTime),
	)
	return lvl, nil
}

func (c Config) validator(s *tiles.Store) biome.PlacementValidator {
	if c.Validator.Kind == ValidatorTerrain {
		return biome.TerrainValidator{
			Store:          s,
			MeshScale:      c.MeshScale,
			PositionOffset: c.PositionOffset,
			WaterHeight:    c.Validator.WaterHeight,
			MaxSlope:       c.Validator.MaxSlope,
		}
	}
	return biome.AlwaysValid{}
}

// LevelRanges returns the level-wide extrema of height, heat and moisture.
func LevelRanges(s *tiles.Store) biome.Ranges {
	var r biome.Ranges
	first := true
	for _, k := range s.Mapper().Keys() {
		hMin, hMax, ok := s.Bounds(k, tiles.Height)
		if !ok {
			continue
		}
		tMin, tMax, _ := s.Bounds(k, tiles.Heat)
		mMin, mMax, _ := s.Bounds(k, tiles.Moisture)
		if first {
			r = biome.Ranges{
				HeightMin: hMin, HeightMax: hMax,
				HeatMin: tMin, HeatMax: tMax,
				MoistureMin: mMin, MoistureMax: mMax,
			}
			first = false
			continue
		}
		r.HeightMin, r.HeightMax = min(r.HeightMin, hMin), max(r.HeightMax, hMax)
		r.HeatMin, r.HeatMax = min(r.HeatMin, tMin), max(r.HeatMax, tMax)
		r.MoistureMin, r.MoistureMax = min(r.MoistureMin, mMin), max(r.MoistureMax, mMax)
	}
	return r
}
