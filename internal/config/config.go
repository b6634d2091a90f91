// Package config handles terrain generation configuration loading and
// management.
package config

import (
	"github.com/Faultbox/terragen/internal/terrain/biome"
	"github.com/Faultbox/terragen/internal/terrain/layers"
	"github.com/Faultbox/terragen/internal/terrain/level"
	"github.com/Faultbox/terragen/internal/terrain/river"
	"github.com/Faultbox/terragen/pkg/math"
)

// Config holds all generation settings.
type Config struct {
	Level    LevelConfig           `yaml:"level"`
	Layers   layers.Config         `yaml:"layers"`
	Rivers   river.Config          `yaml:"rivers"`
	Features []biome.FeatureConfig `yaml:"features"`
	Textures []biome.TextureLayer  `yaml:"textures"`
	Output   OutputConfig          `yaml:"output"`
	Logging  LoggingConfig         `yaml:"logging"`
}

// LevelConfig holds the level layout and the master seed.
type LevelConfig struct {
	// Seed is added to every layer, river and feature seed.
	Seed            int64                 `yaml:"seed"`
	TilesWide       int                   `yaml:"tiles_wide"`
	TilesDeep       int                   `yaml:"tiles_deep"`
	VerticesPerEdge int                   `yaml:"vertices_per_edge"`
	MeshScale       float64               `yaml:"mesh_scale"`
	ColliderLOD     int                   `yaml:"collider_lod"`
	Workers         int                   `yaml:"workers"` // 0 = GOMAXPROCS
	PositionOffset  math.Vec2             `yaml:"position_offset"`
	Validator       level.ValidatorConfig `yaml:"validator"`
}

// OutputConfig holds where and what a generate run writes.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Snapshot  bool   `yaml:"snapshot"`   // level.tgz.zst snapshot
	TileFiles bool   `yaml:"tile_files"` // one .tgrd per tile
	Index     string `yaml:"index"`      // SQLite run index, empty disables
	Preview   string `yaml:"preview"`    // "png", "bmp" or empty
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"` // file encoding: console or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	lc := level.DefaultConfig()
	return &Config{
		Level: LevelConfig{
			Seed:            0,
			TilesWide:       lc.TilesWide,
			TilesDeep:       lc.TilesDeep,
			VerticesPerEdge: lc.VerticesPerEdge,
			MeshScale:       lc.MeshScale,
			ColliderLOD:     lc.ColliderLOD,
			Workers:         0,
			Validator:       lc.Validator,
		},
		Layers:   lc.Layers,
		Rivers:   lc.Rivers,
		Features: lc.Features,
		Textures: lc.Textures,
		Output: OutputConfig{
			Dir:       "out",
			Snapshot:  true,
			TileFiles: false,
			Index:     "index.db",
			Preview:   "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}

// Generation returns the level build config with the master seed applied.
func (c *Config) Generation() level.Config {
	seed := c.Level.Seed
	ly := c.Layers
	ly.Height.Noise.Seed += seed
	ly.Heat.Noise.Seed += seed
	ly.Moisture.Seed += seed
	ly.UnitDensity.Seed += seed

	rv := c.Rivers
	rv.Seed += seed

	features := make([]biome.FeatureConfig, len(c.Features))
	for i, f := range c.Features {
		f.Seed += seed
		features[i] = f
	}

	return level.Config{
		TilesWide:       c.Level.TilesWide,
		TilesDeep:       c.Level.TilesDeep,
		VerticesPerEdge: c.Level.VerticesPerEdge,
		MeshScale:       c.Level.MeshScale,
		ColliderLOD:     c.Level.ColliderLOD,
		PositionOffset:  c.Level.PositionOffset,
		Workers:         c.Level.Workers,
		Layers:          ly,
		Rivers:          rv,
		Features:        features,
		Textures:        c.Textures,
		Validator:       c.Level.Validator,
	}
}
