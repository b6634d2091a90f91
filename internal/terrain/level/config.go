// Package level assembles a complete tiled level: layer generation on a
// worker pool, river carving, texture classification and feature placement.
package level

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/terragen/internal/terrain/biome"
	"github.com/Faultbox/terragen/internal/terrain/layers"
	"github.com/Faultbox/terragen/internal/terrain/river"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/math"
)

var ErrInvalidConfig = errors.New("invalid level config")

// Validator kinds.
const (
	ValidatorAlways  = "always"
	ValidatorTerrain = "terrain"
)

// ValidatorConfig selects the placement validator used when the caller
// does not inject one.
type ValidatorConfig struct {
	Kind        string  `yaml:"kind" json:"kind"`
	WaterHeight float32 `yaml:"water_height" json:"water_height"`
	MaxSlope    float32 `yaml:"max_slope" json:"max_slope"`
}

// Config is everything needed to build one level.
type Config struct {
	TilesWide       int
	TilesDeep       int
	VerticesPerEdge int
	MeshScale       float64
	ColliderLOD     int
	PositionOffset  math.Vec2
	Workers         int

	Layers    layers.Config
	Rivers    river.Config
	Features  []biome.FeatureConfig
	Textures  []biome.TextureLayer
	Validator ValidatorConfig
}

// DefaultConfig returns a 4×4 level of 65-vertex tiles.
func DefaultConfig() Config {
	return Config{
		TilesWide:       4,
		TilesDeep:       4,
		VerticesPerEdge: 65,
		MeshScale:       1,
		Layers:          layers.DefaultConfig(),
		Rivers:          river.DefaultConfig(),
		Features:        biome.DefaultFeatures(),
		Textures:        biome.DefaultTextures(),
		Validator:       ValidatorConfig{Kind: ValidatorTerrain, WaterHeight: 2, MaxSlope: 2},
	}
}

// Validate reports every problem in the config at once.
func (c Config) Validate() error {
	var err error
	if _, e := tiles.NewMapper(c.TilesWide, c.TilesDeep, c.VerticesPerEdge); e != nil {
		err = multierr.Append(err, e)
	}
	if c.MeshScale <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: mesh_scale %v", ErrInvalidConfig, c.MeshScale))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers))
	}
	err = multierr.Append(err, c.Layers.Validate())
	err = multierr.Append(err, c.Rivers.Validate())
	names := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		err = multierr.Append(err, f.Validate())
		if names[f.Name] {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate feature %q", ErrInvalidConfig, f.Name))
		}
		names[f.Name] = true
	}
	if len(c.Textures) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %v", ErrInvalidConfig, biome.ErrNoTextures))
	}
	for _, t := range c.Textures {
		if t.Blend < 0 {
			err = multierr.Append(err, fmt.Errorf("%w: texture %q blend %v", ErrInvalidConfig, t.Name, t.Blend))
		}
	}
	switch c.Validator.Kind {
	case "", ValidatorAlways, ValidatorTerrain:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: validator kind %q", ErrInvalidConfig, c.Validator.Kind))
	}
	return err
}
