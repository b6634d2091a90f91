// Package layers builds the per-tile height, heat, moisture and unit
// density grids from layered noise.
package layers

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/terragen/pkg/curve"
	"github.com/Faultbox/terragen/pkg/noise"
)

var ErrInvalidMultiplier = errors.New("height multiplier must be positive")

// HeightConfig shapes raw noise into terrain height.
type HeightConfig struct {
	Noise      noise.Config `yaml:"noise" json:"noise"`
	Curve      curve.Curve  `yaml:"curve" json:"curve"`
	Multiplier float64      `yaml:"multiplier" json:"multiplier"`
}

// HeatConfig combines a latitude band with a noise field and cools high
// ground.
type HeatConfig struct {
	Noise    noise.Config         `yaml:"noise" json:"noise"`
	Latitude noise.LatitudeConfig `yaml:"latitude" json:"latitude"`

	// Heights above HighElevationThreshold add MountainBias*height, all
	// others HighlandBias*height.
	HighElevationThreshold float64 `yaml:"high_elevation_threshold" json:"high_elevation_threshold"`
	MountainBias           float64 `yaml:"mountain_bias" json:"mountain_bias"`
	HighlandBias           float64 `yaml:"highland_bias" json:"highland_bias"`
}

// Config holds the generation parameters of all four layers.
type Config struct {
	Height      HeightConfig `yaml:"height" json:"height"`
	Heat        HeatConfig   `yaml:"heat" json:"heat"`
	Moisture    noise.Config `yaml:"moisture" json:"moisture"`
	UnitDensity noise.Config `yaml:"unit_density" json:"unit_density"`
}

// DefaultConfig returns layer parameters that produce rolling hills with
// distinct seeds per layer.
func DefaultConfig() Config {
	height := noise.DefaultConfig()
	height.Scale = 120
	height.Octaves = 5

	heat := noise.DefaultConfig()
	heat.Seed = 1
	heat.Scale = 200

	moisture := noise.DefaultConfig()
	moisture.Seed = 2
	moisture.Scale = 90

	density := noise.DefaultConfig()
	density.Seed = 3
	density.Scale = 20
	density.Octaves = 2

	return Config{
		Height: HeightConfig{
			Noise: height,
			Curve: curve.Curve{Keys: []curve.Key{
				{Time: 0, Value: 0},
				{Time: 0.4, Value: 0.1},
				{Time: 0.7, Value: 0.45},
				{Time: 1, Value: 1},
			}},
			Multiplier: 30,
		},
		Heat: HeatConfig{
			Noise:                  heat,
			Latitude:               noise.LatitudeConfig{CenterZ: 0, MaxDistance: 256},
			HighElevationThreshold: 0.8,
			MountainBias:           0.01,
			HighlandBias:           0.0025,
		},
		Moisture:    moisture,
		UnitDensity: density,
	}
}

// Validate reports every invalid layer parameter.
func (c Config) Validate() error {
	var err error
	if e := c.Height.Noise.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("height: %w", e))
	}
	if e := c.Height.Curve.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("height curve: %w", e))
	}
	if c.Height.Multiplier <= 0 {
		err = multierr.Append(err, fmt.Errorf("height: %w: %v", ErrInvalidMultiplier, c.Height.Multiplier))
	}
	if e := c.Heat.Noise.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("heat: %w", e))
	}
	if e := c.Heat.Latitude.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("heat: %w", e))
	}
	if e := c.Moisture.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("moisture: %w", e))
	}
	if e := c.UnitDensity.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("unit density: %w", e))
	}
	return err
}

// HeightRange returns the lowest and highest height the curve and
// multiplier can produce.
func (c HeightConfig) HeightRange() (lo, hi float64) {
	lo = c.Curve.Evaluate(0) * c.Multiplier
	hi = c.Curve.Evaluate(1) * c.Multiplier
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}
