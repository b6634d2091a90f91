package biome

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/terragen/internal/terrain/tiles"
)

var ErrInvalidFeature = errors.New("invalid feature config")

// Gate bounds a value. A nil bound is open.
type Gate struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// AtLeast returns a gate open above lo.
func AtLeast(lo float64) Gate { return Gate{Min: &lo} }

// AtMost returns a gate open below hi.
func AtMost(hi float64) Gate { return Gate{Max: &hi} }

// Between returns a closed gate.
func Between(lo, hi float64) Gate { return Gate{Min: &lo, Max: &hi} }

// Allows reports whether v passes both bounds.
func (g Gate) Allows(v float32) bool {
	if g.Min != nil && float64(v) < *g.Min {
		return false
	}
	if g.Max != nil && float64(v) > *g.Max {
		return false
	}
	return true
}

// FeatureConfig describes one kind of scattered feature.
type FeatureConfig struct {
	Name string `yaml:"name" json:"name"`

	// Layer is the density layer the local-maximum test runs on.
	Layer    string `yaml:"layer" json:"layer"`
	MaxCount int    `yaml:"max_count" json:"max_count"`

	// A vertex must beat its neighbours within Radius, less Tolerance. At
	// or above DenseThreshold the radius drops to 0.
	Radius         int     `yaml:"radius" json:"radius"`
	DenseThreshold float64 `yaml:"dense_threshold" json:"dense_threshold"`
	Tolerance      float64 `yaml:"tolerance" json:"tolerance"`

	Height   Gate `yaml:"height" json:"height"`
	Heat     Gate `yaml:"heat" json:"heat"`
	Moisture Gate `yaml:"moisture" json:"moisture"`
	Density  Gate `yaml:"density" json:"density"`

	Prefabs          int     `yaml:"prefabs" json:"prefabs"`
	ValidatorRetries int     `yaml:"validator_retries" json:"validator_retries"`
	JitterRadius     float64 `yaml:"jitter_radius" json:"jitter_radius"`
	Seed             int64   `yaml:"seed" json:"seed"`
}

// Validate reports every invalid field.
func (f FeatureConfig) Validate() error {
	var err error
	if f.Name == "" {
		err = multierr.Append(err, fmt.Errorf("%w: empty name", ErrInvalidFeature))
	}
	if _, e := tiles.ParseLayer(f.Layer); e != nil {
		err = multierr.Append(err, fmt.Errorf("%w: %s: %v", ErrInvalidFeature, f.Name, e))
	}
	if f.MaxCount < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s: max_count %d", ErrInvalidFeature, f.Name, f.MaxCount))
	}
	if f.Radius < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s: radius %d", ErrInvalidFeature, f.Name, f.Radius))
	}
	if f.Prefabs < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: %s: prefabs %d", ErrInvalidFeature, f.Name, f.Prefabs))
	}
	if f.ValidatorRetries < 0 || f.JitterRadius < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s: negative retry settings", ErrInvalidFeature, f.Name))
	}
	return err
}

// DefaultFeatures returns trees on moisture and free units on unit density.
func DefaultFeatures() []FeatureConfig {
	return []FeatureConfig{
		{
			Name:             "tree",
			Layer:            tiles.Moisture.String(),
			MaxCount:         400,
			Radius:           2,
			DenseThreshold:   0.8,
			Tolerance:        0.05,
			Height:           AtLeast(2),
			Heat:             AtMost(0.6),
			Prefabs:          4,
			ValidatorRetries: 3,
			JitterRadius:     0.5,
			Seed:             11,
		},
		{
			Name:             "unit",
			Layer:            tiles.UnitDensity.String(),
			MaxCount:         40,
			Radius:           4,
			DenseThreshold:   1.1,
			Tolerance:        0.05,
			Height:           AtLeast(2),
			Density:          AtLeast(0.75),
			Prefabs:          2,
			ValidatorRetries: 5,
			JitterRadius:     1,
			Seed:             12,
		},
	}
}
