// Package noise generates 2D fields of layered coherent noise.
package noise

import (
	"errors"
	"fmt"
)

// Configuration errors. All are contract violations and are reported before
// any field is generated.
var (
	ErrInvalidScale       = errors.New("noise scale must be positive")
	ErrInvalidFrequency   = errors.New("noise frequency must be positive")
	ErrInvalidOctaves     = errors.New("noise octaves must be at least 1")
	ErrInvalidLacunarity  = errors.New("noise lacunarity must be at least 1")
	ErrInvalidPersistence = errors.New("noise persistence must be positive")
	ErrUnknownBasis       = errors.New("unknown noise basis")
	ErrInvalidLatitude    = errors.New("latitude max distance must not be negative")
)

// Basis selects the coherent noise function summed per octave.
type Basis string

// Supported bases.
const (
	BasisPerlin  Basis = "perlin"  // in-repo gradient noise, pinned by regression fixtures
	BasisClassic Basis = "classic" // github.com/aquilax/go-perlin
	BasisSimplex Basis = "simplex" // github.com/ojrac/opensimplex-go
)

// Offset shifts the sampled domain.
type Offset struct {
	X float64 `yaml:"x" json:"x"`
	Z float64 `yaml:"z" json:"z"`
}

// Config describes one layered noise field.
type Config struct {
	Seed        int64   `yaml:"seed" json:"seed"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Scale       float64 `yaml:"scale" json:"scale"`
	Frequency   float64 `yaml:"frequency" json:"frequency"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Offset      Offset  `yaml:"offset" json:"offset"`
	Basis       Basis   `yaml:"basis" json:"basis"`
}

// DefaultConfig returns a four-octave Perlin configuration.
func DefaultConfig() Config {
	return Config{
		Seed:        0,
		Octaves:     4,
		Scale:       50,
		Frequency:   1,
		Lacunarity:  2,
		Persistence: 0.5,
		Basis:       BasisPerlin,
	}
}

// Validate fails fast on parameters that cannot produce a field.
func (c Config) Validate() error {
	if c.Scale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, c.Scale)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, c.Frequency)
	}
	if c.Octaves < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidOctaves, c.Octaves)
	}
	if c.Lacunarity < 1 {
		return fmt.Errorf("%w: %v", ErrInvalidLacunarity, c.Lacunarity)
	}
	if c.Persistence <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPersistence, c.Persistence)
	}
	switch c.basis() {
	case BasisPerlin, BasisClassic, BasisSimplex:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBasis, c.Basis)
	}
	return nil
}

func (c Config) basis() Basis {
	if c.Basis == "" {
		return BasisPerlin
	}
	return c.Basis
}

// LatitudeConfig describes the banded field used for heat: 0 on the line
// Z = CenterZ rising to 1 at MaxDistance away from it. A zero MaxDistance
// disables banding and yields a field of ones.
type LatitudeConfig struct {
	CenterZ     float64 `yaml:"center_z" json:"center_z"`
	MaxDistance float64 `yaml:"max_distance" json:"max_distance"`
}

// Validate checks the latitude parameters.
func (c LatitudeConfig) Validate() error {
	if c.MaxDistance < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, c.MaxDistance)
	}
	return nil
}
