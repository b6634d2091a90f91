package river

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	ErrOriginNotFound = errors.New("no river origin above height threshold")
	ErrInvalidConfig  = errors.New("invalid river config")
)

// Config controls river count, origin search, descent and carving.
type Config struct {
	Count int   `yaml:"count" json:"count"`
	Seed  int64 `yaml:"seed" json:"seed"`

	// An origin vertex must be at least HeightThreshold high.
	HeightThreshold float64 `yaml:"height_threshold" json:"height_threshold"`
	OriginAttempts  int     `yaml:"origin_attempts" json:"origin_attempts"`

	// Descent stops once a cluster averages WaterHeight or lower, or after
	// LoopLimit clusters including the origin.
	WaterHeight float64 `yaml:"water_height" json:"water_height"`
	LoopLimit   int     `yaml:"loop_limit" json:"loop_limit"`

	// AllowUphill lets the walk step to the lowest neighbour even when it is
	// higher than the current cluster.
	AllowUphill bool `yaml:"allow_uphill" json:"allow_uphill"`

	// SkipCoordinates are global indices, on either axis, that no cluster
	// may touch.
	SkipCoordinates []int `yaml:"skip_coordinates" json:"skip_coordinates"`

	DepressAmount float64 `yaml:"depress_amount" json:"depress_amount"`
	Width         float64 `yaml:"width" json:"width"`
	WaterOffset   float64 `yaml:"water_offset" json:"water_offset"`
}

// DefaultConfig returns the carving parameters the level builder uses.
func DefaultConfig() Config {
	return Config{
		Count:           3,
		Seed:            0,
		HeightThreshold: 10,
		OriginAttempts:  1000,
		WaterHeight:     2,
		LoopLimit:       200,
		DepressAmount:   5,
		Width:           2,
		WaterOffset:     0.4,
	}
}

// Validate reports every out-of-range parameter.
func (c Config) Validate() error {
	var err error
	if c.Count < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: count %d", ErrInvalidConfig, c.Count))
	}
	if c.Count > 0 && c.OriginAttempts < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: origin_attempts %d", ErrInvalidConfig, c.OriginAttempts))
	}
	if c.LoopLimit < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: loop_limit %d", ErrInvalidConfig, c.LoopLimit))
	}
	if c.DepressAmount < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: depress_amount %v", ErrInvalidConfig, c.DepressAmount))
	}
	if c.Width < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: width %v", ErrInvalidConfig, c.Width))
	}
	return err
}
