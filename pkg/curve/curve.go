// Package curve provides the piecewise-linear remapping curve used to shape
// normalised noise into terrain heights.
package curve

import (
	"errors"
	"fmt"
)

// Curve errors.
var (
	ErrEmptyCurve     = errors.New("curve has no keys")
	ErrUnorderedCurve = errors.New("curve key times must be strictly increasing")
)

// Key is one control point of a curve.
type Key struct {
	Time  float64 `yaml:"time" json:"time"`
	Value float64 `yaml:"value" json:"value"`
}

// Curve maps time in [0, 1] to a value by linear interpolation between keys.
// Times outside the key range clamp to the first or last value.
type Curve struct {
	Keys []Key `yaml:"keys" json:"keys"`
}

// Linear returns the identity curve on [0, 1].
func Linear() Curve {
	return Curve{Keys: []Key{{Time: 0, Value: 0}, {Time: 1, Value: 1}}}
}

// Validate checks that the curve has keys in strictly increasing time order.
func (c Curve) Validate() error {
	if len(c.Keys) == 0 {
		return ErrEmptyCurve
	}
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].Time <= c.Keys[i-1].Time {
			return fmt.Errorf("%w: key %d time %v after %v", ErrUnorderedCurve, i, c.Keys[i].Time, c.Keys[i-1].Time)
		}
	}
	return nil
}

// Monotonic reports whether key values never decrease.
func (c Curve) Monotonic() bool {
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].Value < c.Keys[i-1].Value {
			return false
		}
	}
	return true
}

// Evaluate returns the curve value at t. An empty curve evaluates to 0.
func (c Curve) Evaluate(t float64) float64 {
	n := len(c.Keys)
	if n == 0 {
		return 0
	}
	if t <= c.Keys[0].Time {
		return c.Keys[0].Value
	}
	if t >= c.Keys[n-1].Time {
		return c.Keys[n-1].Value
	}
	// Keys are few; a linear scan beats a binary search here.
	for i := 1; i < n; i++ {
		k1 := c.Keys[i]
		if t > k1.Time {
			continue
		}
		k0 := c.Keys[i-1]
		f := (t - k0.Time) / (k1.Time - k0.Time)
		return k0.Value + (k1.Value-k0.Value)*f
	}
	return c.Keys[n-1].Value
}
