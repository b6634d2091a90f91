// Package math provides the small vector and scalar helpers shared by the
// terrain packages.
package math

// Vec2 is a point in noise sample space. It uses float64 so octave offsets
// in the tens of thousands keep their fractional part.
type Vec2 struct {
	X, Z float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Z + other.Z}
}

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Z * s}
}
