package tiles

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/terragen/pkg/math"
)

func TestHeightAtBilinear(t *testing.T) {
	// One 3x3 tile: world x = lx-1, world z = 1-lz, so a height that is
	// linear in storage coordinates is linear in world space too.
	s := NewStore(testMapper(t, 1, 1, 3))
	if err := s.Set(Key{}, flatBundle(t, 3, func(x, z int) float32 { return float32(x + 10*z) })); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		p    math.Vec2
		want float32
	}{
		{math.Vec2{X: -1, Z: 1}, 0},
		{math.Vec2{X: 1, Z: -1}, 22},
		{math.Vec2{X: 0, Z: 0}, 11},
		{math.Vec2{X: 0.5, Z: 0.25}, 9},
	}
	for _, tt := range tests {
		got, ok := s.HeightAt(tt.p, 1, math.Vec2{})
		if !ok || stdmath.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("HeightAt(%v) = %v,%v, want %v", tt.p, got, ok, tt.want)
		}
	}

	// Scale and offset apply the same way as in WorldPosition.
	got, ok := s.HeightAt(math.Vec2{X: 11, Z: 0.5}, 2, math.Vec2{X: 10})
	if !ok || stdmath.Abs(float64(got-9)) > 1e-5 {
		t.Errorf("scaled HeightAt = %v,%v, want 9", got, ok)
	}

	for _, p := range []math.Vec2{{X: 1.5, Z: 0}, {X: 0, Z: -1.2}} {
		if _, ok := s.HeightAt(p, 1, math.Vec2{}); ok {
			t.Errorf("HeightAt(%v) should be outside the level", p)
		}
	}
	if _, ok := s.HeightAt(math.Vec2{}, 0, math.Vec2{}); ok {
		t.Error("zero scale should fail")
	}
}

func TestHeightAtMatchesVertices(t *testing.T) {
	s := NewStore(testMapper(t, 2, 2, 5))
	for _, k := range s.Mapper().Keys() {
		m := s.Mapper()
		b := flatBundle(t, 5, func(x, z int) float32 {
			gx, gz, _ := m.ToGlobal(LocalCoordinate{TileX: k.X, TileZ: k.Z, X: x, Z: z})
			p, _ := m.WorldPosition(gx, gz, 1, math.Vec2{})
			return float32(p.X*p.X + 3*p.Z)
		})
		if err := s.Set(k, b); err != nil {
			t.Fatal(err)
		}
	}

	m := s.Mapper()
	w, d := m.GlobalSize()
	for gz := 0; gz < d; gz++ {
		for gx := 0; gx < w; gx++ {
			p, _ := m.WorldPosition(gx, gz, 1, math.Vec2{})
			want, _ := s.SampleGlobal(Height, gx, gz)
			got, ok := s.HeightAt(p, 1, math.Vec2{})
			if !ok || stdmath.Abs(float64(got-want)) > 1e-4 {
				t.Fatalf("vertex (%d,%d) at %v: HeightAt = %v,%v, want %v", gx, gz, p, got, ok, want)
			}
		}
	}
}

func TestHeightAtMissingTile(t *testing.T) {
	s := NewStore(testMapper(t, 1, 1, 3))
	if _, ok := s.HeightAt(math.Vec2{}, 1, math.Vec2{}); ok {
		t.Error("HeightAt on an empty store should fail")
	}
}
