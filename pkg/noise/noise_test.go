package noise

import (
	"errors"
	"testing"

	"github.com/Faultbox/terragen/pkg/math"
)

func fixtureConfig() Config {
	return Config{
		Seed:        42,
		Octaves:     1,
		Scale:       1,
		Frequency:   1,
		Lacunarity:  2,
		Persistence: 0.5,
		Basis:       BasisPerlin,
	}
}

// Regression values for seed 42, one octave, scale 1, centered at the origin.
var fixture5x5 = [5][5]float32{
	{-0.06309678, 0.2799979, 0.4827137, -0.4827137, 0.3031521},
	{-0.1633605, -0.1076409, 0.1954264, -0.1332216, 0.4456657},
	{-0.06125685, 0.3208127, -0.007876622, -0.07750206, 0.3120638},
	{-0.4902099, -0.09139573, 0.05616808, 0.5769843, -0.03850747},
	{0.1721095, -0.4739647, 0.1879301, -0.4989589, 0.4280051},
}

func TestGenerateFieldFixture(t *testing.T) {
	g, err := GenerateField(5, 5, fixtureConfig(), math.Vec2{})
	if err != nil {
		t.Fatalf("GenerateField: %v", err)
	}
	for z := 0; z < 5; z++ {
		for x := 0; x < 5; x++ {
			got, _ := g.At(x, z)
			want := fixture5x5[z][x]
			if d := got - want; d > 1e-5 || d < -1e-5 {
				t.Errorf("(%d,%d) = %v, want %v", x, z, got, want)
			}
		}
	}
}

func TestGenerateFieldDeterministic(t *testing.T) {
	for _, basis := range []Basis{BasisPerlin, BasisClassic, BasisSimplex} {
		cfg := DefaultConfig()
		cfg.Seed = 7
		cfg.Basis = basis
		a, err := GenerateField(16, 16, cfg, math.Vec2{X: 15, Z: -15})
		if err != nil {
			t.Fatalf("%s: %v", basis, err)
		}
		b, err := GenerateField(16, 16, cfg, math.Vec2{X: 15, Z: -15})
		if err != nil {
			t.Fatalf("%s: %v", basis, err)
		}
		av, bv := a.Values(), b.Values()
		for i := range av {
			if av[i] != bv[i] {
				t.Fatalf("%s: index %d differs: %v != %v", basis, i, av[i], bv[i])
			}
		}
	}
}

func TestGenerateFieldSeedChangesOutput(t *testing.T) {
	cfg := DefaultConfig()
	a, _ := GenerateField(8, 8, cfg, math.Vec2{})
	cfg.Seed = 1
	b, _ := GenerateField(8, 8, cfg, math.Vec2{})
	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] != bv[i] {
			return
		}
	}
	t.Error("different seeds produced identical fields")
}

func TestGenerateFieldSeamContinuity(t *testing.T) {
	const n = 9
	span := float64(n - 1)
	cfg := DefaultConfig()
	cfg.Seed = 3
	cfg.Scale = 7.3
	cfg.Offset = Offset{X: 12.5, Z: -3}

	left, _ := GenerateField(n, n, cfg, math.Vec2{X: 0, Z: 0})
	right, _ := GenerateField(n, n, cfg, math.Vec2{X: span, Z: 0})
	below, _ := GenerateField(n, n, cfg, math.Vec2{X: 0, Z: -span})

	for i := 0; i < n; i++ {
		l, _ := left.At(n-1, i)
		r, _ := right.At(0, i)
		if l != r {
			t.Errorf("x seam row %d: %v != %v", i, l, r)
		}
		top, _ := left.At(i, n-1)
		bot, _ := below.At(i, 0)
		if top != bot {
			t.Errorf("z seam column %d: %v != %v", i, top, bot)
		}
	}
}

func TestGenerateFieldRange(t *testing.T) {
	for _, basis := range []Basis{BasisPerlin, BasisClassic, BasisSimplex} {
		cfg := DefaultConfig()
		cfg.Basis = basis
		cfg.Octaves = 6
		g, err := GenerateField(32, 32, cfg, math.Vec2{})
		if err != nil {
			t.Fatalf("%s: %v", basis, err)
		}
		if g.Min() < -1.0001 || g.Max() > 1.0001 {
			t.Errorf("%s: range [%v, %v] outside [-1, 1]", basis, g.Min(), g.Max())
		}
		if g.Min() == g.Max() {
			t.Errorf("%s: constant field", basis)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero scale", func(c *Config) { c.Scale = 0 }, ErrInvalidScale},
		{"negative frequency", func(c *Config) { c.Frequency = -1 }, ErrInvalidFrequency},
		{"no octaves", func(c *Config) { c.Octaves = 0 }, ErrInvalidOctaves},
		{"low lacunarity", func(c *Config) { c.Lacunarity = 0.5 }, ErrInvalidLacunarity},
		{"zero persistence", func(c *Config) { c.Persistence = 0 }, ErrInvalidPersistence},
		{"unknown basis", func(c *Config) { c.Basis = "worley" }, ErrUnknownBasis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := GenerateField(4, 4, cfg, math.Vec2{}); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOctaveOffsetsIncludeConfiguredOffset(t *testing.T) {
	cfg := DefaultConfig()
	base := OctaveOffsets(cfg)
	cfg.Offset = Offset{X: 100, Z: -50}
	shifted := OctaveOffsets(cfg)
	for i := range base {
		dx := shifted[i].X - base[i].X - 100
		dz := shifted[i].Z - base[i].Z + 50
		if dx > 1e-9 || dx < -1e-9 || dz > 1e-9 || dz < -1e-9 {
			t.Errorf("octave %d: %v vs %v", i, shifted[i], base[i])
		}
	}
}

func TestGenerateLatitudeField(t *testing.T) {
	cfg := LatitudeConfig{CenterZ: 0, MaxDistance: 4}
	g, err := GenerateLatitudeField(3, 9, cfg, math.Vec2{})
	if err != nil {
		t.Fatalf("GenerateLatitudeField: %v", err)
	}
	// Row 4 sits on the equator, rows 0 and 8 at the poles.
	if v, _ := g.At(1, 4); v != 0 {
		t.Errorf("equator = %v, want 0", v)
	}
	if v, _ := g.At(0, 0); v != 1 {
		t.Errorf("top = %v, want 1", v)
	}
	if v, _ := g.At(2, 8); v != 1 {
		t.Errorf("bottom = %v, want 1", v)
	}
	if v, _ := g.At(0, 2); v != 0.5 {
		t.Errorf("row 2 = %v, want 0.5", v)
	}

	flat, _ := GenerateLatitudeField(2, 2, LatitudeConfig{}, math.Vec2{})
	if flat.Min() != 1 || flat.Max() != 1 {
		t.Errorf("disabled banding: [%v, %v], want ones", flat.Min(), flat.Max())
	}

	if _, err := GenerateLatitudeField(2, 2, LatitudeConfig{MaxDistance: -1}, math.Vec2{}); !errors.Is(err, ErrInvalidLatitude) {
		t.Errorf("negative distance: got %v", err)
	}
}
