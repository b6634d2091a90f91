package noise

import (
	"fmt"
	"math"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Source evaluates single-octave coherent noise, roughly in [-1, 1].
type Source interface {
	Noise2D(x, z float64) float64
}

// NewSource builds the source for a basis.
func NewSource(basis Basis, seed int64) (Source, error) {
	switch basis {
	case BasisPerlin, "":
		return newGradientNoise(seed), nil
	case BasisClassic:
		// One octave per call; octaves are layered by GenerateField.
		return classicSource{p: perlin.NewPerlin(2, 2, 1, seed)}, nil
	case BasisSimplex:
		return simplexSource{n: opensimplex.New(seed)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasis, basis)
	}
}

type classicSource struct {
	p *perlin.Perlin
}

func (s classicSource) Noise2D(x, z float64) float64 {
	return s.p.Noise2D(x, z)
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) Noise2D(x, z float64) float64 {
	return s.n.Eval2(x, z)
}

// gradientNoise is 2D Perlin noise over a seeded permutation table. Its
// arithmetic is fully defined here, so fields can be pinned by fixtures.
type gradientNoise struct {
	perm [512]int
}

func newGradientNoise(seed int64) *gradientNoise {
	var base [256]int
	for i := range base {
		base[i] = i
	}

	// Fisher-Yates shuffle driven by a 64-bit LCG.
	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int(uint64(s>>16) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}

	g := &gradientNoise{}
	for i := 0; i < 256; i++ {
		g.perm[i] = base[i]
		g.perm[i+256] = base[i]
	}
	return g
}

func (g *gradientNoise) Noise2D(x, z float64) float64 {
	fx := math.Floor(x)
	fz := math.Floor(z)
	xi := int(fx) & 255
	zi := int(fz) & 255
	xf := x - fx
	zf := z - fz

	u := fade(xf)
	v := fade(zf)

	aa := g.perm[g.perm[xi]+zi]
	ab := g.perm[g.perm[xi]+zi+1]
	ba := g.perm[g.perm[xi+1]+zi]
	bb := g.perm[g.perm[xi+1]+zi+1]

	x1 := lerp(u, grad(aa, xf, zf), grad(ba, xf-1, zf))
	x2 := lerp(u, grad(ab, xf, zf-1), grad(bb, xf-1, zf-1))
	return lerp(v, x1, x2)
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, z float64) float64 {
	switch hash & 3 {
	case 0:
		return x + z
	case 1:
		return -x + z
	case 2:
		return x - z
	default:
		return -x - z
	}
}
