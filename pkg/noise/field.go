package noise

import (
	"github.com/Faultbox/terragen/pkg/grid"
	"github.com/Faultbox/terragen/pkg/math"
)

// octaveOffsetRange bounds the per-octave random domain shift.
const octaveOffsetRange = 10000.0

// GenerateField samples a width × height field of layered noise around
// center. Cell (x, z) of octave i samples
//
//	X: ((x - halfW) + center.X + offset_i.X) / scale * frequency * lacunarity^i
//	Z: ((halfH - z) + center.Z + offset_i.Z) / scale * frequency * lacunarity^i
//
// Rows run top to bottom, so world Z decreases as z grows. Two tiles whose
// centers differ by (width-1) share their boundary samples exactly. Values
// are the amplitude-weighted octave sum divided by the amplitude total,
// roughly in [-1, 1].
func GenerateField(width, height int, cfg Config, center math.Vec2) (*grid.ScalarGrid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := NewSource(cfg.basis(), cfg.Seed)
	if err != nil {
		return nil, err
	}
	offsets := OctaveOffsets(cfg)
	halfW := float64(width-1) / 2
	halfH := float64(height-1) / 2

	return grid.Build(width, height, func(x, z int) float32 {
		amplitude := 1.0
		frequency := cfg.Frequency
		sum := 0.0
		total := 0.0
		for i := 0; i < cfg.Octaves; i++ {
			sx := ((float64(x) - halfW) + center.X + offsets[i].X) / cfg.Scale * frequency
			sz := ((halfH - float64(z)) + center.Z + offsets[i].Z) / cfg.Scale * frequency
			sum += src.Noise2D(sx, sz) * amplitude
			total += amplitude
			amplitude *= cfg.Persistence
			frequency *= cfg.Lacunarity
		}
		return float32(sum / total)
	})
}

// OctaveOffsets returns the domain shift of every octave: a seed-derived
// random offset plus the configured offset.
func OctaveOffsets(cfg Config) []math.Vec2 {
	state := uint64(cfg.Seed)
	offsets := make([]math.Vec2, cfg.Octaves)
	for i := range offsets {
		ox := (unitFloat(splitmix64(&state))*2 - 1) * octaveOffsetRange
		oz := (unitFloat(splitmix64(&state))*2 - 1) * octaveOffsetRange
		offsets[i] = math.Vec2{X: ox + cfg.Offset.X, Z: oz + cfg.Offset.Z}
	}
	return offsets
}

// GenerateLatitudeField samples the banded heat field around center using
// the same row orientation as GenerateField.
func GenerateLatitudeField(width, height int, cfg LatitudeConfig, center math.Vec2) (*grid.ScalarGrid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	halfH := float64(height-1) / 2
	return grid.Build(width, height, func(x, z int) float32 {
		if cfg.MaxDistance == 0 {
			return 1
		}
		worldZ := (halfH - float64(z)) + center.Z
		d := worldZ - cfg.CenterZ
		if d < 0 {
			d = -d
		}
		return float32(math.Clamp(d/cfg.MaxDistance, 0, 1))
	})
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func unitFloat(v uint64) float64 {
	return float64(v>>11) / (1 << 53)
}
