// Package preview renders a level's layers to top-down images for quick
// inspection. One pixel is one global vertex; +Z is up.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/terragen/internal/terrain/biome"
	"github.com/Faultbox/terragen/internal/terrain/river"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/math"
)

var (
	ErrUnknownMode   = errors.New("unknown preview mode")
	ErrUnknownFormat = errors.New("unknown image format")
	ErrNotReady      = errors.New("store is missing tiles")
)

// Mode selects what a preview shows.
type Mode string

const (
	ModeHeight      Mode = "height"
	ModeHeat        Mode = "heat"
	ModeMoisture    Mode = "moisture"
	ModeUnitDensity Mode = "unit_density"
	ModeBiome       Mode = "biome"
)

// Modes lists every mode.
var Modes = []Mode{ModeHeight, ModeHeat, ModeMoisture, ModeUnitDensity, ModeBiome}

// Stop is one colour of a ramp at position At in [0,1].
type Stop struct {
	At    float32
	Color color.RGBA
}

// Ramp maps [0,1] to a colour by linear interpolation between stops, which
// must be in ascending order.
type Ramp []Stop

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}

	HeightRamp   = Ramp{{0, black}, {1, white}}
	HeatRamp     = Ramp{{0, red}, {1, blue}}
	MoistureRamp = Ramp{{0, red}, {1, blue}}
	DensityRamp  = Ramp{{0, white}, {1, black}}

	RiverColor     = color.RGBA{0, 200, 255, 255}
	PlacementColor = color.RGBA{0, 255, 0, 255}
)

// At returns the ramp colour at t, clamped to the end stops.
func (r Ramp) At(t float32) color.RGBA {
	if len(r) == 0 {
		return color.RGBA{A: 255}
	}
	if t <= r[0].At {
		return r[0].Color
	}
	for i := 1; i < len(r); i++ {
		if t <= r[i].At {
			a, b := r[i-1], r[i]
			f := math.InverseLerp(a.At, b.At, t)
			return color.RGBA{
				R: lerp8(a.Color.R, b.Color.R, f),
				G: lerp8(a.Color.G, b.Color.G, f),
				B: lerp8(a.Color.B, b.Color.B, f),
				A: lerp8(a.Color.A, b.Color.A, f),
			}
		}
	}
	return r[len(r)-1].Color
}

func lerp8(a, b uint8, t float32) uint8 {
	return uint8(math.Lerp(float32(a), float32(b), t) + 0.5)
}

// Options are the overlays and inputs a render may use.
type Options struct {
	// BlendMaps and Textures are required for ModeBiome. BlendMaps are in
	// mapper key order.
	BlendMaps []*biome.BlendMap
	Textures  []biome.TextureLayer

	Rivers     []*river.Path
	Placements []biome.Placement
}

func (m Mode) layer() (tiles.Layer, Ramp, bool) {
	switch m {
	case ModeHeight:
		return tiles.Height, HeightRamp, true
	case ModeHeat:
		return tiles.Heat, HeatRamp, true
	case ModeMoisture:
		return tiles.Moisture, MoistureRamp, true
	case ModeUnitDensity:
		return tiles.UnitDensity, DensityRamp, true
	}
	return 0, nil, false
}

// Render draws the whole level in global index space. Layer modes are
// normalised to the level-wide range of that layer.
func Render(s *tiles.Store, mode Mode, opts Options) (*image.RGBA, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	m := s.Mapper()
	w, d := m.GlobalSize()
	img := image.NewRGBA(image.Rect(0, 0, w, d))

	var pixel func(gx, gz int) color.RGBA
	if layer, ramp, ok := mode.layer(); ok {
		lo, hi := levelBounds(s, layer)
		pixel = func(gx, gz int) color.RGBA {
			v, _ := s.SampleGlobal(layer, gx, gz)
			return ramp.At(math.InverseLerp(lo, hi, v))
		}
	} else if mode == ModeBiome {
		if len(opts.BlendMaps) != len(m.Keys()) {
			return nil, fmt.Errorf("biome preview needs %d blend maps, got %d", len(m.Keys()), len(opts.BlendMaps))
		}
		if len(opts.Textures) == 0 {
			return nil, biome.ErrNoTextures
		}
		pixel = func(gx, gz int) color.RGBA {
			lc, _ := m.ToLocal(gx, gz)
			bm := opts.BlendMaps[lc.TileZ*m.TilesWide+lc.TileX]
			_, dom := bm.At(lc.X, lc.Z)
			if dom >= len(opts.Textures) {
				return color.RGBA{A: 255}
			}
			c := opts.Textures[dom].Color
			return color.RGBA{c[0], c[1], c[2], 255}
		}
	} else {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	for gz := 0; gz < d; gz++ {
		for gx := 0; gx < w; gx++ {
			img.SetRGBA(gx, d-1-gz, pixel(gx, gz))
		}
	}

	for _, p := range opts.Rivers {
		for _, c := range p.Clusters {
			for _, v := range c.Vertices() {
				if m.Valid(v.X, v.Z) {
					img.SetRGBA(v.X, d-1-v.Z, RiverColor)
				}
			}
		}
	}
	for _, p := range opts.Placements {
		if m.Valid(p.Vertex.X, p.Vertex.Z) {
			img.SetRGBA(p.Vertex.X, d-1-p.Vertex.Z, PlacementColor)
		}
	}
	return img, nil
}

func levelBounds(s *tiles.Store, l tiles.Layer) (lo, hi float32) {
	first := true
	for _, k := range s.Mapper().Keys() {
		mn, mx, ok := s.Bounds(k, l)
		if !ok {
			continue
		}
		if first {
			lo, hi, first = mn, mx, false
			continue
		}
		lo, hi = min(lo, mn), max(hi, mx)
	}
	return lo, hi
}

// Encode writes img as "png" or "bmp".
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile encodes img in the format named by the file extension.
func WriteFile(path string, img image.Image) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format != "png" && format != "bmp" {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, img, format)
}
