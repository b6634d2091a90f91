package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TGRD format errors.
var (
	ErrInvalidTGRDMagic       = errors.New("invalid TGRD magic: expected 'TGRD'")
	ErrUnsupportedTGRDVersion = errors.New("unsupported TGRD version")
	ErrTruncatedTGRDData      = errors.New("truncated TGRD data")
	ErrInvalidTGRD            = errors.New("invalid TGRD data")
)

const (
	tgrdMagic      = "TGRD"
	tgrdHeaderSize = 35
	tgrdMaxEdge    = 8192
	tgrdMaxLayers  = 16
)

// TGRDCurrentVersion is written by Encode.
var TGRDCurrentVersion = TGRDVersion{Major: 1, Minor: 0}

// TGRDVersion represents the TGRD file version.
type TGRDVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v TGRDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// TGRDLayer is one scalar layer of a tile, row-major with index z*Width+x.
type TGRDLayer struct {
	Kind   uint8
	Values []float32
}

// Range returns the minimum and maximum value in the layer.
func (l *TGRDLayer) Range() (min, max float32) {
	if len(l.Values) == 0 {
		return 0, 0
	}
	min, max = l.Values[0], l.Values[0]
	for _, v := range l.Values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// TGRD represents one terrain tile: its key, dimensions, mesh settings and
// per-vertex layers.
//
// Layout (little-endian):
//
//	"TGRD" minor major
//	int32 tileX, int32 tileZ
//	uint32 width, uint32 depth
//	uint32 verticesPerEdge, float32 meshScale, uint32 colliderLOD
//	uint8 layerCount
//	layerCount x { uint8 kind, width*depth x float32 }
type TGRD struct {
	Version         TGRDVersion
	TileX, TileZ    int32
	Width, Depth    uint32
	VerticesPerEdge uint32
	MeshScale       float32
	ColliderLOD     uint32
	Layers          []TGRDLayer
}

// Layer returns the layer with the given kind, or nil.
func (t *TGRD) Layer(kind uint8) *TGRDLayer {
	for i := range t.Layers {
		if t.Layers[i].Kind == kind {
			return &t.Layers[i]
		}
	}
	return nil
}

// At returns a layer value at local (x, z).
func (t *TGRD) At(kind uint8, x, z int) (float32, bool) {
	l := t.Layer(kind)
	if l == nil || x < 0 || z < 0 || x >= int(t.Width) || z >= int(t.Depth) {
		return 0, false
	}
	return l.Values[z*int(t.Width)+x], true
}

// ParseTGRD parses a TGRD tile from raw bytes.
func ParseTGRD(data []byte) (*TGRD, error) {
	if len(data) < tgrdHeaderSize {
		return nil, ErrTruncatedTGRDData
	}

	if string(data[0:4]) != tgrdMagic {
		return nil, ErrInvalidTGRDMagic
	}

	// Version is stored as [minor, major], same as GAT.
	version := TGRDVersion{
		Major: data[5],
		Minor: data[4],
	}
	if version.Major != TGRDCurrentVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTGRDVersion, version)
	}

	r := bytes.NewReader(data[6:])
	t := &TGRD{Version: version}

	header := []struct {
		name string
		ptr  any
	}{
		{"tile x", &t.TileX},
		{"tile z", &t.TileZ},
		{"width", &t.Width},
		{"depth", &t.Depth},
		{"vertices per edge", &t.VerticesPerEdge},
		{"mesh scale", &t.MeshScale},
		{"collider lod", &t.ColliderLOD},
	}
	for _, f := range header {
		if err := binary.Read(r, binary.LittleEndian, f.ptr); err != nil {
			return nil, fmt.Errorf("%w: reading %s", ErrTruncatedTGRDData, f.name)
		}
	}

	if t.Width < 2 || t.Depth < 2 || t.Width > tgrdMaxEdge || t.Depth > tgrdMaxEdge {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidTGRD, t.Width, t.Depth)
	}

	layerCount, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading layer count", ErrTruncatedTGRDData)
	}
	if layerCount > tgrdMaxLayers {
		return nil, fmt.Errorf("%w: %d layers", ErrInvalidTGRD, layerCount)
	}

	cells := int(t.Width * t.Depth)
	if r.Len() < int(layerCount)*(1+cells*4) {
		return nil, fmt.Errorf("%w: need %d layers of %d cells", ErrTruncatedTGRDData, layerCount, cells)
	}

	t.Layers = make([]TGRDLayer, layerCount)
	for i := range t.Layers {
		layer, err := parseTGRDLayer(r, cells)
		if err != nil {
			return nil, fmt.Errorf("parsing layer %d: %w", i, err)
		}
		if t.Layer(layer.Kind) != nil {
			return nil, fmt.Errorf("%w: duplicate layer kind %d", ErrInvalidTGRD, layer.Kind)
		}
		t.Layers[i] = layer
	}

	return t, nil
}

func parseTGRDLayer(r *bytes.Reader, cells int) (TGRDLayer, error) {
	var layer TGRDLayer
	kind, err := r.ReadByte()
	if err != nil {
		return layer, fmt.Errorf("%w: reading kind", ErrTruncatedTGRDData)
	}
	layer.Kind = kind
	layer.Values = make([]float32, cells)
	if err := binary.Read(r, binary.LittleEndian, layer.Values); err != nil {
		return layer, fmt.Errorf("%w: reading values", ErrTruncatedTGRDData)
	}
	return layer, nil
}

// ParseTGRDFile parses a TGRD file from disk.
func ParseTGRDFile(path string) (*TGRD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TGRD file: %w", err)
	}
	return ParseTGRD(data)
}

// Encode serializes the tile with the current format version.
func (t *TGRD) Encode() ([]byte, error) {
	if t.Width < 2 || t.Depth < 2 || t.Width > tgrdMaxEdge || t.Depth > tgrdMaxEdge {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidTGRD, t.Width, t.Depth)
	}
	if len(t.Layers) > tgrdMaxLayers {
		return nil, fmt.Errorf("%w: %d layers", ErrInvalidTGRD, len(t.Layers))
	}
	cells := int(t.Width * t.Depth)

	buf := new(bytes.Buffer)
	buf.Grow(tgrdHeaderSize + len(t.Layers)*(1+cells*4))
	buf.WriteString(tgrdMagic)
	buf.WriteByte(TGRDCurrentVersion.Minor)
	buf.WriteByte(TGRDCurrentVersion.Major)

	for _, v := range []any{t.TileX, t.TileZ, t.Width, t.Depth, t.VerticesPerEdge, t.MeshScale, t.ColliderLOD} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(uint8(len(t.Layers)))

	seen := make(map[uint8]bool, len(t.Layers))
	for _, l := range t.Layers {
		if len(l.Values) != cells {
			return nil, fmt.Errorf("%w: layer %d has %d values, want %d", ErrInvalidTGRD, l.Kind, len(l.Values), cells)
		}
		if seen[l.Kind] {
			return nil, fmt.Errorf("%w: duplicate layer kind %d", ErrInvalidTGRD, l.Kind)
		}
		seen[l.Kind] = true
		buf.WriteByte(l.Kind)
		if err := binary.Write(buf, binary.LittleEndian, l.Values); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// WriteTGRDFile encodes the tile and writes it to path.
func WriteTGRDFile(path string, t *TGRD) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
