package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/formats"
	"github.com/Faultbox/terragen/pkg/grid"
)

// BundleToTGRD converts a tile bundle to its file form. Layer kinds are the
// tiles.Layer values.
func BundleToTGRD(b *tiles.Bundle) (*formats.TGRD, error) {
	t := &formats.TGRD{
		TileX:           int32(b.Key.X),
		TileZ:           int32(b.Key.Z),
		VerticesPerEdge: uint32(b.Mesh.VerticesPerEdge),
		MeshScale:       float32(b.Mesh.MeshScale),
		ColliderLOD:     uint32(b.ColliderLOD),
	}
	for _, l := range tiles.Layers {
		g := b.Grid(l)
		if g == nil {
			return nil, fmt.Errorf("%w: %s", tiles.ErrBundleMissing, l)
		}
		t.Width, t.Depth = uint32(g.Width()), uint32(g.Height())
		t.Layers = append(t.Layers, formats.TGRDLayer{Kind: uint8(l), Values: g.Values()})
	}
	return t, nil
}

// TGRDToBundle rebuilds a tile bundle. Every layer must be present.
func TGRDToBundle(t *formats.TGRD) (*tiles.Bundle, error) {
	b := &tiles.Bundle{
		Key:         tiles.Key{X: int(t.TileX), Z: int(t.TileZ)},
		ColliderLOD: int(t.ColliderLOD),
		Mesh: tiles.MeshSettings{
			VerticesPerEdge: int(t.VerticesPerEdge),
			MeshScale:       float64(t.MeshScale),
		},
	}
	for _, l := range tiles.Layers {
		layer := t.Layer(uint8(l))
		if layer == nil {
			return nil, fmt.Errorf("%w: %s", tiles.ErrBundleMissing, l)
		}
		g, err := grid.FromValues(int(t.Width), int(t.Depth), layer.Values)
		if err != nil {
			return nil, err
		}
		switch l {
		case tiles.Height:
			b.Height = g
		case tiles.Heat:
			b.Heat = g
		case tiles.Moisture:
			b.Moisture = g
		case tiles.UnitDensity:
			b.UnitDensity = g
		}
	}
	return b, nil
}

// EncodeBundle returns the TGRD bytes of a bundle.
func EncodeBundle(b *tiles.Bundle) ([]byte, error) {
	t, err := BundleToTGRD(b)
	if err != nil {
		return nil, err
	}
	return t.Encode()
}

// DecodeBundle parses TGRD bytes into a bundle.
func DecodeBundle(data []byte) (*tiles.Bundle, error) {
	t, err := formats.ParseTGRD(data)
	if err != nil {
		return nil, err
	}
	return TGRDToBundle(t)
}

// TileFileName is the file name a tile is written under.
func TileFileName(k tiles.Key) string {
	return fmt.Sprintf("tile_%d_%d.tgrd", k.X, k.Z)
}

// WriteTileFiles writes one TGRD file per tile into dir and returns the
// paths in key order.
func WriteTileFiles(dir string, store *tiles.Store) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	for _, k := range store.Mapper().Keys() {
		b, ok := store.Export(k)
		if !ok {
			return paths, fmt.Errorf("tile %s: %w", k, tiles.ErrBundleMissing)
		}
		t, err := BundleToTGRD(b)
		if err != nil {
			return paths, fmt.Errorf("tile %s: %w", k, err)
		}
		path := filepath.Join(dir, TileFileName(k))
		if err := formats.WriteTGRDFile(path, t); err != nil {
			return paths, fmt.Errorf("tile %s: %w", k, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
