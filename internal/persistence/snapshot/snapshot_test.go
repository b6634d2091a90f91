package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/terragen/internal/terrain/level"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/formats"
)

func buildLevel(t *testing.T) *level.Level {
	t.Helper()
	cfg := level.DefaultConfig()
	cfg.TilesWide = 2
	cfg.TilesDeep = 2
	cfg.VerticesPerEdge = 9
	cfg.Workers = 2
	cfg.Rivers.Count = 1
	cfg.Rivers.HeightThreshold = 0
	lvl, err := level.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return lvl
}

func sameStore(t *testing.T, want, got *tiles.Store) {
	t.Helper()
	m := want.Mapper()
	w, d := m.GlobalSize()
	for _, l := range tiles.Layers {
		for gz := 0; gz < d; gz++ {
			for gx := 0; gx < w; gx++ {
				a, _ := want.SampleGlobal(l, gx, gz)
				b, ok := got.SampleGlobal(l, gx, gz)
				if !ok || a != b {
					t.Fatalf("%s (%d,%d): want %v got %v (ok=%v)", l, gx, gz, a, b, ok)
				}
			}
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	lvl := buildLevel(t)
	snap, err := FromLevel(lvl, 42)
	if err != nil {
		t.Fatalf("FromLevel: %v", err)
	}
	if snap.Header.RunID == "" || snap.Header.Version != Version {
		t.Fatalf("bad header %+v", snap.Header)
	}
	if len(snap.Tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(snap.Tiles))
	}

	path := filepath.Join(t.TempDir(), "runs", "level.snap.zst")
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.RunID != snap.Header.RunID || h.Seed != 42 || h.TilesWide != 2 || h.TilesDeep != 2 {
		t.Errorf("header mismatch %+v", h)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Header.RunID != snap.Header.RunID {
		t.Errorf("run id %q, want %q", got.Header.RunID, snap.Header.RunID)
	}
	if len(got.Rivers) != len(lvl.Rivers) || len(got.Placements) != len(lvl.Placements) {
		t.Errorf("got %d rivers %d placements, want %d %d",
			len(got.Rivers), len(got.Placements), len(lvl.Rivers), len(lvl.Placements))
	}
	if got.Config.VerticesPerEdge != 9 || len(got.Config.Features) != len(lvl.Config.Features) {
		t.Errorf("config not preserved: %+v", got.Config)
	}

	store, err := got.Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	sameStore(t, lvl.Store, store)
}

func TestReadSnapshotVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.snap.zst")
	snap := SnapshotV1{Header: Header{Version: Version + 1}}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); !errors.Is(err, ErrVersion) {
		t.Errorf("ReadSnapshot: expected ErrVersion, got %v", err)
	}
	if _, err := ReadHeader(path); !errors.Is(err, ErrVersion) {
		t.Errorf("ReadHeader: expected ErrVersion, got %v", err)
	}
}

func TestReadSnapshotGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRestoreIncomplete(t *testing.T) {
	lvl := buildLevel(t)
	snap, err := FromLevel(lvl, 0)
	if err != nil {
		t.Fatalf("FromLevel: %v", err)
	}
	snap.Tiles = snap.Tiles[:3]
	if _, err := snap.Restore(); err == nil {
		t.Error("expected error for missing tile")
	}
}

func TestBundleTGRDRoundTrip(t *testing.T) {
	lvl := buildLevel(t)
	k := tiles.Key{X: 1, Z: 0}
	b, _ := lvl.Store.Export(k)

	data, err := EncodeBundle(b)
	if err != nil {
		t.Fatalf("EncodeBundle: %v", err)
	}
	got, err := DecodeBundle(data)
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if got.Key != k || got.Mesh != b.Mesh || got.ColliderLOD != b.ColliderLOD {
		t.Errorf("metadata mismatch: %+v vs %+v", got, b)
	}
	for _, l := range tiles.Layers {
		want, have := b.Grid(l).Values(), got.Grid(l).Values()
		for i := range want {
			if want[i] != have[i] {
				t.Fatalf("%s[%d] = %v, want %v", l, i, have[i], want[i])
			}
		}
	}

	// A file without every layer cannot become a bundle.
	tg, _ := BundleToTGRD(b)
	tg.Layers = tg.Layers[:2]
	if _, err := TGRDToBundle(tg); !errors.Is(err, tiles.ErrBundleMissing) {
		t.Errorf("expected ErrBundleMissing, got %v", err)
	}
}

func TestWriteTileFiles(t *testing.T) {
	lvl := buildLevel(t)
	dir := filepath.Join(t.TempDir(), "tiles")
	paths, err := WriteTileFiles(dir, lvl.Store)
	if err != nil {
		t.Fatalf("WriteTileFiles: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("expected 4 files, got %d", len(paths))
	}
	if filepath.Base(paths[1]) != TileFileName(tiles.Key{X: 1, Z: 0}) {
		t.Errorf("unexpected order: %v", paths)
	}
	tg, err := formats.ParseTGRDFile(paths[3])
	if err != nil {
		t.Fatalf("ParseTGRDFile: %v", err)
	}
	if tg.TileX != 1 || tg.TileZ != 1 || tg.Width != 9 || len(tg.Layers) != 4 {
		t.Errorf("unexpected tile %d,%d %dx%d layers=%d", tg.TileX, tg.TileZ, tg.Width, tg.Depth, len(tg.Layers))
	}
}
