// Package snapshot persists finished levels as zstd-compressed gob files
// and individual tiles as TGRD files.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/terrain/biome"
	"github.com/Faultbox/terragen/internal/terrain/level"
	"github.com/Faultbox/terragen/internal/terrain/river"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
)

// Version is the snapshot format version written by WriteSnapshot.
const Version = 1

var ErrVersion = errors.New("unsupported snapshot version")

// Header is written as a JSON line ahead of the gob body so tools can read
// it without decoding the level.
type Header struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	TilesWide int       `json:"tiles_wide"`
	TilesDeep int       `json:"tiles_deep"`
}

// SnapshotV1 is a complete level.
type SnapshotV1 struct {
	Header Header

	Config level.Config
	// Tiles holds TGRD-encoded bundles in mapper key order, with rivers
	// already carved.
	Tiles      [][]byte
	Rivers     []river.Path
	Ribbons    []river.Ribbon
	Placements []biome.Placement
	Stats      level.Stats
}

// FromLevel captures a built level under a fresh run id.
func FromLevel(lvl *level.Level, seed int64) (SnapshotV1, error) {
	snap := SnapshotV1{
		Header: Header{
			Version:   Version,
			RunID:     uuid.NewString(),
			Seed:      seed,
			CreatedAt: time.Now().UTC(),
			TilesWide: lvl.Mapper.TilesWide,
			TilesDeep: lvl.Mapper.TilesDeep,
		},
		Config:     lvl.Config,
		Ribbons:    lvl.Ribbons,
		Placements: lvl.Placements,
		Stats:      lvl.Stats,
	}
	for _, p := range lvl.Rivers {
		snap.Rivers = append(snap.Rivers, *p)
	}
	for _, k := range lvl.Mapper.Keys() {
		b, ok := lvl.Store.Export(k)
		if !ok {
			return snap, fmt.Errorf("tile %s: %w", k, tiles.ErrBundleMissing)
		}
		data, err := EncodeBundle(b)
		if err != nil {
			return snap, fmt.Errorf("tile %s: %w", k, err)
		}
		snap.Tiles = append(snap.Tiles, data)
	}
	return snap, nil
}

// Restore rebuilds the tile store held in the snapshot.
func (s SnapshotV1) Restore() (*tiles.Store, error) {
	m, err := tiles.NewMapper(s.Config.TilesWide, s.Config.TilesDeep, s.Config.VerticesPerEdge)
	if err != nil {
		return nil, err
	}
	store := tiles.NewStore(m)
	for i, data := range s.Tiles {
		b, err := DecodeBundle(data)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		if err := store.Set(b.Key, b); err != nil {
			return nil, err
		}
	}
	if !store.Ready() {
		return nil, fmt.Errorf("snapshot holds %d of %d tiles", len(s.Tiles), len(m.Keys()))
	}
	return store, nil
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	logger.Named("snapshot").Debug("snapshot written",
		zap.String("path", path),
		zap.String("run", snap.Header.RunID),
		zap.Int("tiles", len(snap.Tiles)))
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, nil
}
