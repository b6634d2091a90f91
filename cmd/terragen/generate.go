package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/persistence/indexdb"
	"github.com/Faultbox/terragen/internal/persistence/snapshot"
	"github.com/Faultbox/terragen/internal/preview"
	"github.com/Faultbox/terragen/internal/terrain/level"
)

const snapshotName = "level.snap.zst"

func cmdGenerate(args []string) {
	if err := config.ParseArgs(args); err != nil {
		fatalf("%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== terragen ===",
		zap.Int64("seed", cfg.Level.Seed),
		zap.Int("tiles_wide", cfg.Level.TilesWide),
		zap.Int("tiles_deep", cfg.Level.TilesDeep),
		zap.Int("vertices_per_edge", cfg.Level.VerticesPerEdge))
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	lvl, err := level.Build(ctx, cfg.Generation())
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		os.Exit(1)
	}

	if err := writeOutputs(ctx, cfg, lvl); err != nil {
		logger.Error("writing outputs failed", zap.Error(err))
		os.Exit(1)
	}

	m := lvl.Mapper
	w, d := m.GlobalSize()
	fmt.Printf("Level:      %dx%d tiles, %s vertices\n", m.TilesWide, m.TilesDeep, humanize.Comma(int64(w*d)))
	fmt.Printf("Rivers:     %d carved, %d skipped\n", lvl.Stats.RiversCarved, lvl.Stats.RiversSkipped)
	fmt.Printf("Placements: %d\n", len(lvl.Placements))
	fmt.Printf("Done in %v\n", time.Since(start).Round(time.Millisecond))
}

// writeOutputs writes whatever the output section asks for.
func writeOutputs(ctx context.Context, cfg *config.Config, lvl *level.Level) error {
	out := cfg.Output
	if !out.Snapshot && !out.TileFiles && out.Preview == "" && out.Index == "" {
		return nil
	}
	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		return err
	}

	snap, err := snapshot.FromLevel(lvl, cfg.Level.Seed)
	if err != nil {
		return err
	}

	snapPath := ""
	if out.Snapshot {
		snapPath = filepath.Join(out.Dir, snapshotName)
		if err := snapshot.WriteSnapshot(snapPath, snap); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if st, err := os.Stat(snapPath); err == nil {
			logger.Info("snapshot written",
				zap.String("path", snapPath),
				zap.String("run_id", snap.Header.RunID),
				zap.String("size", humanize.Bytes(uint64(st.Size()))))
		}
	}

	var tilePaths []string
	if out.TileFiles {
		tilePaths, err = snapshot.WriteTileFiles(filepath.Join(out.Dir, "tiles"), lvl.Store)
		if err != nil {
			return fmt.Errorf("tile files: %w", err)
		}
		logger.Info("tile files written", zap.Int("count", len(tilePaths)))
	}

	if out.Preview != "" {
		opts := preview.Options{
			BlendMaps:  lvl.BlendMaps,
			Textures:   lvl.Config.Textures,
			Rivers:     pathsFor(lvl.Rivers),
			Placements: lvl.Placements,
		}
		for _, mode := range []preview.Mode{preview.ModeBiome, preview.ModeHeight} {
			img, err := preview.Render(lvl.Store, mode, opts)
			if err != nil {
				return fmt.Errorf("preview %s: %w", mode, err)
			}
			path := filepath.Join(out.Dir, string(mode)+"."+out.Preview)
			if err := preview.WriteFile(path, img); err != nil {
				return fmt.Errorf("preview %s: %w", mode, err)
			}
			logger.Info("preview written", zap.String("path", path))
		}
	}

	if out.Index != "" {
		path := out.Index
		if !filepath.IsAbs(path) {
			path = filepath.Join(out.Dir, path)
		}
		idx, err := indexdb.OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("index: %w", err)
		}
		defer idx.Close()
		if err := idx.RecordRun(ctx, snapPath, snap, tilePaths); err != nil {
			return fmt.Errorf("index: %w", err)
		}
		logger.Info("run indexed", zap.String("db", path), zap.String("run_id", snap.Header.RunID))
	}
	return nil
}
