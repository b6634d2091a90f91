// terragen generates tiled procedural terrain levels and inspects the
// files it writes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"

	"github.com/Faultbox/terragen/internal/config"
	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/persistence/indexdb"
	"github.com/Faultbox/terragen/internal/persistence/snapshot"
	"github.com/Faultbox/terragen/internal/preview"
	"github.com/Faultbox/terragen/internal/terrain/biome"
	"github.com/Faultbox/terragen/internal/terrain/level"
	"github.com/Faultbox/terragen/internal/terrain/river"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "inspect", "info":
		cmdInspect(args)
	case "runs":
		cmdRuns(args)
	case "preview":
		cmdPreview(args)
	case "validate":
		cmdValidate(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terragen - tiled procedural terrain generator

Usage:
  terragen <command> [options]

Commands:
  generate [flags]                   Build a level and write its outputs
  inspect <file.tgrd|file.snap.zst>  Show a tile file or snapshot
  runs <index.db>                    List indexed generation runs
  preview [-mode m] [-o out] <snap>  Render a snapshot to PNG or BMP
  validate <config.yaml>             Check a config file
  config [path]                      Write the default config

Generate flags:
  -config <file>   Config file (default ./terragen.yaml or user config dir)
  -seed <n>        Master seed added to every layer seed
  -tiles <WxD>     Level size in tiles
  -vertices <n>    Vertices per tile edge
  -rivers <n>      Number of rivers
  -out <dir>       Output directory
  -debug           Debug logging

Examples:
  terragen generate -seed 1234 -tiles 8x8 -out ./level
  terragen inspect ./level/level.snap.zst
  terragen preview -mode height -o height.png ./level/level.snap.zst
  terragen runs ./level/index.db`)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

// initLogger configures the global logger from the logging section.
func initLogger(c config.LoggingConfig) error {
	if c.LogFile == "" {
		return logger.Init(c.Level, "")
	}
	fc := logger.DefaultFileConfig(c.LogFile)
	if c.Format != "" {
		fc.Format = logger.Format(c.Format)
	}
	return logger.InitWithFileConfig(c.Level, fc, true)
}

func cmdInspect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen inspect <file.tgrd|file.snap.zst>")
		os.Exit(1)
	}
	path := args[0]

	if strings.EqualFold(filepath.Ext(path), ".tgrd") {
		inspectTile(path)
		return
	}
	inspectSnapshot(path)
}

func inspectTile(path string) {
	t, err := formats.ParseTGRDFile(path)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Tile:     (%d,%d)\n", t.TileX, t.TileZ)
	fmt.Printf("Version:  %s\n", t.Version)
	fmt.Printf("Size:     %dx%d (%s vertices)\n", t.Width, t.Depth, humanize.Comma(int64(t.Width*t.Depth)))
	fmt.Printf("Mesh:     %d per edge, scale %g, collider LOD %d\n", t.VerticesPerEdge, t.MeshScale, t.ColliderLOD)
	fmt.Println()
	fmt.Println("Layers:")
	for _, l := range t.Layers {
		lo, hi := l.Range()
		fmt.Printf("  %-14s %10.3f .. %-10.3f\n", tiles.Layer(l.Kind), lo, hi)
	}
}

func inspectSnapshot(path string) {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fatalf("%v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		fatalf("%v", err)
	}

	h := snap.Header
	cfg := snap.Config
	vertices := int64(len(snap.Tiles)) * int64(cfg.VerticesPerEdge*cfg.VerticesPerEdge)
	fmt.Printf("Run:        %s\n", h.RunID)
	fmt.Printf("Created:    %s (%s)\n", h.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(h.CreatedAt))
	fmt.Printf("Seed:       %d\n", h.Seed)
	fmt.Printf("Level:      %dx%d tiles, %d vertices per edge\n", h.TilesWide, h.TilesDeep, cfg.VerticesPerEdge)
	fmt.Printf("Vertices:   %s\n", humanize.Comma(vertices))
	fmt.Printf("File size:  %s\n", humanize.Bytes(uint64(st.Size())))
	fmt.Println()

	s := snap.Stats
	fmt.Printf("Rivers:     %d carved, %d skipped, %d degenerate, %s cells depressed\n",
		s.RiversCarved, s.RiversSkipped, s.RiversDegenerate, humanize.Comma(int64(s.CellsDepressed)))
	for i, p := range snap.Rivers {
		fmt.Printf("  #%-3d %3d points  %-14s depressed %d\n", i, len(p.Points), p.Reason, p.Depressed)
	}
	fmt.Printf("Placements: %d\n", len(snap.Placements))
	names := make([]string, 0, len(s.Placements))
	for n := range s.Placements {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-12s %d\n", n, s.Placements[n])
	}
	fmt.Printf("Timings:    generate %v, carve %v, classify %v, place %v\n",
		s.GenerateTime, s.CarveTime, s.ClassifyTime, s.PlaceTime)
}

func cmdRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("n", 20, "Show at most N runs (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen runs [-n N] <index.db>")
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer idx.Close()

	runs, err := idx.Runs(context.Background())
	if err != nil {
		fatalf("%v", err)
	}
	if *limit > 0 && len(runs) > *limit {
		runs = runs[:*limit]
	}
	for _, r := range runs {
		fmt.Printf("%s  seed=%-8d %dx%d  rivers=%d  placements=%-5d %s\n",
			r.RunID, r.Seed, r.TilesWide, r.TilesDeep, r.RiversCarved, r.Placements, humanize.Time(r.CreatedAt))
	}
	fmt.Printf("%d run(s)\n", len(runs))
}

func cmdPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	mode := fs.String("mode", string(preview.ModeBiome), "height, heat, moisture, unit_density or biome")
	out := fs.String("o", "", "Output image (.png or .bmp), default next to the snapshot")
	overlays := fs.Bool("overlays", true, "Draw rivers and placements")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen preview [-mode m] [-o out.png] <file.snap.zst>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fatalf("%v", err)
	}
	store, err := snap.Restore()
	if err != nil {
		fatalf("%v", err)
	}

	opts := preview.Options{Textures: snap.Config.Textures}
	if preview.Mode(*mode) == preview.ModeBiome {
		opts.BlendMaps, err = classify(store, snap.Config.Textures)
		if err != nil {
			fatalf("%v", err)
		}
	}
	if *overlays {
		for i := range snap.Rivers {
			opts.Rivers = append(opts.Rivers, &snap.Rivers[i])
		}
		opts.Placements = snap.Placements
	}

	img, err := preview.Render(store, preview.Mode(*mode), opts)
	if err != nil {
		fatalf("%v", err)
	}
	target := *out
	if target == "" {
		target = filepath.Join(filepath.Dir(path), *mode+".png")
	}
	if err := preview.WriteFile(target, img); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Wrote %s (%dx%d)\n", target, img.Bounds().Dx(), img.Bounds().Dy())
}

// classify rebuilds blend maps for a restored store.
func classify(store *tiles.Store, textures []biome.TextureLayer) ([]*biome.BlendMap, error) {
	c, err := biome.NewClassifier(textures, level.LevelRanges(store))
	if err != nil {
		return nil, err
	}
	var maps []*biome.BlendMap
	for _, k := range store.Mapper().Keys() {
		bm, err := c.ClassifyTile(store, k)
		if err != nil {
			return nil, err
		}
		maps = append(maps, bm)
	}
	return maps, nil
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terragen validate <config.yaml>")
		os.Exit(1)
	}

	_, err := config.LoadFile(args[0])
	if err == nil {
		fmt.Printf("%s: OK\n", args[0])
		return
	}
	errs := multierr.Errors(err)
	fmt.Fprintf(os.Stderr, "%s: %d problem(s)\n", args[0], len(errs))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", e)
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		os.Exit(2)
	}
	os.Exit(1)
}

func cmdConfig(args []string) {
	cfg := config.Default()
	var err error
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(args) > 0 {
		path = args[0]
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}

// pathsFor returns the river pointers of a level for overlays.
func pathsFor(rivers []*river.Path) []*river.Path {
	out := make([]*river.Path, 0, len(rivers))
	for _, p := range rivers {
		if !p.Degenerate() {
			out = append(out, p)
		}
	}
	return out
}
