package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagSeed     = flag.String("seed", "", "Master seed added to every layer seed")
	flagTiles    = flag.String("tiles", "", "Level size in tiles, WxD or N")
	flagVertices = flag.Int("vertices", 0, "Vertices per tile edge")
	flagRivers   = flag.Int("rivers", -1, "Number of rivers to carve")
	flagOut      = flag.String("out", "", "Output directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ParseArgs parses flags from args, for use after a subcommand name.
func ParseArgs(args []string) error {
	return flag.CommandLine.Parse(args)
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != "" {
		seed, err := strconv.ParseInt(*flagSeed, 10, 64)
		if err != nil {
			return fmt.Errorf("-seed: %w", err)
		}
		cfg.Level.Seed = seed
	}
	if *flagTiles != "" {
		w, d, err := parseTiles(*flagTiles)
		if err != nil {
			return fmt.Errorf("-tiles: %w", err)
		}
		cfg.Level.TilesWide, cfg.Level.TilesDeep = w, d
	}
	if *flagVertices > 0 {
		cfg.Level.VerticesPerEdge = *flagVertices
	}
	if *flagRivers >= 0 {
		cfg.Rivers.Count = *flagRivers
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	return nil
}

// parseTiles accepts "4x3" or "4" (square).
func parseTiles(s string) (wide, deep int, err error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	wide, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	deep = wide
	if len(parts) == 2 {
		deep, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, err
		}
	}
	if wide < 1 || deep < 1 {
		return 0, 0, fmt.Errorf("level must be at least 1x1, got %q", s)
	}
	return wide, deep, nil
}
