package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Level.TilesWide != 4 || cfg.Level.TilesDeep != 4 {
		t.Errorf("expected 4x4 tiles, got %dx%d", cfg.Level.TilesWide, cfg.Level.TilesDeep)
	}
	if cfg.Level.VerticesPerEdge != 65 {
		t.Errorf("expected 65 vertices per edge, got %d", cfg.Level.VerticesPerEdge)
	}
	if cfg.Rivers.Count != 3 {
		t.Errorf("expected 3 rivers, got %d", cfg.Rivers.Count)
	}
	if len(cfg.Features) == 0 || len(cfg.Textures) == 0 {
		t.Error("expected default features and textures")
	}
	if !cfg.Output.Snapshot {
		t.Error("expected snapshot to be enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestGenerationAppliesSeed(t *testing.T) {
	cfg := Default()
	base := cfg.Generation()
	cfg.Level.Seed = 100
	seeded := cfg.Generation()

	if seeded.Layers.Height.Noise.Seed != base.Layers.Height.Noise.Seed+100 {
		t.Errorf("height seed %d", seeded.Layers.Height.Noise.Seed)
	}
	if seeded.Layers.Heat.Noise.Seed != base.Layers.Heat.Noise.Seed+100 {
		t.Errorf("heat seed %d", seeded.Layers.Heat.Noise.Seed)
	}
	if seeded.Layers.Moisture.Seed != base.Layers.Moisture.Seed+100 {
		t.Errorf("moisture seed %d", seeded.Layers.Moisture.Seed)
	}
	if seeded.Layers.UnitDensity.Seed != base.Layers.UnitDensity.Seed+100 {
		t.Errorf("unit density seed %d", seeded.Layers.UnitDensity.Seed)
	}
	if seeded.Rivers.Seed != base.Rivers.Seed+100 {
		t.Errorf("river seed %d", seeded.Rivers.Seed)
	}
	for i := range seeded.Features {
		if seeded.Features[i].Seed != base.Features[i].Seed+100 {
			t.Errorf("feature %s seed %d", seeded.Features[i].Name, seeded.Features[i].Seed)
		}
	}
	// The stored config keeps its own seeds.
	if cfg.Features[0].Seed != base.Features[0].Seed {
		t.Error("Generation mutated the config")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
level:
  seed: 7
  tiles_wide: 2
  tiles_deep: 3
  vertices_per_edge: 33
  position_offset:
    x: 10
    z: -5

layers:
  height:
    multiplier: 50
    noise:
      basis: simplex
      octaves: 3

rivers:
  count: 1
  skip_coordinates: [0, 32]

features:
  - name: rock
    layer: height
    radius: 3
    prefabs: 2
    height:
      min: 20

output:
  dir: build
  preview: bmp

logging:
  level: debug
  log_file: terragen.log
  format: json
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Level.Seed != 7 || cfg.Level.TilesWide != 2 || cfg.Level.TilesDeep != 3 {
		t.Errorf("unexpected level %+v", cfg.Level)
	}
	if cfg.Level.VerticesPerEdge != 33 {
		t.Errorf("expected 33 vertices, got %d", cfg.Level.VerticesPerEdge)
	}
	if cfg.Level.PositionOffset.X != 10 || cfg.Level.PositionOffset.Z != -5 {
		t.Errorf("unexpected offset %+v", cfg.Level.PositionOffset)
	}
	if cfg.Layers.Height.Multiplier != 50 {
		t.Errorf("expected multiplier 50, got %v", cfg.Layers.Height.Multiplier)
	}
	if cfg.Layers.Height.Noise.Basis != "simplex" || cfg.Layers.Height.Noise.Octaves != 3 {
		t.Errorf("unexpected height noise %+v", cfg.Layers.Height.Noise)
	}
	// Unset keys keep their defaults.
	if cfg.Layers.Height.Noise.Scale != Default().Layers.Height.Noise.Scale {
		t.Errorf("height scale lost its default: %v", cfg.Layers.Height.Noise.Scale)
	}
	if cfg.Rivers.Count != 1 || len(cfg.Rivers.SkipCoordinates) != 2 {
		t.Errorf("unexpected rivers %+v", cfg.Rivers)
	}
	if len(cfg.Features) != 1 || cfg.Features[0].Name != "rock" {
		t.Fatalf("expected features replaced by [rock], got %+v", cfg.Features)
	}
	if cfg.Features[0].Height.Min == nil || *cfg.Features[0].Height.Min != 20 {
		t.Error("expected height gate min 20")
	}
	if cfg.Features[0].Height.Max != nil {
		t.Error("expected no height gate max")
	}
	if cfg.Output.Dir != "build" || cfg.Output.Preview != "bmp" {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "terragen.log" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config is invalid: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
level:
  tiles_wide: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"empty", "", true},
		{"minimal", "level:\n  seed: 3\n", true},
		{"unknown top-level key", "graphics:\n  width: 800\n", false},
		{"unknown nested key", "rivers:\n  lakes: 2\n", false},
		{"wrong type", "level:\n  tiles_wide: \"four\"\n", false},
		{"below minimum", "level:\n  vertices_per_edge: 1\n", false},
		{"bad basis", "layers:\n  moisture:\n    basis: worley\n", false},
		{"bad layer", "features:\n  - name: x\n    layer: altitude\n", false},
		{"feature without name", "features:\n  - layer: height\n", false},
		{"color out of range", "textures:\n  - name: a\n    color: [0, 0, 300]\n", false},
		{"bad preview", "output:\n  preview: gif\n", false},
		{"bad log level", "logging:\n  level: verbose\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument([]byte(tt.doc))
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Error("expected schema error")
				} else if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestValidateSemantic(t *testing.T) {
	cfg := Default()
	cfg.Level.MeshScale = 0
	cfg.Output.Preview = "gif"
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig in %v", err)
	}
	for _, want := range []string{"mesh_scale", "preview", "loud", "xml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "terragen.yaml")
	if err := os.WriteFile(configPath, []byte("level:\n  seed: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find terragen.yaml in current directory")
	}
}

func TestParseTiles(t *testing.T) {
	tests := []struct {
		in         string
		wide, deep int
		ok         bool
	}{
		{"4", 4, 4, true},
		{"3x2", 3, 2, true},
		{"3X5", 3, 5, true},
		{"0x2", 0, 0, false},
		{"ax2", 0, 0, false},
		{"2x", 0, 0, false},
	}
	for _, tt := range tests {
		w, d, err := parseTiles(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseTiles(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && (w != tt.wide || d != tt.deep) {
			t.Errorf("parseTiles(%q) = %dx%d, want %dx%d", tt.in, w, d, tt.wide, tt.deep)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "seed flag",
			setup: func() { *flagSeed = "-42" },
			verify: func(cfg *Config) {
				if cfg.Level.Seed != -42 {
					t.Errorf("expected seed -42, got %d", cfg.Level.Seed)
				}
			},
			teardown: func() { *flagSeed = "" },
		},
		{
			name:  "tiles flag",
			setup: func() { *flagTiles = "6x2" },
			verify: func(cfg *Config) {
				if cfg.Level.TilesWide != 6 || cfg.Level.TilesDeep != 2 {
					t.Errorf("expected 6x2, got %dx%d", cfg.Level.TilesWide, cfg.Level.TilesDeep)
				}
			},
			teardown: func() { *flagTiles = "" },
		},
		{
			name:  "vertices flag",
			setup: func() { *flagVertices = 17 },
			verify: func(cfg *Config) {
				if cfg.Level.VerticesPerEdge != 17 {
					t.Errorf("expected 17 vertices, got %d", cfg.Level.VerticesPerEdge)
				}
			},
			teardown: func() { *flagVertices = 0 },
		},
		{
			name:  "zero rivers",
			setup: func() { *flagRivers = 0 },
			verify: func(cfg *Config) {
				if cfg.Rivers.Count != 0 {
					t.Errorf("expected 0 rivers, got %d", cfg.Rivers.Count)
				}
			},
			teardown: func() { *flagRivers = -1 },
		},
		{
			name:  "out flag",
			setup: func() { *flagOut = "/tmp/level" },
			verify: func(cfg *Config) {
				if cfg.Output.Dir != "/tmp/level" {
					t.Errorf("expected out /tmp/level, got %s", cfg.Output.Dir)
				}
			},
			teardown: func() { *flagOut = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			if err := applyFlags(cfg); err != nil {
				t.Fatalf("applyFlags: %v", err)
			}
			tt.verify(cfg)
		})
	}
}

func TestApplyFlagsBadSeed(t *testing.T) {
	*flagSeed = "forty"
	defer func() { *flagSeed = "" }()

	if err := applyFlags(Default()); err == nil {
		t.Error("expected error for non-numeric seed")
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
level:
  tiles_wide: 3
  tiles_deep: 5
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagTiles = "2"
	*flagVertices = 9
	defer func() {
		*flagConfig = ""
		*flagTiles = ""
		*flagVertices = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Flag beats file.
	if cfg.Level.TilesWide != 2 || cfg.Level.TilesDeep != 2 {
		t.Errorf("expected 2x2 from flag, got %dx%d", cfg.Level.TilesWide, cfg.Level.TilesDeep)
	}
	// Default survives where neither overrides.
	if cfg.Rivers.Count != 3 {
		t.Errorf("expected default river count, got %d", cfg.Rivers.Count)
	}
	if cfg.Level.VerticesPerEdge != 9 {
		t.Errorf("expected 9 vertices from flag, got %d", cfg.Level.VerticesPerEdge)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Level.Seed = 99
	cfg.Output.Preview = "png"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Level.Seed != 99 || loaded.Output.Preview != "png" {
		t.Errorf("round trip lost values: %+v %+v", loaded.Level, loaded.Output)
	}
	if len(loaded.Features) != len(cfg.Features) {
		t.Errorf("expected %d features, got %d", len(cfg.Features), len(loaded.Features))
	}
}
