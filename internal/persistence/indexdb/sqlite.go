// Package indexdb keeps a SQLite index of generation runs: one row per run
// plus per-tile layer bounds, rivers and placement counts.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/persistence/snapshot"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/formats"
)

var ErrRunNotFound = errors.New("run not found")

type SQLiteIndex struct {
	db *sql.DB
}

// RunRow is one indexed generation run.
type RunRow struct {
	RunID           string
	Seed            int64
	TilesWide       int
	TilesDeep       int
	VerticesPerEdge int
	CreatedAt       time.Time
	SnapshotPath    string
	RiversCarved    int
	RiversSkipped   int
	Placements      int
	GenerateTime    time.Duration
	CarveTime       time.Duration
}

// TileRow holds the layer bounds of one tile after carving.
type TileRow struct {
	Key         tiles.Key
	HeightMin   float32
	HeightMax   float32
	HeatMin     float32
	HeatMax     float32
	MoistureMin float32
	MoistureMax float32
	Path        string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			tiles_wide INTEGER NOT NULL,
			tiles_deep INTEGER NOT NULL,
			vertices_per_edge INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			snapshot_path TEXT NOT NULL,
			config_json TEXT NOT NULL,
			rivers_carved INTEGER NOT NULL,
			rivers_skipped INTEGER NOT NULL,
			placements INTEGER NOT NULL,
			generate_ms INTEGER NOT NULL,
			carve_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tiles (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			tile_x INTEGER NOT NULL,
			tile_z INTEGER NOT NULL,
			height_min REAL NOT NULL,
			height_max REAL NOT NULL,
			heat_min REAL NOT NULL,
			heat_max REAL NOT NULL,
			moisture_min REAL NOT NULL,
			moisture_max REAL NOT NULL,
			path TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, tile_x, tile_z)
		);`,
		`CREATE TABLE IF NOT EXISTS rivers (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			origin_x INTEGER NOT NULL,
			origin_z INTEGER NOT NULL,
			points INTEGER NOT NULL,
			reason TEXT NOT NULL,
			depressed INTEGER NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS placements (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			feature TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (run_id, feature)
		);`,
		`CREATE INDEX IF NOT EXISTS runs_created ON runs(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// RecordRun indexes a snapshot in one transaction. tilePaths, when given,
// are the TGRD files written for the run in key order.
func (s *SQLiteIndex) RecordRun(ctx context.Context, snapshotPath string, snap snapshot.SnapshotV1, tilePaths []string) (err error) {
	cfgJSON, err := json.Marshal(snap.Config)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	h := snap.Header
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs(run_id,seed,tiles_wide,tiles_deep,vertices_per_edge,created_at,snapshot_path,config_json,rivers_carved,rivers_skipped,placements,generate_ms,carve_ms)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.RunID, h.Seed, h.TilesWide, h.TilesDeep, snap.Config.VerticesPerEdge,
		h.CreatedAt.UTC().Format(time.RFC3339Nano), snapshotPath, string(cfgJSON),
		snap.Stats.RiversCarved, snap.Stats.RiversSkipped, len(snap.Placements),
		snap.Stats.GenerateTime.Milliseconds(), snap.Stats.CarveTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, data := range snap.Tiles {
		t, perr := formats.ParseTGRD(data)
		if perr != nil {
			return fmt.Errorf("tile %d: %w", i, perr)
		}
		row := TileRow{Key: tiles.Key{X: int(t.TileX), Z: int(t.TileZ)}}
		if l := t.Layer(uint8(tiles.Height)); l != nil {
			row.HeightMin, row.HeightMax = l.Range()
		}
		if l := t.Layer(uint8(tiles.Heat)); l != nil {
			row.HeatMin, row.HeatMax = l.Range()
		}
		if l := t.Layer(uint8(tiles.Moisture)); l != nil {
			row.MoistureMin, row.MoistureMax = l.Range()
		}
		if i < len(tilePaths) {
			row.Path = tilePaths[i]
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tiles(run_id,tile_x,tile_z,height_min,height_max,heat_min,heat_max,moisture_min,moisture_max,path)
			 VALUES(?,?,?,?,?,?,?,?,?,?)`,
			h.RunID, row.Key.X, row.Key.Z, row.HeightMin, row.HeightMax,
			row.HeatMin, row.HeatMax, row.MoistureMin, row.MoistureMax, row.Path,
		)
		if err != nil {
			return fmt.Errorf("insert tile %s: %w", row.Key, err)
		}
	}

	for i, p := range snap.Rivers {
		var ox, oz int
		if len(p.Clusters) > 0 {
			ox, oz = p.Clusters[0].X, p.Clusters[0].Z
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rivers(run_id,idx,origin_x,origin_z,points,reason,depressed) VALUES(?,?,?,?,?,?,?)`,
			h.RunID, i, ox, oz, len(p.Points), p.Reason.String(), p.Depressed,
		)
		if err != nil {
			return fmt.Errorf("insert river %d: %w", i, err)
		}
	}

	features := make([]string, 0, len(snap.Stats.Placements))
	for f := range snap.Stats.Placements {
		features = append(features, f)
	}
	sort.Strings(features)
	for _, f := range features {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO placements(run_id,feature,count) VALUES(?,?,?)`,
			h.RunID, f, snap.Stats.Placements[f],
		)
		if err != nil {
			return fmt.Errorf("insert placements %s: %w", f, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	logger.Named("indexdb").Debug("run recorded",
		zap.String("run", h.RunID),
		zap.Int("tiles", len(tilePaths)),
		zap.Int("rivers", len(snap.Rivers)))
	return nil
}

const runColumns = `run_id,seed,tiles_wide,tiles_deep,vertices_per_edge,created_at,snapshot_path,rivers_carved,rivers_skipped,placements,generate_ms,carve_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRow, error) {
	var (
		r       RunRow
		created string
		genMS   int64
		carveMS int64
	)
	err := sc.Scan(&r.RunID, &r.Seed, &r.TilesWide, &r.TilesDeep, &r.VerticesPerEdge, &created,
		&r.SnapshotPath, &r.RiversCarved, &r.RiversSkipped, &r.Placements, &genMS, &carveMS)
	if err != nil {
		return r, err
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return r, fmt.Errorf("run %s created_at: %w", r.RunID, err)
	}
	r.GenerateTime = time.Duration(genMS) * time.Millisecond
	r.CarveTime = time.Duration(carveMS) * time.Millisecond
	return r, nil
}

// Runs lists indexed runs, newest first.
func (s *SQLiteIndex) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run returns one run by id.
func (s *SQLiteIndex) Run(ctx context.Context, runID string) (RunRow, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id=?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// Tiles returns the tile rows of a run in key order.
func (s *SQLiteIndex) Tiles(ctx context.Context, runID string) ([]TileRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tile_x,tile_z,height_min,height_max,heat_min,heat_max,moisture_min,moisture_max,path
		 FROM tiles WHERE run_id=? ORDER BY tile_z, tile_x`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TileRow
	for rows.Next() {
		var t TileRow
		if err := rows.Scan(&t.Key.X, &t.Key.Z, &t.HeightMin, &t.HeightMax,
			&t.HeatMin, &t.HeatMax, &t.MoistureMin, &t.MoistureMax, &t.Path); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PlacementCounts returns feature name to placement count for a run.
func (s *SQLiteIndex) PlacementCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT feature,count FROM placements WHERE run_id=?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			f string
			n int
		)
		if err := rows.Scan(&f, &n); err != nil {
			return nil, err
		}
		out[f] = n
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its child rows.
func (s *SQLiteIndex) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id=?`, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
