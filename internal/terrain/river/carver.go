package river

import (
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/logger"
	"github.com/Faultbox/terragen/internal/terrain/tiles"
	"github.com/Faultbox/terragen/pkg/math"
)

// Termination says why a descent stopped. Every river ends with one; none
// of them is an error.
type Termination int

const (
	ReachedWater Termination = iota
	Exhausted
	LoopLimit
)

func (t Termination) String() string {
	switch t {
	case ReachedWater:
		return "water"
	case Exhausted:
		return "exhausted"
	case LoopLimit:
		return "loop_limit"
	default:
		return fmt.Sprintf("termination(%d)", int(t))
	}
}

// Point is one centerline sample: the cluster centroid in world space and
// the cluster's average height before carving. Position.Y equals Height.
type Point struct {
	Position math.Vec3 `json:"position"`
	Height   float32   `json:"height"`
}

// Path is the result of one carve.
type Path struct {
	Clusters  []ClusterID `json:"clusters"`
	Points    []Point     `json:"points"`
	Reason    Termination `json:"reason"`
	Depressed int         `json:"depressed"`
}

// Degenerate reports whether the path is too short for a ribbon.
func (p *Path) Degenerate() bool {
	return len(p.Points) < 2
}

// Stats counts what CarveAll did.
type Stats struct {
	Carved     int
	Skipped    int
	Degenerate int
}

// Carver walks rivers over a fully populated store and depresses the
// height layer along them. Carves are serialized.
type Carver struct {
	mu        sync.Mutex
	cfg       Config
	store     *tiles.Store
	mapper    tiles.Mapper
	meshScale float64
	skip      map[int]struct{}
	log       *zap.Logger
}

// NewCarver validates cfg and binds it to a store.
func NewCarver(store *tiles.Store, cfg Config, meshScale float64) (*Carver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	skip := make(map[int]struct{}, len(cfg.SkipCoordinates))
	for _, v := range cfg.SkipCoordinates {
		skip[v] = struct{}{}
	}
	return &Carver{
		cfg:       cfg,
		store:     store,
		mapper:    store.Mapper(),
		meshScale: meshScale,
		skip:      skip,
		log:       logger.Named("river"),
	}, nil
}

// usable reports whether every vertex of the cluster lies inside the level
// and off the skipped coordinates.
func (c *Carver) usable(id ClusterID) bool {
	for _, v := range id.Vertices() {
		if !c.mapper.Valid(v.X, v.Z) {
			return false
		}
		if _, ok := c.skip[v.X]; ok {
			return false
		}
		if _, ok := c.skip[v.Z]; ok {
			return false
		}
	}
	return true
}

// average returns the mean height of the cluster's four vertices.
func (c *Carver) average(id ClusterID) (float32, bool) {
	var sum float32
	for _, v := range id.Vertices() {
		h, ok := c.store.SampleGlobal(tiles.Height, v.X, v.Z)
		if !ok {
			return 0, false
		}
		sum += h
	}
	return sum / 4, true
}

// centroid returns the world position of the middle of the cluster.
func (c *Carver) centroid(id ClusterID) math.Vec2 {
	var sum math.Vec2
	for _, v := range id.Vertices() {
		p, _ := c.mapper.WorldPosition(v.X, v.Z, c.meshScale, math.Vec2{})
		sum = sum.Add(p)
	}
	return sum.Scale(0.25)
}

// ChooseOrigin samples random clusters until one has its anchor vertex at
// or above the height threshold.
func (c *Carver) ChooseOrigin(rng *rand.Rand) (ClusterID, error) {
	w, d := c.mapper.GlobalSize()
	for i := 0; i < c.cfg.OriginAttempts; i++ {
		id := ClusterID{X: rng.Intn(w - 1), Z: rng.Intn(d - 1)}
		if !c.usable(id) {
			continue
		}
		h, ok := c.store.SampleGlobal(tiles.Height, id.X, id.Z)
		if ok && float64(h) >= c.cfg.HeightThreshold {
			return id, nil
		}
	}
	return ClusterID{}, fmt.Errorf("%w: %d attempts", ErrOriginNotFound, c.cfg.OriginAttempts)
}

// Carve walks from origin to the lowest unvisited neighbour until the walk
// reaches water, runs out of candidates or visits LoopLimit clusters. It
// then lowers every visited vertex once, in every tile storing it.
func (c *Carver) Carve(origin ClusterID) (*Path, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.usable(origin) {
		return nil, fmt.Errorf("%w: origin %+v outside level", tiles.ErrTileOutOfRange, origin)
	}
	current := origin
	currentAvg, ok := c.average(current)
	if !ok {
		return nil, fmt.Errorf("origin %+v: height not loaded", origin)
	}

	visited := map[ClusterID]struct{}{origin: {}}
	path := &Path{}
	c.appendPoint(path, current, currentAvg)

	for {
		if float64(currentAvg) <= c.cfg.WaterHeight {
			path.Reason = ReachedWater
			break
		}
		if len(path.Clusters) >= c.cfg.LoopLimit {
			path.Reason = LoopLimit
			break
		}
		next, nextAvg, found := c.lowestNeighbor(current, currentAvg, visited)
		if !found {
			path.Reason = Exhausted
			break
		}
		visited[next] = struct{}{}
		c.appendPoint(path, next, nextAvg)
		current, currentAvg = next, nextAvg
	}

	vertices := make([]tiles.Vertex, 0, len(path.Clusters)*4)
	for _, id := range path.Clusters {
		v := id.Vertices()
		vertices = append(vertices, v[:]...)
	}
	path.Depressed = c.store.Depress(vertices, float32(c.cfg.DepressAmount))

	c.log.Debug("river carved",
		zap.Int("origin_x", origin.X),
		zap.Int("origin_z", origin.Z),
		zap.Int("clusters", len(path.Clusters)),
		zap.Stringer("reason", path.Reason),
		zap.Int("depressed", path.Depressed),
	)
	return path, nil
}

// lowestNeighbor picks the candidate with the strictly lowest average,
// first in Neighbors order on ties.
func (c *Carver) lowestNeighbor(current ClusterID, currentAvg float32, visited map[ClusterID]struct{}) (ClusterID, float32, bool) {
	var (
		best    ClusterID
		bestAvg float32
		found   bool
	)
	for _, n := range current.Neighbors() {
		if _, seen := visited[n]; seen || !c.usable(n) {
			continue
		}
		avg, ok := c.average(n)
		if !ok {
			continue
		}
		if !c.cfg.AllowUphill && avg > currentAvg {
			continue
		}
		if !found || avg < bestAvg {
			best, bestAvg, found = n, avg, true
		}
	}
	return best, bestAvg, found
}

func (c *Carver) appendPoint(p *Path, id ClusterID, avg float32) {
	xz := c.centroid(id)
	p.Clusters = append(p.Clusters, id)
	p.Points = append(p.Points, Point{
		Position: math.Vec3{X: float32(xz.X), Y: avg, Z: float32(xz.Z)},
		Height:   avg,
	})
}

// CarveAll carves Count rivers one after another from a seeded random
// source. Rivers without an origin are skipped; single-point rivers are
// carved but left out of the result.
func (c *Carver) CarveAll() ([]*Path, Stats) {
	var stats Stats
	rng := rand.New(rand.NewSource(c.cfg.Seed))
	var paths []*Path
	for i := 0; i < c.cfg.Count; i++ {
		origin, err := c.ChooseOrigin(rng)
		if err != nil {
			stats.Skipped++
			c.log.Warn("river skipped", zap.Int("river", i), zap.Error(err))
			continue
		}
		path, err := c.Carve(origin)
		if err != nil {
			stats.Skipped++
			c.log.Warn("river skipped", zap.Int("river", i), zap.Error(err))
			continue
		}
		if path.Degenerate() {
			stats.Degenerate++
			c.log.Info("river degenerate, no ribbon", zap.Int("river", i),
				zap.Int("origin_x", origin.X), zap.Int("origin_z", origin.Z))
			continue
		}
		stats.Carved++
		paths = append(paths, path)
	}
	return paths, stats
}
