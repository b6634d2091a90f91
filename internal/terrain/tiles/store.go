package tiles

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Faultbox/terragen/pkg/grid"
)

// Store owns every tile bundle of a level. It is sized once from the mapper
// and never resized. Callers read and write single cells; only Export hands
// out whole grids, and those are copies.
//
// Each tile has its own RWMutex: reads of one tile run concurrently, and
// Depress excludes readers of the tiles it changes.
type Store struct {
	mapper Mapper
	slots  []slot
}

type slot struct {
	mu     sync.RWMutex
	bundle *Bundle
}

// NewStore creates an empty store for the mapper's level.
func NewStore(m Mapper) *Store {
	return &Store{
		mapper: m,
		slots:  make([]slot, m.TilesWide*m.TilesDeep),
	}
}

// Mapper returns the level mapping the store was sized for.
func (s *Store) Mapper() Mapper { return s.mapper }

func (s *Store) slot(k Key) (*slot, bool) {
	if !s.mapper.ValidKey(k) {
		return nil, false
	}
	return &s.slots[k.Z*s.mapper.TilesWide+k.X], true
}

// Set stores a bundle, replacing any earlier one wholesale. The store takes
// ownership of the bundle's grids.
func (s *Store) Set(k Key, b *Bundle) error {
	sl, ok := s.slot(k)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTileOutOfRange, k)
	}
	if err := b.validate(s.mapper.VertexWidth, s.mapper.VertexDepth); err != nil {
		return fmt.Errorf("tile %s: %w", k, err)
	}
	b.Key = k
	sl.mu.Lock()
	sl.bundle = b
	sl.mu.Unlock()
	return nil
}

// Has reports whether a bundle has been stored for k.
func (s *Store) Has(k Key) bool {
	sl, ok := s.slot(k)
	if !ok {
		return false
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.bundle != nil
}

// Ready reports whether every tile has a bundle.
func (s *Store) Ready() bool {
	for _, k := range s.mapper.Keys() {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

// Sample returns one cell of a layer. ok is false for coordinates outside
// the level or tiles without a bundle.
func (s *Store) Sample(l Layer, c LocalCoordinate) (float32, bool) {
	if !s.mapper.ValidLocal(c) {
		return 0, false
	}
	sl, _ := s.slot(c.Key())
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.bundle == nil {
		return 0, false
	}
	g := sl.bundle.Grid(l)
	if g == nil {
		return 0, false
	}
	return g.At(c.X, c.Z)
}

// SampleGlobal returns one cell of a layer addressed by global vertex.
func (s *Store) SampleGlobal(l Layer, gx, gz int) (float32, bool) {
	c, ok := s.mapper.ToLocal(gx, gz)
	if !ok {
		return 0, false
	}
	return s.Sample(l, c)
}

// Bounds returns the tracked extrema of one tile layer.
func (s *Store) Bounds(k Key, l Layer) (min, max float32, ok bool) {
	sl, ok := s.slot(k)
	if !ok {
		return 0, 0, false
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.bundle == nil {
		return 0, 0, false
	}
	g := sl.bundle.Grid(l)
	return g.Min(), g.Max(), true
}

// Export returns a deep copy of a tile bundle.
func (s *Store) Export(k Key) (*Bundle, bool) {
	sl, ok := s.slot(k)
	if !ok {
		return nil, false
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.bundle == nil {
		return nil, false
	}
	return sl.bundle.Clone(), true
}

// Depress lowers the height of every listed vertex by amount. Each vertex is
// expanded to all tile cells storing it, and each physical cell is lowered
// exactly once however often it is listed, so seam copies stay equal. Tiles
// are locked in key order. It returns the number of cells changed.
//
// Depress is not idempotent: calling it twice lowers the cells twice.
func (s *Store) Depress(vertices []Vertex, amount float32) int {
	cells := make(map[Key]map[grid.Cell]struct{})
	for _, v := range vertices {
		c, ok := s.mapper.ToLocal(v.X, v.Z)
		if !ok {
			continue
		}
		for _, d := range s.mapper.Duplicates(c) {
			k := d.Key()
			if cells[k] == nil {
				cells[k] = make(map[grid.Cell]struct{})
			}
			cells[k][grid.Cell{X: d.X, Z: d.Z}] = struct{}{}
		}
	}

	keys := make([]Key, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Z != keys[j].Z {
			return keys[i].Z < keys[j].Z
		}
		return keys[i].X < keys[j].X
	})

	for _, k := range keys {
		sl, _ := s.slot(k)
		sl.mu.Lock()
	}
	defer func() {
		for i := len(keys) - 1; i >= 0; i-- {
			sl, _ := s.slot(keys[i])
			sl.mu.Unlock()
		}
	}()

	changed := 0
	for _, k := range keys {
		sl, _ := s.slot(k)
		if sl.bundle == nil {
			continue
		}
		list := make([]grid.Cell, 0, len(cells[k]))
		for c := range cells[k] {
			list = append(list, c)
		}
		changed += sl.bundle.Height.Adjust(list, -amount)
	}
	return changed
}
