package broadphase

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/hybridsim/internal/geom"
)

type cellKey struct {
	x, y, z int64
}

const (
	// maxCellIndex keeps cell coordinates exactly representable as float64
	// and far from int64 overflow.
	maxCellIndex = 1 << 52

	// MaxCellsPerItem caps how many cells one item is inserted into. Larger
	// bounds go to an overflow list that is tested against every item.
	MaxCellsPerItem = 4096
)

// SpatialHash buckets items into a uniform grid of cubic cells.
type SpatialHash[T comparable] struct {
	cellSize float64
}

func NewSpatialHash[T comparable](cellSize float64) (*SpatialHash[T], error) {
	if !geom.IsFinite(cellSize) || cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size must be finite and > 0, got %g", geom.ErrInvalidArgument, cellSize)
	}
	return &SpatialHash[T]{cellSize: cellSize}, nil
}

func (h *SpatialHash[T]) CellSize() float64 { return h.cellSize }

func (h *SpatialHash[T]) cell(v float64) int64 {
	c := math.Floor(v / h.cellSize)
	return int64(math.Max(-maxCellIndex, math.Min(maxCellIndex, c)))
}

// FindPotentialPairs inserts each item into every cell its bounds span and
// pairs items sharing a cell. A pair seen in several cells is emitted once.
// Items spanning more than MaxCellsPerItem cells are paired with everything.
func (h *SpatialHash[T]) FindPotentialPairs(items []T, bounds BoundsFunc[T]) []Pair[T] {
	items = uniqueItems(items)
	buckets := make(map[cellKey][]int)
	var overflow []int

	for i, it := range items {
		b := bounds(it)
		lo, hi := b.Min(), b.Max()
		x0, x1 := h.cell(lo[0]), h.cell(hi[0])
		y0, y1 := h.cell(lo[1]), h.cell(hi[1])
		z0, z1 := h.cell(lo[2]), h.cell(hi[2])
		span := float64(x1-x0+1) * float64(y1-y0+1) * float64(z1-z0+1)
		if math.IsNaN(span) || span > MaxCellsPerItem {
			overflow = append(overflow, i)
			continue
		}
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				for z := z0; z <= z1; z++ {
					k := cellKey{x, y, z}
					buckets[k] = append(buckets[k], i)
				}
			}
		}
	}

	seen := make(map[[2]int]struct{})
	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if a > b {
					a, b = b, a
				}
				seen[[2]int{a, b}] = struct{}{}
			}
		}
	}
	for _, o := range overflow {
		for i := range items {
			if i == o {
				continue
			}
			seen[[2]int{min(i, o), max(i, o)}] = struct{}{}
		}
	}

	return orderedPairs(items, seen)
}

func orderedPairs[T comparable](items []T, idx map[[2]int]struct{}) []Pair[T] {
	keys := make([][2]int, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	pairs := make([]Pair[T], len(keys))
	for i, k := range keys {
		pairs[i] = Pair[T]{a: items[k[0]], b: items[k[1]]}
	}
	return pairs
}
