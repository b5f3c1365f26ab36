package broadphase

import (
	"fmt"
	"sort"

	"github.com/san-kum/hybridsim/internal/geom"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// SweepAndPrune sorts intervals on one axis and reports pairs that overlap
// on all three. Bounds are closed: touching counts.
type SweepAndPrune[T comparable] struct {
	axis Axis
}

func NewSweepAndPrune[T comparable](axis Axis) (*SweepAndPrune[T], error) {
	if axis < AxisX || axis > AxisZ {
		return nil, fmt.Errorf("%w: unknown sweep axis %d", geom.ErrInvalidArgument, axis)
	}
	return &SweepAndPrune[T]{axis: axis}, nil
}

func (s *SweepAndPrune[T]) FindPotentialPairs(items []T, bounds BoundsFunc[T]) []Pair[T] {
	items = uniqueItems(items)
	boxes := make([]geom.Aabb, len(items))
	order := make([]int, len(items))
	for i, it := range items {
		boxes[i] = bounds(it)
		order[i] = i
	}

	ax := int(s.axis)
	sort.SliceStable(order, func(i, j int) bool {
		return boxes[order[i]].Min()[ax] < boxes[order[j]].Min()[ax]
	})

	found := make(map[[2]int]struct{})
	for i := 0; i < len(order); i++ {
		a := order[i]
		maxA := boxes[a].Max()[ax]
		for j := i + 1; j < len(order); j++ {
			b := order[j]
			if boxes[b].Min()[ax] > maxA {
				break
			}
			if !boxes[a].Overlaps(boxes[b]) {
				continue
			}
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			found[[2]int{lo, hi}] = struct{}{}
		}
	}

	return orderedPairs(items, found)
}
