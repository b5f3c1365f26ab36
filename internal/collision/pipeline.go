package collision

import (
	"fmt"

	"github.com/san-kum/hybridsim/internal/broadphase"
	"github.com/san-kum/hybridsim/internal/narrowphase"
)

// FilteredPair is a candidate pair that passed layer filtering.
type FilteredPair[T comparable] struct {
	broadphase.Pair[T]
	ResponseEnabled bool
}

// FilterPairs drops pairs whose filters cannot interact and tags the rest
// with their response flag. Input order is kept.
func FilterPairs[T comparable](pairs []broadphase.Pair[T], filters FilterProvider[T]) []FilteredPair[T] {
	out := make([]FilteredPair[T], 0, len(pairs))
	for _, p := range pairs {
		fa, fb := filters.resolve(p.A()), filters.resolve(p.B())
		if !fa.CanInteract(fb) {
			continue
		}
		out = append(out, FilteredPair[T]{Pair: p, ResponseEnabled: fa.ResponseEnabledWith(fb)})
	}
	return out
}

// Predicate is an exact intersection test.
type Predicate[T any] func(a, b T) bool

// FindCollisions keeps the pairs the predicate confirms.
func FindCollisions[T comparable](pairs []FilteredPair[T], intersects Predicate[T]) []FilteredPair[T] {
	out := make([]FilteredPair[T], 0, len(pairs))
	for _, p := range pairs {
		if intersects(p.A(), p.B()) {
			out = append(out, p)
		}
	}
	return out
}

// ManifoldFunc computes the contact between a and b, with the normal
// pointing from a to b.
type ManifoldFunc[T any] func(a, b T) (narrowphase.ContactManifold, bool)

// Contact is a confirmed collision with its manifold.
type Contact[T comparable] struct {
	FilteredPair[T]
	Manifold narrowphase.ContactManifold
}

// Pipeline runs broad-phase, filtering and manifold generation.
type Pipeline[T comparable] struct {
	broad    broadphase.BroadPhase[T]
	bounds   broadphase.BoundsFunc[T]
	filters  FilterProvider[T]
	manifold ManifoldFunc[T]
}

// NewPipeline builds a pipeline. filters may be nil, in which case every
// item uses DefaultFilter.
func NewPipeline[T comparable](broad broadphase.BroadPhase[T], bounds broadphase.BoundsFunc[T], filters FilterProvider[T], manifold ManifoldFunc[T]) (*Pipeline[T], error) {
	if broad == nil {
		return nil, fmt.Errorf("%w: broad-phase is required", ErrInvalidFilter)
	}
	if bounds == nil {
		return nil, fmt.Errorf("%w: bounds function is required", ErrInvalidFilter)
	}
	if manifold == nil {
		return nil, fmt.Errorf("%w: manifold function is required", ErrInvalidFilter)
	}
	return &Pipeline[T]{broad: broad, bounds: bounds, filters: filters, manifold: manifold}, nil
}

// Candidates returns the filtered broad-phase pairs without running the
// narrow phase.
func (p *Pipeline[T]) Candidates(items []T) []FilteredPair[T] {
	return FilterPairs(p.broad.FindPotentialPairs(items, p.bounds), p.filters)
}

// Detect returns every filtered pair whose manifold function reports a
// contact, in broad-phase order.
func (p *Pipeline[T]) Detect(items []T) []Contact[T] {
	candidates := p.Candidates(items)
	out := make([]Contact[T], 0, len(candidates))
	for _, c := range candidates {
		m, ok := p.manifold(c.A(), c.B())
		if !ok {
			continue
		}
		out = append(out, Contact[T]{FilteredPair: c, Manifold: m})
	}
	return out
}
