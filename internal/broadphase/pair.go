package broadphase

import (
	"errors"
	"fmt"
	"hash/maphash"
	"reflect"

	"github.com/san-kum/hybridsim/internal/geom"
)

var ErrInvalidPair = errors.New("broadphase: invalid pair")

// Pair is an unordered pair of two distinct items. == and map keys see
// orientation; use Equal or Key to ignore it.
type Pair[T comparable] struct {
	a T
	b T
}

// NewPair rejects identical and nil items.
func NewPair[T comparable](a, b T) (Pair[T], error) {
	if isNil(a) || isNil(b) {
		return Pair[T]{}, fmt.Errorf("%w: nil item", ErrInvalidPair)
	}
	if a == b {
		return Pair[T]{}, fmt.Errorf("%w: item paired with itself", ErrInvalidPair)
	}
	return Pair[T]{a: a, b: b}, nil
}

func MustPair[T comparable](a, b T) Pair[T] {
	p, err := NewPair(a, b)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pair[T]) A() T { return p.a }
func (p Pair[T]) B() T { return p.b }

func (p Pair[T]) Reversed() Pair[T] { return Pair[T]{a: p.b, b: p.a} }

func (p Pair[T]) Equal(o Pair[T]) bool {
	return (p.a == o.a && p.b == o.b) || (p.a == o.b && p.b == o.a)
}

// PairKey is the orientation-free form of a Pair, usable with == and as a
// map key.
type PairKey[T comparable] struct {
	lo, hi T
}

var (
	pairSeed    = maphash.MakeSeed()
	pairTieSeed = maphash.MakeSeed()
)

// Key orders the two items by hash so that a pair and its reverse share a
// key. Colliding hashes fall back to a second seed.
func (p Pair[T]) Key() PairKey[T] {
	a, b := p.a, p.b
	ha, hb := maphash.Comparable(pairSeed, a), maphash.Comparable(pairSeed, b)
	if ha == hb {
		ha, hb = maphash.Comparable(pairTieSeed, a), maphash.Comparable(pairTieSeed, b)
	}
	if ha > hb {
		a, b = b, a
	}
	return PairKey[T]{lo: a, hi: b}
}

func (k PairKey[T]) Pair() Pair[T] { return Pair[T]{a: k.lo, b: k.hi} }

func (p Pair[T]) Contains(x T) bool { return p.a == x || p.b == x }

// Other returns the partner of x.
func (p Pair[T]) Other(x T) (T, bool) {
	switch x {
	case p.a:
		return p.b, true
	case p.b:
		return p.a, true
	}
	var zero T
	return zero, false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// PairSet is an insertion-ordered set of unordered pairs.
type PairSet[T comparable] struct {
	index map[PairKey[T]]int
	pairs []Pair[T]
}

func NewPairSet[T comparable]() *PairSet[T] {
	return &PairSet[T]{index: make(map[PairKey[T]]int)}
}

// Add inserts p unless it, or its reverse, is already present.
func (s *PairSet[T]) Add(p Pair[T]) bool {
	if s.Contains(p) {
		return false
	}
	s.index[p.Key()] = len(s.pairs)
	s.pairs = append(s.pairs, p)
	return true
}

func (s *PairSet[T]) Contains(p Pair[T]) bool {
	_, ok := s.index[p.Key()]
	return ok
}

func (s *PairSet[T]) Len() int { return len(s.pairs) }

func (s *PairSet[T]) Pairs() []Pair[T] {
	out := make([]Pair[T], len(s.pairs))
	copy(out, s.pairs)
	return out
}

// BoundsFunc returns the current bounds of an item.
type BoundsFunc[T any] func(item T) geom.Aabb

// BroadPhase returns every pair whose bounds may overlap.
type BroadPhase[T comparable] interface {
	FindPotentialPairs(items []T, bounds BoundsFunc[T]) []Pair[T]
}

// uniqueItems drops repeated occurrences of the same item, keeping the first.
func uniqueItems[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if isNil(it) {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
