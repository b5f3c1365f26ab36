package collision

import (
	"errors"
	"fmt"
)

var ErrInvalidFilter = errors.New("collision: invalid filter")

type Kind int

const (
	Solid Kind = iota
	Trigger
)

func (k Kind) String() string {
	switch k {
	case Solid:
		return "SOLID"
	case Trigger:
		return "TRIGGER"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// AllLayers is a mask that accepts every layer.
const AllLayers = ^uint32(0)

// Filter decides which bodies may collide. The layer must be non-zero.
type Filter struct {
	layer uint32
	mask  uint32
	kind  Kind
}

func NewFilter(layer, mask uint32, kind Kind) (Filter, error) {
	if layer == 0 {
		return Filter{}, fmt.Errorf("%w: layer bits must be non-zero", ErrInvalidFilter)
	}
	if kind != Solid && kind != Trigger {
		return Filter{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidFilter, int(kind))
	}
	return Filter{layer: layer, mask: mask, kind: kind}, nil
}

func MustFilter(layer, mask uint32, kind Kind) Filter {
	f, err := NewFilter(layer, mask, kind)
	if err != nil {
		panic(err)
	}
	return f
}

// DefaultFilter is layer 1, every mask bit, solid.
func DefaultFilter() Filter {
	return Filter{layer: 1, mask: AllLayers, kind: Solid}
}

func (f Filter) Layer() uint32 { return f.layer }
func (f Filter) Mask() uint32  { return f.mask }
func (f Filter) Kind() Kind    { return f.kind }

// CanInteract requires each layer to be accepted by the other's mask.
func (f Filter) CanInteract(o Filter) bool {
	return f.layer&o.mask != 0 && o.layer&f.mask != 0
}

// ResponseEnabledWith is CanInteract with both sides solid.
func (f Filter) ResponseEnabledWith(o Filter) bool {
	return f.CanInteract(o) && f.kind == Solid && o.kind == Solid
}

// FilterProvider looks up an item's filter. Items without one use
// DefaultFilter.
type FilterProvider[T any] func(item T) (Filter, bool)

func (p FilterProvider[T]) resolve(item T) Filter {
	if p == nil {
		return DefaultFilter()
	}
	if f, ok := p(item); ok {
		return f
	}
	return DefaultFilter()
}
