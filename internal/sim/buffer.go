package sim

import (
	"sync"

	"github.com/san-kum/hybridsim/internal/physics"
)

// RigidStateBuffer holds the latest rigid-world state per object id. It
// is written by the simulation goroutine and may be read concurrently.
type RigidStateBuffer struct {
	m sync.Map
}

func (b *RigidStateBuffer) Store(id string, s physics.BodyState) { b.m.Store(id, s) }

func (b *RigidStateBuffer) Load(id string) (physics.BodyState, bool) {
	v, ok := b.m.Load(id)
	if !ok {
		return physics.BodyState{}, false
	}
	return v.(physics.BodyState), true
}

func (b *RigidStateBuffer) Delete(id string) { b.m.Delete(id) }

// Range calls fn for each entry until fn returns false. Order is
// unspecified.
func (b *RigidStateBuffer) Range(fn func(id string, s physics.BodyState) bool) {
	b.m.Range(func(k, v any) bool {
		return fn(k.(string), v.(physics.BodyState))
	})
}

func (b *RigidStateBuffer) Len() int {
	n := 0
	b.m.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
