package sim

import (
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/coupling"
)

// Transform is the published pose of one object.
type Transform struct {
	ID          string
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Mode        coupling.Mode
	Time        float64
}

// TransformStore is keyed by registry index. Not synchronized.
type TransformStore struct {
	byIndex map[int]Transform
}

func NewTransformStore() *TransformStore {
	return &TransformStore{byIndex: make(map[int]Transform)}
}

func (s *TransformStore) Set(index int, t Transform) { s.byIndex[index] = t }

func (s *TransformStore) Get(index int) (Transform, bool) {
	t, ok := s.byIndex[index]
	return t, ok
}

func (s *TransformStore) Delete(index int) { delete(s.byIndex, index) }

func (s *TransformStore) Len() int { return len(s.byIndex) }

// Indexes lists stored indexes in ascending order.
func (s *TransformStore) Indexes() []int { return slices.Sorted(maps.Keys(s.byIndex)) }
