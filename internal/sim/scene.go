package sim

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/hybridsim/internal/physics"
)

// ApplyFunc pushes one body state onto an externally owned node.
type ApplyFunc[N any] func(node N, s physics.BodyState) error

// SceneSync binds body handles to presentation nodes. A binding is
// independent of the body: removing a body does not unbind it.
type SceneSync[N any] struct {
	apply ApplyFunc[N]
	nodes map[physics.BodyHandle]N
}

func NewSceneSync[N any](apply ApplyFunc[N]) (*SceneSync[N], error) {
	if apply == nil {
		return nil, fmt.Errorf("%w: nil apply function", ErrInvalidArgument)
	}
	return &SceneSync[N]{apply: apply, nodes: make(map[physics.BodyHandle]N)}, nil
}

// Bind replaces any existing binding for h.
func (s *SceneSync[N]) Bind(h physics.BodyHandle, node N) { s.nodes[h] = node }

func (s *SceneSync[N]) Unbind(h physics.BodyHandle) bool {
	if _, ok := s.nodes[h]; !ok {
		return false
	}
	delete(s.nodes, h)
	return true
}

func (s *SceneSync[N]) Node(h physics.BodyHandle) (N, bool) {
	n, ok := s.nodes[h]
	return n, ok
}

func (s *SceneSync[N]) Len() int { return len(s.nodes) }

// ApplyFrame pushes the state of every bound handle present in frame, in
// ascending handle order, and returns how many were applied. Handles in
// frame without a binding are skipped.
func (s *SceneSync[N]) ApplyFrame(frame map[physics.BodyHandle]physics.BodyState) (int, error) {
	applied := 0
	for _, h := range slices.Sorted(maps.Keys(s.nodes)) {
		st, ok := frame[h]
		if !ok {
			continue
		}
		if err := s.apply(s.nodes[h], st); err != nil {
			return applied, fmt.Errorf("apply body %d: %w", h, err)
		}
		applied++
	}
	return applied, nil
}
