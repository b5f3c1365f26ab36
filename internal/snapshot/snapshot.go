// Package snapshot captures the state of both simulation subsystems at a
// tick boundary, records snapshots in order and serializes them to a
// compact binary form.
package snapshot

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/physics"
)

var ErrInvalidArgument = errors.New("snapshot: invalid argument")

// Handle identifies an entity inside a snapshot.
type Handle uint64

// HybridSnapshot is immutable. Maps passed in or handed out are copies.
type HybridSnapshot struct {
	time          float64
	alpha         float64
	extrapolation float64
	general       map[Handle]physics.BodyState
	orbital       map[Handle]physics.BodyState
}

// New validates the scalar fields and every state. alpha must lie in
// [0,1]; time and extrapolation must be finite and non-negative.
func New(time, alpha, extrapolation float64, general, orbital map[Handle]physics.BodyState) (HybridSnapshot, error) {
	switch {
	case !geom.IsFinite(time) || time < 0:
		return HybridSnapshot{}, fmt.Errorf("%w: time must be finite and >= 0, got %g", ErrInvalidArgument, time)
	case !geom.IsFinite(alpha) || alpha < 0 || alpha > 1:
		return HybridSnapshot{}, fmt.Errorf("%w: alpha must be in [0,1], got %g", ErrInvalidArgument, alpha)
	case !geom.IsFinite(extrapolation) || extrapolation < 0:
		return HybridSnapshot{}, fmt.Errorf("%w: extrapolation must be finite and >= 0, got %g", ErrInvalidArgument, extrapolation)
	}
	if err := checkStates("general", general); err != nil {
		return HybridSnapshot{}, err
	}
	if err := checkStates("orbital", orbital); err != nil {
		return HybridSnapshot{}, err
	}
	return HybridSnapshot{
		time:          time,
		alpha:         alpha,
		extrapolation: extrapolation,
		general:       cloneStates(general),
		orbital:       cloneStates(orbital),
	}, nil
}

func MustNew(time, alpha, extrapolation float64, general, orbital map[Handle]physics.BodyState) HybridSnapshot {
	s, err := New(time, alpha, extrapolation, general, orbital)
	if err != nil {
		panic(err)
	}
	return s
}

func checkStates(name string, m map[Handle]physics.BodyState) error {
	for h, s := range m {
		if s.IsZero() {
			return fmt.Errorf("%w: %s state for handle %d is unset", ErrInvalidArgument, name, h)
		}
	}
	return nil
}

func cloneStates(m map[Handle]physics.BodyState) map[Handle]physics.BodyState {
	if m == nil {
		return map[Handle]physics.BodyState{}
	}
	return maps.Clone(m)
}

func (s HybridSnapshot) Time() float64          { return s.time }
func (s HybridSnapshot) Alpha() float64         { return s.alpha }
func (s HybridSnapshot) Extrapolation() float64 { return s.extrapolation }

func (s HybridSnapshot) General() map[Handle]physics.BodyState { return cloneStates(s.general) }
func (s HybridSnapshot) Orbital() map[Handle]physics.BodyState { return cloneStates(s.orbital) }

func (s HybridSnapshot) GeneralState(h Handle) (physics.BodyState, bool) {
	st, ok := s.general[h]
	return st, ok
}

func (s HybridSnapshot) OrbitalState(h Handle) (physics.BodyState, bool) {
	st, ok := s.orbital[h]
	return st, ok
}

// Handles lists every handle present in either map, ascending.
func (s HybridSnapshot) Handles() []Handle {
	seen := make(map[Handle]struct{}, len(s.general)+len(s.orbital))
	for h := range s.general {
		seen[h] = struct{}{}
	}
	for h := range s.orbital {
		seen[h] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Equal compares every field exactly.
func (s HybridSnapshot) Equal(o HybridSnapshot) bool {
	return s.time == o.time &&
		s.alpha == o.alpha &&
		s.extrapolation == o.extrapolation &&
		maps.Equal(s.general, o.general) &&
		maps.Equal(s.orbital, o.orbital)
}

func (s HybridSnapshot) String() string {
	return fmt.Sprintf("snapshot(t=%.4f alpha=%.3f general=%d orbital=%d)", s.time, s.alpha, len(s.general), len(s.orbital))
}
