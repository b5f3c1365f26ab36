// Package orbital evaluates scripted trajectories for objects that live
// in the orbital representation.
//
// A [Trajectory] is a pure function of simulation time. The [Engine] only
// stores trajectories by object id and evaluates them on demand.
package orbital

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/physics"
)

var ErrInvalidArgument = errors.New("orbital: invalid argument")

// State is one evaluation of a trajectory.
type State struct {
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
	Orientation mgl64.Quat
	Frame       physics.Frame
	Time        float64
}

func (s State) Validate() error {
	switch {
	case !geom.IsFiniteVec(s.Position):
		return fmt.Errorf("%w: position %v is not finite", ErrInvalidArgument, s.Position)
	case !geom.IsFiniteVec(s.Velocity):
		return fmt.Errorf("%w: velocity %v is not finite", ErrInvalidArgument, s.Velocity)
	case !geom.IsFiniteQuat(s.Orientation) || s.Orientation.Len() == 0:
		return fmt.Errorf("%w: orientation %v must be finite and non-zero", ErrInvalidArgument, s.Orientation)
	case !s.Frame.Valid():
		return fmt.Errorf("%w: unknown frame %d", ErrInvalidArgument, int(s.Frame))
	case !geom.IsFinite(s.Time) || s.Time < 0:
		return fmt.Errorf("%w: time must be finite and >= 0, got %g", ErrInvalidArgument, s.Time)
	}
	return nil
}

// BodyState converts s to a rigid-body state with no spin.
func (s State) BodyState() (physics.BodyState, error) {
	return physics.NewBodyState(s.Position, s.Orientation, s.Velocity, mgl64.Vec3{}, s.Frame, s.Time)
}

// Trajectory maps simulation time to a state tagged with frame.
type Trajectory func(t float64, frame physics.Frame) State

// Engine is not safe for concurrent use.
type Engine struct {
	tracks map[string]Trajectory
	order  []string
}

func NewEngine() *Engine {
	return &Engine{tracks: make(map[string]Trajectory)}
}

// Register sets the trajectory for id, replacing any previous one.
func (e *Engine) Register(id string, tr Trajectory) error {
	if id == "" {
		return fmt.Errorf("%w: empty object id", ErrInvalidArgument)
	}
	if tr == nil {
		return fmt.Errorf("%w: nil trajectory for %q", ErrInvalidArgument, id)
	}
	if _, ok := e.tracks[id]; !ok {
		e.order = append(e.order, id)
	}
	e.tracks[id] = tr
	return nil
}

func (e *Engine) Remove(id string) bool {
	if _, ok := e.tracks[id]; !ok {
		return false
	}
	delete(e.tracks, id)
	e.order = slices.DeleteFunc(e.order, func(x string) bool { return x == id })
	return true
}

func (e *Engine) Has(id string) bool {
	_, ok := e.tracks[id]
	return ok
}

// IDs lists registered objects in registration order.
func (e *Engine) IDs() []string { return slices.Clone(e.order) }

// Evaluate reports false for an unknown id and an error when the
// trajectory produces an invalid state.
func (e *Engine) Evaluate(id string, t float64, frame physics.Frame) (State, bool, error) {
	tr, ok := e.tracks[id]
	if !ok {
		return State{}, false, nil
	}
	s := tr(t, frame)
	if err := s.Validate(); err != nil {
		return State{}, true, fmt.Errorf("trajectory %q at t=%.4f: %w", id, t, err)
	}
	return s, true, nil
}

// EvaluateAll evaluates every trajectory at t.
func (e *Engine) EvaluateAll(t float64, frame physics.Frame) (map[string]State, error) {
	out := make(map[string]State, len(e.order))
	for _, id := range e.order {
		s, _, err := e.Evaluate(id, t, frame)
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}
