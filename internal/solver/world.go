package solver

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/collision"
	"github.com/san-kum/hybridsim/internal/geom"
)

// EventListener receives collision events after each step. A returned
// error aborts Step and is returned to its caller.
type EventListener[T comparable] func(e collision.Event[T]) error

// World owns gravity, constraints, and the collision pipeline for a set of
// caller-owned bodies.
type World[T comparable] struct {
	adapter     RigidBodyAdapter[T]
	gravity     mgl64.Vec3
	iterations  int
	bodies      []T
	constraints []Constraint[T]

	pipeline  *collision.Pipeline[T]
	response  ResponseFunc[T]
	tracker   *collision.EventTracker[T]
	listeners []EventListener[T]
	contacts  []collision.Contact[T]

	previous []mgl64.Vec3
}

func NewWorld[T comparable](adapter RigidBodyAdapter[T], gravity mgl64.Vec3, iterations int) (*World[T], error) {
	if adapter == nil {
		return nil, fmt.Errorf("%w: adapter is required", ErrInvalidArgument)
	}
	w := &World[T]{adapter: adapter, tracker: collision.NewEventTracker[T]()}
	if err := w.SetGravity(gravity); err != nil {
		return nil, err
	}
	if err := w.SetIterations(iterations); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World[T]) Gravity() mgl64.Vec3 { return w.gravity }

func (w *World[T]) SetGravity(g mgl64.Vec3) error {
	if !geom.IsFiniteVec(g) {
		return fmt.Errorf("%w: gravity must be finite, got %v", ErrInvalidArgument, g)
	}
	w.gravity = g
	return nil
}

func (w *World[T]) Iterations() int { return w.iterations }

func (w *World[T]) SetIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: iterations must be >= 1, got %d", ErrInvalidArgument, n)
	}
	w.iterations = n
	return nil
}

// SetPipeline installs the collision pipeline. nil disables collisions.
func (w *World[T]) SetPipeline(p *collision.Pipeline[T]) {
	w.pipeline = p
	w.tracker.Reset()
	w.contacts = nil
}

// SetResponse installs the hook run for response-enabled contacts. nil
// leaves contacts unresolved; events are still emitted.
func (w *World[T]) SetResponse(fn ResponseFunc[T]) { w.response = fn }

func (w *World[T]) AddEventListener(l EventListener[T]) {
	w.listeners = append(w.listeners, l)
}

// AddBody registers a body. Adding a body twice is a no-op.
func (w *World[T]) AddBody(body T) {
	if slices.Contains(w.bodies, body) {
		return
	}
	w.bodies = append(w.bodies, body)
}

// RemoveBody unregisters a body and every constraint that references it.
func (w *World[T]) RemoveBody(body T) bool {
	i := slices.Index(w.bodies, body)
	if i < 0 {
		return false
	}
	w.bodies = slices.Delete(w.bodies, i, i+1)
	w.constraints = slices.DeleteFunc(w.constraints, func(c Constraint[T]) bool {
		return slices.Contains(c.Bodies(), body)
	})
	return true
}

func (w *World[T]) Bodies() []T { return slices.Clone(w.bodies) }

func (w *World[T]) AddConstraint(c Constraint[T]) error {
	if c == nil {
		return fmt.Errorf("%w: nil constraint", ErrInvalidArgument)
	}
	w.constraints = append(w.constraints, c)
	return nil
}

func (w *World[T]) RemoveConstraint(c Constraint[T]) bool {
	i := slices.Index(w.constraints, c)
	if i < 0 {
		return false
	}
	w.constraints = slices.Delete(w.constraints, i, i+1)
	return true
}

func (w *World[T]) Constraints() []Constraint[T] { return slices.Clone(w.constraints) }

// Contacts returns the contacts found by the last Step.
func (w *World[T]) Contacts() []collision.Contact[T] { return slices.Clone(w.contacts) }

// ConstraintError is the largest remaining violation over all constraints.
func (w *World[T]) ConstraintError() float64 {
	worst := 0.0
	for _, c := range w.constraints {
		worst = max(worst, c.Error(w.adapter))
	}
	return worst
}

// Step advances the world by dt seconds.
func (w *World[T]) Step(dt float64) error {
	if !geom.IsFinite(dt) || dt <= 0 {
		return fmt.Errorf("%w: dt must be finite and > 0, got %g", ErrInvalidArgument, dt)
	}

	w.previous = w.previous[:0]
	for _, b := range w.bodies {
		p := w.adapter.Position(b)
		w.previous = append(w.previous, p)
		if w.adapter.InverseMass(b) == 0 {
			continue
		}
		v := w.adapter.Velocity(b).Add(w.gravity.Mul(dt))
		w.adapter.SetVelocity(b, v)
		w.adapter.SetPosition(b, p.Add(v.Mul(dt)))
	}

	if len(w.constraints) > 0 {
		for i := 0; i < w.iterations; i++ {
			for _, c := range w.constraints {
				c.Solve(w.adapter)
			}
		}
		for i, b := range w.bodies {
			if w.adapter.InverseMass(b) == 0 {
				continue
			}
			w.adapter.SetVelocity(b, w.adapter.Position(b).Sub(w.previous[i]).Mul(1/dt))
		}
	}

	return w.collide()
}

func (w *World[T]) collide() error {
	if w.pipeline == nil {
		return nil
	}

	w.contacts = w.pipeline.Detect(w.bodies)
	if w.response != nil {
		for _, c := range w.contacts {
			if c.ResponseEnabled {
				w.response(w.adapter, c)
			}
		}
	}

	events := w.tracker.Update(w.contacts)
	for _, e := range events {
		for _, l := range w.listeners {
			if err := l(e); err != nil {
				return fmt.Errorf("collision listener: %w", err)
			}
		}
	}
	return nil
}
