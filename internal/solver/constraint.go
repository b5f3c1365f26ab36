package solver

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

const minSeparation = 1e-12

// Constraint corrects body positions toward a target configuration.
type Constraint[T any] interface {
	Bodies() []T
	// Solve applies one positional correction pass.
	Solve(adapter RigidBodyAdapter[T])
	// Error is the remaining violation in world units.
	Error(adapter RigidBodyAdapter[T]) float64
}

// DistanceConstraint keeps two bodies at a rest separation.
type DistanceConstraint[T any] struct {
	a, b      T
	rest      float64
	stiffness float64
}

// NewDistanceConstraint takes a rest length >= 0 and a stiffness in (0, 1].
// Stiffness 1 removes the whole violation in one unobstructed solve.
func NewDistanceConstraint[T any](a, b T, rest, stiffness float64) (*DistanceConstraint[T], error) {
	if !geom.IsFinite(rest) || rest < 0 {
		return nil, fmt.Errorf("%w: rest length must be finite and >= 0, got %g", ErrInvalidArgument, rest)
	}
	if err := checkStiffness(stiffness); err != nil {
		return nil, err
	}
	return &DistanceConstraint[T]{a: a, b: b, rest: rest, stiffness: stiffness}, nil
}

func (c *DistanceConstraint[T]) Bodies() []T         { return []T{c.a, c.b} }
func (c *DistanceConstraint[T]) RestLength() float64 { return c.rest }

func (c *DistanceConstraint[T]) Solve(adapter RigidBodyAdapter[T]) {
	wa, wb := adapter.InverseMass(c.a), adapter.InverseMass(c.b)
	w := wa + wb
	if w == 0 {
		return
	}

	pa, pb := adapter.Position(c.a), adapter.Position(c.b)
	delta := pb.Sub(pa)
	dist := delta.Len()
	if dist < minSeparation {
		return
	}

	corr := delta.Mul((dist - c.rest) / dist * c.stiffness)
	if wa > 0 {
		adapter.SetPosition(c.a, pa.Add(corr.Mul(wa/w)))
	}
	if wb > 0 {
		adapter.SetPosition(c.b, pb.Sub(corr.Mul(wb/w)))
	}
}

func (c *DistanceConstraint[T]) Error(adapter RigidBodyAdapter[T]) float64 {
	return math.Abs(adapter.Position(c.b).Sub(adapter.Position(c.a)).Len() - c.rest)
}

// PointConstraint pins a body to a fixed world point.
type PointConstraint[T any] struct {
	body      T
	anchor    mgl64.Vec3
	stiffness float64
}

func NewPointConstraint[T any](body T, anchor mgl64.Vec3, stiffness float64) (*PointConstraint[T], error) {
	if !geom.IsFiniteVec(anchor) {
		return nil, fmt.Errorf("%w: anchor must be finite", ErrInvalidArgument)
	}
	if err := checkStiffness(stiffness); err != nil {
		return nil, err
	}
	return &PointConstraint[T]{body: body, anchor: anchor, stiffness: stiffness}, nil
}

func (c *PointConstraint[T]) Bodies() []T        { return []T{c.body} }
func (c *PointConstraint[T]) Anchor() mgl64.Vec3 { return c.anchor }

func (c *PointConstraint[T]) Solve(adapter RigidBodyAdapter[T]) {
	if adapter.InverseMass(c.body) == 0 {
		return
	}
	p := adapter.Position(c.body)
	adapter.SetPosition(c.body, p.Add(c.anchor.Sub(p).Mul(c.stiffness)))
}

func (c *PointConstraint[T]) Error(adapter RigidBodyAdapter[T]) float64 {
	return adapter.Position(c.body).Sub(c.anchor).Len()
}

func checkStiffness(k float64) error {
	if !geom.IsFinite(k) || k <= 0 || k > 1 {
		return fmt.Errorf("%w: stiffness must be in (0, 1], got %g", ErrInvalidArgument, k)
	}
	return nil
}
