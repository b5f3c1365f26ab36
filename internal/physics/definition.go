package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/collision"
	"github.com/san-kum/hybridsim/internal/geom"
)

type BodyType int

const (
	Static BodyType = iota
	Kinematic
	Dynamic
)

var bodyTypeNames = map[BodyType]string{
	Static:    "STATIC",
	Kinematic: "KINEMATIC",
	Dynamic:   "DYNAMIC",
}

func (t BodyType) String() string {
	if s, ok := bodyTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

func ParseBodyType(s string) (BodyType, error) {
	for t, name := range bodyTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown body type %q", ErrInvalidArgument, s)
}

type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is a collision shape centred on the body origin.
type Shape interface {
	Kind() ShapeKind
	// LocalHalfExtents bounds the shape in its own frame.
	LocalHalfExtents() mgl64.Vec3
}

type Box struct{ half mgl64.Vec3 }

func NewBox(hx, hy, hz float64) (Box, error) {
	for _, v := range []float64{hx, hy, hz} {
		if !positive(v) {
			return Box{}, fmt.Errorf("%w: box half extents must be positive and finite, got (%g, %g, %g)", ErrInvalidArgument, hx, hy, hz)
		}
	}
	return Box{half: mgl64.Vec3{hx, hy, hz}}, nil
}

func (b Box) Kind() ShapeKind              { return ShapeBox }
func (b Box) LocalHalfExtents() mgl64.Vec3 { return b.half }

type Sphere struct{ radius float64 }

func NewSphere(radius float64) (Sphere, error) {
	if !positive(radius) {
		return Sphere{}, fmt.Errorf("%w: sphere radius must be positive and finite, got %g", ErrInvalidArgument, radius)
	}
	return Sphere{radius: radius}, nil
}

func (s Sphere) Kind() ShapeKind              { return ShapeSphere }
func (s Sphere) Radius() float64              { return s.radius }
func (s Sphere) LocalHalfExtents() mgl64.Vec3 { return mgl64.Vec3{s.radius, s.radius, s.radius} }

// Capsule is a segment along the local Y axis swept by a radius.
type Capsule struct {
	radius     float64
	halfHeight float64
}

func NewCapsule(radius, halfHeight float64) (Capsule, error) {
	if !positive(radius) || !positive(halfHeight) {
		return Capsule{}, fmt.Errorf("%w: capsule radius and half height must be positive and finite, got %g, %g", ErrInvalidArgument, radius, halfHeight)
	}
	return Capsule{radius: radius, halfHeight: halfHeight}, nil
}

func (c Capsule) Kind() ShapeKind     { return ShapeCapsule }
func (c Capsule) Radius() float64     { return c.radius }
func (c Capsule) HalfHeight() float64 { return c.halfHeight }

func (c Capsule) LocalHalfExtents() mgl64.Vec3 {
	return mgl64.Vec3{c.radius, c.halfHeight + c.radius, c.radius}
}

// WorldBounds is the axis-aligned box enclosing shape at the given state.
func WorldBounds(shape Shape, s BodyState) geom.Aabb {
	half := shape.LocalHalfExtents()
	if shape.Kind() != ShapeSphere {
		q := s.Orientation().Normalize()
		var world mgl64.Vec3
		for i, axis := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			c := q.Rotate(axis)
			for k := 0; k < 3; k++ {
				world[k] += math.Abs(c[k]) * half[i]
			}
		}
		half = world
	}
	b, err := geom.AabbFromCenter(s.Position(), half)
	if err != nil {
		panic(err)
	}
	return b
}

// BodyDefinition describes a body to create. Build one with
// NewBodyDefinition.
type BodyDefinition struct {
	bodyType BodyType
	mass     float64
	shape    Shape
	initial  BodyState
	filter   collision.Filter
	filtered bool
}

// NewBodyDefinition requires mass > 0 for dynamic bodies and mass >= 0
// otherwise.
func NewBodyDefinition(t BodyType, mass float64, shape Shape, initial BodyState) (BodyDefinition, error) {
	if _, ok := bodyTypeNames[t]; !ok {
		return BodyDefinition{}, fmt.Errorf("%w: unknown body type %d", ErrInvalidArgument, int(t))
	}
	if !geom.IsFinite(mass) || mass < 0 || (t == Dynamic && mass == 0) {
		return BodyDefinition{}, fmt.Errorf("%w: invalid mass %g for %s body", ErrInvalidArgument, mass, t)
	}
	if shape == nil {
		return BodyDefinition{}, fmt.Errorf("%w: shape is required", ErrInvalidArgument)
	}
	if initial.IsZero() {
		return BodyDefinition{}, fmt.Errorf("%w: initial state is required", ErrInvalidArgument)
	}
	return BodyDefinition{bodyType: t, mass: mass, shape: shape, initial: initial}, nil
}

func MustBodyDefinition(t BodyType, mass float64, shape Shape, initial BodyState) BodyDefinition {
	d, err := NewBodyDefinition(t, mass, shape, initial)
	if err != nil {
		panic(err)
	}
	return d
}

// WithFilter returns a copy using f for collision filtering. Bodies
// without one use collision.DefaultFilter.
func (d BodyDefinition) WithFilter(f collision.Filter) BodyDefinition {
	d.filter = f
	d.filtered = true
	return d
}

func (d BodyDefinition) Type() BodyType          { return d.bodyType }
func (d BodyDefinition) Mass() float64           { return d.mass }
func (d BodyDefinition) Shape() Shape            { return d.shape }
func (d BodyDefinition) InitialState() BodyState { return d.initial }

func (d BodyDefinition) Filter() (collision.Filter, bool) {
	return d.filter, d.filtered
}

// InverseMass is 0 for anything that is not dynamic.
func (d BodyDefinition) InverseMass() float64 {
	if d.bodyType != Dynamic {
		return 0
	}
	return 1 / d.mass
}

// RuntimeTuning holds solver parameters that can change between steps.
type RuntimeTuning struct {
	SolverIterations int     `yaml:"solver_iterations" json:"solver_iterations"`
	Friction         float64 `yaml:"friction" json:"friction"`
	Bounce           float64 `yaml:"bounce" json:"bounce"`
	SoftCFM          float64 `yaml:"soft_cfm" json:"soft_cfm"`
	BounceVelocity   float64 `yaml:"bounce_velocity" json:"bounce_velocity"`
}

func DefaultTuning() RuntimeTuning {
	return RuntimeTuning{
		SolverIterations: 10,
		Friction:         0.5,
		Bounce:           0,
		SoftCFM:          1e-5,
		BounceVelocity:   0.1,
	}
}

// Validate accepts an infinite friction, meaning no sliding.
func (t RuntimeTuning) Validate() error {
	switch {
	case t.SolverIterations < 1:
		return fmt.Errorf("%w: solver iterations must be >= 1, got %d", ErrInvalidArgument, t.SolverIterations)
	case math.IsNaN(t.Friction) || t.Friction < 0:
		return fmt.Errorf("%w: friction must be >= 0, got %g", ErrInvalidArgument, t.Friction)
	case !geom.IsFinite(t.Bounce) || t.Bounce < 0 || t.Bounce > 1:
		return fmt.Errorf("%w: bounce must be in [0,1], got %g", ErrInvalidArgument, t.Bounce)
	case !geom.IsFinite(t.SoftCFM) || t.SoftCFM < 0:
		return fmt.Errorf("%w: soft CFM must be finite and >= 0, got %g", ErrInvalidArgument, t.SoftCFM)
	case !geom.IsFinite(t.BounceVelocity) || t.BounceVelocity < 0:
		return fmt.Errorf("%w: bounce velocity must be finite and >= 0, got %g", ErrInvalidArgument, t.BounceVelocity)
	}
	return nil
}

type ConstraintKind int

const (
	DistanceJoint ConstraintKind = iota
	PointJoint
)

func (k ConstraintKind) String() string {
	switch k {
	case DistanceJoint:
		return "distance"
	case PointJoint:
		return "point"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", int(k))
	}
}

// ConstraintDefinition describes a joint between a body and another body
// or a fixed anchor.
type ConstraintDefinition struct {
	kind       ConstraintKind
	bodyA      BodyHandle
	bodyB      BodyHandle
	anchor     mgl64.Vec3
	restLength float64
	stiffness  float64
}

func NewDistanceJoint(a, b BodyHandle, restLength, stiffness float64) (ConstraintDefinition, error) {
	if a == b {
		return ConstraintDefinition{}, fmt.Errorf("%w: distance joint needs two distinct bodies", ErrInvalidArgument)
	}
	if !geom.IsFinite(restLength) || restLength < 0 {
		return ConstraintDefinition{}, fmt.Errorf("%w: rest length must be finite and >= 0, got %g", ErrInvalidArgument, restLength)
	}
	if err := checkStiffness(stiffness); err != nil {
		return ConstraintDefinition{}, err
	}
	return ConstraintDefinition{kind: DistanceJoint, bodyA: a, bodyB: b, restLength: restLength, stiffness: stiffness}, nil
}

func NewPointJoint(body BodyHandle, anchor mgl64.Vec3, stiffness float64) (ConstraintDefinition, error) {
	if !geom.IsFiniteVec(anchor) {
		return ConstraintDefinition{}, fmt.Errorf("%w: anchor %v is not finite", ErrInvalidArgument, anchor)
	}
	if err := checkStiffness(stiffness); err != nil {
		return ConstraintDefinition{}, err
	}
	return ConstraintDefinition{kind: PointJoint, bodyA: body, anchor: anchor, stiffness: stiffness}, nil
}

func (c ConstraintDefinition) Kind() ConstraintKind { return c.kind }
func (c ConstraintDefinition) BodyA() BodyHandle    { return c.bodyA }
func (c ConstraintDefinition) BodyB() BodyHandle    { return c.bodyB }
func (c ConstraintDefinition) Anchor() mgl64.Vec3   { return c.anchor }
func (c ConstraintDefinition) RestLength() float64  { return c.restLength }
func (c ConstraintDefinition) Stiffness() float64   { return c.stiffness }

func checkStiffness(k float64) error {
	if !geom.IsFinite(k) || k <= 0 || k > 1 {
		return fmt.Errorf("%w: stiffness must be in (0, 1], got %g", ErrInvalidArgument, k)
	}
	return nil
}

func positive(v float64) bool {
	return geom.IsFinite(v) && v > 0
}
