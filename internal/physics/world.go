package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

// World is the contract every physics backend provides. Worlds are not
// safe for concurrent use; callers serialize all calls.
type World interface {
	CreateBody(def BodyDefinition) (BodyHandle, error)
	// RemoveBody reports false for an unknown handle.
	RemoveBody(h BodyHandle) bool
	// Bodies lists live handles in creation order.
	Bodies() []BodyHandle
	State(h BodyHandle) (BodyState, bool)
	SetState(h BodyHandle, s BodyState) error

	CreateConstraint(def ConstraintDefinition) (ConstraintHandle, error)
	RemoveConstraint(h ConstraintHandle) bool

	Tuning() RuntimeTuning
	SetTuning(t RuntimeTuning) error

	Step(dt float64) error
	Time() float64
}

// RayHit is the nearest body struck by a ray.
type RayHit struct {
	Body     BodyHandle
	Distance float64
	Point    mgl64.Vec3
}

// Queryable worlds answer spatial queries.
type Queryable interface {
	// Raycast returns the nearest body whose bounds the ray enters within
	// maxDistance.
	Raycast(r geom.Ray3D, maxDistance float64) (RayHit, bool)
	// Overlapping lists bodies whose bounds overlap box.
	Overlapping(box geom.Aabb) []BodyHandle
}

// Describer worlds report the definition a body was created from.
type Describer interface {
	Definition(h BodyHandle) (BodyDefinition, bool)
}
