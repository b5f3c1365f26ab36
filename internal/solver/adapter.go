package solver

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidArgument = errors.New("solver: invalid argument")

// RigidBodyAdapter reads and writes the state of caller-owned bodies.
type RigidBodyAdapter[T any] interface {
	Position(body T) mgl64.Vec3
	SetPosition(body T, p mgl64.Vec3)
	Velocity(body T) mgl64.Vec3
	SetVelocity(body T, v mgl64.Vec3)
	// InverseMass is 0 for immovable bodies.
	InverseMass(body T) float64
	Restitution(body T) float64
	Friction(body T) float64
}
