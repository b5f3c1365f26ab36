package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

// BodyHandle names a body within one world. Handles are allocated in
// increasing order and never reused by that world.
type BodyHandle uint64

// ConstraintHandle names a constraint within one world.
type ConstraintHandle uint64

type Frame int

const (
	FrameWorld Frame = iota
	FrameInertial
	FrameLocal
)

var frameNames = map[Frame]string{
	FrameWorld:    "WORLD",
	FrameInertial: "INERTIAL",
	FrameLocal:    "LOCAL",
}

func (f Frame) String() string {
	if s, ok := frameNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

func (f Frame) Valid() bool {
	_, ok := frameNames[f]
	return ok
}

func ParseFrame(s string) (Frame, error) {
	for f, name := range frameNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown frame %q", ErrInvalidArgument, s)
}

// BodyState is an immutable kinematic snapshot of one body.
type BodyState struct {
	position        mgl64.Vec3
	orientation     mgl64.Quat
	linearVelocity  mgl64.Vec3
	angularVelocity mgl64.Vec3
	frame           Frame
	timestamp       float64
}

// NewBodyState validates every component. The orientation must be finite
// and non-zero; it is stored as given.
func NewBodyState(position mgl64.Vec3, orientation mgl64.Quat, linear, angular mgl64.Vec3, frame Frame, timestamp float64) (BodyState, error) {
	switch {
	case !geom.IsFiniteVec(position):
		return BodyState{}, fmt.Errorf("%w: position %v is not finite", ErrInvalidArgument, position)
	case !geom.IsFiniteQuat(orientation) || orientation.Len() == 0:
		return BodyState{}, fmt.Errorf("%w: orientation %v must be finite and non-zero", ErrInvalidArgument, orientation)
	case !geom.IsFiniteVec(linear):
		return BodyState{}, fmt.Errorf("%w: linear velocity %v is not finite", ErrInvalidArgument, linear)
	case !geom.IsFiniteVec(angular):
		return BodyState{}, fmt.Errorf("%w: angular velocity %v is not finite", ErrInvalidArgument, angular)
	case !frame.Valid():
		return BodyState{}, fmt.Errorf("%w: unknown frame %d", ErrInvalidArgument, int(frame))
	case !geom.IsFinite(timestamp) || timestamp < 0:
		return BodyState{}, fmt.Errorf("%w: timestamp must be finite and >= 0, got %g", ErrInvalidArgument, timestamp)
	}
	return BodyState{
		position:        position,
		orientation:     orientation,
		linearVelocity:  linear,
		angularVelocity: angular,
		frame:           frame,
		timestamp:       timestamp,
	}, nil
}

func MustBodyState(position mgl64.Vec3, orientation mgl64.Quat, linear, angular mgl64.Vec3, frame Frame, timestamp float64) BodyState {
	s, err := NewBodyState(position, orientation, linear, angular, frame, timestamp)
	if err != nil {
		panic(err)
	}
	return s
}

// RestingAt is a world-frame state at p with identity orientation and no
// motion.
func RestingAt(p mgl64.Vec3) (BodyState, error) {
	return NewBodyState(p, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{}, FrameWorld, 0)
}

func (s BodyState) Position() mgl64.Vec3        { return s.position }
func (s BodyState) Orientation() mgl64.Quat     { return s.orientation }
func (s BodyState) LinearVelocity() mgl64.Vec3  { return s.linearVelocity }
func (s BodyState) AngularVelocity() mgl64.Vec3 { return s.angularVelocity }
func (s BodyState) Frame() Frame                { return s.frame }
func (s BodyState) Timestamp() float64          { return s.timestamp }

// IsZero reports whether s is the zero value, which is not a valid state.
func (s BodyState) IsZero() bool { return s == BodyState{} }

// WithPosition and the other With methods return validated copies.
func (s BodyState) WithPosition(p mgl64.Vec3) (BodyState, error) {
	return NewBodyState(p, s.orientation, s.linearVelocity, s.angularVelocity, s.frame, s.timestamp)
}

func (s BodyState) WithOrientation(q mgl64.Quat) (BodyState, error) {
	return NewBodyState(s.position, q, s.linearVelocity, s.angularVelocity, s.frame, s.timestamp)
}

func (s BodyState) WithLinearVelocity(v mgl64.Vec3) (BodyState, error) {
	return NewBodyState(s.position, s.orientation, v, s.angularVelocity, s.frame, s.timestamp)
}

func (s BodyState) WithAngularVelocity(w mgl64.Vec3) (BodyState, error) {
	return NewBodyState(s.position, s.orientation, s.linearVelocity, w, s.frame, s.timestamp)
}

func (s BodyState) WithTimestamp(t float64) (BodyState, error) {
	return NewBodyState(s.position, s.orientation, s.linearVelocity, s.angularVelocity, s.frame, t)
}

func (s BodyState) WithFrame(f Frame) (BodyState, error) {
	return NewBodyState(s.position, s.orientation, s.linearVelocity, s.angularVelocity, f, s.timestamp)
}

func (s BodyState) String() string {
	return fmt.Sprintf("pos=%v rot=%v v=%v w=%v %s t=%.4f",
		s.position, s.orientation, s.linearVelocity, s.angularVelocity, s.frame, s.timestamp)
}
