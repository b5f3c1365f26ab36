package coupling

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/orbital"
	"github.com/san-kum/hybridsim/internal/physics"
)

// Decision is the mode an object should be in after this tick.
type Decision struct {
	Mode   Mode
	Reason Reason
}

// Keep is the decision to stay in the current mode.
func Keep(current Mode) Decision {
	return Decision{Mode: current, Reason: ReasonNoChange}
}

// Context is what a policy sees for one object. Orbital is set when the
// object has a trajectory, Rigid when it has a body in the rigid world.
type Context struct {
	ObjectID string
	Current  Mode
	Time     float64

	Orbital    orbital.State
	HasOrbital bool
	Rigid      physics.BodyState
	HasRigid   bool
}

// Position prefers the rigid state when the rigid world owns the object.
func (c Context) Position() (mgl64.Vec3, bool) {
	switch {
	case c.HasRigid && c.Current.UsesRigid():
		return c.Rigid.Position(), true
	case c.HasOrbital:
		return c.Orbital.Position, true
	case c.HasRigid:
		return c.Rigid.Position(), true
	}
	return mgl64.Vec3{}, false
}

type Policy interface {
	Decide(ctx Context) Decision
}

type PolicyFunc func(ctx Context) Decision

func (f PolicyFunc) Decide(ctx Context) Decision { return f(ctx) }

// KeepPolicy never changes a mode.
var KeepPolicy Policy = PolicyFunc(func(ctx Context) Decision { return Keep(ctx.Current) })

// DistancePolicy captures objects that come within CaptureRadius of an
// anchor and releases them back to orbital-only beyond ReleaseRadius. The
// gap between the radii keeps objects near the boundary from flapping.
type DistancePolicy struct {
	anchor  mgl64.Vec3
	capture float64
	release float64
	into    Mode
}

// NewDistancePolicy requires 0 < capture <= release. Captured objects move
// to into, which must be Coupled or RigidOnly.
func NewDistancePolicy(anchor mgl64.Vec3, capture, release float64, into Mode) (*DistancePolicy, error) {
	if !geom.IsFiniteVec(anchor) {
		return nil, fmt.Errorf("%w: anchor must be finite", ErrInvalidArgument)
	}
	if !geom.IsFinite(capture) || !geom.IsFinite(release) || capture <= 0 || release < capture {
		return nil, fmt.Errorf("%w: need 0 < capture <= release, got %g, %g", ErrInvalidArgument, capture, release)
	}
	if !into.UsesRigid() {
		return nil, fmt.Errorf("%w: capture mode must use the rigid world, got %s", ErrInvalidArgument, into)
	}
	return &DistancePolicy{anchor: anchor, capture: capture, release: release, into: into}, nil
}

func (p *DistancePolicy) Anchor() mgl64.Vec3 { return p.anchor }

func (p *DistancePolicy) Decide(ctx Context) Decision {
	pos, ok := ctx.Position()
	if !ok {
		return Keep(ctx.Current)
	}
	d := pos.Sub(p.anchor).Len()

	switch {
	case ctx.Current == OrbitalOnly && d <= p.capture:
		return Decision{Mode: p.into, Reason: ReasonEnteredCaptureRadius}
	case ctx.Current != OrbitalOnly && d > p.release && ctx.HasOrbital:
		return Decision{Mode: OrbitalOnly, Reason: ReasonLeftReleaseRadius}
	}
	return Keep(ctx.Current)
}
