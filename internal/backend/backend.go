package backend

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/san-kum/hybridsim/internal/physics"
)

// Capability is a bit set of features a backend's worlds support.
type Capability uint32

const (
	CapabilityRigidBodies Capability = 1 << iota
	CapabilityNBody
	CapabilityJoints
	CapabilityContinuousCollision
	CapabilityQueries
)

type capabilityName struct {
	flag Capability
	name string
}

var capabilityNames = []capabilityName{
	{CapabilityRigidBodies, "rigid-bodies"},
	{CapabilityNBody, "n-body"},
	{CapabilityJoints, "joints"},
	{CapabilityContinuousCollision, "continuous-collision"},
	{CapabilityQueries, "queries"},
}

func (c Capability) Has(flag Capability) bool { return c&flag == flag }

func (c Capability) String() string {
	names := lo.FilterMap(capabilityNames, func(e capabilityName, _ int) (string, bool) {
		return e.name, c.Has(e.flag)
	})
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// WorldOptions configures a new world. Backends ignore options they have
// no use for.
type WorldOptions struct {
	Tuning              physics.RuntimeTuning
	Gravity             mgl64.Vec3
	ContinuousCollision bool
}

func DefaultWorldOptions() WorldOptions {
	return WorldOptions{
		Tuning:              physics.DefaultTuning(),
		Gravity:             physics.DefaultGravity,
		ContinuousCollision: true,
	}
}

type Backend interface {
	ID() string
	Capabilities() Capability
	// Available reports whether NewWorld can succeed in this build.
	Available() bool
	NewWorld(opts WorldOptions) (physics.World, error)
}
