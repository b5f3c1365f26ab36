package backend

import (
	"fmt"

	"github.com/san-kum/hybridsim/internal/integrators"
	"github.com/san-kum/hybridsim/internal/physics"
)

const (
	Baseline = "baseline"
	NBody    = "nbody"
	Native   = "native"
)

// BaselineBackend builds physics.BaselineWorld.
type BaselineBackend struct{}

func (BaselineBackend) ID() string      { return Baseline }
func (BaselineBackend) Available() bool { return true }

func (BaselineBackend) Capabilities() Capability {
	return CapabilityRigidBodies | CapabilityJoints | CapabilityQueries | CapabilityContinuousCollision
}

func (BaselineBackend) NewWorld(opts WorldOptions) (physics.World, error) {
	return physics.NewBaselineWorld(opts.Tuning,
		physics.WithGravity(opts.Gravity),
		physics.WithContinuousCollision(opts.ContinuousCollision),
	)
}

// NBodyBackend builds physics.NBodyWorld with a fixed gravitational
// constant and softening length. Integrator names a scheme from the
// integrators package; empty means leapfrog.
type NBodyBackend struct {
	G          float64
	Softening  float64
	Integrator string
}

func NewNBodyBackend() NBodyBackend {
	return NBodyBackend{G: 1.0, Softening: 0.01}
}

func (NBodyBackend) ID() string               { return NBody }
func (NBodyBackend) Available() bool          { return true }
func (NBodyBackend) Capabilities() Capability { return CapabilityNBody }

func (b NBodyBackend) NewWorld(opts WorldOptions) (physics.World, error) {
	w, err := physics.NewNBodyWorld(b.G, b.Softening, opts.Tuning)
	if err != nil {
		return nil, err
	}
	if b.Integrator != "" {
		integ, err := integrators.New(b.Integrator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", physics.ErrInvalidArgument, err)
		}
		w.SetIntegrator(integ)
	}
	return w, nil
}

// NativeBackend stands for an engine reached through native bindings.
// Pure-Go builds have none, so it is never available and selecting it
// always falls back.
type NativeBackend struct{}

func (NativeBackend) ID() string      { return Native }
func (NativeBackend) Available() bool { return false }

func (NativeBackend) Capabilities() Capability {
	return CapabilityRigidBodies | CapabilityNBody | CapabilityJoints | CapabilityContinuousCollision | CapabilityQueries
}

func (NativeBackend) NewWorld(WorldOptions) (physics.World, error) {
	return nil, fmt.Errorf("%w: native backend not built in", ErrUnavailable)
}
