package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/config"
	"github.com/san-kum/hybridsim/internal/orbital"
	"github.com/san-kum/hybridsim/internal/physics"
)

type (
	ShapeBuilder func(c *config.ShapeConfig) (physics.Shape, error)
	OrbitBuilder func(c *config.OrbitConfig) (orbital.Trajectory, error)
)

// Registry maps the shape and orbit kinds named in scenario files to
// constructors.
type Registry struct {
	shapes map[string]ShapeBuilder
	orbits map[string]OrbitBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		shapes: make(map[string]ShapeBuilder),
		orbits: make(map[string]OrbitBuilder),
	}

	r.shapes["box"] = func(c *config.ShapeConfig) (physics.Shape, error) {
		return physics.NewBox(c.HalfExtents[0], c.HalfExtents[1], c.HalfExtents[2])
	}
	r.shapes["sphere"] = func(c *config.ShapeConfig) (physics.Shape, error) {
		return physics.NewSphere(c.Radius)
	}
	r.shapes["capsule"] = func(c *config.ShapeConfig) (physics.Shape, error) {
		return physics.NewCapsule(c.Radius, c.HalfHeight)
	}

	r.orbits["fixed"] = func(c *config.OrbitConfig) (orbital.Trajectory, error) {
		return orbital.Fixed(mgl64.Vec3(c.Position)), nil
	}
	r.orbits["linear"] = func(c *config.OrbitConfig) (orbital.Trajectory, error) {
		return orbital.Linear(mgl64.Vec3(c.Position), mgl64.Vec3(c.Velocity), c.T0), nil
	}
	r.orbits["circular"] = func(c *config.OrbitConfig) (orbital.Trajectory, error) {
		normal := mgl64.Vec3(c.Normal)
		if normal.Len() == 0 {
			normal = mgl64.Vec3{0, 0, 1}
		}
		return orbital.Circular{
			Center:       mgl64.Vec3(c.Center),
			Normal:       normal,
			Radius:       c.Radius,
			AngularSpeed: c.AngularSpeed,
			Phase:        c.Phase,
		}.Trajectory()
	}
	r.orbits["kepler"] = func(c *config.OrbitConfig) (orbital.Trajectory, error) {
		return orbital.Kepler(orbital.Elements{
			Center:        mgl64.Vec3(c.Center),
			Mu:            c.Mu,
			SemiMajorAxis: c.SemiMajorAxis,
			Eccentricity:  c.Eccentricity,
			Inclination:   c.Inclination,
			AscendingNode: c.AscendingNode,
			ArgPeriapsis:  c.ArgPeriapsis,
			MeanAnomaly:   c.MeanAnomaly,
			Epoch:         c.Epoch,
		})
	}

	return r
}

func (r *Registry) RegisterShape(kind string, fn ShapeBuilder) { r.shapes[strings.ToLower(kind)] = fn }
func (r *Registry) RegisterOrbit(kind string, fn OrbitBuilder) { r.orbits[strings.ToLower(kind)] = fn }

func (r *Registry) Shape(c *config.ShapeConfig) (physics.Shape, error) {
	fn, ok := r.shapes[strings.ToLower(c.Kind)]
	if !ok {
		return nil, fmt.Errorf("unknown shape: %s", c.Kind)
	}
	return fn(c)
}

func (r *Registry) Trajectory(c *config.OrbitConfig) (orbital.Trajectory, error) {
	fn, ok := r.orbits[strings.ToLower(c.Kind)]
	if !ok {
		return nil, fmt.Errorf("unknown orbit: %s", c.Kind)
	}
	return fn(c)
}

func (r *Registry) ListShapes() []string { return sortedKeys(r.shapes) }
func (r *Registry) ListOrbits() []string { return sortedKeys(r.orbits) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
