package narrowphase

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

const unitTolerance = 1e-6

// Manifold is a unit contact normal pointing from A to B and a
// non-negative penetration depth.
type Manifold struct {
	normal      mgl64.Vec3
	penetration float64
}

func NewManifold(normal mgl64.Vec3, penetration float64) (Manifold, error) {
	if !geom.IsFiniteVec(normal) || math.Abs(normal.Len()-1) > unitTolerance {
		return Manifold{}, fmt.Errorf("%w: manifold normal must be unit length, got %v", geom.ErrInvalidArgument, normal)
	}
	if !geom.IsFinite(penetration) || penetration < 0 {
		return Manifold{}, fmt.Errorf("%w: penetration must be finite and >= 0, got %g", geom.ErrInvalidArgument, penetration)
	}
	return Manifold{normal: normal, penetration: penetration}, nil
}

func (m Manifold) Normal() mgl64.Vec3   { return m.normal }
func (m Manifold) Penetration() float64 { return m.penetration }

// ContactPoint is a world-space point where two shapes touch.
type ContactPoint struct {
	Position mgl64.Vec3
}

// ContactManifold is a manifold with at least one ordered contact point.
type ContactManifold struct {
	Manifold
	points []ContactPoint
}

func NewContactManifold(m Manifold, points ...ContactPoint) (ContactManifold, error) {
	if len(points) == 0 {
		return ContactManifold{}, fmt.Errorf("%w: contact manifold needs at least one point", geom.ErrInvalidArgument)
	}
	for i, p := range points {
		if !geom.IsFiniteVec(p.Position) {
			return ContactManifold{}, fmt.Errorf("%w: contact point %d is not finite", geom.ErrInvalidArgument, i)
		}
	}
	ps := make([]ContactPoint, len(points))
	copy(ps, points)
	return ContactManifold{Manifold: m, points: ps}, nil
}

func (c ContactManifold) Points() []ContactPoint {
	out := make([]ContactPoint, len(c.points))
	copy(out, c.points)
	return out
}

// Flipped swaps A and B by negating the normal.
func (c ContactManifold) Flipped() ContactManifold {
	out := c
	out.normal = c.normal.Mul(-1)
	return out
}

// contact builds a manifold from values the caller has already validated.
func contact(normal mgl64.Vec3, penetration float64, points ...mgl64.Vec3) ContactManifold {
	ps := make([]ContactPoint, len(points))
	for i, p := range points {
		ps[i] = ContactPoint{Position: p}
	}
	return ContactManifold{Manifold: Manifold{normal: normal, penetration: math.Max(penetration, 0)}, points: ps}
}
