package orbital

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/physics"
)

const (
	keplerMaxIterations = 50
	keplerTolerance     = 1e-13
)

// Fixed holds a body still at p.
func Fixed(p mgl64.Vec3) Trajectory {
	return func(t float64, frame physics.Frame) State {
		return State{Position: p, Orientation: mgl64.QuatIdent(), Frame: frame, Time: t}
	}
}

// Linear drifts from p0 at t0 with constant velocity v.
func Linear(p0, v mgl64.Vec3, t0 float64) Trajectory {
	return func(t float64, frame physics.Frame) State {
		return State{
			Position:    p0.Add(v.Mul(t - t0)),
			Velocity:    v,
			Orientation: mgl64.QuatIdent(),
			Frame:       frame,
			Time:        t,
		}
	}
}

// Circular is a uniform circular orbit about center in the plane
// perpendicular to normal. The body's orientation turns with the orbit.
type Circular struct {
	Center       mgl64.Vec3
	Normal       mgl64.Vec3
	Radius       float64
	AngularSpeed float64
	Phase        float64
}

func (c Circular) Trajectory() (Trajectory, error) {
	if !geom.IsFiniteVec(c.Center) || !geom.IsFiniteVec(c.Normal) || c.Normal.Len() == 0 {
		return nil, fmt.Errorf("%w: circular orbit needs a finite centre and non-zero normal", ErrInvalidArgument)
	}
	if !geom.IsFinite(c.Radius) || c.Radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidArgument, c.Radius)
	}
	if !geom.IsFinite(c.AngularSpeed) || !geom.IsFinite(c.Phase) {
		return nil, fmt.Errorf("%w: angular speed and phase must be finite", ErrInvalidArgument)
	}

	n := c.Normal.Normalize()
	u, w := basis(n)
	return func(t float64, frame physics.Frame) State {
		theta := c.Phase + c.AngularSpeed*t
		sin, cos := math.Sincos(theta)
		return State{
			Position:    c.Center.Add(u.Mul(c.Radius * cos)).Add(w.Mul(c.Radius * sin)),
			Velocity:    u.Mul(-c.Radius * c.AngularSpeed * sin).Add(w.Mul(c.Radius * c.AngularSpeed * cos)),
			Orientation: mgl64.QuatRotate(theta, n),
			Frame:       frame,
			Time:        t,
		}
	}, nil
}

// Elements are classical orbital elements of a closed two-body orbit.
// Angles are in radians.
type Elements struct {
	Center        mgl64.Vec3
	Mu            float64
	SemiMajorAxis float64
	Eccentricity  float64
	Inclination   float64
	AscendingNode float64
	ArgPeriapsis  float64
	MeanAnomaly   float64
	Epoch         float64
}

// Period is the orbital period 2π·sqrt(a³/μ).
func (e Elements) Period() float64 {
	return 2 * math.Pi * math.Sqrt(e.SemiMajorAxis*e.SemiMajorAxis*e.SemiMajorAxis/e.Mu)
}

// Kepler returns the trajectory of e, solving Kepler's equation by Newton
// iteration at every evaluation.
func Kepler(e Elements) (Trajectory, error) {
	for _, v := range []float64{e.Mu, e.SemiMajorAxis, e.Eccentricity, e.Inclination, e.AscendingNode, e.ArgPeriapsis, e.MeanAnomaly, e.Epoch} {
		if !geom.IsFinite(v) {
			return nil, fmt.Errorf("%w: orbital elements must be finite", ErrInvalidArgument)
		}
	}
	if !geom.IsFiniteVec(e.Center) {
		return nil, fmt.Errorf("%w: centre must be finite", ErrInvalidArgument)
	}
	if e.Mu <= 0 || e.SemiMajorAxis <= 0 {
		return nil, fmt.Errorf("%w: mu and semi-major axis must be positive", ErrInvalidArgument)
	}
	if e.Eccentricity < 0 || e.Eccentricity >= 1 {
		return nil, fmt.Errorf("%w: eccentricity must be in [0,1), got %g", ErrInvalidArgument, e.Eccentricity)
	}

	a, ecc := e.SemiMajorAxis, e.Eccentricity
	n := math.Sqrt(e.Mu / (a * a * a))
	b := a * math.Sqrt(1-ecc*ecc)
	rot := mgl64.QuatRotate(e.AscendingNode, mgl64.Vec3{0, 0, 1}).
		Mul(mgl64.QuatRotate(e.Inclination, mgl64.Vec3{1, 0, 0})).
		Mul(mgl64.QuatRotate(e.ArgPeriapsis, mgl64.Vec3{0, 0, 1}))

	return func(t float64, frame physics.Frame) State {
		m := e.MeanAnomaly + n*(t-e.Epoch)
		ea := eccentricAnomaly(m, ecc)
		sinE, cosE := math.Sincos(ea)
		eDot := n / (1 - ecc*cosE)

		pos := mgl64.Vec3{a * (cosE - ecc), b * sinE, 0}
		vel := mgl64.Vec3{-a * sinE * eDot, b * cosE * eDot, 0}
		return State{
			Position:    e.Center.Add(rot.Rotate(pos)),
			Velocity:    rot.Rotate(vel),
			Orientation: rot,
			Frame:       frame,
			Time:        t,
		}
	}, nil
}

// eccentricAnomaly solves M = E - e·sin(E) for E.
func eccentricAnomaly(m, ecc float64) float64 {
	m = math.Mod(m, 2*math.Pi)
	ea := m
	if ecc > 0.8 {
		ea = math.Pi
	}
	for i := 0; i < keplerMaxIterations; i++ {
		f := ea - ecc*math.Sin(ea) - m
		d := f / (1 - ecc*math.Cos(ea))
		ea -= d
		if math.Abs(d) < keplerTolerance {
			break
		}
	}
	return ea
}

// basis returns two unit vectors spanning the plane perpendicular to n.
func basis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.X()) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	u := ref.Sub(n.Mul(ref.Dot(n))).Normalize()
	return u, n.Cross(u)
}
