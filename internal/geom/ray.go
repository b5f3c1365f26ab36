package geom

import "github.com/go-gl/mathgl/mgl64"

// Ray3D is a half-line. The direction is stored as given, not normalised.
type Ray3D struct {
	origin    mgl64.Vec3
	direction mgl64.Vec3
}

func NewRay3D(origin, direction mgl64.Vec3) (Ray3D, error) {
	if !IsFiniteVec(origin) || !IsFiniteVec(direction) {
		return Ray3D{}, invalid("ray origin and direction must be finite")
	}
	if direction.LenSqr() == 0 {
		return Ray3D{}, invalid("ray direction must be non-zero")
	}
	return Ray3D{origin: origin, direction: direction}, nil
}

func MustRay3D(origin, direction mgl64.Vec3) Ray3D {
	r, err := NewRay3D(origin, direction)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Ray3D) Origin() mgl64.Vec3    { return r.origin }
func (r Ray3D) Direction() mgl64.Vec3 { return r.direction }

// At returns origin + t*direction.
func (r Ray3D) At(t float64) mgl64.Vec3 {
	return r.origin.Add(r.direction.Mul(t))
}
