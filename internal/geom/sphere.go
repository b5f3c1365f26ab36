package geom

import "github.com/go-gl/mathgl/mgl64"

// BoundingSphere is a sphere with a non-negative radius.
type BoundingSphere struct {
	center mgl64.Vec3
	radius float64
}

func NewBoundingSphere(center mgl64.Vec3, radius float64) (BoundingSphere, error) {
	if !IsFiniteVec(center) {
		return BoundingSphere{}, invalid("sphere center must be finite, got %v", center)
	}
	if !IsFinite(radius) || radius < 0 {
		return BoundingSphere{}, invalid("sphere radius must be finite and >= 0, got %g", radius)
	}
	return BoundingSphere{center: center, radius: radius}, nil
}

func MustBoundingSphere(center mgl64.Vec3, radius float64) BoundingSphere {
	s, err := NewBoundingSphere(center, radius)
	if err != nil {
		panic(err)
	}
	return s
}

func (s BoundingSphere) Center() mgl64.Vec3 { return s.center }
func (s BoundingSphere) Radius() float64    { return s.radius }

func (s BoundingSphere) Bounds() Aabb {
	r := mgl64.Vec3{s.radius, s.radius, s.radius}
	return Aabb{min: s.center.Sub(r), max: s.center.Add(r)}
}

func (s BoundingSphere) Support(dir mgl64.Vec3) mgl64.Vec3 {
	l := dir.Len()
	if l == 0 {
		return s.center
	}
	return s.center.Add(dir.Mul(s.radius / l))
}
