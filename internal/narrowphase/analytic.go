package narrowphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

func AabbOverlap(a, b geom.Aabb) bool {
	return a.Overlaps(b)
}

func SphereOverlap(a, b geom.BoundingSphere) bool {
	r := a.Radius() + b.Radius()
	return b.Center().Sub(a.Center()).LenSqr() <= r*r
}

func SphereAabbOverlap(s geom.BoundingSphere, b geom.Aabb) bool {
	c := b.ClosestPoint(s.Center())
	return c.Sub(s.Center()).LenSqr() <= s.Radius()*s.Radius()
}

// AabbContact resolves along the axis of least penetration. The normal is
// the signed unit axis from A's centre towards B's; the single contact
// point is the centre of the overlap region.
func AabbContact(a, b geom.Aabb) (ContactManifold, bool) {
	aMin, aMax := a.Min(), a.Max()
	bMin, bMax := b.Min(), b.Max()

	var lo, hi mgl64.Vec3
	axis := -1
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		lo[i] = math.Max(aMin[i], bMin[i])
		hi[i] = math.Min(aMax[i], bMax[i])
		d := hi[i] - lo[i]
		if d < 0 {
			return ContactManifold{}, false
		}
		if d < depth {
			depth = d
			axis = i
		}
	}

	var normal mgl64.Vec3
	if b.Center()[axis] >= a.Center()[axis] {
		normal[axis] = 1
	} else {
		normal[axis] = -1
	}

	point := lo.Add(hi).Mul(0.5)
	return contact(normal, depth, point), true
}

// SphereContact uses the centre line as normal. Coincident centres fall
// back to +X.
func SphereContact(a, b geom.BoundingSphere) (ContactManifold, bool) {
	d := b.Center().Sub(a.Center())
	dist := d.Len()
	sum := a.Radius() + b.Radius()
	if dist > sum {
		return ContactManifold{}, false
	}

	normal := mgl64.Vec3{1, 0, 0}
	if dist > 0 {
		normal = d.Mul(1 / dist)
	}
	pen := sum - dist
	point := a.Center().Add(normal.Mul(a.Radius() - pen/2))
	return contact(normal, pen, point), true
}

// SphereAabbContact reports the normal from the sphere (A) to the box (B).
func SphereAabbContact(s geom.BoundingSphere, b geom.Aabb) (ContactManifold, bool) {
	c := s.Center()
	closest := b.ClosestPoint(c)
	d := closest.Sub(c)
	dist := d.Len()

	if dist > s.Radius() {
		return ContactManifold{}, false
	}
	if dist > 0 {
		return contact(d.Mul(1/dist), s.Radius()-dist, closest), true
	}

	// centre inside the box: push out through the nearest face
	bMin, bMax := b.Min(), b.Max()
	best := math.Inf(1)
	var normal mgl64.Vec3
	for i := 0; i < 3; i++ {
		if toMin := c[i] - bMin[i]; toMin < best {
			best = toMin
			normal = mgl64.Vec3{}
			normal[i] = 1
		}
		if toMax := bMax[i] - c[i]; toMax < best {
			best = toMax
			normal = mgl64.Vec3{}
			normal[i] = -1
		}
	}
	return contact(normal, s.Radius()+best, c), true
}
