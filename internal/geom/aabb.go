package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Aabb is an axis-aligned box with min <= max on every axis.
type Aabb struct {
	min mgl64.Vec3
	max mgl64.Vec3
}

// NewAabb builds a box from its six extents.
func NewAabb(minX, minY, minZ, maxX, maxY, maxZ float64) (Aabb, error) {
	return AabbFromVecs(mgl64.Vec3{minX, minY, minZ}, mgl64.Vec3{maxX, maxY, maxZ})
}

// MustAabb is NewAabb that panics on invalid input.
func MustAabb(minX, minY, minZ, maxX, maxY, maxZ float64) Aabb {
	b, err := NewAabb(minX, minY, minZ, maxX, maxY, maxZ)
	if err != nil {
		panic(err)
	}
	return b
}

// AabbFromVecs builds a box from its corner vectors.
func AabbFromVecs(min, max mgl64.Vec3) (Aabb, error) {
	if !IsFiniteVec(min) || !IsFiniteVec(max) {
		return Aabb{}, invalid("aabb bounds must be finite, got min=%v max=%v", min, max)
	}
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			return Aabb{}, invalid("aabb min[%d]=%g exceeds max[%d]=%g", i, min[i], i, max[i])
		}
	}
	return Aabb{min: min, max: max}, nil
}

// AabbFromCenter builds a box from a centre and non-negative half extents.
func AabbFromCenter(center, half mgl64.Vec3) (Aabb, error) {
	for i := 0; i < 3; i++ {
		if half[i] < 0 {
			return Aabb{}, invalid("aabb half extent[%d]=%g is negative", i, half[i])
		}
	}
	return AabbFromVecs(center.Sub(half), center.Add(half))
}

func (b Aabb) Min() mgl64.Vec3 { return b.min }
func (b Aabb) Max() mgl64.Vec3 { return b.max }

func (b Aabb) Center() mgl64.Vec3 {
	return b.min.Add(b.max).Mul(0.5)
}

func (b Aabb) Size() mgl64.Vec3 {
	return b.max.Sub(b.min)
}

func (b Aabb) HalfExtents() mgl64.Vec3 {
	return b.Size().Mul(0.5)
}

// Overlaps treats both boxes as closed: touching faces overlap.
func (b Aabb) Overlaps(o Aabb) bool {
	return b.min[0] <= o.max[0] && b.max[0] >= o.min[0] &&
		b.min[1] <= o.max[1] && b.max[1] >= o.min[1] &&
		b.min[2] <= o.max[2] && b.max[2] >= o.min[2]
}

func (b Aabb) Contains(p mgl64.Vec3) bool {
	return p[0] >= b.min[0] && p[0] <= b.max[0] &&
		p[1] >= b.min[1] && p[1] <= b.max[1] &&
		p[2] >= b.min[2] && p[2] <= b.max[2]
}

// ClosestPoint clamps p into the box.
func (b Aabb) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	for i := 0; i < 3; i++ {
		c[i] = math.Max(b.min[i], math.Min(p[i], b.max[i]))
	}
	return c
}

// Expand grows every face outwards by margin. A negative margin that would
// invert the box collapses it onto its centre.
func (b Aabb) Expand(margin float64) Aabb {
	m := mgl64.Vec3{margin, margin, margin}
	out := Aabb{min: b.min.Sub(m), max: b.max.Add(m)}
	c := b.Center()
	for i := 0; i < 3; i++ {
		if out.min[i] > out.max[i] {
			out.min[i], out.max[i] = c[i], c[i]
		}
	}
	return out
}

// ExpandBy grows the box by a per-axis half extent, as in a Minkowski sum
// with a box of those half extents.
func (b Aabb) ExpandBy(half mgl64.Vec3) Aabb {
	return Aabb{min: b.min.Sub(half), max: b.max.Add(half)}
}

func (b Aabb) Translate(d mgl64.Vec3) Aabb {
	return Aabb{min: b.min.Add(d), max: b.max.Add(d)}
}

func (b Aabb) Union(o Aabb) Aabb {
	var u Aabb
	for i := 0; i < 3; i++ {
		u.min[i] = math.Min(b.min[i], o.min[i])
		u.max[i] = math.Max(b.max[i], o.max[i])
	}
	return u
}

// Support returns the corner farthest along dir, which makes every box a
// ConvexSupport3D.
func (b Aabb) Support(dir mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		if dir[i] >= 0 {
			p[i] = b.max[i]
		} else {
			p[i] = b.min[i]
		}
	}
	return p
}
