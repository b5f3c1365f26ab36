package narrowphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

const slabEpsilon = 1e-12

// SegmentAabbTOI clips the segment p0->p1 against the box slabs and returns
// the entry fraction in [0,1]. A segment starting inside the box hits at 0.
func SegmentAabbTOI(p0, p1 mgl64.Vec3, box geom.Aabb) (float64, bool) {
	return clipSlabs(p0, p1.Sub(p0), box, 0, 1)
}

// RayAabb returns the smallest t >= 0, in units of the ray direction, at
// which the ray enters the box.
func RayAabb(r geom.Ray3D, box geom.Aabb) (float64, bool) {
	return clipSlabs(r.Origin(), r.Direction(), box, 0, math.Inf(1))
}

func clipSlabs(origin, dir mgl64.Vec3, box geom.Aabb, tmin, tmax float64) (float64, bool) {
	lo, hi := box.Min(), box.Max()
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < slabEpsilon {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (lo[i] - origin[i]) * inv
		t2 := (hi[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// SweptAabbTOI moves `moving` by displacement over [0,1] and returns the
// first fraction at which it touches target. The target is grown by the
// moving box's half extents so the sweep reduces to a segment test from
// the moving box's centre. Boxes already touching at t=0 report 0.
func SweptAabbTOI(moving geom.Aabb, displacement mgl64.Vec3, target geom.Aabb) (float64, bool) {
	if moving.Overlaps(target) {
		return 0, true
	}
	expanded := target.ExpandBy(moving.HalfExtents())
	c := moving.Center()
	return SegmentAabbTOI(c, c.Add(displacement), expanded)
}

// SweptShape is a convex shape moving over the unit interval: it translates
// by Translation and rotates by Rotation about Pivot, both interpolated
// linearly in t.
type SweptShape struct {
	Shape       geom.ConvexSupport3D
	Pivot       mgl64.Vec3
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Translating is a SweptShape without rotation.
func Translating(shape geom.ConvexSupport3D, translation mgl64.Vec3) SweptShape {
	return SweptShape{Shape: shape, Pivot: geom.SupportCenter(shape), Translation: translation, Rotation: mgl64.QuatIdent()}
}

func (s SweptShape) rotation() mgl64.Quat {
	if s.Rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return s.Rotation.Normalize()
}

// At returns the shape's support mapping at time t.
func (s SweptShape) At(t float64) geom.ConvexSupport3D {
	shape := s.Shape
	if q := s.rotation(); !q.ApproxEqual(mgl64.QuatIdent()) {
		shape = geom.Rotated(shape, s.Pivot, mgl64.QuatSlerp(mgl64.QuatIdent(), q, t))
	}
	return geom.Translated(shape, s.Translation.Mul(t))
}

// angle is the total rotation angle over the interval.
func (s SweptShape) angle() float64 {
	q := s.rotation()
	w := math.Min(1, math.Abs(q.W))
	return 2 * math.Acos(w)
}

type AdvancementOptions struct {
	MaxIterations int
	Substeps      int
	Tolerance     float64
}

func DefaultAdvancementOptions() AdvancementOptions {
	return AdvancementOptions{MaxIterations: 32, Substeps: 4, Tolerance: 1e-4}
}

// ConvexTOI finds the first time in [0,1] at which two swept shapes come
// within opts.Tolerance, by conservative advancement over GJK distances.
// The interval is split into opts.Substeps windows; each advance is bounded
// by the linear approach speed plus angular speed times a support radius.
// Only a GJK distance within tolerance counts as contact: exhausting the
// iteration budget reports no impact.
func ConvexTOI(a, b SweptShape, opts AdvancementOptions) (float64, bool) {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}
	if opts.Substeps < 1 {
		opts.Substeps = 1
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultAdvancementOptions().Tolerance
	}

	if r := Distance(a.At(0), b.At(0)); r.Overlapping || r.Distance <= opts.Tolerance {
		return 0, true
	}

	relative := a.Translation.Sub(b.Translation)
	angular := a.angle()*geom.SupportRadius(a.Shape, a.Pivot) + b.angle()*geom.SupportRadius(b.Shape, b.Pivot)

	iterations := 0
	t := 0.0
	for k := 0; k < opts.Substeps; k++ {
		t = math.Max(t, float64(k)/float64(opts.Substeps))
		end := float64(k+1) / float64(opts.Substeps)

		for t <= end {
			r := Distance(a.At(t), b.At(t))
			if r.Overlapping || r.Distance <= opts.Tolerance {
				return t, true
			}

			n := r.Separation.Mul(1 / r.Distance)
			approach := -n.Dot(relative) + angular
			if approach <= 0 {
				break
			}

			iterations++
			if iterations >= opts.MaxIterations {
				return 0, false
			}
			t += r.Distance / approach
		}
	}

	return 0, false
}
