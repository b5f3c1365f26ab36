package narrowphase

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

const (
	gjkMaxIterations = 64
	gjkEpsilon       = 1e-12
	gjkRelTolerance  = 1e-9

	// IntersectTolerance is the separation below which GJK reports contact.
	IntersectTolerance = 1e-9
)

// DistanceResult describes the closest approach of two convex shapes.
// Separation is the point of the Minkowski difference A-B nearest the
// origin, so it points from B towards A and has length Distance.
type DistanceResult struct {
	Distance    float64
	Separation  mgl64.Vec3
	Overlapping bool
	Iterations  int
}

func minkowskiSupport(a, b geom.ConvexSupport3D, dir mgl64.Vec3) mgl64.Vec3 {
	return a.Support(dir).Sub(b.Support(dir.Mul(-1)))
}

// GJK reports whether two convex shapes intersect. Touching counts.
func GJK(a, b geom.ConvexSupport3D) bool {
	r := Distance(a, b)
	return r.Overlapping || r.Distance <= IntersectTolerance
}

// Distance runs the GJK distance iteration over the Minkowski difference.
func Distance(a, b geom.ConvexSupport3D) DistanceResult {
	dir := geom.SupportCenter(a).Sub(geom.SupportCenter(b))
	if dir.LenSqr() < gjkEpsilon {
		dir = mgl64.Vec3{1, 0, 0}
	}

	v := minkowskiSupport(a, b, dir)
	var s simplex

	for iter := 1; iter <= gjkMaxIterations; iter++ {
		vv := v.LenSqr()
		if vv <= gjkEpsilon {
			return DistanceResult{Overlapping: true, Iterations: iter}
		}

		w := minkowskiSupport(a, b, v.Mul(-1))
		if vv-v.Dot(w) <= gjkRelTolerance*vv || s.contains(w) {
			return DistanceResult{Distance: v.Len(), Separation: v, Iterations: iter}
		}

		s.push(w)
		var inside bool
		v, inside = s.closest()
		if inside {
			return DistanceResult{Overlapping: true, Iterations: iter}
		}
	}

	return DistanceResult{Distance: v.Len(), Separation: v, Iterations: gjkMaxIterations}
}

type simplex struct {
	pts [4]mgl64.Vec3
	n   int
}

func (s *simplex) push(p mgl64.Vec3) {
	s.pts[s.n] = p
	s.n++
}

func (s *simplex) set(pts ...mgl64.Vec3) {
	s.n = copy(s.pts[:], pts)
}

func (s *simplex) contains(p mgl64.Vec3) bool {
	for i := 0; i < s.n; i++ {
		if s.pts[i].Sub(p).LenSqr() <= gjkEpsilon {
			return true
		}
	}
	return false
}

// closest returns the point of the simplex nearest the origin and reduces
// the simplex to the smallest feature containing it. inside is true when a
// full tetrahedron encloses the origin.
func (s *simplex) closest() (mgl64.Vec3, bool) {
	switch s.n {
	case 1:
		return s.pts[0], false
	case 2:
		p, keep := closestOnSegment(s.pts[0], s.pts[1])
		s.set(keep...)
		return p, false
	case 3:
		p, keep := closestOnTriangle(s.pts[0], s.pts[1], s.pts[2])
		s.set(keep...)
		return p, false
	default:
		p, keep, inside := closestOnTetrahedron(s.pts[0], s.pts[1], s.pts[2], s.pts[3])
		s.set(keep...)
		return p, inside
	}
}

func closestOnSegment(a, b mgl64.Vec3) (mgl64.Vec3, []mgl64.Vec3) {
	ab := b.Sub(a)
	den := ab.LenSqr()
	if den <= gjkEpsilon {
		return a, []mgl64.Vec3{a}
	}
	t := -a.Dot(ab) / den
	switch {
	case t <= 0:
		return a, []mgl64.Vec3{a}
	case t >= 1:
		return b, []mgl64.Vec3{b}
	}
	return a.Add(ab.Mul(t)), []mgl64.Vec3{a, b}
}

// closestOnTriangle is the Voronoi-region walk from Ericson, Real-Time
// Collision Detection 5.1.5, specialised to the origin.
func closestOnTriangle(a, b, c mgl64.Vec3) (mgl64.Vec3, []mgl64.Vec3) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, []mgl64.Vec3{a}
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, []mgl64.Vec3{b}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), []mgl64.Vec3{a, b}
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, []mgl64.Vec3{c}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), []mgl64.Vec3{a, c}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), []mgl64.Vec3{b, c}
	}

	sum := va + vb + vc
	if sum == 0 {
		// degenerate triangle, fall back to its longest edge
		return closestOnSegment(a, c)
	}
	den := 1 / sum
	v := vb * den
	w := vc * den
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), []mgl64.Vec3{a, b, c}
}

func closestOnTetrahedron(a, b, c, d mgl64.Vec3) (mgl64.Vec3, []mgl64.Vec3, bool) {
	faces := [4][4]mgl64.Vec3{
		{a, b, c, d},
		{a, c, d, b},
		{a, d, b, c},
		{b, d, c, a},
	}

	bestDist := -1.0
	var best mgl64.Vec3
	var keep []mgl64.Vec3
	outside := false

	for _, f := range faces {
		if !originOutsideFace(f[0], f[1], f[2], f[3]) {
			continue
		}
		outside = true
		p, k := closestOnTriangle(f[0], f[1], f[2])
		if dist := p.LenSqr(); bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = p
			keep = k
		}
	}

	if !outside {
		return mgl64.Vec3{}, []mgl64.Vec3{a, b, c, d}, true
	}
	return best, keep, false
}

// originOutsideFace reports whether the origin lies on the opposite side of
// plane (a,b,c) from the fourth vertex. A flat tetrahedron treats every
// face as a candidate.
func originOutsideFace(a, b, c, opposite mgl64.Vec3) bool {
	n := b.Sub(a).Cross(c.Sub(a))
	signOrigin := a.Mul(-1).Dot(n)
	signOpp := opposite.Sub(a).Dot(n)
	if signOpp*signOpp <= gjkEpsilon {
		return true
	}
	return signOrigin*signOpp < 0
}
