package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Polygon2D is a convex polygon. Vertex winding may be clockwise or
// counter-clockwise but must be consistent.
type Polygon2D struct {
	vertices []mgl64.Vec2
}

// NewPolygon2D rejects fewer than three vertices, non-finite coordinates and
// any vertex sequence whose edge cross products change sign.
func NewPolygon2D(vertices ...mgl64.Vec2) (Polygon2D, error) {
	n := len(vertices)
	if n < 3 {
		return Polygon2D{}, invalid("polygon needs at least 3 vertices, got %d", n)
	}
	for i, v := range vertices {
		if !IsFinite(v[0]) || !IsFinite(v[1]) {
			return Polygon2D{}, invalid("polygon vertex %d is not finite: %v", i, v)
		}
	}

	sign := 0
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		c := vertices[(i+2)%n]
		cross := cross2(b.Sub(a), c.Sub(b))
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return Polygon2D{}, invalid("polygon is not convex at vertex %d", (i+1)%n)
		}
	}
	if sign == 0 {
		return Polygon2D{}, invalid("polygon is degenerate (all vertices collinear)")
	}

	vs := make([]mgl64.Vec2, n)
	copy(vs, vertices)
	return Polygon2D{vertices: vs}, nil
}

func MustPolygon2D(vertices ...mgl64.Vec2) Polygon2D {
	p, err := NewPolygon2D(vertices...)
	if err != nil {
		panic(err)
	}
	return p
}

// Rect2D is a convenience for an axis-aligned rectangle polygon.
func Rect2D(minX, minY, maxX, maxY float64) (Polygon2D, error) {
	return NewPolygon2D(
		mgl64.Vec2{minX, minY},
		mgl64.Vec2{maxX, minY},
		mgl64.Vec2{maxX, maxY},
		mgl64.Vec2{minX, maxY},
	)
}

func (p Polygon2D) Vertices() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// Centroid is the vertex average, which lies inside any convex polygon.
func (p Polygon2D) Centroid() mgl64.Vec2 {
	var c mgl64.Vec2
	for _, v := range p.vertices {
		c = c.Add(v)
	}
	return c.Mul(1 / float64(len(p.vertices)))
}

// Axes returns the unit edge normals, one per edge.
func (p Polygon2D) Axes() []mgl64.Vec2 {
	n := len(p.vertices)
	axes := make([]mgl64.Vec2, 0, n)
	for i := 0; i < n; i++ {
		e := p.vertices[(i+1)%n].Sub(p.vertices[i])
		normal := mgl64.Vec2{-e[1], e[0]}
		l := normal.Len()
		if l == 0 {
			continue
		}
		axes = append(axes, normal.Mul(1/l))
	}
	return axes
}

func (p Polygon2D) Project(axis mgl64.Vec2) Projection {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range p.vertices {
		d := v.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return Projection{Min: lo, Max: hi}
}

// Projection is the closed interval a shape covers on an axis.
type Projection struct {
	Min float64
	Max float64
}

func (p Projection) Overlaps(o Projection) bool {
	return p.Min <= o.Max && o.Min <= p.Max
}

// OverlapDepth is the signed length of the shared interval; negative means
// the intervals are separated by that gap.
func (p Projection) OverlapDepth(o Projection) float64 {
	return math.Min(p.Max, o.Max) - math.Max(p.Min, o.Min)
}

func cross2(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}
