package narrowphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
)

// Manifold2D is the minimum translation vector between two polygons. The
// normal is unit length and points from A's centroid towards B's.
type Manifold2D struct {
	Normal      mgl64.Vec2
	Penetration float64
}

// SAT tests every edge normal of both polygons as a separating axis.
// Touching polygons intersect with zero penetration.
func SAT(a, b geom.Polygon2D) (Manifold2D, bool) {
	best := math.Inf(1)
	var normal mgl64.Vec2

	for _, poly := range [2]geom.Polygon2D{a, b} {
		for _, axis := range poly.Axes() {
			depth := a.Project(axis).OverlapDepth(b.Project(axis))
			if depth < 0 {
				return Manifold2D{}, false
			}
			if depth < best {
				best = depth
				normal = axis
			}
		}
	}

	if normal.Dot(b.Centroid().Sub(a.Centroid())) < 0 {
		normal = normal.Mul(-1)
	}
	return Manifold2D{Normal: normal, Penetration: best}, true
}

func SATIntersects(a, b geom.Polygon2D) bool {
	_, ok := SAT(a, b)
	return ok
}
