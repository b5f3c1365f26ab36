package geom

import "github.com/go-gl/mathgl/mgl64"

// ConvexSupport3D maps a direction to the farthest point of a convex shape
// along it. Directions need not be normalised.
type ConvexSupport3D interface {
	Support(dir mgl64.Vec3) mgl64.Vec3
}

// SupportFunc adapts a plain function to ConvexSupport3D.
type SupportFunc func(dir mgl64.Vec3) mgl64.Vec3

func (f SupportFunc) Support(dir mgl64.Vec3) mgl64.Vec3 { return f(dir) }

// Translated offsets a shape by a fixed vector.
func Translated(s ConvexSupport3D, offset mgl64.Vec3) ConvexSupport3D {
	return SupportFunc(func(dir mgl64.Vec3) mgl64.Vec3 {
		return s.Support(dir).Add(offset)
	})
}

// Rotated rotates a shape by q about pivot.
func Rotated(s ConvexSupport3D, pivot mgl64.Vec3, q mgl64.Quat) ConvexSupport3D {
	inv := q.Inverse()
	return SupportFunc(func(dir mgl64.Vec3) mgl64.Vec3 {
		local := s.Support(inv.Rotate(dir))
		return pivot.Add(q.Rotate(local.Sub(pivot)))
	})
}

var sampleDirections = []mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
	{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
	{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
}

// SupportRadius estimates the largest distance from pivot to the shape by
// probing 14 directions and inflating the result by sqrt(3), which bounds
// the extent of any box-like support.
func SupportRadius(s ConvexSupport3D, pivot mgl64.Vec3) float64 {
	r := 0.0
	for _, d := range sampleDirections {
		if l := s.Support(d).Sub(pivot).Len(); l > r {
			r = l
		}
	}
	return r * 1.7320508075688772
}

// SupportCenter approximates a shape's centre from opposite support pairs.
func SupportCenter(s ConvexSupport3D) mgl64.Vec3 {
	var c mgl64.Vec3
	for i := 0; i < 6; i += 2 {
		c = c.Add(s.Support(sampleDirections[i]).Add(s.Support(sampleDirections[i+1])).Mul(0.5))
	}
	return c.Mul(1.0 / 3.0)
}
