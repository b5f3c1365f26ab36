// Package geom provides immutable, self-validating geometry values used by
// the collision core:
//
//   - [Aabb]: axis-aligned bounding box
//   - [BoundingSphere]: centre and radius
//   - [Ray3D]: origin and non-zero direction
//   - [Polygon2D]: convex polygon for separating-axis tests
//   - [ConvexSupport3D]: support mapping consumed by GJK
//
// Every constructor rejects NaN and infinite components and returns an
// error wrapping [ErrInvalidArgument]. The Must variants panic instead and
// exist for literals in tests and presets.
//
// # Vectors
//
// All 3D quantities are [mgl64.Vec3] values.
package geom
