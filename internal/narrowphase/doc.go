// Package narrowphase computes exact pairwise intersections and contact
// manifolds.
//
//   - Analytic predicates: [AabbOverlap], [SphereOverlap], [SphereAabbOverlap]
//   - Manifolds: [AabbContact], [SphereContact], [SphereAabbContact]
//   - 2D separating axes: [SAT]
//   - 3D GJK over [geom.ConvexSupport3D]: [GJK], [Distance]
//   - Continuous collision: [SegmentAabbTOI], [RayAabb], [SweptAabbTOI],
//     [ConvexTOI]
//
// Functions that can legitimately find nothing return (value, false).
package narrowphase
