// Package broadphase generates candidate collision pairs.
//
// Two strategies implement [BroadPhase]:
//
//   - [SpatialHash]: uniform grid keyed by floor(coord/cellSize)
//   - [SweepAndPrune]: sort on one axis, confirm on all three
//
// Both are pure functions of the input slice. Items are keyed by identity
// (Go ==), so for pointer items two distinct bodies with equal bounds stay
// distinct. The returned pairs are duplicate-free and ordered by the input
// position of their first, then second, item, which makes iteration
// deterministic across runs.
package broadphase
