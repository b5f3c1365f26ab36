// Package collision joins broad-phase candidates, layer filtering and
// narrow-phase manifolds into one detection pass.
//
// A [Filter] carries a layer, a mask and a [Kind]. Two filters interact
// when each one's layer is in the other's mask; a physical response is
// enabled only when both sides are [Solid]. Triggers still produce events.
//
// [Pipeline.Detect] runs broad-phase, filter and manifold generation in
// that order. [EventTracker] turns consecutive Detect results into
// [Enter], [Stay] and [Exit] events.
package collision
