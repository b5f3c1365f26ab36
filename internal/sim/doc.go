// Package sim is the hybrid simulation orchestrator. A Simulator ticks the
// orbital engine, the coupling manager and a rigid-body world in a fixed
// phase order and publishes resolved states to a transform store.
//
// Every tick runs these phases in order, firing each PhaseListener after a
// phase completes:
//
//	orbital  evaluate every registered trajectory at the new time
//	coupling run the transition policy and move bodies in or out of the world
//	rigid    drive coupled bodies from their trajectories, refresh the buffer
//	step     run the step callback, once or per fixed sub-step
//	publish  resolve each object's state and write transforms and snapshots
//
// # Thread Safety
//
// Simulator is single-threaded: callers serialize Tick. EntityRegistry and
// RigidStateBuffer may be read from other goroutines while a tick runs.
package sim
