// Package coupling decides, per object and per tick, which physics
// representation owns the object.
//
//   - [OrbitalOnly]: the scripted trajectory is authoritative
//   - [Coupled]: the trajectory drives a rigid body kinematically so it
//     takes part in contacts
//   - [RigidOnly]: the rigid-body world is authoritative
//
// A [Policy] returns a [Decision] for each tracked object. The [Manager]
// applies it and emits an [Event] to every [Listener], including for
// decisions that change nothing, so the listener stream is a complete
// audit trail of why objects moved between representations.
//
// # Thread Safety
//
// Manager is not synchronized. Call it from the simulation goroutine.
package coupling
