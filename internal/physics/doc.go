// Package physics defines the world and body contract shared by every
// physics backend, plus two in-process worlds.
//
// Values:
//
//   - [BodyState]: position, orientation, velocities, frame, timestamp
//   - [BodyDefinition]: body type, mass, [Shape] and initial state
//   - [RuntimeTuning]: solver parameters changeable between steps
//   - [ConstraintDefinition]: distance and point joints
//
// Every constructor rejects NaN and infinite components and returns an
// error wrapping [ErrInvalidArgument].
//
// Worlds:
//
//   - [BaselineWorld]: rigid bodies, joints, contacts, queries and a swept
//     test against static geometry, built on the solver package
//   - [NBodyWorld]: mutual gravitation, stepped by a leapfrog or any integrators.Integrator
//
// # Thread Safety
//
// Worlds are not synchronized. One goroutine owns a world and serializes
// every call, including reads of body state.
package physics
