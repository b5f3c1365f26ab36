// Package solver integrates caller-owned bodies and relaxes constraints.
//
// The solver never sees a concrete body type. Callers describe how to read
// and write their bodies through a [RigidBodyAdapter], and [World] drives
// the step:
//
//  1. gravity into velocity for every body with inverse mass > 0
//  2. velocity into position
//  3. Gauss-Seidel positional relaxation of every [Constraint], repeated
//     for the configured iteration count
//  4. velocity rebuilt from the corrected positions
//  5. collision pipeline, then the response hook for response-enabled
//     contacts, then event listeners
//
// Bodies with inverse mass 0 never move.
//
// # Thread Safety
//
// World is not synchronized. Step it from one goroutine.
package solver
