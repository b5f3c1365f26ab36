// Package integrators advances flat state vectors through time.
//
// Second-order schemes ([Verlet], [Leapfrog]) expect the state laid out as
// all positions followed by all velocities, with a [System] returning
// velocities followed by accelerations.
package integrators

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrNonFinite = errors.New("integrators: non-finite state")

// NonFiniteError reports the first component of a step result that is NaN
// or infinite. It matches ErrNonFinite.
type NonFiniteError struct {
	Index int
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("integrators: component %d is %v", e.Index, e.Value)
}

func (e *NonFiniteError) Is(target error) bool { return target == ErrNonFinite }

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool { return s.nonFinite() < 0 }

func (s State) nonFinite() int {
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

func checked(x State) (State, error) {
	if i := x.nonFinite(); i >= 0 {
		return nil, &NonFiniteError{Index: i, Value: x[i]}
	}
	return x, nil
}

// System returns the time derivative of x at t.
type System func(x State, t float64) State

// Integrator advances x by dt. A step whose result is not finite returns
// a *NonFiniteError and no state, so callers never commit a diverged step.
type Integrator interface {
	Step(f System, x State, t, dt float64) (State, error)
}

var registry = map[string]func() Integrator{
	"euler":    func() Integrator { return NewEuler() },
	"rk4":      func() Integrator { return NewRK4() },
	"rk45":     func() Integrator { return NewRK45() },
	"verlet":   func() Integrator { return NewVerlet() },
	"leapfrog": func() Integrator { return NewLeapfrog() },
}

func New(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
