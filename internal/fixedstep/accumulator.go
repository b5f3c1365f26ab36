// Package fixedstep turns variable frame deltas into fixed simulation
// steps.
package fixedstep

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidArgument = errors.New("fixedstep: invalid argument")

// StepFunc advances the simulation by exactly one fixed step.
type StepFunc func(dt float64) error

// Result reports one Advance call.
type Result struct {
	Steps     int
	Remainder float64
	// Alpha is Remainder/step clamped to [0,1], for render interpolation.
	Alpha float64
}

// Accumulator is not safe for concurrent use.
type Accumulator struct {
	step        float64
	maxSubSteps int
	acc         float64
}

func New(step float64, maxSubSteps int) (*Accumulator, error) {
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return nil, fmt.Errorf("%w: step must be finite and > 0, got %g", ErrInvalidArgument, step)
	}
	if maxSubSteps < 1 {
		return nil, fmt.Errorf("%w: max sub-steps must be >= 1, got %d", ErrInvalidArgument, maxSubSteps)
	}
	return &Accumulator{step: step, maxSubSteps: maxSubSteps}, nil
}

func (a *Accumulator) Step() float64      { return a.step }
func (a *Accumulator) MaxSubSteps() int   { return a.maxSubSteps }
func (a *Accumulator) Remainder() float64 { return a.acc }

// Ceiling is the largest backlog carried into a call, step × maxSubSteps.
func (a *Accumulator) Ceiling() float64 { return a.step * float64(a.maxSubSteps) }

// Advance adds frameDt and runs fn once per whole step, up to the sub-step
// budget. Time left over after the budget is kept and reported, and is
// clamped to Ceiling when the next call begins, so a long stall cannot
// build an unbounded backlog. An error from fn stops the loop; the steps
// already taken stay consumed.
func (a *Accumulator) Advance(frameDt float64, fn StepFunc) (Result, error) {
	if math.IsNaN(frameDt) || math.IsInf(frameDt, 0) || frameDt < 0 {
		return Result{}, fmt.Errorf("%w: frame dt must be finite and >= 0, got %g", ErrInvalidArgument, frameDt)
	}
	if fn == nil {
		return Result{}, fmt.Errorf("%w: nil step function", ErrInvalidArgument)
	}

	a.acc = math.Min(a.acc, a.Ceiling()) + frameDt

	steps := 0
	for a.acc >= a.step && steps < a.maxSubSteps {
		if err := fn(a.step); err != nil {
			return a.result(steps), fmt.Errorf("fixed step %d: %w", steps, err)
		}
		a.acc -= a.step
		steps++
	}

	return a.result(steps), nil
}

// Reset drops any accumulated time.
func (a *Accumulator) Reset() { a.acc = 0 }

func (a *Accumulator) result(steps int) Result {
	alpha := a.acc / a.step
	alpha = math.Max(0, math.Min(1, alpha))
	return Result{Steps: steps, Remainder: a.acc, Alpha: alpha}
}
