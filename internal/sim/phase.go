package sim

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("sim: invalid argument")
	// ErrHalted is returned by Tick after an earlier tick failed.
	ErrHalted = errors.New("sim: simulator halted")
)

type Phase int

const (
	PhaseOrbital Phase = iota
	PhaseCoupling
	PhaseRigid
	PhaseStep
	PhasePublish
)

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseOrbital, PhaseCoupling, PhaseRigid, PhaseStep, PhasePublish}

func (p Phase) String() string {
	switch p {
	case PhaseOrbital:
		return "orbital"
	case PhaseCoupling:
		return "coupling"
	case PhaseRigid:
		return "rigid"
	case PhaseStep:
		return "step"
	case PhasePublish:
		return "publish"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// PhaseListener runs synchronously after a phase with the time the tick
// is advancing to.
type PhaseListener func(phase Phase, t float64) error

// StepFunc advances the rigid world by dt.
type StepFunc func(dt float64) error

// TickError reports where a tick failed.
type TickError struct {
	Tick  uint64
	Time  float64
	Phase Phase
	Err   error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d at t=%.4f, %s phase: %v", e.Tick, e.Time, e.Phase, e.Err)
}

func (e *TickError) Unwrap() error { return e.Err }
