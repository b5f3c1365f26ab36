package sim

import (
	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/orbital"
	"github.com/san-kum/hybridsim/internal/physics"
)

// ObjectSpec describes an object handed to AddObject. Trajectory is
// required for modes that use the orbital engine and Body for modes that
// use the rigid world. Supplying both lets the object change mode later.
type ObjectSpec struct {
	ID         string
	Mode       coupling.Mode
	Trajectory orbital.Trajectory
	Body       physics.BodyDefinition
}

func (s ObjectSpec) hasBody() bool { return s.Body.Shape() != nil }

// ObjectFrame is the resolved state of one object after a tick.
type ObjectFrame struct {
	ID      string
	Index   int
	Mode    coupling.Mode
	State   physics.BodyState
	Body    physics.BodyHandle
	HasBody bool
}

// Frame is everything published at the end of a tick.
type Frame struct {
	Tick        uint64
	Time        float64
	Dt          float64
	Alpha       float64
	SubSteps    int
	Objects     []ObjectFrame
	Transitions []coupling.Event
	World       physics.World
}

func (f Frame) Object(id string) (ObjectFrame, bool) {
	for _, o := range f.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return ObjectFrame{}, false
}

// Bodies maps the handle of every object in the rigid world to its
// resolved state.
func (f Frame) Bodies() map[physics.BodyHandle]physics.BodyState {
	out := make(map[physics.BodyHandle]physics.BodyState, len(f.Objects))
	for _, o := range f.Objects {
		if o.HasBody {
			out[o.Body] = o.State
		}
	}
	return out
}

// FrameListener observes every published frame.
type FrameListener func(f Frame) error

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Config struct {
	Dt       float64
	Duration float64
}

type Result struct {
	Ticks       uint64
	Time        float64
	Transitions int
	Metrics     map[string]float64
}
