package stream

import (
	"github.com/san-kum/hybridsim/internal/sim"
)

type ObjectMessage struct {
	ID          string     `json:"id"`
	Index       int        `json:"index"`
	Mode        string     `json:"mode"`
	Body        uint64     `json:"body,omitempty"`
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

type TransitionMessage struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type FrameMessage struct {
	Type        string              `json:"type"`
	Seq         uint64              `json:"seq"`
	Tick        uint64              `json:"tick"`
	Time        float64             `json:"time"`
	Alpha       float64             `json:"alpha"`
	Objects     []ObjectMessage     `json:"objects"`
	Transitions []TransitionMessage `json:"transitions,omitempty"`
}

// NewFrameMessage flattens a frame. Only transitions that changed a mode
// are included.
func NewFrameMessage(seq uint64, f sim.Frame) FrameMessage {
	msg := FrameMessage{
		Type:    "frame",
		Seq:     seq,
		Tick:    f.Tick,
		Time:    f.Time,
		Alpha:   f.Alpha,
		Objects: make([]ObjectMessage, 0, len(f.Objects)),
	}
	for _, o := range f.Objects {
		q := o.State.Orientation()
		om := ObjectMessage{
			ID:          o.ID,
			Index:       o.Index,
			Mode:        o.Mode.String(),
			Position:    [3]float64(o.State.Position()),
			Orientation: [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		}
		if o.HasBody {
			om.Body = uint64(o.Body)
		}
		msg.Objects = append(msg.Objects, om)
	}
	for _, e := range f.Transitions {
		if !e.Changed() {
			continue
		}
		msg.Transitions = append(msg.Transitions, TransitionMessage{
			ID:     e.ObjectID,
			From:   e.From.String(),
			To:     e.To.String(),
			Reason: string(e.Reason),
		})
	}
	return msg
}
