package storage

import (
	"github.com/san-kum/hybridsim/internal/sim"
)

// Row is one object's resolved state at one tick, as written to
// states.csv.
type Row struct {
	Time        float64    `json:"time"`
	ID          string     `json:"id"`
	Mode        string     `json:"mode"`
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
	Velocity    [3]float64 `json:"velocity"`
}

// Trace collects rows from published frames.
type Trace struct {
	rows []Row
}

func NewTrace() *Trace { return &Trace{} }

// Observe is a sim.FrameListener.
func (t *Trace) Observe(f sim.Frame) error {
	for _, o := range f.Objects {
		q := o.State.Orientation()
		t.rows = append(t.rows, Row{
			Time:        f.Time,
			ID:          o.ID,
			Mode:        o.Mode.String(),
			Position:    [3]float64(o.State.Position()),
			Orientation: [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
			Velocity:    [3]float64(o.State.LinearVelocity()),
		})
	}
	return nil
}

func (t *Trace) Rows() []Row { return t.rows }

// Series returns time and one position axis (0, 1 or 2) for id.
func Series(rows []Row, id string, axis int) ([]float64, []float64) {
	var times, values []float64
	for _, r := range rows {
		if r.ID != id || axis < 0 || axis > 2 {
			continue
		}
		times = append(times, r.Time)
		values = append(values, r.Position[axis])
	}
	return times, values
}
