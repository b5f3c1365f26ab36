package analysis

import (
	"github.com/san-kum/hybridsim/internal/storage"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds position against velocity along one axis.
type PhasePortrait struct {
	ID     string
	Axis   int
	Points []Point
}

// NewPhasePortrait collects the rows of id. Axis must be 0, 1 or 2.
func NewPhasePortrait(rows []storage.Row, id string, axis int) *PhasePortrait {
	if axis < 0 || axis > 2 {
		return nil
	}
	p := &PhasePortrait{ID: id, Axis: axis}
	for _, r := range rows {
		if r.ID == id {
			p.Points = append(p.Points, Point{X: r.Position[axis], Y: r.Velocity[axis]})
		}
	}
	return p
}

// Bounds returns the extent of the portrait.
func (p *PhasePortrait) Bounds() (minX, maxX, minY, maxY float64) {
	if len(p.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	return
}
