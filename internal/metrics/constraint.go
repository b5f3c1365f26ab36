package metrics

import (
	"math"

	"github.com/san-kum/hybridsim/internal/sim"
)

// Jointed worlds report the summed violation of their constraints.
type Jointed interface {
	ConstraintError() float64
}

// ConstraintError is the worst constraint violation seen in any frame.
type ConstraintError struct {
	name     string
	worst    float64
	samples  int
	exceeded int
	limit    float64
}

// NewConstraintError counts frames whose error is above limit.
func NewConstraintError(limit float64) *ConstraintError {
	return &ConstraintError{name: "constraint_error", limit: limit}
}

func (c *ConstraintError) Name() string { return c.name }

func (c *ConstraintError) Observe(f sim.Frame) {
	j, ok := f.World.(Jointed)
	if !ok {
		return
	}
	v := j.ConstraintError()
	c.samples++
	c.worst = math.Max(c.worst, v)
	if v > c.limit {
		c.exceeded++
	}
}

func (c *ConstraintError) Value() float64 { return c.worst }

// Stability is the fraction of frames within the limit.
func (c *ConstraintError) Stability() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.exceeded)/float64(c.samples)
}

func (c *ConstraintError) Reset() {
	c.worst = 0
	c.samples = 0
	c.exceeded = 0
}
