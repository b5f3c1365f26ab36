package metrics

import (
	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/sim"
)

// Transitions counts coupling mode changes, overall and per reason.
type Transitions struct {
	name     string
	total    int
	byReason map[coupling.Reason]int
}

func NewTransitions() *Transitions {
	return &Transitions{name: "transitions", byReason: make(map[coupling.Reason]int)}
}

func (t *Transitions) Name() string { return t.name }

func (t *Transitions) Observe(f sim.Frame) {
	for _, e := range f.Transitions {
		if !e.Changed() {
			continue
		}
		t.total++
		t.byReason[e.Reason]++
	}
}

func (t *Transitions) Value() float64 { return float64(t.total) }

func (t *Transitions) Count(r coupling.Reason) int { return t.byReason[r] }

func (t *Transitions) Reset() {
	t.total = 0
	clear(t.byReason)
}
