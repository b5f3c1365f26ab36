package metrics

import (
	"math"

	"github.com/san-kum/hybridsim/internal/physics"
	"github.com/san-kum/hybridsim/internal/sim"
)

// KineticEnergy averages the total translational kinetic energy of the
// dynamic bodies in each frame.
type KineticEnergy struct {
	name        string
	samples     int
	totalEnergy float64
	last        float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f sim.Frame) {
	d, ok := f.World.(physics.Describer)
	if !ok {
		return
	}
	ke := 0.0
	for _, o := range f.Objects {
		if !o.HasBody {
			continue
		}
		def, ok := d.Definition(o.Body)
		if !ok || def.Type() != physics.Dynamic {
			continue
		}
		v := o.State.LinearVelocity()
		ke += 0.5 * def.Mass() * v.Dot(v)
	}
	e.last = ke
	e.totalEnergy += ke
	e.samples++
}

// Last is the energy of the most recent frame.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.last = 0
	e.samples = 0
}

// Conservative worlds report their total energy.
type Conservative interface {
	Energy() float64
}

// EnergyDrift tracks the largest relative change in total energy since the
// first observed frame for worlds that conserve it.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	ec, ok := f.World.(Conservative)
	if !ok {
		return
	}

	energy := ec.Energy()

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
