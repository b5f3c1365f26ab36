package physics

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/integrators"
)

// parallelThreshold is the body count above which forces are computed on
// all CPUs.
const parallelThreshold = 16

// NBodyWorld integrates mutual gravitation between dynamic bodies, by
// default with a kick-drift-kick leapfrog. Static and kinematic bodies
// attract but are not attracted. Joints and contacts are not supported.
type NBodyWorld struct {
	G         float64
	Softening float64

	bodies   map[BodyHandle]*nbody
	order    []BodyHandle
	next     BodyHandle
	tuning   RuntimeTuning
	time     float64
	workers  int
	integ    integrators.Integrator
	accel    []mgl64.Vec3
	scratchP []mgl64.Vec3
	scratchM []float64
}

type nbody struct {
	def   BodyDefinition
	state BodyState
}

func NewNBodyWorld(g, softening float64, tuning RuntimeTuning) (*NBodyWorld, error) {
	if !geom.IsFinite(g) || g < 0 {
		return nil, fmt.Errorf("%w: gravitational constant must be finite and >= 0, got %g", ErrInvalidArgument, g)
	}
	if !geom.IsFinite(softening) || softening < 0 {
		return nil, fmt.Errorf("%w: softening must be finite and >= 0, got %g", ErrInvalidArgument, softening)
	}
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	return &NBodyWorld{
		G:         g,
		Softening: softening,
		bodies:    make(map[BodyHandle]*nbody),
		next:      1,
		tuning:    tuning,
		workers:   runtime.NumCPU(),
		integ:     integrators.NewLeapfrog(),
	}, nil
}

func (w *NBodyWorld) CreateBody(def BodyDefinition) (BodyHandle, error) {
	if def.shape == nil {
		return 0, fmt.Errorf("%w: body definition has no shape", ErrInvalidArgument)
	}
	h := w.next
	w.next++
	w.bodies[h] = &nbody{def: def, state: def.initial}
	w.order = append(w.order, h)
	return h, nil
}

func (w *NBodyWorld) RemoveBody(h BodyHandle) bool {
	if _, ok := w.bodies[h]; !ok {
		return false
	}
	delete(w.bodies, h)
	w.order = slices.DeleteFunc(w.order, func(x BodyHandle) bool { return x == h })
	return true
}

func (w *NBodyWorld) Bodies() []BodyHandle { return slices.Clone(w.order) }

func (w *NBodyWorld) State(h BodyHandle) (BodyState, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return BodyState{}, false
	}
	return b.state, true
}

func (w *NBodyWorld) Definition(h BodyHandle) (BodyDefinition, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return BodyDefinition{}, false
	}
	return b.def, true
}

func (w *NBodyWorld) SetState(h BodyHandle, s BodyState) error {
	b, ok := w.bodies[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBody, h)
	}
	if s.IsZero() {
		return fmt.Errorf("%w: zero body state", ErrInvalidArgument)
	}
	b.state = s
	return nil
}

func (w *NBodyWorld) CreateConstraint(ConstraintDefinition) (ConstraintHandle, error) {
	return 0, fmt.Errorf("%w: joints in n-body world", ErrUnsupported)
}

func (w *NBodyWorld) RemoveConstraint(ConstraintHandle) bool { return false }

func (w *NBodyWorld) Tuning() RuntimeTuning { return w.tuning }

func (w *NBodyWorld) SetTuning(t RuntimeTuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	w.tuning = t
	return nil
}

func (w *NBodyWorld) Time() float64 { return w.time }

// SetIntegrator replaces the time integrator. Nil restores leapfrog. A step
// the integrator reports as non-finite leaves every body and the clock
// untouched.
func (w *NBodyWorld) SetIntegrator(i integrators.Integrator) {
	if i == nil {
		i = integrators.NewLeapfrog()
	}
	w.integ = i
}

func (w *NBodyWorld) Step(dt float64) error {
	if !geom.IsFinite(dt) || dt <= 0 {
		return fmt.Errorf("%w: dt must be finite and > 0, got %g", ErrInvalidArgument, dt)
	}
	n := len(w.order)

	x := make(integrators.State, 6*n)
	for i, h := range w.order {
		b := w.bodies[h]
		p := b.state.position
		copy(x[3*i:], p[:])
		if b.def.bodyType != Static {
			v := b.state.linearVelocity
			copy(x[3*n+3*i:], v[:])
		}
	}

	x, err := w.integ.Step(w.derive, x, w.time, dt)
	if err != nil {
		var nf *integrators.NonFiniteError
		if errors.As(err, &nf) {
			h := w.order[(nf.Index%(3*n))/3]
			return fmt.Errorf("%w: body %d diverged: %w", ErrInvalidArgument, h, err)
		}
		return err
	}

	w.time += dt
	for i, h := range w.order {
		b := w.bodies[h]
		if b.def.bodyType != Static {
			b.state.position = mgl64.Vec3{x[3*i], x[3*i+1], x[3*i+2]}
			b.state.orientation = integrateOrientation(b.state.orientation, b.state.angularVelocity, dt)
		}
		if b.def.bodyType == Dynamic {
			j := 3*n + 3*i
			b.state.linearVelocity = mgl64.Vec3{x[j], x[j+1], x[j+2]}
		}
		b.state.timestamp = w.time
	}
	return nil
}

// derive maps packed positions and velocities to velocities and
// accelerations. Static bodies get a zero derivative and only dynamic
// bodies accelerate.
func (w *NBodyWorld) derive(x integrators.State, _ float64) integrators.State {
	n := len(w.order)
	w.accelerations(x)

	dx := make(integrators.State, 6*n)
	for i, h := range w.order {
		switch w.bodies[h].def.bodyType {
		case Static:
			continue
		case Dynamic:
			copy(dx[3*n+3*i:], w.accel[i][:])
		}
		copy(dx[3*i:], x[3*n+3*i:3*n+3*i+3])
	}
	return dx
}

func (w *NBodyWorld) accelerations(x integrators.State) {
	n := len(w.order)
	w.accel = slices.Grow(w.accel[:0], n)[:n]
	w.scratchP = slices.Grow(w.scratchP[:0], n)[:n]
	w.scratchM = slices.Grow(w.scratchM[:0], n)[:n]
	for i, h := range w.order {
		w.scratchP[i] = mgl64.Vec3{x[3*i], x[3*i+1], x[3*i+2]}
		w.scratchM[i] = w.bodies[h].def.mass
		w.accel[i] = mgl64.Vec3{}
	}

	if n < parallelThreshold || w.workers < 2 {
		w.forcesSerial()
		return
	}
	w.forcesParallel()
}

func (w *NBodyWorld) forcesSerial() {
	pos, masses, acc := w.scratchP, w.scratchM, w.accel
	eps2 := w.Softening * w.Softening

	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			r := pos[j].Sub(pos[i])
			r2 := r.LenSqr() + eps2
			if r2 == 0 {
				continue
			}
			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			acc[i] = acc[i].Add(r.Mul(w.G * masses[j] * r3Inv))
			acc[j] = acc[j].Sub(r.Mul(w.G * masses[i] * r3Inv))
		}
	}
}

// forcesParallel splits bodies into contiguous chunks, one per worker.
// Each worker writes only its own rows of acc.
func (w *NBodyWorld) forcesParallel() {
	pos, masses, acc := w.scratchP, w.scratchM, w.accel
	n := len(pos)
	eps2 := w.Softening * w.Softening
	chunkSize := (n + w.workers - 1) / w.workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				var a mgl64.Vec3
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					r := pos[j].Sub(pos[i])
					r2 := r.LenSqr() + eps2
					if r2 == 0 {
						continue
					}
					rInv := 1.0 / math.Sqrt(r2)
					a = a.Add(r.Mul(w.G * masses[j] * rInv * rInv * rInv))
				}
				acc[i] = a
			}
		}(start, end)
	}
	wg.Wait()
}

// Energy is kinetic plus softened gravitational potential energy.
func (w *NBodyWorld) Energy() float64 {
	ke, pe := 0.0, 0.0
	eps2 := w.Softening * w.Softening
	for i, hi := range w.order {
		bi := w.bodies[hi]
		if bi.def.bodyType == Dynamic {
			ke += 0.5 * bi.def.mass * bi.state.linearVelocity.LenSqr()
		}
		for _, hj := range w.order[i+1:] {
			bj := w.bodies[hj]
			r := math.Sqrt(bj.state.position.Sub(bi.state.position).LenSqr() + eps2)
			if r == 0 {
				continue
			}
			pe -= w.G * bi.def.mass * bj.def.mass / r
		}
	}
	return ke + pe
}

// Momentum is the total linear momentum of dynamic bodies.
func (w *NBodyWorld) Momentum() mgl64.Vec3 {
	var p mgl64.Vec3
	for _, h := range w.order {
		b := w.bodies[h]
		if b.def.bodyType == Dynamic {
			p = p.Add(b.state.linearVelocity.Mul(b.def.mass))
		}
	}
	return p
}
