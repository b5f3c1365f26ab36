package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/fixedstep"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/orbital"
	"github.com/san-kum/hybridsim/internal/physics"
	"github.com/san-kum/hybridsim/internal/snapshot"
)

type object struct {
	spec    ObjectSpec
	index   int
	body    physics.BodyHandle
	hasBody bool

	orbital    orbital.State
	hasOrbital bool
}

type Simulator struct {
	world    physics.World
	orbital  *orbital.Engine
	coupling *coupling.Manager
	frame    physics.Frame

	registry   *EntityRegistry
	rigid      *RigidStateBuffer
	transforms *TransformStore

	objects map[string]*object
	order   []string

	step        StepFunc
	accumulator *fixedstep.Accumulator
	recorder    *snapshot.Recorder

	phaseListeners []PhaseListener
	frameListeners []FrameListener
	metrics        []Metric

	time   float64
	ticks  uint64
	halted error

	// per-tick scratch
	dt          float64
	alpha       float64
	substeps    int
	transitions []coupling.Event
}

// New builds a simulator over world, which may be nil when every object
// stays orbital-only. A nil policy never changes modes.
func New(world physics.World, policy coupling.Policy) *Simulator {
	s := &Simulator{
		world:      world,
		orbital:    orbital.NewEngine(),
		coupling:   coupling.NewManager(policy),
		frame:      physics.FrameWorld,
		registry:   NewEntityRegistry(),
		rigid:      &RigidStateBuffer{},
		transforms: NewTransformStore(),
		objects:    make(map[string]*object),
	}
	if world != nil {
		s.step = world.Step
	}
	return s
}

func (s *Simulator) World() physics.World           { return s.world }
func (s *Simulator) Orbital() *orbital.Engine       { return s.orbital }
func (s *Simulator) Coupling() *coupling.Manager    { return s.coupling }
func (s *Simulator) Registry() *EntityRegistry      { return s.registry }
func (s *Simulator) RigidStates() *RigidStateBuffer { return s.rigid }
func (s *Simulator) Transforms() *TransformStore    { return s.transforms }
func (s *Simulator) Recorder() *snapshot.Recorder   { return s.recorder }
func (s *Simulator) Time() float64                  { return s.time }
func (s *Simulator) Ticks() uint64                  { return s.ticks }

// SetStep replaces the step callback. The default steps the world.
func (s *Simulator) SetStep(fn StepFunc) { s.step = fn }

// SetAccumulator makes the step phase run fixed sub-steps. Nil restores a
// single variable step per tick.
func (s *Simulator) SetAccumulator(a *fixedstep.Accumulator) { s.accumulator = a }

// SetRecorder records a snapshot at the end of every tick.
func (s *Simulator) SetRecorder(r *snapshot.Recorder) { s.recorder = r }

// SetFrame sets the reference frame trajectories are evaluated in.
func (s *Simulator) SetFrame(f physics.Frame) error {
	if !f.Valid() {
		return fmt.Errorf("%w: unknown frame %d", ErrInvalidArgument, int(f))
	}
	s.frame = f
	return nil
}

func (s *Simulator) AddPhaseListener(l PhaseListener) { s.phaseListeners = append(s.phaseListeners, l) }
func (s *Simulator) AddFrameListener(l FrameListener) { s.frameListeners = append(s.frameListeners, l) }
func (s *Simulator) AddMetric(m Metric)               { s.metrics = append(s.metrics, m) }

// AddTransitionListener receives every coupling decision, including those
// that change nothing.
func (s *Simulator) AddTransitionListener(l coupling.Listener) { s.coupling.AddListener(l) }

// AddObject registers an object and returns its registry index. Objects
// whose mode uses the rigid world get a body immediately, placed on their
// trajectory when they have one.
func (s *Simulator) AddObject(spec ObjectSpec) (int, error) {
	if spec.ID == "" {
		return 0, fmt.Errorf("%w: empty object id", ErrInvalidArgument)
	}
	if _, ok := s.objects[spec.ID]; ok {
		return 0, fmt.Errorf("%w: object %q already exists", ErrInvalidArgument, spec.ID)
	}
	if !spec.Mode.Valid() {
		return 0, fmt.Errorf("%w: object %q has invalid mode %d", ErrInvalidArgument, spec.ID, int(spec.Mode))
	}
	if spec.Trajectory == nil && !spec.hasBody() {
		return 0, fmt.Errorf("%w: object %q needs a trajectory or a body", ErrInvalidArgument, spec.ID)
	}
	if err := s.checkMode(spec, spec.Mode); err != nil {
		return 0, err
	}

	o := &object{spec: spec}
	if spec.Trajectory != nil {
		if err := s.orbital.Register(spec.ID, spec.Trajectory); err != nil {
			return 0, err
		}
		st, _, err := s.orbital.Evaluate(spec.ID, s.time, s.frame)
		if err != nil {
			s.orbital.Remove(spec.ID)
			return 0, err
		}
		o.orbital, o.hasOrbital = st, true
	}
	if spec.Mode.UsesRigid() {
		if err := s.attach(o); err != nil {
			s.orbital.Remove(spec.ID)
			return 0, err
		}
	}
	if err := s.coupling.Track(spec.ID, spec.Mode); err != nil {
		s.detach(o)
		s.orbital.Remove(spec.ID)
		return 0, err
	}

	o.index = s.registry.Register(spec.ID)
	s.objects[spec.ID] = o
	s.order = append(s.order, spec.ID)
	return o.index, nil
}

// RemoveObject drops an object from every subsystem.
func (s *Simulator) RemoveObject(id string) bool {
	o, ok := s.objects[id]
	if !ok {
		return false
	}
	s.detach(o)
	s.orbital.Remove(id)
	s.coupling.Untrack(id)
	s.registry.Remove(id)
	s.transforms.Delete(o.index)
	delete(s.objects, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Body returns the rigid-world handle of an object, if it has one.
func (s *Simulator) Body(id string) (physics.BodyHandle, bool) {
	o, ok := s.objects[id]
	if !ok || !o.hasBody {
		return 0, false
	}
	return o.body, true
}

// Objects lists object ids in registration order.
func (s *Simulator) Objects() []string { return append([]string(nil), s.order...) }

// Err returns the failure that halted the simulator, if any.
func (s *Simulator) Err() error { return s.halted }

// Tick advances simulation time by exactly dt and returns the new time.
// A zero dt runs every phase and publishes a frame without stepping the
// world. A failure inside a phase halts the simulator; later ticks return
// ErrHalted.
func (s *Simulator) Tick(dt float64) (float64, error) {
	if s.halted != nil {
		return s.time, fmt.Errorf("%w: %v", ErrHalted, s.halted)
	}
	if !geom.IsFinite(dt) || dt < 0 {
		return s.time, fmt.Errorf("%w: dt must be finite and >= 0, got %g", ErrInvalidArgument, dt)
	}

	next := s.time + dt
	s.dt, s.alpha, s.substeps, s.transitions = dt, 0, 0, nil

	phases := [...]struct {
		phase Phase
		run   func(t float64) error
	}{
		{PhaseOrbital, s.orbitalPhase},
		{PhaseCoupling, s.couplingPhase},
		{PhaseRigid, s.rigidPhase},
		{PhaseStep, s.stepPhase},
		{PhasePublish, s.publishPhase},
	}
	for _, p := range phases {
		if err := p.run(next); err != nil {
			return s.time, s.fail(p.phase, next, err)
		}
		for _, l := range s.phaseListeners {
			if err := l(p.phase, next); err != nil {
				return s.time, s.fail(p.phase, next, fmt.Errorf("phase listener: %w", err))
			}
		}
	}

	s.time = next
	s.ticks++
	return s.time, nil
}

func (s *Simulator) fail(p Phase, t float64, err error) error {
	te := &TickError{Tick: s.ticks + 1, Time: t, Phase: p, Err: err}
	s.halted = te
	return te
}

func (s *Simulator) orbitalPhase(t float64) error {
	for _, id := range s.order {
		o := s.objects[id]
		if o.spec.Trajectory == nil {
			continue
		}
		st, _, err := s.orbital.Evaluate(id, t, s.frame)
		if err != nil {
			return err
		}
		o.orbital, o.hasOrbital = st, true
	}
	return nil
}

func (s *Simulator) couplingPhase(t float64) error {
	events, err := s.coupling.Update(t, s.contextFor)
	s.transitions = events
	if err != nil {
		return err
	}
	for _, e := range events {
		if !e.Changed() {
			continue
		}
		if err := s.transition(s.objects[e.ObjectID], e.From, e.To); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) contextFor(id string, current coupling.Mode) coupling.Context {
	o := s.objects[id]
	ctx := coupling.Context{Orbital: o.orbital, HasOrbital: o.hasOrbital}
	if o.hasBody {
		ctx.Rigid, ctx.HasRigid = s.world.State(o.body)
	}
	return ctx
}

// ForceMode moves an object to mode outside the policy, attaching or
// detaching its body as needed.
func (s *Simulator) ForceMode(id string, mode coupling.Mode) error {
	o, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("%w: unknown object %q", ErrInvalidArgument, id)
	}
	if err := s.checkMode(o.spec, mode); err != nil {
		return err
	}
	e, err := s.coupling.Force(id, mode, s.time)
	if err != nil {
		return err
	}
	return s.transition(o, e.From, e.To)
}

func (s *Simulator) checkMode(spec ObjectSpec, mode coupling.Mode) error {
	if mode.UsesOrbital() && spec.Trajectory == nil {
		return fmt.Errorf("%w: object %q has no trajectory for %s", ErrInvalidArgument, spec.ID, mode)
	}
	if mode.UsesRigid() {
		if !spec.hasBody() {
			return fmt.Errorf("%w: object %q has no body for %s", ErrInvalidArgument, spec.ID, mode)
		}
		if s.world == nil {
			return fmt.Errorf("%w: no rigid world for %s", ErrInvalidArgument, mode)
		}
	}
	return nil
}

func (s *Simulator) transition(o *object, from, to coupling.Mode) error {
	if err := s.checkMode(o.spec, to); err != nil {
		return err
	}
	switch {
	case to.UsesRigid() && !o.hasBody:
		return s.attach(o)
	case !to.UsesRigid() && o.hasBody:
		s.detach(o)
	}
	return nil
}

// attach creates the object's body, starting from its trajectory state
// when it has one.
func (s *Simulator) attach(o *object) error {
	h, err := s.world.CreateBody(o.spec.Body)
	if err != nil {
		return fmt.Errorf("create body for %q: %w", o.spec.ID, err)
	}
	if o.hasOrbital {
		st, err := o.orbital.BodyState()
		if err == nil {
			err = s.world.SetState(h, st)
		}
		if err != nil {
			s.world.RemoveBody(h)
			return fmt.Errorf("place body for %q: %w", o.spec.ID, err)
		}
	}
	o.body, o.hasBody = h, true
	return nil
}

func (s *Simulator) detach(o *object) {
	if !o.hasBody {
		return
	}
	s.world.RemoveBody(o.body)
	s.rigid.Delete(o.spec.ID)
	o.body, o.hasBody = 0, false
}

func (s *Simulator) rigidPhase(t float64) error {
	for _, id := range s.order {
		o := s.objects[id]
		if !o.hasBody {
			continue
		}
		mode, _ := s.coupling.Mode(id)
		if mode == coupling.Coupled && o.hasOrbital {
			st, err := o.orbital.BodyState()
			if err != nil {
				return fmt.Errorf("drive %q: %w", id, err)
			}
			if err := s.world.SetState(o.body, st); err != nil {
				return fmt.Errorf("drive %q: %w", id, err)
			}
		}
		if st, ok := s.world.State(o.body); ok {
			s.rigid.Store(id, st)
		}
	}
	return nil
}

func (s *Simulator) stepPhase(t float64) error {
	if s.step == nil {
		return nil
	}
	if s.accumulator == nil {
		if s.dt == 0 {
			return nil
		}
		s.substeps = 1
		return s.step(s.dt)
	}
	res, err := s.accumulator.Advance(s.dt, fixedstep.StepFunc(s.step))
	s.alpha, s.substeps = res.Alpha, res.Steps
	return err
}

func (s *Simulator) publishPhase(t float64) error {
	f := Frame{
		Tick:        s.ticks + 1,
		Time:        t,
		Dt:          s.dt,
		Alpha:       s.alpha,
		SubSteps:    s.substeps,
		Objects:     make([]ObjectFrame, 0, len(s.order)),
		Transitions: s.transitions,
		World:       s.world,
	}
	general := make(map[snapshot.Handle]physics.BodyState, len(s.order))
	orbitalStates := make(map[snapshot.Handle]physics.BodyState)

	for _, id := range s.order {
		o := s.objects[id]
		mode, _ := s.coupling.Mode(id)

		st, err := s.resolve(o, mode, t)
		if err != nil {
			return err
		}
		if o.hasBody {
			if ws, ok := s.world.State(o.body); ok {
				s.rigid.Store(id, ws)
			}
		}

		s.transforms.Set(o.index, Transform{
			ID:          id,
			Position:    st.Position(),
			Orientation: st.Orientation(),
			Mode:        mode,
			Time:        t,
		})
		f.Objects = append(f.Objects, ObjectFrame{
			ID:      id,
			Index:   o.index,
			Mode:    mode,
			State:   st,
			Body:    o.body,
			HasBody: o.hasBody,
		})

		general[snapshot.Handle(o.index)] = st
		if o.hasOrbital {
			os, err := o.orbital.BodyState()
			if err != nil {
				return fmt.Errorf("orbital state for %q: %w", id, err)
			}
			orbitalStates[snapshot.Handle(o.index)] = os
		}
	}

	if s.recorder != nil {
		var extrapolation float64
		if s.accumulator != nil {
			extrapolation = s.accumulator.Remainder()
		}
		snap, err := snapshot.New(t, f.Alpha, extrapolation, general, orbitalStates)
		if err != nil {
			return err
		}
		s.recorder.Record(snap)
	}

	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, l := range s.frameListeners {
		if err := l(f); err != nil {
			return fmt.Errorf("frame listener: %w", err)
		}
	}
	return nil
}

// resolve picks the authoritative state for the object's mode: the
// trajectory for orbital-only and coupled objects, the world otherwise.
func (s *Simulator) resolve(o *object, mode coupling.Mode, t float64) (physics.BodyState, error) {
	if mode.UsesOrbital() && o.hasOrbital {
		st, err := o.orbital.BodyState()
		if err != nil {
			return physics.BodyState{}, fmt.Errorf("resolve %q: %w", o.spec.ID, err)
		}
		return st.WithTimestamp(t)
	}
	if o.hasBody {
		st, ok := s.world.State(o.body)
		if !ok {
			return physics.BodyState{}, fmt.Errorf("resolve %q: body %d missing from world", o.spec.ID, o.body)
		}
		return st.WithTimestamp(t)
	}
	return physics.BodyState{}, fmt.Errorf("resolve %q: no state source for %s", o.spec.ID, mode)
}

// Run ticks at cfg.Dt until cfg.Duration is reached or ctx is done.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	res := &Result{Metrics: make(map[string]float64)}
	steps := int(cfg.Duration/cfg.Dt + 0.5)
	var err error
	for i := 0; i < steps; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if _, err = s.Tick(cfg.Dt); err != nil {
			break
		}
		res.Ticks++
		for _, e := range s.transitions {
			if e.Changed() {
				res.Transitions++
			}
		}
	}

	res.Time = s.time
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, err
}

func validateConfig(cfg Config) error {
	if !geom.IsFinite(cfg.Dt) || cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidArgument, cfg.Dt)
	}
	if !geom.IsFinite(cfg.Duration) || cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidArgument, cfg.Duration)
	}
	return nil
}
