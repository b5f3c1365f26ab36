// Package scenario turns a config.Config into a ready-to-run simulator:
// it selects a backend, builds bodies, trajectories and joints, and wires
// the recorder, metrics and trace.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/backend"
	"github.com/san-kum/hybridsim/internal/collision"
	"github.com/san-kum/hybridsim/internal/config"
	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/fixedstep"
	"github.com/san-kum/hybridsim/internal/metrics"
	"github.com/san-kum/hybridsim/internal/physics"
	"github.com/san-kum/hybridsim/internal/sim"
	"github.com/san-kum/hybridsim/internal/snapshot"
	"github.com/san-kum/hybridsim/internal/storage"
)

var ErrBuild = errors.New("scenario: build failed")

// ConstraintLimit is the joint violation ConstraintError treats as fully
// unstable.
const ConstraintLimit = 0.5

type Option func(*options)

type options struct {
	backends *backend.Registry
	shapes   *Registry
	logger   *log.Logger
}

// WithBackends selects from r instead of a fresh backend.NewRegistry.
func WithBackends(r *backend.Registry) Option { return func(o *options) { o.backends = r } }
func WithRegistry(r *Registry) Option         { return func(o *options) { o.shapes = r } }
func WithLogger(l *log.Logger) Option         { return func(o *options) { o.logger = l } }

// Scenario is a built simulator plus everything observing it.
type Scenario struct {
	cfg       *config.Config
	selection backend.SelectionResult
	simulator *sim.Simulator
	trace     *storage.Trace
	logger    *log.Logger

	Energy      *metrics.KineticEnergy
	Drift       *metrics.EnergyDrift
	Constraints *metrics.ConstraintError
	Transitions *metrics.Transitions
}

func Build(cfg *config.Config, opts ...Option) (*Scenario, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backends == nil {
		o.backends = backend.NewRegistry()
	}
	if o.shapes == nil {
		o.shapes = NewRegistry()
	}
	if o.logger != nil {
		o.backends.SetLogger(o.logger)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sel, err := o.backends.Select(cfg.Backend, cfg.ForceFallback)
	if err != nil {
		return nil, err
	}
	world, err := newWorld(cfg, sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuild, err)
	}

	policy, err := Policy(cfg.Coupling)
	if err != nil {
		return nil, err
	}

	s := sim.New(world, policy)
	frame, err := physics.ParseFrame(cfg.Frame)
	if err != nil {
		return nil, err
	}
	if err := s.SetFrame(frame); err != nil {
		return nil, err
	}
	if cfg.FixedStep > 0 {
		acc, err := fixedstep.New(cfg.FixedStep, cfg.MaxSubSteps)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuild, err)
		}
		s.SetAccumulator(acc)
	}
	if cfg.Record {
		s.SetRecorder(snapshot.NewRecorder())
	}

	sc := &Scenario{
		cfg:         cfg,
		selection:   sel,
		simulator:   s,
		trace:       storage.NewTrace(),
		logger:      o.logger,
		Energy:      metrics.NewKineticEnergy(),
		Drift:       metrics.NewEnergyDrift(),
		Constraints: metrics.NewConstraintError(ConstraintLimit),
		Transitions: metrics.NewTransitions(),
	}
	s.AddMetric(sc.Energy)
	s.AddMetric(sc.Drift)
	s.AddMetric(sc.Constraints)
	s.AddMetric(sc.Transitions)
	s.AddFrameListener(sc.trace.Observe)
	if o.logger != nil {
		s.AddTransitionListener(func(e coupling.Event) error {
			if e.Changed() {
				o.logger.Info("mode change", "object", e.ObjectID, "from", e.From, "to", e.To, "reason", e.Reason, "t", e.Time)
			}
			return nil
		})
	}

	for _, b := range cfg.Bodies {
		spec, err := ObjectSpec(o.shapes, b, frame)
		if err != nil {
			return nil, err
		}
		if _, err := s.AddObject(spec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuild, err)
		}
	}
	for i, j := range cfg.Joints {
		if err := addJoint(s, j); err != nil {
			return nil, fmt.Errorf("%w: joint %d: %v", ErrBuild, i, err)
		}
	}

	if o.logger != nil {
		o.logger.Debug("scenario built", "name", cfg.Name, "backend", sel.Selected, "objects", len(cfg.Bodies), "joints", len(cfg.Joints))
	}
	return sc, nil
}

func newWorld(cfg *config.Config, sel backend.SelectionResult) (physics.World, error) {
	wo := backend.WorldOptions{
		Tuning:              cfg.Tuning,
		Gravity:             mgl64.Vec3(cfg.Gravity),
		ContinuousCollision: cfg.CCD,
	}
	if sel.Selected == backend.NBody {
		return backend.NBodyBackend{
			G:          cfg.NBody.G,
			Softening:  cfg.NBody.Softening,
			Integrator: cfg.NBody.Integrator,
		}.NewWorld(wo)
	}
	return sel.Backend.NewWorld(wo)
}

func addJoint(s *sim.Simulator, j config.JointConfig) error {
	stiffness := j.Stiffness
	if stiffness == 0 {
		stiffness = config.DefaultStiffness
	}
	a, ok := s.Body(j.A)
	if !ok {
		return fmt.Errorf("%q has no rigid body", j.A)
	}

	var def physics.ConstraintDefinition
	var err error
	if j.B == "" {
		def, err = physics.NewPointJoint(a, mgl64.Vec3(j.Anchor), stiffness)
	} else {
		b, ok := s.Body(j.B)
		if !ok {
			return fmt.Errorf("%q has no rigid body", j.B)
		}
		def, err = physics.NewDistanceJoint(a, b, j.Rest, stiffness)
	}
	if err != nil {
		return err
	}
	_, err = s.World().CreateConstraint(def)
	return err
}

// ObjectSpec converts one configured body. The mode defaults to
// ORBITAL_ONLY for bodies with an orbit and RIGID_ONLY otherwise.
func ObjectSpec(r *Registry, b config.BodyConfig, frame physics.Frame) (sim.ObjectSpec, error) {
	spec := sim.ObjectSpec{ID: b.ID}

	switch {
	case b.Mode != "":
		m, err := coupling.ParseMode(strings.ToUpper(b.Mode))
		if err != nil {
			return spec, err
		}
		spec.Mode = m
	case b.Orbit != nil:
		spec.Mode = coupling.OrbitalOnly
	default:
		spec.Mode = coupling.RigidOnly
	}

	if b.Orbit != nil {
		tr, err := r.Trajectory(b.Orbit)
		if err != nil {
			return spec, fmt.Errorf("body %q: %w", b.ID, err)
		}
		spec.Trajectory = tr
	}
	if b.Shape != nil {
		def, err := BodyDefinition(r, b, frame)
		if err != nil {
			return spec, fmt.Errorf("body %q: %w", b.ID, err)
		}
		spec.Body = def
	}
	return spec, nil
}

// BodyDefinition builds the rigid body for b. Dynamic bodies without a
// mass get 1.
func BodyDefinition(r *Registry, b config.BodyConfig, frame physics.Frame) (physics.BodyDefinition, error) {
	shape, err := r.Shape(b.Shape)
	if err != nil {
		return physics.BodyDefinition{}, err
	}

	kind := physics.Dynamic
	if b.Type != "" {
		if kind, err = physics.ParseBodyType(strings.ToUpper(b.Type)); err != nil {
			return physics.BodyDefinition{}, err
		}
	}
	mass := b.Mass
	if kind == physics.Dynamic && mass == 0 {
		mass = 1
	}

	initial, err := physics.NewBodyState(
		mgl64.Vec3(b.Position),
		mgl64.QuatIdent(),
		mgl64.Vec3(b.Velocity),
		mgl64.Vec3(b.AngularVelocity),
		frame, 0,
	)
	if err != nil {
		return physics.BodyDefinition{}, err
	}
	def, err := physics.NewBodyDefinition(kind, mass, shape, initial)
	if err != nil {
		return physics.BodyDefinition{}, err
	}

	if b.Layer == 0 && !b.Trigger {
		return def, nil
	}
	layer, mask := b.Layer, b.Mask
	if layer == 0 {
		layer = 1
	}
	if mask == 0 {
		mask = collision.AllLayers
	}
	k := collision.Solid
	if b.Trigger {
		k = collision.Trigger
	}
	f, err := collision.NewFilter(layer, mask, k)
	if err != nil {
		return physics.BodyDefinition{}, err
	}
	return def.WithFilter(f), nil
}

// Policy builds the coupling policy. "none" yields nil, which keeps every
// object in its starting mode.
func Policy(c config.CouplingConfig) (coupling.Policy, error) {
	switch strings.ToLower(c.Policy) {
	case "", "none":
		return nil, nil
	case "distance":
		into := coupling.Coupled
		if c.Into != "" {
			m, err := coupling.ParseMode(strings.ToUpper(c.Into))
			if err != nil {
				return nil, err
			}
			into = m
		}
		return coupling.NewDistancePolicy(mgl64.Vec3(c.Anchor), c.Capture, c.Release, into)
	default:
		return nil, fmt.Errorf("%w: unknown coupling policy %q", config.ErrInvalid, c.Policy)
	}
}

func (s *Scenario) Config() *config.Config             { return s.cfg }
func (s *Scenario) Selection() backend.SelectionResult { return s.selection }
func (s *Scenario) Simulator() *sim.Simulator          { return s.simulator }
func (s *Scenario) Rows() []storage.Row                { return s.trace.Rows() }

// Snapshots returns the recorded snapshots, or nil when recording is off.
func (s *Scenario) Snapshots() []snapshot.HybridSnapshot {
	if r := s.simulator.Recorder(); r != nil {
		return r.Snapshots()
	}
	return nil
}

func (s *Scenario) Run(ctx context.Context) (*sim.Result, error) {
	res, err := s.simulator.Run(ctx, sim.Config{Dt: s.cfg.Dt, Duration: s.cfg.Duration})
	if s.logger != nil && res != nil {
		s.logger.Debug("run finished", "ticks", res.Ticks, "time", res.Time, "transitions", res.Transitions)
	}
	return res, err
}

// Metadata describes a finished run for storage.
func (s *Scenario) Metadata(res *sim.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		Scenario: s.cfg.Name,
		Backend:  s.selection.Selected,
		FellBack: s.selection.FellBack,
		Reason:   string(s.selection.Reason),
		Dt:       s.cfg.Dt,
		Duration: s.cfg.Duration,
		Objects:  s.simulator.Objects(),
	}
	if r := s.simulator.Recorder(); r != nil {
		meta.Session = r.Session().String()
	}
	if res != nil {
		meta.Ticks = res.Ticks
		meta.Metrics = res.Metrics
	}
	return meta
}

// Save writes the run to store and returns its id.
func (s *Scenario) Save(store *storage.Store, res *sim.Result) (string, error) {
	return store.Save(s.Metadata(res), s.Rows(), s.Snapshots())
}
