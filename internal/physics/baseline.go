package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/broadphase"
	"github.com/san-kum/hybridsim/internal/collision"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/narrowphase"
	"github.com/san-kum/hybridsim/internal/solver"
)

// DefaultGravity is standard Earth gravity along -Y.
var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

type body struct {
	handle  BodyHandle
	def     BodyDefinition
	state   BodyState
	invMass float64
}

func (b *body) bounds() geom.Aabb { return WorldBounds(b.def.shape, b.state) }

// BaselineWorld is the in-process reference world built on solver.World.
// Kinematic bodies move with their velocity and ignore gravity, contacts
// and joints. Dynamic bodies that would cross a static body within one
// step are stopped at the time of impact.
type BaselineWorld struct {
	solver      *solver.World[*body]
	adapter     *bodyAdapter
	impulse     solver.ResponseFunc[*body]
	bodies      map[BodyHandle]*body
	order       []BodyHandle
	constraints map[ConstraintHandle]solver.Constraint[*body]
	conDefs     map[ConstraintHandle]ConstraintDefinition
	nextBody    BodyHandle
	nextCon     ConstraintHandle
	tuning      RuntimeTuning
	time        float64
	ccd         bool
}

// BaselineOption configures a BaselineWorld.
type BaselineOption func(*BaselineWorld) error

func WithGravity(g mgl64.Vec3) BaselineOption {
	return func(w *BaselineWorld) error { return w.solver.SetGravity(g) }
}

// WithContinuousCollision toggles the swept test against static bodies.
func WithContinuousCollision(on bool) BaselineOption {
	return func(w *BaselineWorld) error {
		w.ccd = on
		return nil
	}
}

// WithCollisionListener forwards every collision event with body handles.
func WithCollisionListener(fn func(a, b BodyHandle, e collision.EventType) error) BaselineOption {
	return func(w *BaselineWorld) error {
		w.solver.AddEventListener(func(e collision.Event[*body]) error {
			return fn(e.Pair.A().handle, e.Pair.B().handle, e.Type)
		})
		return nil
	}
}

func NewBaselineWorld(tuning RuntimeTuning, opts ...BaselineOption) (*BaselineWorld, error) {
	if err := tuning.Validate(); err != nil {
		return nil, err
	}

	w := &BaselineWorld{
		bodies:      make(map[BodyHandle]*body),
		constraints: make(map[ConstraintHandle]solver.Constraint[*body]),
		conDefs:     make(map[ConstraintHandle]ConstraintDefinition),
		nextBody:    1,
		nextCon:     1,
		tuning:      tuning,
		ccd:         true,
	}
	w.adapter = &bodyAdapter{world: w}
	w.impulse = solver.ImpulseResponse[*body](solver.DefaultImpulseConfig())

	sw, err := solver.NewWorld[*body](w.adapter, DefaultGravity, tuning.SolverIterations)
	if err != nil {
		return nil, err
	}
	w.solver = sw

	hash, err := broadphase.NewSpatialHash[*body](2.0)
	if err != nil {
		return nil, err
	}
	pipeline, err := collision.NewPipeline[*body](hash, (*body).bounds, bodyFilter, bodyContact)
	if err != nil {
		return nil, err
	}
	sw.SetPipeline(pipeline)
	sw.SetResponse(w.respond)

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *BaselineWorld) CreateBody(def BodyDefinition) (BodyHandle, error) {
	if def.shape == nil {
		return 0, fmt.Errorf("%w: body definition has no shape", ErrInvalidArgument)
	}
	h := w.nextBody
	w.nextBody++

	b := &body{handle: h, def: def, state: def.initial, invMass: def.InverseMass()}
	w.bodies[h] = b
	w.order = append(w.order, h)
	w.solver.AddBody(b)
	return h, nil
}

func (w *BaselineWorld) RemoveBody(h BodyHandle) bool {
	b, ok := w.bodies[h]
	if !ok {
		return false
	}
	w.solver.RemoveBody(b)
	delete(w.bodies, h)
	w.order = slices.DeleteFunc(w.order, func(x BodyHandle) bool { return x == h })
	for ch, def := range w.conDefs {
		if def.bodyA == h || (def.kind == DistanceJoint && def.bodyB == h) {
			delete(w.conDefs, ch)
			delete(w.constraints, ch)
		}
	}
	return true
}

func (w *BaselineWorld) Bodies() []BodyHandle { return slices.Clone(w.order) }

func (w *BaselineWorld) State(h BodyHandle) (BodyState, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return BodyState{}, false
	}
	return b.state, true
}

// Definition returns the definition a body was created from.
func (w *BaselineWorld) Definition(h BodyHandle) (BodyDefinition, bool) {
	b, ok := w.bodies[h]
	if !ok {
		return BodyDefinition{}, false
	}
	return b.def, true
}

func (w *BaselineWorld) SetState(h BodyHandle, s BodyState) error {
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

func (w *BaselineWorld) CreateConstraint(def ConstraintDefinition) (ConstraintHandle, error) {
	stiffness := def.stiffness / (1 + w.tuning.SoftCFM)

	var c solver.Constraint[*body]
	switch def.kind {
	case DistanceJoint:
		a, ok := w.bodies[def.bodyA]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownBody, def.bodyA)
		}
		b, ok := w.bodies[def.bodyB]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownBody, def.bodyB)
		}
		dc, err := solver.NewDistanceConstraint(a, b, def.restLength, stiffness)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		c = dc
	case PointJoint:
		a, ok := w.bodies[def.bodyA]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownBody, def.bodyA)
		}
		pc, err := solver.NewPointConstraint(a, def.anchor, stiffness)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		c = pc
	default:
		return 0, fmt.Errorf("%w: constraint kind %s", ErrUnsupported, def.kind)
	}

	if err := w.solver.AddConstraint(c); err != nil {
		return 0, err
	}
	h := w.nextCon
	w.nextCon++
	w.constraints[h] = c
	w.conDefs[h] = def
	return h, nil
}

func (w *BaselineWorld) RemoveConstraint(h ConstraintHandle) bool {
	c, ok := w.constraints[h]
	if !ok {
		return false
	}
	w.solver.RemoveConstraint(c)
	delete(w.constraints, h)
	delete(w.conDefs, h)
	return true
}

// ConstraintError is the largest remaining joint violation.
func (w *BaselineWorld) ConstraintError() float64 { return w.solver.ConstraintError() }

func (w *BaselineWorld) Tuning() RuntimeTuning { return w.tuning }

func (w *BaselineWorld) SetTuning(t RuntimeTuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := w.solver.SetIterations(t.SolverIterations); err != nil {
		return err
	}
	w.tuning = t
	return nil
}

func (w *BaselineWorld) Gravity() mgl64.Vec3 { return w.solver.Gravity() }

func (w *BaselineWorld) Time() float64 { return w.time }

func (w *BaselineWorld) Step(dt float64) error {
	if !geom.IsFinite(dt) || dt <= 0 {
		return fmt.Errorf("%w: dt must be finite and > 0, got %g", ErrInvalidArgument, dt)
	}

	prev := make(map[BodyHandle]geom.Aabb, len(w.order))
	for _, h := range w.order {
		b := w.bodies[h]
		prev[h] = b.bounds()
		if b.def.bodyType == Kinematic {
			v := b.state.linearVelocity
			b.state.position = b.state.position.Add(v.Mul(dt))
		}
	}

	if err := w.solver.Step(dt); err != nil {
		return err
	}

	w.time += dt
	for _, h := range w.order {
		b := w.bodies[h]
		if b.def.bodyType != Static {
			b.state.orientation = integrateOrientation(b.state.orientation, b.state.angularVelocity, dt)
		}
		if w.ccd && b.def.bodyType == Dynamic {
			w.sweep(b, prev[h])
		}
		b.state.timestamp = w.time
	}
	return nil
}

// sweep stops a fast dynamic body at its first impact with a static body
// when the discrete step would have carried it through.
func (w *BaselineWorld) sweep(b *body, before geom.Aabb) {
	displacement := b.bounds().Center().Sub(before.Center())
	half := before.HalfExtents()
	if displacement.Len() < math.Min(half.X(), math.Min(half.Y(), half.Z())) {
		return
	}

	best, hit := 1.0, false
	for _, h := range w.order {
		other := w.bodies[h]
		if other.def.bodyType != Static {
			continue
		}
		fa, _ := bodyFilter(b)
		fb, _ := bodyFilter(other)
		if !fa.ResponseEnabledWith(fb) {
			continue
		}
		if toi, ok := narrowphase.SweptAabbTOI(before, displacement, other.bounds()); ok && toi > 0 && toi < best {
			best, hit = toi, true
		}
	}
	if !hit {
		return
	}

	dir := displacement.Normalize()
	v := b.state.linearVelocity
	b.state.position = before.Center().Add(displacement.Mul(best))
	b.state.linearVelocity = v.Sub(dir.Mul(math.Max(0, v.Dot(dir))))
}

func (w *BaselineWorld) Raycast(r geom.Ray3D, maxDistance float64) (RayHit, bool) {
	best := RayHit{Distance: math.Inf(1)}
	found := false
	scale := r.Direction().Len()
	for _, h := range w.order {
		t, ok := narrowphase.RayAabb(r, w.bodies[h].bounds())
		if !ok {
			continue
		}
		d := t * scale
		if d <= maxDistance && d < best.Distance {
			best = RayHit{Body: h, Distance: d, Point: r.At(t)}
			found = true
		}
	}
	return best, found
}

func (w *BaselineWorld) Overlapping(box geom.Aabb) []BodyHandle {
	var out []BodyHandle
	for _, h := range w.order {
		if w.bodies[h].bounds().Overlaps(box) {
			out = append(out, h)
		}
	}
	return out
}

// respond applies the impulse response, dropping restitution for contacts
// slower than the bounce velocity threshold.
func (w *BaselineWorld) respond(adapter solver.RigidBodyAdapter[*body], c collision.Contact[*body]) {
	rel := c.B().state.linearVelocity.Sub(c.A().state.linearVelocity)
	w.adapter.bounce = w.tuning.Bounce
	if -rel.Dot(c.Manifold.Normal()) < w.tuning.BounceVelocity {
		w.adapter.bounce = 0
	}
	w.impulse(adapter, c)
}

func integrateOrientation(q mgl64.Quat, omega mgl64.Vec3, dt float64) mgl64.Quat {
	if omega.LenSqr() == 0 {
		return q
	}
	spin := mgl64.Quat{W: 0, V: omega}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}

type bodyAdapter struct {
	world  *BaselineWorld
	bounce float64
}

func (a *bodyAdapter) Position(b *body) mgl64.Vec3 { return b.state.position }

func (a *bodyAdapter) SetPosition(b *body, p mgl64.Vec3) {
	if b.invMass > 0 {
		b.state.position = p
	}
}

func (a *bodyAdapter) Velocity(b *body) mgl64.Vec3 { return b.state.linearVelocity }

func (a *bodyAdapter) SetVelocity(b *body, v mgl64.Vec3) {
	if b.invMass > 0 {
		b.state.linearVelocity = v
	}
}

func (a *bodyAdapter) InverseMass(b *body) float64 { return b.invMass }
func (a *bodyAdapter) Restitution(*body) float64   { return a.bounce }
func (a *bodyAdapter) Friction(*body) float64      { return a.world.tuning.Friction }

func bodyFilter(b *body) (collision.Filter, bool) {
	return b.def.Filter()
}

func bodyContact(a, b *body) (narrowphase.ContactManifold, bool) {
	sa, aSphere := a.def.shape.(Sphere)
	sb, bSphere := b.def.shape.(Sphere)
	switch {
	case aSphere && bSphere:
		return narrowphase.SphereContact(sphereAt(sa, a), sphereAt(sb, b))
	case aSphere:
		return narrowphase.SphereAabbContact(sphereAt(sa, a), b.bounds())
	case bSphere:
		m, ok := narrowphase.SphereAabbContact(sphereAt(sb, b), a.bounds())
		return m.Flipped(), ok
	default:
		return narrowphase.AabbContact(a.bounds(), b.bounds())
	}
}

func sphereAt(s Sphere, b *body) geom.BoundingSphere {
	return geom.MustBoundingSphere(b.state.position, s.radius)
}
