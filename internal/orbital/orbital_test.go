package orbital

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/physics"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestEngine_RegisterEvaluate(t *testing.T) {
	e := NewEngine()
	if err := e.Register("voyager", Linear(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 2, 3}, 0)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s, ok, err := e.Evaluate("voyager", 2, physics.FrameInertial)
	if err != nil || !ok {
		t.Fatalf("Evaluate: ok=%v err=%v", ok, err)
	}
	if s.Position != (mgl64.Vec3{2, 4, 6}) {
		t.Errorf("expected (2,4,6), got %v", s.Position)
	}
	if s.Frame != physics.FrameInertial || s.Time != 2 {
		t.Errorf("unexpected frame/time %s %g", s.Frame, s.Time)
	}

	if _, ok, err := e.Evaluate("ghost", 0, physics.FrameWorld); ok || err != nil {
		t.Errorf("unknown id should be absent, got ok=%v err=%v", ok, err)
	}
}

func TestEngine_InvalidTrajectoryOutput(t *testing.T) {
	e := NewEngine()
	_ = e.Register("bad", func(t float64, f physics.Frame) State {
		return State{Position: mgl64.Vec3{math.NaN(), 0, 0}, Orientation: mgl64.QuatIdent(), Frame: f, Time: t}
	})
	if _, _, err := e.Evaluate("bad", 0, physics.FrameWorld); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := e.EvaluateAll(0, physics.FrameWorld); err == nil {
		t.Error("EvaluateAll should surface the invalid state")
	}
}

func TestEngine_OrderAndRemove(t *testing.T) {
	e := NewEngine()
	for _, id := range []string{"c", "a", "b"} {
		_ = e.Register(id, Fixed(mgl64.Vec3{}))
	}
	_ = e.Register("a", Fixed(mgl64.Vec3{1, 0, 0}))

	ids := e.IDs()
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("expected registration order [c a b], got %v", ids)
	}
	if !e.Remove("a") || e.Remove("a") || e.Has("a") {
		t.Error("remove should succeed once")
	}

	all, err := e.EvaluateAll(1, physics.FrameWorld)
	if err != nil || len(all) != 2 {
		t.Errorf("expected 2 states, got %d (%v)", len(all), err)
	}
}

func TestEngine_RegisterValidation(t *testing.T) {
	e := NewEngine()
	if err := e.Register("", Fixed(mgl64.Vec3{})); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id: %v", err)
	}
	if err := e.Register("x", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil trajectory: %v", err)
	}
}

func TestCircular(t *testing.T) {
	tr, err := Circular{Center: mgl64.Vec3{1, 1, 1}, Normal: mgl64.Vec3{0, 0, 1}, Radius: 5, AngularSpeed: 0.5}.Trajectory()
	if err != nil {
		t.Fatalf("Trajectory: %v", err)
	}

	for _, tm := range []float64{0, 0.7, 3, 12.5} {
		s := tr(tm, physics.FrameWorld)
		rel := s.Position.Sub(mgl64.Vec3{1, 1, 1})
		if !near(rel.Len(), 5, 1e-9) {
			t.Errorf("t=%g: radius %.9f", tm, rel.Len())
		}
		if !near(rel.Z(), 0, 1e-12) {
			t.Errorf("t=%g: left the orbital plane, z=%g", tm, rel.Z())
		}
		if !near(s.Velocity.Len(), 2.5, 1e-9) {
			t.Errorf("t=%g: speed %.9f, want 2.5", tm, s.Velocity.Len())
		}
		if !near(s.Velocity.Dot(rel), 0, 1e-9) {
			t.Errorf("t=%g: velocity not tangential", tm)
		}
	}

	if _, err := (Circular{Normal: mgl64.Vec3{0, 0, 1}, Radius: 0}).Trajectory(); err == nil {
		t.Error("zero radius should be rejected")
	}
}

func TestKepler(t *testing.T) {
	el := Elements{Mu: 398600, SemiMajorAxis: 7000, Eccentricity: 0.1, Inclination: 0.5, AscendingNode: 0.3, ArgPeriapsis: 1.1}
	tr, err := Kepler(el)
	if err != nil {
		t.Fatalf("Kepler: %v", err)
	}

	peri := tr(0, physics.FrameInertial)
	if r := peri.Position.Len(); !near(r, 7000*0.9, 1e-6) {
		t.Errorf("periapsis radius %.6f, want 6300", r)
	}

	period := el.Period()
	for _, frac := range []float64{0.1, 0.37, 0.5, 0.81} {
		s := tr(frac*period, physics.FrameInertial)
		r := s.Position.Len()
		visViva := el.Mu * (2/r - 1/el.SemiMajorAxis)
		if !near(s.Velocity.LenSqr(), visViva, 1e-6*visViva) {
			t.Errorf("frac %.2f: v²=%.6f, vis-viva %.6f", frac, s.Velocity.LenSqr(), visViva)
		}
	}

	back := tr(period, physics.FrameInertial)
	if d := back.Position.Sub(peri.Position).Len(); d > 1e-6 {
		t.Errorf("orbit did not close after one period, off by %g", d)
	}

	apo := tr(period/2, physics.FrameInertial)
	if r := apo.Position.Len(); !near(r, 7000*1.1, 1e-6) {
		t.Errorf("apoapsis radius %.6f, want 7700", r)
	}
}

func TestKepler_CircularMatchesCircular(t *testing.T) {
	mu, a := 1.0, 2.0
	kep, _ := Kepler(Elements{Mu: mu, SemiMajorAxis: a})
	circ, _ := Circular{Normal: mgl64.Vec3{0, 0, 1}, Radius: a, AngularSpeed: math.Sqrt(mu / (a * a * a))}.Trajectory()

	for _, tm := range []float64{0, 1, 2.5, 7} {
		k, c := kep(tm, physics.FrameWorld), circ(tm, physics.FrameWorld)
		if d := k.Position.Sub(c.Position).Len(); d > 1e-9 {
			t.Errorf("t=%g: positions differ by %g", tm, d)
		}
	}
}

func TestKepler_Validation(t *testing.T) {
	tests := []struct {
		name string
		el   Elements
	}{
		{"hyperbolic", Elements{Mu: 1, SemiMajorAxis: 1, Eccentricity: 1.2}},
		{"zero mu", Elements{Mu: 0, SemiMajorAxis: 1}},
		{"NaN inclination", Elements{Mu: 1, SemiMajorAxis: 1, Inclination: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Kepler(tt.el); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestState_BodyState(t *testing.T) {
	s := Linear(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, 0)(3, physics.FrameInertial)
	b, err := s.BodyState()
	if err != nil {
		t.Fatalf("BodyState: %v", err)
	}
	if b.Position() != (mgl64.Vec3{1, 3, 0}) || b.LinearVelocity() != (mgl64.Vec3{0, 1, 0}) || b.Timestamp() != 3 {
		t.Errorf("unexpected body state %s", b)
	}
}
