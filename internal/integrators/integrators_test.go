package integrators

import (
	"errors"
	"math"
	"testing"
)

func oscillator(x State, t float64) State {
	return State{x[1], -x[0]}
}

func energy(x State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func run(tb testing.TB, integ Integrator, x State, dt float64, steps int) State {
	tb.Helper()
	for i := 0; i < steps; i++ {
		next, err := integ.Step(oscillator, x, float64(i)*dt, dt)
		if err != nil {
			tb.Fatalf("step %d: %v", i, err)
		}
		x = next
	}
	return x
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"rk4", 1e-4},
		{"rk45", 1e-4},
		{"verlet", 1e-3},
		{"leapfrog", 1e-3},
		{"euler", 2e-2},
	}

	dt, steps := 0.01, 100
	wantX := math.Cos(float64(steps) * dt)
	wantV := -math.Sin(float64(steps) * dt)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := New(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			x := run(t, integ, State{1, 0}, dt, steps)
			if math.Abs(x[0]-wantX) > tt.tol {
				t.Errorf("position = %.6f, want %.6f", x[0], wantX)
			}
			if math.Abs(x[1]-wantV) > tt.tol {
				t.Errorf("velocity = %.6f, want %.6f", x[1], wantV)
			}
		})
	}
}

func TestSymplecticEnergy(t *testing.T) {
	for _, integ := range []Integrator{NewLeapfrog(), NewVerlet()} {
		x := run(t, integ, State{1, 0}, 0.01, 10000)
		if !x.IsValid() {
			t.Fatalf("%T produced invalid state", integ)
		}
		if drift := math.Abs(energy(x)-0.5) / 0.5; drift > 1e-3 {
			t.Errorf("%T energy drift = %e", integ, drift)
		}
	}
}

func TestEuler_GainsEnergy(t *testing.T) {
	x := run(t, NewEuler(), State{1, 0}, 0.01, 1000)
	if energy(x) <= 0.5 {
		t.Errorf("energy = %f, explicit euler should gain energy", energy(x))
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	x := run(t, NewRK45(), State{1, 0}, 0.01, 10000)
	if drift := math.Abs(energy(x)-0.5) / 0.5; drift > 1e-5 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_StepAdaptive(t *testing.T) {
	integ := NewRK45()

	_, grown, _ := integ.StepAdaptive(oscillator, State{1, 0}, 0, 0.01, 1)
	if grown <= 0.01 {
		t.Errorf("loose tolerance should grow dt, got %g", grown)
	}

	_, shrunk, _ := integ.StepAdaptive(oscillator, State{1, 0}, 0, 0.5, 1e-12)
	if shrunk >= 0.5 {
		t.Errorf("tight tolerance should shrink dt, got %g", shrunk)
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("midpoint"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if got := Names(); len(got) != 5 || got[0] != "euler" {
		t.Errorf("Names() = %v", got)
	}
}

func TestStateClone(t *testing.T) {
	s := State{1, 2}
	c := s.Clone()
	c[0] = 9
	if s[0] != 1 {
		t.Error("clone shares storage")
	}
	if (State{math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
}

func TestStep_NonFinite(t *testing.T) {
	blowup := func(x State, _ float64) State { return State{x[1], math.Inf(1)} }

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, _ := New(name)
			out, err := integ.Step(blowup, State{1, 0}, 0, 0.01)
			if !errors.Is(err, ErrNonFinite) {
				t.Fatalf("expected ErrNonFinite, got %v", err)
			}
			if out != nil {
				t.Errorf("diverged step returned state %v", out)
			}
			var nf *NonFiniteError
			if !errors.As(err, &nf) || nf.Index < 0 || nf.Index > 1 {
				t.Errorf("expected component index 0 or 1, got %v", err)
			}
		})
	}
}

func BenchmarkRK4(b *testing.B) {
	run(b, NewRK4(), State{1, 0}, 0.01, b.N)
}

func BenchmarkLeapfrog(b *testing.B) {
	run(b, NewLeapfrog(), State{1, 0}, 0.01, b.N)
}
