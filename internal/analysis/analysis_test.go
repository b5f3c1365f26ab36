package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/hybridsim/internal/storage"
)

func TestPowerSpectrum_Constant(t *testing.T) {
	ps := PowerSpectrum([]float64{1, 1, 1})
	if len(ps) != 2 {
		t.Fatalf("expected 2 bins, got %d", len(ps))
	}
	if math.Abs(ps[0]-3) > 1e-9 || math.Abs(ps[1]-1) > 1e-9 {
		t.Errorf("unexpected spectrum of a padded constant: %v", ps)
	}
}

func TestPad(t *testing.T) {
	tests := []struct{ in, want int }{{0, 1}, {1, 1}, {3, 4}, {8, 8}, {9, 16}}
	for _, tt := range tests {
		if got := len(Pad(make([]float64, tt.in))); got != tt.want {
			t.Errorf("Pad(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDominantFrequency(t *testing.T) {
	const dt = 1.0 / 64
	values := make([]float64, 256)
	for i := range values {
		values[i] = 3 + math.Sin(2*math.Pi*4*float64(i)*dt)
	}

	hz, ok := DominantFrequency(values, dt)
	if !ok {
		t.Fatal("expected a frequency")
	}
	if math.Abs(hz-4) > 0.01 {
		t.Errorf("expected 4 Hz, got %f", hz)
	}

	if _, ok := DominantFrequency(make([]float64, 64), dt); ok {
		t.Error("flat series should have no dominant frequency")
	}
	if _, ok := DominantFrequency([]float64{1, 2}, dt); ok {
		t.Error("short series should have no dominant frequency")
	}
}

func TestPhasePortrait(t *testing.T) {
	rows := []storage.Row{
		{ID: "a", Position: [3]float64{1, 0, 0}, Velocity: [3]float64{0, 2, 0}},
		{ID: "b", Position: [3]float64{9, 9, 9}},
		{ID: "a", Position: [3]float64{0, -1, 0}, Velocity: [3]float64{-1, 3, 0}},
	}

	p := NewPhasePortrait(rows, "a", 1)
	if len(p.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(p.Points))
	}
	minX, maxX, minY, maxY := p.Bounds()
	if minX != -1 || maxX != 0 || minY != 2 || maxY != 3 {
		t.Errorf("unexpected bounds %f %f %f %f", minX, maxX, minY, maxY)
	}
	if NewPhasePortrait(rows, "a", 3) != nil {
		t.Error("expected nil for a bad axis")
	}
}
