package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewAabb_Validation(t *testing.T) {
	tests := []struct {
		name  string
		ext   [6]float64
		valid bool
	}{
		{"unit", [6]float64{0, 0, 0, 1, 1, 1}, true},
		{"degenerate point", [6]float64{1, 1, 1, 1, 1, 1}, true},
		{"inverted x", [6]float64{2, 0, 0, 1, 1, 1}, false},
		{"inverted z", [6]float64{0, 0, 2, 1, 1, 1}, false},
		{"NaN", [6]float64{math.NaN(), 0, 0, 1, 1, 1}, false},
		{"+Inf", [6]float64{0, 0, 0, math.Inf(1), 1, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.ext
			_, err := NewAabb(e[0], e[1], e[2], e[3], e[4], e[5])
			if tt.valid && err != nil {
				t.Errorf("expected valid aabb, got %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			}
		})
	}
}

func TestAabb_Derived(t *testing.T) {
	b := MustAabb(0, 2, 4, 2, 6, 10)
	if got := b.Center(); got != (mgl64.Vec3{1, 4, 7}) {
		t.Errorf("Center() = %v", got)
	}
	if got := b.Size(); got != (mgl64.Vec3{2, 4, 6}) {
		t.Errorf("Size() = %v", got)
	}
	if got := b.Support(mgl64.Vec3{-1, 1, -1}); got != (mgl64.Vec3{0, 6, 4}) {
		t.Errorf("Support() = %v", got)
	}
}

func TestAabb_OverlapsClosed(t *testing.T) {
	a := MustAabb(0, 0, 0, 1, 1, 1)
	touching := MustAabb(1, 0, 0, 2, 1, 1)
	apart := MustAabb(1.001, 0, 0, 2, 1, 1)

	if !a.Overlaps(touching) || !touching.Overlaps(a) {
		t.Error("touching boxes should overlap")
	}
	if a.Overlaps(apart) {
		t.Error("separated boxes should not overlap")
	}
}

func TestAabb_Expand(t *testing.T) {
	b := MustAabb(0, 0, 0, 2, 2, 2).Expand(0.5)
	if b.Min() != (mgl64.Vec3{-0.5, -0.5, -0.5}) || b.Max() != (mgl64.Vec3{2.5, 2.5, 2.5}) {
		t.Errorf("Expand(0.5) = %v..%v", b.Min(), b.Max())
	}

	collapsed := MustAabb(0, 0, 0, 2, 2, 2).Expand(-5)
	if collapsed.Min() != collapsed.Max() {
		t.Errorf("over-shrunk box should collapse, got %v..%v", collapsed.Min(), collapsed.Max())
	}
}

func TestBoundingSphere(t *testing.T) {
	if _, err := NewBoundingSphere(mgl64.Vec3{}, -1); err == nil {
		t.Error("negative radius should be rejected")
	}
	if _, err := NewBoundingSphere(mgl64.Vec3{math.Inf(-1), 0, 0}, 1); err == nil {
		t.Error("infinite center should be rejected")
	}

	s := MustBoundingSphere(mgl64.Vec3{1, 0, 0}, 2)
	if got := s.Support(mgl64.Vec3{0, 5, 0}); !got.ApproxEqual(mgl64.Vec3{1, 2, 0}) {
		t.Errorf("Support() = %v", got)
	}
	if got := s.Bounds().Min(); got != (mgl64.Vec3{-1, -2, -2}) {
		t.Errorf("Bounds().Min() = %v", got)
	}
}

func TestRay3D(t *testing.T) {
	if _, err := NewRay3D(mgl64.Vec3{}, mgl64.Vec3{}); err == nil {
		t.Error("zero direction should be rejected")
	}
	if _, err := NewRay3D(mgl64.Vec3{}, mgl64.Vec3{math.NaN(), 1, 0}); err == nil {
		t.Error("NaN direction should be rejected")
	}
	r := MustRay3D(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 2, 0})
	if got := r.At(0.5); got != (mgl64.Vec3{1, 2, 1}) {
		t.Errorf("At(0.5) = %v", got)
	}
}

func TestNewPolygon2D(t *testing.T) {
	tests := []struct {
		name  string
		verts []mgl64.Vec2
		valid bool
	}{
		{"ccw square", []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, true},
		{"cw square", []mgl64.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, true},
		{"triangle", []mgl64.Vec2{{0, 0}, {2, 0}, {1, 2}}, true},
		{"two points", []mgl64.Vec2{{0, 0}, {1, 0}}, false},
		{"collinear", []mgl64.Vec2{{0, 0}, {1, 0}, {2, 0}}, false},
		{"concave dart", []mgl64.Vec2{{0, 0}, {2, 1}, {4, 0}, {2, 4}}, false},
		{"NaN", []mgl64.Vec2{{0, 0}, {1, math.NaN()}, {1, 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolygon2D(tt.verts...)
			if (err == nil) != tt.valid {
				t.Errorf("NewPolygon2D valid=%v, err=%v", tt.valid, err)
			}
		})
	}
}

func TestPolygon2D_AxesAreUnit(t *testing.T) {
	p := MustPolygon2D(mgl64.Vec2{0, 0}, mgl64.Vec2{3, 0}, mgl64.Vec2{4, 2}, mgl64.Vec2{1, 3})
	for i, a := range p.Axes() {
		if math.Abs(a.Len()-1) > 1e-12 {
			t.Errorf("axis %d has length %f", i, a.Len())
		}
	}
}

func TestProjection(t *testing.T) {
	tests := []struct {
		a, b     Projection
		overlaps bool
		depth    float64
	}{
		{Projection{0, 2}, Projection{1, 3}, true, 1},
		{Projection{0, 1}, Projection{1, 2}, true, 0},
		{Projection{0, 1}, Projection{3, 4}, false, -2},
		{Projection{0, 10}, Projection{2, 3}, true, 1},
	}

	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.overlaps {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.overlaps)
		}
		if got := tt.a.OverlapDepth(tt.b); math.Abs(got-tt.depth) > 1e-12 {
			t.Errorf("%v.OverlapDepth(%v) = %v, want %v", tt.a, tt.b, got, tt.depth)
		}
	}
}

func TestRotatedSupport(t *testing.T) {
	box := MustAabb(-1, -0.5, -0.5, 1, 0.5, 0.5)
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	rot := Rotated(box, mgl64.Vec3{}, q)

	got := rot.Support(mgl64.Vec3{0, 1, 0})
	if math.Abs(got[1]-1) > 1e-9 {
		t.Errorf("rotated box should reach y=1, got %v", got)
	}
}
