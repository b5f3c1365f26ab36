package collision

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/broadphase"
	"github.com/san-kum/hybridsim/internal/geom"
	"github.com/san-kum/hybridsim/internal/narrowphase"
)

const (
	layerShip uint32 = 1 << iota
	layerAsteroid
	layerSensor
	layerUI
)

var testFilters = map[string]Filter{
	"ship":     MustFilter(layerShip, layerAsteroid|layerSensor, Solid),
	"asteroid": MustFilter(layerAsteroid, layerShip, Solid),
	"sensor":   MustFilter(layerSensor, layerShip, Trigger),
	"ui":       MustFilter(layerUI, layerUI, Solid),
}

func lookup(name string) (Filter, bool) {
	f, ok := testFilters[name]
	return f, ok
}

func TestNewFilter_RejectsZeroLayer(t *testing.T) {
	_, err := NewFilter(0, AllLayers, Solid)
	if !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	if f.Layer() != 1 || f.Mask() != AllLayers || f.Kind() != Solid {
		t.Errorf("unexpected default filter %+v", f)
	}
}

func TestFilterTruthTable(t *testing.T) {
	tests := []struct {
		a, b     string
		interact bool
		response bool
	}{
		{"ship", "asteroid", true, true},
		{"ship", "sensor", true, false},
		{"ship", "ui", false, false},
		{"asteroid", "sensor", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			fa, fb := testFilters[tt.a], testFilters[tt.b]
			if got := fa.CanInteract(fb); got != tt.interact {
				t.Errorf("CanInteract = %v, want %v", got, tt.interact)
			}
			if got := fb.CanInteract(fa); got != tt.interact {
				t.Errorf("CanInteract is not symmetric")
			}
			if got := fa.ResponseEnabledWith(fb); got != tt.response {
				t.Errorf("ResponseEnabledWith = %v, want %v", got, tt.response)
			}
		})
	}
}

func TestFilterPairs(t *testing.T) {
	pairs := []broadphase.Pair[string]{
		broadphase.MustPair("ship", "asteroid"),
		broadphase.MustPair("ship", "sensor"),
		broadphase.MustPair("ship", "ui"),
	}

	got := FilterPairs(pairs, lookup)
	if len(got) != 2 {
		t.Fatalf("expected 2 filtered pairs, got %d", len(got))
	}
	if !got[0].Equal(pairs[0]) || !got[0].ResponseEnabled {
		t.Errorf("expected ship/asteroid with response, got %+v", got[0])
	}
	if !got[1].Equal(pairs[1]) || got[1].ResponseEnabled {
		t.Errorf("expected ship/sensor without response, got %+v", got[1])
	}
}

func TestFilterPairs_MissingFilterUsesDefault(t *testing.T) {
	pairs := []broadphase.Pair[string]{broadphase.MustPair("rock", "pebble")}
	got := FilterPairs(pairs, lookup)
	if len(got) != 1 || !got[0].ResponseEnabled {
		t.Errorf("unfiltered items should collide with response, got %+v", got)
	}
}

type box struct {
	name   string
	bounds geom.Aabb
}

func boxBounds(b *box) geom.Aabb { return b.bounds }

func boxContact(a, b *box) (narrowphase.ContactManifold, bool) {
	return narrowphase.AabbContact(a.bounds, b.bounds)
}

func newBoxPipeline(t *testing.T) *Pipeline[*box] {
	t.Helper()
	hash, err := broadphase.NewSpatialHash[*box](1.0)
	if err != nil {
		t.Fatalf("spatial hash: %v", err)
	}
	p, err := NewPipeline[*box](hash, boxBounds, nil, boxContact)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}

func TestFindCollisions_NarrowPhaseIsAuthoritative(t *testing.T) {
	a := &box{"a", geom.MustAabb(0, 0, 0, 1, 1, 1)}
	b := &box{"b", geom.MustAabb(1.5, 0, 0, 2.5, 1, 1)}
	pairs := []FilteredPair[*box]{{Pair: broadphase.MustPair(a, b), ResponseEnabled: true}}

	got := FindCollisions(pairs, func(x, y *box) bool { return narrowphase.AabbOverlap(x.bounds, y.bounds) })
	if len(got) != 0 {
		t.Errorf("expected no collisions, got %d", len(got))
	}
}

func TestPipeline_Detect(t *testing.T) {
	a := &box{"a", geom.MustAabb(0, 0, 0, 2, 2, 2)}
	b := &box{"b", geom.MustAabb(1.5, 0.5, 0.5, 3, 1.5, 1.5)}
	c := &box{"c", geom.MustAabb(10, 10, 10, 11, 11, 11)}

	contacts := newBoxPipeline(t).Detect([]*box{a, b, c})
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}
	if contacts[0].A() != a || contacts[0].B() != b {
		t.Errorf("unexpected pair %s/%s", contacts[0].A().name, contacts[0].B().name)
	}
	if contacts[0].Manifold.Penetration() != 0.5 {
		t.Errorf("expected penetration 0.5, got %f", contacts[0].Manifold.Penetration())
	}
}

func TestNewPipeline_RequiresParts(t *testing.T) {
	if _, err := NewPipeline[*box](nil, boxBounds, nil, boxContact); err == nil {
		t.Error("expected error for missing broad-phase")
	}
}

func TestEventTracker_Lifecycle(t *testing.T) {
	a := &box{"a", geom.MustAabb(0, 0, 0, 2, 2, 2)}
	b := &box{"b", geom.MustAabb(1.5, 0, 0, 3, 2, 2)}
	p := newBoxPipeline(t)
	tracker := NewEventTracker[*box]()

	steps := []struct {
		name   string
		move   func()
		events []EventType
	}{
		{"first touch", func() {}, []EventType{Enter}},
		{"still touching", func() {}, []EventType{Stay}},
		{"separate", func() { b.bounds = b.bounds.Translate(mgl64.Vec3{5, 0, 0}) }, []EventType{Exit}},
		{"stay apart", func() {}, nil},
	}

	for _, s := range steps {
		s.move()
		events := tracker.Update(p.Detect([]*box{a, b}))
		if len(events) != len(s.events) {
			t.Fatalf("%s: expected %d events, got %d", s.name, len(s.events), len(events))
		}
		for i, e := range events {
			if e.Type != s.events[i] {
				t.Errorf("%s: event %d = %s, want %s", s.name, i, e.Type, s.events[i])
			}
			if e.Type == Exit && e.Manifold != nil {
				t.Errorf("%s: exit events carry no manifold", s.name)
			}
			if e.Type != Exit && e.Manifold == nil {
				t.Errorf("%s: contact events carry a manifold", s.name)
			}
		}
	}

	if len(tracker.Active()) != 0 {
		t.Errorf("expected no active pairs, got %d", len(tracker.Active()))
	}
}

func TestEventTracker_TriggerKeepsEvents(t *testing.T) {
	tracker := NewEventTracker[string]()
	m, _ := narrowphase.AabbContact(geom.MustAabb(0, 0, 0, 1, 1, 1), geom.MustAabb(0.5, 0, 0, 1.5, 1, 1))
	contacts := []Contact[string]{{
		FilteredPair: FilteredPair[string]{Pair: broadphase.MustPair("ship", "sensor"), ResponseEnabled: false},
		Manifold:     m,
	}}

	events := tracker.Update(contacts)
	if len(events) != 1 || events[0].Type != Enter || events[0].ResponseEnabled {
		t.Errorf("expected a single non-response ENTER, got %+v", events)
	}
}
