package collision

import (
	"fmt"

	"github.com/san-kum/hybridsim/internal/broadphase"
	"github.com/san-kum/hybridsim/internal/narrowphase"
)

type EventType int

const (
	Enter EventType = iota
	Stay
	Exit
)

func (e EventType) String() string {
	switch e {
	case Enter:
		return "ENTER"
	case Stay:
		return "STAY"
	case Exit:
		return "EXIT"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Event reports a change, or continuation, of contact between a pair.
// Manifold is nil for Exit.
type Event[T comparable] struct {
	Pair            broadphase.Pair[T]
	Type            EventType
	ResponseEnabled bool
	Manifold        *narrowphase.ContactManifold
}

// EventTracker remembers which pairs were touching on the previous update.
// Not safe for concurrent use.
type EventTracker[T comparable] struct {
	active []FilteredPair[T]
}

func NewEventTracker[T comparable]() *EventTracker[T] {
	return &EventTracker[T]{}
}

// Update classifies contacts against the previous call. Enter and Stay
// events come first in contact order, then Exit events in the order the
// pairs were first seen.
func (t *EventTracker[T]) Update(contacts []Contact[T]) []Event[T] {
	prev := broadphase.NewPairSet[T]()
	for _, p := range t.active {
		prev.Add(p.Pair)
	}

	current := broadphase.NewPairSet[T]()
	next := make([]FilteredPair[T], 0, len(contacts))
	events := make([]Event[T], 0, len(contacts)+len(t.active))

	for i := range contacts {
		c := contacts[i]
		if !current.Add(c.Pair) {
			continue
		}
		typ := Enter
		if prev.Contains(c.Pair) {
			typ = Stay
		}
		m := c.Manifold
		events = append(events, Event[T]{Pair: c.Pair, Type: typ, ResponseEnabled: c.ResponseEnabled, Manifold: &m})
		next = append(next, c.FilteredPair)
	}

	// keep first-seen order for pairs that persist
	ordered := make([]FilteredPair[T], 0, len(next))
	for _, p := range t.active {
		if !current.Contains(p.Pair) {
			events = append(events, Event[T]{Pair: p.Pair, Type: Exit, ResponseEnabled: p.ResponseEnabled})
			continue
		}
		for _, n := range next {
			if n.Equal(p.Pair) {
				ordered = append(ordered, n)
				break
			}
		}
	}
	for _, p := range next {
		if !prev.Contains(p.Pair) {
			ordered = append(ordered, p)
		}
	}

	t.active = ordered
	return events
}

// Active returns the pairs touching after the last Update.
func (t *EventTracker[T]) Active() []broadphase.Pair[T] {
	out := make([]broadphase.Pair[T], len(t.active))
	for i, p := range t.active {
		out[i] = p.Pair
	}
	return out
}

// Reset forgets all contacts without emitting Exit events.
func (t *EventTracker[T]) Reset() {
	t.active = nil
}
