package coupling

import (
	"fmt"
	"slices"
)

// Event is the telemetry record for one decision.
type Event struct {
	ObjectID string
	From     Mode
	To       Mode
	Reason   Reason
	Time     float64
}

func (e Event) Changed() bool { return e.From != e.To }

func (e Event) String() string {
	return fmt.Sprintf("%s %s -> %s (%s) t=%.4f", e.ObjectID, e.From, e.To, e.Reason, e.Time)
}

// Listener receives events synchronously. A returned error stops Update.
type Listener func(e Event) error

// ContextFunc builds the policy context for one tracked object.
type ContextFunc func(id string, current Mode) Context

type Manager struct {
	modes     map[string]Mode
	order     []string
	policy    Policy
	listeners []Listener
}

// NewManager uses KeepPolicy when policy is nil.
func NewManager(policy Policy) *Manager {
	if policy == nil {
		policy = KeepPolicy
	}
	return &Manager{modes: make(map[string]Mode), policy: policy}
}

func (m *Manager) SetPolicy(p Policy) {
	if p == nil {
		p = KeepPolicy
	}
	m.policy = p
}

func (m *Manager) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Track starts managing id in the initial mode.
func (m *Manager) Track(id string, initial Mode) error {
	if id == "" {
		return fmt.Errorf("%w: empty object id", ErrInvalidArgument)
	}
	if !initial.Valid() {
		return fmt.Errorf("%w: invalid mode %d", ErrInvalidArgument, int(initial))
	}
	if _, ok := m.modes[id]; ok {
		return fmt.Errorf("%w: %q already tracked", ErrInvalidArgument, id)
	}
	m.modes[id] = initial
	m.order = append(m.order, id)
	return nil
}

func (m *Manager) Untrack(id string) bool {
	if _, ok := m.modes[id]; !ok {
		return false
	}
	delete(m.modes, id)
	m.order = slices.DeleteFunc(m.order, func(x string) bool { return x == id })
	return true
}

func (m *Manager) Mode(id string) (Mode, bool) {
	mode, ok := m.modes[id]
	return mode, ok
}

// IDs lists tracked objects in tracking order.
func (m *Manager) IDs() []string { return slices.Clone(m.order) }

// Update consults the policy for every tracked object in tracking order,
// applies the decision and notifies listeners before moving to the next
// object. An invalid decision or a listener error stops the update; modes
// already applied stay applied.
func (m *Manager) Update(t float64, contextFor ContextFunc) ([]Event, error) {
	events := make([]Event, 0, len(m.order))
	for _, id := range m.order {
		current := m.modes[id]
		ctx := Context{ObjectID: id, Current: current, Time: t}
		if contextFor != nil {
			ctx = contextFor(id, current)
			ctx.ObjectID, ctx.Current, ctx.Time = id, current, t
		}

		d := m.policy.Decide(ctx)
		if !d.Mode.Valid() {
			return events, fmt.Errorf("%w: policy returned mode %d for %q", ErrInvalidArgument, int(d.Mode), id)
		}
		if d.Reason == "" {
			d.Reason = ReasonNoChange
		}

		e, err := m.apply(id, d, t)
		events = append(events, e)
		if err != nil {
			return events, err
		}
	}
	return events, nil
}

// Force moves id to mode regardless of policy.
func (m *Manager) Force(id string, mode Mode, t float64) (Event, error) {
	if _, ok := m.modes[id]; !ok {
		return Event{}, fmt.Errorf("%w: %q not tracked", ErrInvalidArgument, id)
	}
	if !mode.Valid() {
		return Event{}, fmt.Errorf("%w: invalid mode %d", ErrInvalidArgument, int(mode))
	}
	return m.apply(id, Decision{Mode: mode, Reason: ReasonForced}, t)
}

func (m *Manager) apply(id string, d Decision, t float64) (Event, error) {
	e := Event{ObjectID: id, From: m.modes[id], To: d.Mode, Reason: d.Reason, Time: t}
	m.modes[id] = d.Mode
	for _, l := range m.listeners {
		if err := l(e); err != nil {
			return e, fmt.Errorf("coupling listener for %q: %w", id, err)
		}
	}
	return e, nil
}
