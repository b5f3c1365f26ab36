package backend

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

var (
	ErrUnavailable = errors.New("backend: unavailable")
	ErrDuplicate   = errors.New("backend: already registered")
	ErrNoFallback  = errors.New("backend: fallback backend unavailable")
)

// EnvBackend names the environment variable read by NameFromEnv.
const EnvBackend = "HYBRIDSIM_BACKEND"

// Reason explains a selection outcome.
type Reason string

const (
	ReasonPreferred   Reason = "PREFERRED_AVAILABLE"
	ReasonUnknown     Reason = "UNKNOWN_BACKEND"
	ReasonUnavailable Reason = "PREFERRED_UNAVAILABLE"
	ReasonForced      Reason = "FORCED_FAILURE"
)

// SelectionResult records which backend was chosen and why.
type SelectionResult struct {
	Requested string
	Selected  string
	Backend   Backend
	FellBack  bool
	Reason    Reason
}

func (r SelectionResult) String() string {
	if !r.FellBack {
		return fmt.Sprintf("%s (%s)", r.Selected, r.Reason)
	}
	return fmt.Sprintf("%s -> %s (%s)", r.Requested, r.Selected, r.Reason)
}

type Registry struct {
	backends map[string]Backend
	fallback string
	logger   *log.Logger
}

// NewRegistry returns a registry holding the baseline, nbody and native
// backends, with baseline as the fallback.
func NewRegistry() *Registry {
	r := &Registry{
		backends: make(map[string]Backend),
		fallback: Baseline,
	}
	r.backends[Baseline] = BaselineBackend{}
	r.backends[NBody] = NewNBodyBackend()
	r.backends[Native] = NativeBackend{}
	return r
}

// SetLogger enables a warning line for every fallback.
func (r *Registry) SetLogger(l *log.Logger) { r.logger = l }

func (r *Registry) Register(b Backend) error {
	if _, ok := r.backends[b.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, b.ID())
	}
	r.backends[b.ID()] = b
	return nil
}

// SetFallback changes the backend used when selection falls back.
func (r *Registry) SetFallback(name string) error {
	if _, ok := r.backends[name]; !ok {
		return fmt.Errorf("unknown backend: %s", name)
	}
	r.fallback = name
	return nil
}

func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// Names lists registered backends alphabetically.
func (r *Registry) Names() []string {
	names := lo.Keys(r.backends)
	slices.Sort(names)
	return names
}

// Select resolves name, falling back when it is unknown, unavailable, or
// when forceFailure is set. The only error is an unavailable fallback.
func (r *Registry) Select(name string, forceFailure bool) (SelectionResult, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.fallback
	}

	res := SelectionResult{Requested: name}
	b, ok := r.backends[name]
	switch {
	case !ok:
		res.Reason = ReasonUnknown
	case forceFailure:
		res.Reason = ReasonForced
	case !b.Available():
		res.Reason = ReasonUnavailable
	default:
		res.Selected = name
		res.Backend = b
		res.Reason = ReasonPreferred
		return res, nil
	}

	fb, ok := r.backends[r.fallback]
	if !ok || !fb.Available() {
		return res, fmt.Errorf("%w: %s", ErrNoFallback, r.fallback)
	}
	res.Selected = r.fallback
	res.Backend = fb
	res.FellBack = true

	if r.logger != nil {
		r.logger.Warn("backend fallback", "requested", res.Requested, "selected", res.Selected, "reason", res.Reason)
	}
	return res, nil
}

// NameFromEnv returns HYBRIDSIM_BACKEND when set, else def.
func NameFromEnv(def string) string {
	if v, ok := os.LookupEnv(EnvBackend); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
