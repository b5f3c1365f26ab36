package automation

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/san-kum/hybridsim/internal/config"
)

var params = map[string]func(*config.Config, float64){
	"dt":                       func(c *config.Config, v float64) { c.Dt = v },
	"duration":                 func(c *config.Config, v float64) { c.Duration = v },
	"fixed_step":               func(c *config.Config, v float64) { c.FixedStep = v },
	"max_substeps":             func(c *config.Config, v float64) { c.MaxSubSteps = int(v) },
	"tuning.solver_iterations": func(c *config.Config, v float64) { c.Tuning.SolverIterations = int(v) },
	"tuning.friction":          func(c *config.Config, v float64) { c.Tuning.Friction = v },
	"tuning.bounce":            func(c *config.Config, v float64) { c.Tuning.Bounce = v },
	"tuning.soft_cfm":          func(c *config.Config, v float64) { c.Tuning.SoftCFM = v },
	"tuning.bounce_velocity":   func(c *config.Config, v float64) { c.Tuning.BounceVelocity = v },
	"coupling.capture":         func(c *config.Config, v float64) { c.Coupling.Capture = v },
	"coupling.release":         func(c *config.Config, v float64) { c.Coupling.Release = v },
	"nbody.g":                  func(c *config.Config, v float64) { c.NBody.G = v },
	"nbody.softening":          func(c *config.Config, v float64) { c.NBody.Softening = v },
	"gravity.y":                func(c *config.Config, v float64) { c.Gravity[1] = v },
}

// SetParam sets a numeric config field by its dotted yaml name.
func SetParam(cfg *config.Config, name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown param %q", ErrStep, name)
	}
	set(cfg, v)
	return nil
}

func Params() []string {
	return sortedKeys(params)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
