package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/hybridsim/internal/config"
)

// Sweep varies one param linearly from Min to Max over Steps runs.
type Sweep struct {
	Param string
	Min   float64
	Max   float64
	Steps int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
	Err     error
}

// Values lists the param values the sweep visits.
func (s Sweep) Values() []float64 {
	if s.Steps < 2 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	out := make([]float64, s.Steps)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

// RunSweep runs base once per value. A run that fails to build or halts
// is recorded in its result; only context cancellation stops the sweep.
func (r *Runner) RunSweep(ctx context.Context, base *config.Config, s Sweep) ([]SweepResult, error) {
	if _, ok := params[s.Param]; !ok {
		return nil, fmt.Errorf("%w: unknown param %q", ErrStep, s.Param)
	}

	values := s.Values()
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		cfg := base.Clone()
		_ = SetParam(cfg, s.Param, v)

		out := SweepResult{Value: v}
		res, _, err := r.run(ctx, cfg, false)
		if res != nil {
			out.Metrics = res.Metrics
		}
		out.Err = err
		results = append(results, out)
		r.info("sweep", "run", i+1, "of", len(values), s.Param, v)
	}
	return results, nil
}
