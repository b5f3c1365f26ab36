package automation

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/san-kum/hybridsim/internal/config"
)

// GridSearch tries every combination of param values and keeps the one
// minimising Metric. Runs that fail are skipped.
type GridSearch struct {
	Params []string
	Ranges [][]float64
	Metric string
}

func (r *Runner) Search(ctx context.Context, base *config.Config, g GridSearch) (map[string]float64, float64, error) {
	if len(g.Params) != len(g.Ranges) {
		return nil, 0, fmt.Errorf("%w: %d params but %d ranges", ErrStep, len(g.Params), len(g.Ranges))
	}
	for _, p := range g.Params {
		if _, ok := params[p]; !ok {
			return nil, 0, fmt.Errorf("%w: unknown param %q", ErrStep, p)
		}
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	err := r.search(ctx, base, g, 0, map[string]float64{}, &best, &bestParams)
	return bestParams, best, err
}

func (r *Runner) search(ctx context.Context, base *config.Config, g GridSearch, depth int, current map[string]float64, best *float64, bestParams *map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.Params) {
		cfg := base.Clone()
		for name, v := range current {
			_ = SetParam(cfg, name, v)
		}
		res, _, err := r.run(ctx, cfg, false)
		if err != nil {
			return nil
		}
		if val, ok := res.Metrics[g.Metric]; ok && val < *best {
			*best = val
			*bestParams = lo.Assign(current)
		}
		return nil
	}

	name := g.Params[depth]
	for _, v := range g.Ranges[depth] {
		next := lo.Assign(current, map[string]float64{name: v})
		if err := r.search(ctx, base, g, depth+1, next, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
