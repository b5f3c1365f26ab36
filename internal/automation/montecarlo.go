package automation

import (
	"context"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/san-kum/hybridsim/internal/config"
)

// MonteCarlo perturbs every body's starting position by a uniform offset
// in [-Perturbation, Perturbation] per axis.
type MonteCarlo struct {
	Perturbation float64
	Trials       int
	Seed         uint64
}

type Trial struct {
	ID      int
	Offsets map[string]mgl64.Vec3
	Metrics map[string]float64
	// Stable is false when the run halted, for example on divergence.
	Stable  bool
}

func (r *Runner) RunMonteCarlo(ctx context.Context, base *config.Config, mc MonteCarlo) ([]Trial, error) {
	rng := rand.New(rand.NewPCG(mc.Seed, mc.Seed^0x9e3779b97f4a7c15))

	trials := make([]Trial, 0, mc.Trials)
	for i := 0; i < mc.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return trials, err
		}
		cfg := base.Clone()
		t := Trial{ID: i, Offsets: make(map[string]mgl64.Vec3, len(cfg.Bodies))}
		for j := range cfg.Bodies {
			b := &cfg.Bodies[j]
			var off mgl64.Vec3
			for k := range off {
				off[k] = (rng.Float64()*2 - 1) * mc.Perturbation
			}
			for k := range b.Position {
				b.Position[k] += off[k]
			}
			t.Offsets[b.ID] = off
		}

		res, _, err := r.run(ctx, cfg, false)
		if res != nil {
			t.Metrics = res.Metrics
		}
		t.Stable = err == nil
		trials = append(trials, t)

		if (i+1)%10 == 0 {
			r.info("monte carlo", "done", i+1, "of", mc.Trials)
		}
	}
	return trials, nil
}

func Stats(trials []Trial) (stable, unstable int) {
	stable = lo.CountBy(trials, func(t Trial) bool { return t.Stable })
	return stable, len(trials) - stable
}
