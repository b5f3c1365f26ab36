// Package automation runs scenarios in batches: scripted step sequences,
// parameter sweeps, Monte Carlo perturbation trials and grid searches.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/san-kum/hybridsim/internal/config"
	"github.com/san-kum/hybridsim/internal/scenario"
	"github.com/san-kum/hybridsim/internal/sim"
	"github.com/san-kum/hybridsim/internal/storage"
	"gopkg.in/yaml.v3"
)

var ErrStep = errors.New("automation: bad step")

// Script is a named sequence of scenario runs.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step runs one preset or config file. Zero overrides keep the
// scenario's own values.
type Step struct {
	Preset   string             `yaml:"preset,omitempty"`
	Config   string             `yaml:"config,omitempty"`
	Backend  string             `yaml:"backend,omitempty"`
	Dt       float64            `yaml:"dt,omitempty"`
	Duration float64            `yaml:"duration,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	SaveAs   string             `yaml:"save_as,omitempty"`
}

type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("%w: script %q has no steps", ErrStep, s.Name)
	}
	return &s, nil
}

// Runner executes batches. A nil Store skips saving and a nil Logger
// stays quiet.
type Runner struct {
	Logger *log.Logger
	Store  *storage.Store
}

// Resolve builds the step's config with its overrides applied.
func (st Step) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case st.Config != "":
		c, err := config.Load(st.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case st.Preset != "":
		if cfg = config.GetPreset(st.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrStep, st.Preset)
		}
	default:
		return nil, fmt.Errorf("%w: step needs a preset or a config", ErrStep)
	}

	if st.Backend != "" {
		cfg.Backend = st.Backend
	}
	if st.Dt > 0 {
		cfg.Dt = st.Dt
	}
	if st.Duration > 0 {
		cfg.Duration = st.Duration
	}
	for _, name := range sortedKeys(st.Params) {
		if err := SetParam(cfg, name, st.Params[name]); err != nil {
			return nil, err
		}
	}
	if st.SaveAs != "" {
		cfg.Name = st.SaveAs
	}
	return cfg, nil
}

// RunScript runs every step in order and stops at the first failure,
// returning the results gathered so far.
func (r *Runner) RunScript(ctx context.Context, s *Script) ([]StepResult, error) {
	results := make([]StepResult, 0, len(s.Steps))
	for i, st := range s.Steps {
		cfg, err := st.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.info("running step", "step", i+1, "of", len(s.Steps), "scenario", cfg.Name)

		res, id, err := r.run(ctx, cfg, r.Store != nil)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, StepResult{Name: cfg.Name, RunID: id, Result: res})
	}
	return results, nil
}

func (r *Runner) run(ctx context.Context, cfg *config.Config, save bool) (*sim.Result, string, error) {
	var opts []scenario.Option
	if r.Logger != nil {
		opts = append(opts, scenario.WithLogger(r.Logger))
	}
	sc, err := scenario.Build(cfg, opts...)
	if err != nil {
		return nil, "", err
	}
	res, err := sc.Run(ctx)
	if err != nil {
		return res, "", err
	}
	if !save {
		return res, "", nil
	}
	id, err := sc.Save(r.Store, res)
	return res, id, err
}

func (r *Runner) info(msg string, kv ...any) {
	if r.Logger != nil {
		r.Logger.Info(msg, kv...)
	}
}
