package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/san-kum/hybridsim/internal/integrators"
	"github.com/san-kum/hybridsim/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 1.0 / 60
	DefaultDuration    = 10.0
	DefaultFixedStep   = 1.0 / 120
	DefaultMaxSubSteps = 8
	DefaultBackend     = "baseline"
	DefaultStiffness   = 1.0
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Name          string                `yaml:"name"`
	Backend       string                `yaml:"backend"`
	ForceFallback bool                  `yaml:"force_fallback"`
	Dt            float64               `yaml:"dt"`
	Duration      float64               `yaml:"duration"`
	FixedStep     float64               `yaml:"fixed_step"`
	MaxSubSteps   int                   `yaml:"max_substeps"`
	Gravity       [3]float64            `yaml:"gravity"`
	Frame         string                `yaml:"frame"`
	CCD           bool                  `yaml:"ccd"`
	Tuning        physics.RuntimeTuning `yaml:"tuning"`
	NBody         NBodyConfig           `yaml:"nbody"`
	Bodies        []BodyConfig          `yaml:"bodies"`
	Joints        []JointConfig         `yaml:"joints"`
	Coupling      CouplingConfig        `yaml:"coupling"`
	Record        bool                  `yaml:"record"`
}

type NBodyConfig struct {
	G          float64 `yaml:"g"`
	Softening  float64 `yaml:"softening"`
	Integrator string  `yaml:"integrator,omitempty"`
}

type ShapeConfig struct {
	Kind        string     `yaml:"kind"`
	HalfExtents [3]float64 `yaml:"half_extents,omitempty"`
	Radius      float64    `yaml:"radius,omitempty"`
	HalfHeight  float64    `yaml:"half_height,omitempty"`
}

type BodyConfig struct {
	ID              string       `yaml:"id"`
	Mode            string       `yaml:"mode,omitempty"`
	Type            string       `yaml:"type,omitempty"`
	Mass            float64      `yaml:"mass,omitempty"`
	Shape           *ShapeConfig `yaml:"shape,omitempty"`
	Position        [3]float64   `yaml:"position"`
	Velocity        [3]float64   `yaml:"velocity,omitempty"`
	AngularVelocity [3]float64   `yaml:"angular_velocity,omitempty"`
	Layer           uint32       `yaml:"layer,omitempty"`
	Mask            uint32       `yaml:"mask,omitempty"`
	Trigger         bool         `yaml:"trigger,omitempty"`
	Orbit           *OrbitConfig `yaml:"orbit,omitempty"`
}

// OrbitConfig selects a trajectory: fixed, linear, circular or kepler.
type OrbitConfig struct {
	Kind string `yaml:"kind"`

	Position [3]float64 `yaml:"position,omitempty"`
	Velocity [3]float64 `yaml:"velocity,omitempty"`
	T0       float64    `yaml:"t0,omitempty"`

	Center       [3]float64 `yaml:"center,omitempty"`
	Normal       [3]float64 `yaml:"normal,omitempty"`
	Radius       float64    `yaml:"radius,omitempty"`
	AngularSpeed float64    `yaml:"angular_speed,omitempty"`
	Phase        float64    `yaml:"phase,omitempty"`

	Mu            float64 `yaml:"mu,omitempty"`
	SemiMajorAxis float64 `yaml:"semi_major_axis,omitempty"`
	Eccentricity  float64 `yaml:"eccentricity,omitempty"`
	Inclination   float64 `yaml:"inclination,omitempty"`
	AscendingNode float64 `yaml:"ascending_node,omitempty"`
	ArgPeriapsis  float64 `yaml:"arg_periapsis,omitempty"`
	MeanAnomaly   float64 `yaml:"mean_anomaly,omitempty"`
	Epoch         float64 `yaml:"epoch,omitempty"`
}

// JointConfig is a distance joint between A and B, or a point joint
// pinning A to Anchor when B is empty.
type JointConfig struct {
	A         string     `yaml:"a"`
	B         string     `yaml:"b,omitempty"`
	Anchor    [3]float64 `yaml:"anchor,omitempty"`
	Rest      float64    `yaml:"rest,omitempty"`
	Stiffness float64    `yaml:"stiffness,omitempty"`
}

// CouplingConfig selects the transition policy. Policy "none" keeps every
// object in its starting mode.
type CouplingConfig struct {
	Policy  string     `yaml:"policy"`
	Anchor  [3]float64 `yaml:"anchor,omitempty"`
	Capture float64    `yaml:"capture,omitempty"`
	Release float64    `yaml:"release,omitempty"`
	Into    string     `yaml:"into,omitempty"`
}

func DefaultConfig() *Config {
	g := physics.DefaultGravity
	return &Config{
		Name:        "custom",
		Backend:     DefaultBackend,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		FixedStep:   DefaultFixedStep,
		MaxSubSteps: DefaultMaxSubSteps,
		Gravity:     [3]float64(g),
		Frame:       physics.FrameWorld.String(),
		CCD:         true,
		Tuning:      physics.DefaultTuning(),
		NBody:       NBodyConfig{G: 1, Softening: 0.01},
		Coupling:    CouplingConfig{Policy: "none"},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Shape != nil {
			shape := *b.Shape
			b.Shape = &shape
		}
		if b.Orbit != nil {
			orbit := *b.Orbit
			b.Orbit = &orbit
		}
		out.Bodies[i] = b
	}
	out.Joints = slices.Clone(c.Joints)
	return &out
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Dt <= 0 {
		add("dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		add("duration must be positive, got %g", c.Duration)
	}
	if c.FixedStep < 0 {
		add("fixed_step must be >= 0, got %g", c.FixedStep)
	}
	if c.FixedStep > 0 && c.MaxSubSteps < 1 {
		add("max_substeps must be >= 1, got %d", c.MaxSubSteps)
	}
	if _, err := physics.ParseFrame(c.Frame); err != nil {
		errs = append(errs, err)
	}
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.NBody.Integrator != "" && !slices.Contains(integrators.Names(), c.NBody.Integrator) {
		add("unknown integrator %q, want one of %v", c.NBody.Integrator, integrators.Names())
	}

	ids := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.ID == "" {
			add("body %d has no id", i)
			continue
		}
		if ids[b.ID] {
			add("duplicate body id %q", b.ID)
		}
		ids[b.ID] = true
		if b.Shape == nil && b.Orbit == nil {
			add("body %q needs a shape or an orbit", b.ID)
		}
		if b.Shape != nil {
			switch strings.ToLower(b.Shape.Kind) {
			case "box", "sphere", "capsule":
			default:
				add("body %q has unknown shape %q", b.ID, b.Shape.Kind)
			}
		}
		if b.Orbit != nil {
			switch strings.ToLower(b.Orbit.Kind) {
			case "fixed", "linear", "circular", "kepler":
			default:
				add("body %q has unknown orbit %q", b.ID, b.Orbit.Kind)
			}
		}
	}

	for i, j := range c.Joints {
		if !ids[j.A] {
			add("joint %d references unknown body %q", i, j.A)
		}
		if j.B != "" && !ids[j.B] {
			add("joint %d references unknown body %q", i, j.B)
		}
		if j.B == j.A {
			add("joint %d joins %q to itself", i, j.A)
		}
	}

	switch strings.ToLower(c.Coupling.Policy) {
	case "", "none":
	case "distance":
		if c.Coupling.Capture <= 0 || c.Coupling.Release < c.Coupling.Capture {
			add("coupling needs 0 < capture <= release, got %g, %g", c.Coupling.Capture, c.Coupling.Release)
		}
	default:
		add("unknown coupling policy %q", c.Coupling.Policy)
	}

	return errors.Join(errs...)
}
