package config

import (
	"math"
	"slices"
	"strings"
)

// Presets build fresh configs so callers may modify what they get.
var Presets = map[string]func() *Config{
	"orbit-dock":     orbitDock,
	"pendulum-chain": pendulumChain,
	"drop-test":      dropTest,
	"nbody-cluster":  nbodyCluster,
}

func GetPreset(name string) *Config {
	fn, ok := Presets[strings.ToLower(name)]
	if !ok {
		return nil
	}
	cfg := fn()
	cfg.Name = strings.ToLower(name)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func box(hx, hy, hz float64) *ShapeConfig {
	return &ShapeConfig{Kind: "box", HalfExtents: [3]float64{hx, hy, hz}}
}

func sphere(r float64) *ShapeConfig {
	return &ShapeConfig{Kind: "sphere", Radius: r}
}

// orbitDock flies a shuttle on an eccentric orbit past a station. The
// shuttle couples into the rigid world near periapsis and is released
// again on the way out.
func orbitDock() *Config {
	cfg := DefaultConfig()
	cfg.Duration = 20
	cfg.Gravity = [3]float64{}
	cfg.Coupling = CouplingConfig{Policy: "distance", Capture: 12, Release: 18, Into: "COUPLED"}
	cfg.Bodies = []BodyConfig{
		{ID: "station", Mode: "RIGID_ONLY", Type: "STATIC", Shape: box(2, 2, 2)},
		{ID: "cargo", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 5, Shape: box(0.5, 0.5, 0.5), Position: [3]float64{0, 3, 0}},
		{
			ID: "shuttle", Mode: "ORBITAL_ONLY", Type: "KINEMATIC", Shape: sphere(0.75),
			Orbit: &OrbitConfig{Kind: "kepler", Mu: 270, SemiMajorAxis: 14, Eccentricity: 0.5, MeanAnomaly: math.Pi},
		},
		{
			ID: "relay", Mode: "ORBITAL_ONLY",
			Orbit: &OrbitConfig{Kind: "circular", Normal: [3]float64{0, 0, 1}, Radius: 30, AngularSpeed: 0.1},
		},
	}
	return cfg
}

func pendulumChain() *Config {
	cfg := DefaultConfig()
	cfg.Duration = 15
	cfg.Tuning.SolverIterations = 20
	cfg.Bodies = []BodyConfig{
		{ID: "link-1", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1, Shape: sphere(0.2), Position: [3]float64{0, 0, 0}},
		{ID: "link-2", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1, Shape: sphere(0.2), Position: [3]float64{1, 0, 0}},
		{ID: "link-3", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1, Shape: sphere(0.2), Position: [3]float64{2, 0, 0}},
	}
	cfg.Joints = []JointConfig{
		{A: "link-1", Anchor: [3]float64{0, 0, 0}, Stiffness: 1},
		{A: "link-1", B: "link-2", Rest: 1, Stiffness: 1},
		{A: "link-2", B: "link-3", Rest: 1, Stiffness: 1},
	}
	return cfg
}

func dropTest() *Config {
	cfg := DefaultConfig()
	cfg.Duration = 5
	cfg.Tuning.Bounce = 0.3
	cfg.Bodies = []BodyConfig{
		{ID: "ground", Mode: "RIGID_ONLY", Type: "STATIC", Shape: box(20, 0.5, 20), Position: [3]float64{0, -0.5, 0}},
		{ID: "crate", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 2, Shape: box(0.5, 0.5, 0.5), Position: [3]float64{0, 5, 0}},
		{ID: "ball", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1, Shape: sphere(0.4), Position: [3]float64{2, 8, 0}},
		{ID: "bullet", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 0.1, Shape: sphere(0.05), Position: [3]float64{-5, 1, 0}, Velocity: [3]float64{300, 0, 0}},
		{ID: "wall", Mode: "RIGID_ONLY", Type: "STATIC", Shape: box(0.05, 2, 2), Position: [3]float64{5, 1, 0}},
	}
	return cfg
}

func nbodyCluster() *Config {
	cfg := DefaultConfig()
	cfg.Backend = "nbody"
	cfg.Duration = 30
	cfg.Dt = 0.01
	cfg.FixedStep = 0.001
	cfg.MaxSubSteps = 20
	cfg.NBody = NBodyConfig{G: 1, Softening: 0.05, Integrator: "leapfrog"}
	cfg.Bodies = []BodyConfig{
		{ID: "sun", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1000, Shape: sphere(0.5)},
		{ID: "inner", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1, Shape: sphere(0.1), Position: [3]float64{10, 0, 0}, Velocity: [3]float64{0, 10, 0}},
		{ID: "outer", Mode: "RIGID_ONLY", Type: "DYNAMIC", Mass: 1, Shape: sphere(0.1), Position: [3]float64{-20, 0, 0}, Velocity: [3]float64{0, -math.Sqrt(50), 0}},
	}
	return cfg
}
