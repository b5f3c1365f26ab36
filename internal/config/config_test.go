package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != "baseline" {
		t.Errorf("expected backend baseline, got %s", cfg.Backend)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum-chain")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Joints) != 3 {
		t.Errorf("expected 3 joints, got %d", len(cfg.Joints))
	}
	if cfg.Name != "pendulum-chain" {
		t.Errorf("expected name to be set, got %q", cfg.Name)
	}

	cfg.Bodies = nil
	if again := GetPreset("pendulum-chain"); len(again.Bodies) != 3 {
		t.Error("presets must not share state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad dt", func(c *Config) { c.Dt = 0 }, "dt"},
		{"bad substeps", func(c *Config) { c.MaxSubSteps = 0 }, "max_substeps"},
		{"bad frame", func(c *Config) { c.Frame = "GALACTIC" }, "frame"},
		{"duplicate id", func(c *Config) {
			c.Bodies = []BodyConfig{{ID: "a", Shape: sphere(1)}, {ID: "a", Shape: sphere(1)}}
		}, "duplicate"},
		{"no shape or orbit", func(c *Config) { c.Bodies = []BodyConfig{{ID: "a"}} }, "shape or an orbit"},
		{"bad shape", func(c *Config) {
			c.Bodies = []BodyConfig{{ID: "a", Shape: &ShapeConfig{Kind: "torus"}}}
		}, "unknown shape"},
		{"dangling joint", func(c *Config) { c.Joints = []JointConfig{{A: "ghost"}} }, "unknown body"},
		{"bad coupling", func(c *Config) { c.Coupling = CouplingConfig{Policy: "distance", Capture: 5, Release: 1} }, "capture"},
		{"unknown policy", func(c *Config) { c.Coupling.Policy = "magnetic" }, "policy"},
		{"unknown integrator", func(c *Config) { c.NBody.Integrator = "midpoint" }, "integrator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = -1
	cfg.Duration = 0
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "dt") || !strings.Contains(err.Error(), "duration") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	cfg := GetPreset("orbit-dock")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Bodies) != len(cfg.Bodies) {
		t.Errorf("expected %d bodies, got %d", len(cfg.Bodies), len(loaded.Bodies))
	}
	if loaded.Bodies[2].Orbit == nil || loaded.Bodies[2].Orbit.SemiMajorAxis != 14 {
		t.Error("orbit did not round-trip")
	}
	if loaded.Coupling.Capture != 12 {
		t.Errorf("expected capture 12, got %f", loaded.Coupling.Capture)
	}
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("name: tiny\nduration: 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Duration != 2 || cfg.Dt != DefaultDt || cfg.Tuning.SolverIterations != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestClone(t *testing.T) {
	cfg := GetPreset("orbit-dock")
	c := cfg.Clone()
	c.Bodies[0].ID = "changed"
	c.Bodies[2].Orbit.Eccentricity = 0
	c.Bodies[1].Shape.HalfExtents[0] = 9

	if cfg.Bodies[0].ID == "changed" || cfg.Bodies[2].Orbit.Eccentricity == 0 || cfg.Bodies[1].Shape.HalfExtents[0] == 9 {
		t.Error("clone shares storage with the original")
	}
}
