package engine

import (
	"context"
	"math"
	"testing"

	"github.com/avolkov/drudemd/internal/thermo"
	"github.com/avolkov/drudemd/internal/topology"
)

func testConfig() LangevinConfig {
	return LangevinConfig{
		Temperature:      300.0,
		DrudeTemperature: 1.0,
		Friction:         5.0,
		DrudeFriction:    20.0,
		Timestep:         0.0005,
		SpringK:          5000.0,
		DrudeMass:        0.4,
		Box:              [3]float64{3, 3, 3},
		Seed:             42,
	}
}

func polarizableSites() []Site {
	return []Site{
		{Name: "C1", Mass: 12.011, Polarizable: true},
		{Name: "H1", Mass: 1.008},
	}
}

func TestNewLangevinTopology(t *testing.T) {
	e, err := NewLangevin(testConfig(), polarizableSites(), 4)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}

	parts := e.Particles()
	// Each molecule: core, its drude, then the hydrogen.
	if len(parts) != 12 {
		t.Fatalf("expected 12 particles, got %d", len(parts))
	}
	if parts[0].Name != "C1" || parts[1].Name != "DC1" || parts[2].Name != "H1" {
		t.Errorf("unexpected layout: %s %s %s", parts[0].Name, parts[1].Name, parts[2].Name)
	}
	// Engine-side core mass excludes the drude mass.
	if got := parts[0].Mass; math.Abs(got-(12.011-0.4)) > 1e-12 {
		t.Errorf("expected core mass %v, got %v", 12.011-0.4, got)
	}
	if parts[1].Mass != 0.4 {
		t.Errorf("expected drude mass 0.4, got %v", parts[1].Mass)
	}

	// The layout satisfies the adjacency invariant the classifier relies on.
	if _, err := topology.Classify(parts, topology.DefaultOptions()); err != nil {
		t.Errorf("engine topology should classify cleanly: %v", err)
	}
}

func TestNewLangevinErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  LangevinConfig
		mols int
	}{
		{"zero molecules", testConfig(), 0},
		{"zero timestep", func() LangevinConfig { c := testConfig(); c.Timestep = 0; return c }(), 2},
		{"negative temperature", func() LangevinConfig { c := testConfig(); c.Temperature = -1; return c }(), 2},
		{"drude heavier than site", func() LangevinConfig { c := testConfig(); c.DrudeMass = 2.0; return c }(), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sites := polarizableSites()
			if tt.name == "drude heavier than site" {
				sites = []Site{{Name: "H1", Mass: 1.008, Polarizable: true}}
			}
			if _, err := NewLangevin(tt.cfg, sites, tt.mols); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLangevinDeterministicSeed(t *testing.T) {
	e1, err := NewLangevin(testConfig(), polarizableSites(), 2)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}
	e2, err := NewLangevin(testConfig(), polarizableSites(), 2)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}

	ctx := context.Background()
	if err := e1.Step(ctx, 50); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := e2.Step(ctx, 50); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	s1, s2 := e1.State(), e2.State()
	for i := range s1.Velocities {
		if s1.Velocities[i] != s2.Velocities[i] {
			t.Fatalf("same seed diverged at particle %d", i)
		}
	}
}

func TestLangevinStepCount(t *testing.T) {
	e, err := NewLangevin(testConfig(), polarizableSites(), 2)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}
	ctx := context.Background()
	if err := e.Step(ctx, 10); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := e.Step(ctx, 15); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if e.StepCount() != 25 {
		t.Errorf("expected 25 steps, got %d", e.StepCount())
	}
}

func TestLangevinStateIsCopy(t *testing.T) {
	e, err := NewLangevin(testConfig(), polarizableSites(), 2)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}

	st := e.State()
	before := st.Velocities[0]
	if err := e.Step(context.Background(), 20); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if st.Velocities[0] != before {
		t.Error("snapshot mutated by a later step")
	}
}

func TestLangevinCancellation(t *testing.T) {
	e, err := NewLangevin(testConfig(), polarizableSites(), 2)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Step(ctx, 10); err == nil {
		t.Error("expected context error")
	}
}

func TestLangevinThermostat(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical check")
	}

	cfg := testConfig()
	e, err := NewLangevin(cfg, polarizableSites(), 64)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}

	class, err := topology.Classify(e.Particles(), topology.DefaultOptions())
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	dec, err := thermo.NewDecomposer(class, e.NumConstraints(), true)
	if err != nil {
		t.Fatalf("decomposer failed: %v", err)
	}

	if err := e.Step(context.Background(), 2000); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	rep, err := dec.Decompose(e.State().Velocities)
	if err != nil {
		t.Fatalf("decompose failed: %v", err)
	}

	// Generous statistical bounds: the dual thermostat should hold the
	// atomic subsystem near 300 K and the drude subsystem near 1 K.
	if rep.Atoms < 0.5*cfg.Temperature || rep.Atoms > 1.5*cfg.Temperature {
		t.Errorf("atom temperature %v K far from target %v K", rep.Atoms, cfg.Temperature)
	}
	if !rep.HasDrude {
		t.Fatal("expected drude subsystem")
	}
	if rep.Drude > 20*cfg.DrudeTemperature {
		t.Errorf("drude temperature %v K far above target %v K", rep.Drude, cfg.DrudeTemperature)
	}
}
