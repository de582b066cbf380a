package topology

import (
	"math"
	"testing"
)

func polarizableQuad() []Particle {
	return []Particle{
		{Index: 0, Name: "C1", Mass: 12.0},
		{Index: 1, Name: "DC1", Mass: 0.4},
		{Index: 2, Name: "O1", Mass: 16.0},
		{Index: 3, Name: "H1", Mass: 1.0},
	}
}

func TestClassifyAdjacency(t *testing.T) {
	c, err := Classify(polarizableQuad(), DefaultOptions())
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if got, want := len(c.CoreIndices), 3; got != want {
		t.Errorf("expected %d cores, got %d", want, got)
	}
	if got, want := len(c.AuxIndices), 1; got != want {
		t.Fatalf("expected %d drude particles, got %d", want, got)
	}
	if c.AuxIndices[0] != 1 {
		t.Errorf("expected drude at index 1, got %d", c.AuxIndices[0])
	}
	if c.Parent[1] != 0 {
		t.Errorf("expected parent 0, got %d", c.Parent[1])
	}

	// Drude mass restored on the polarizable core only.
	if got := c.CoreMass[0]; got != 12.4 {
		t.Errorf("expected effective core mass 12.4, got %v", got)
	}
	if got := c.CoreMass[1]; got != 16.0 {
		t.Errorf("expected O1 mass unchanged at 16.0, got %v", got)
	}
	if got := c.CoreMass[2]; got != 1.0 {
		t.Errorf("expected H1 mass unchanged at 1.0, got %v", got)
	}

	// Reduced mass comes from raw masses: 1/(1/12 + 1/0.4).
	want := 1.0 / (1.0/12.0 + 1.0/0.4)
	if got := c.ReducedMass[1]; math.Abs(got-want) > 1e-12 {
		t.Errorf("expected reduced mass %v, got %v", want, got)
	}
	if math.Abs(want-0.387097) > 1e-6 {
		t.Errorf("reduced mass reference value drifted: %v", want)
	}
}

func TestClassifyMassThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = MassThresholdBased

	c, err := Classify(polarizableQuad(), opts)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	// Every core above the cutoff is treated as carrying a drude particle,
	// hydrogens are not.
	if got := c.CoreMass[0]; got != 12.4 {
		t.Errorf("expected C1 effective mass 12.4, got %v", got)
	}
	if got := c.CoreMass[1]; got != 16.4 {
		t.Errorf("expected O1 effective mass 16.4, got %v", got)
	}
	if got := c.CoreMass[2]; got != 1.0 {
		t.Errorf("expected H1 mass unchanged at 1.0, got %v", got)
	}
}

func TestClassifyNoDrude(t *testing.T) {
	parts := []Particle{
		{Index: 0, Name: "AR", Mass: 39.948},
		{Index: 1, Name: "AR", Mass: 39.948},
	}
	c, err := Classify(parts, DefaultOptions())
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(c.AuxIndices) != 0 {
		t.Errorf("expected no drude particles, got %d", len(c.AuxIndices))
	}
	if len(c.CoreIndices) != 2 {
		t.Errorf("expected 2 cores, got %d", len(c.CoreIndices))
	}
	for i, m := range c.CoreMass {
		if m != 39.948 {
			t.Errorf("core %d: expected raw mass 39.948, got %v", i, m)
		}
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name  string
		parts []Particle
		opts  Options
	}{
		{
			name:  "drude first",
			parts: []Particle{{Index: 0, Name: "DC1", Mass: 0.4}},
			opts:  DefaultOptions(),
		},
		{
			name: "consecutive drude",
			parts: []Particle{
				{Index: 0, Name: "C1", Mass: 12.0},
				{Index: 1, Name: "DC1", Mass: 0.4},
				{Index: 2, Name: "DC2", Mass: 0.4},
			},
			opts: DefaultOptions(),
		},
		{
			name:  "unknown strategy",
			parts: polarizableQuad(),
			opts:  Options{AuxPrefix: 'D', Strategy: "guesswork"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Classify(tt.parts, tt.opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
