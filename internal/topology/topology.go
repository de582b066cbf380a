package topology

import "fmt"

const (
	// DefaultAuxPrefix marks Drude particles in force-field naming
	// conventions ("DC1", "DOW", ...).
	DefaultAuxPrefix = 'D'

	// DefaultMassDelta is the mass carried by a Drude particle, split off
	// its parent core by the polarizable force field.
	DefaultMassDelta = 0.4

	// DefaultMassCutoff separates hydrogens from polarizable heavy atoms
	// when classifying by mass instead of by bond adjacency.
	DefaultMassCutoff = 1.1
)

// Particle is one entry of the ordered topology reported by the engine.
// Mass is the engine-side mass in unified atomic mass units; for a
// polarizable core it excludes the mass moved onto its Drude particle.
type Particle struct {
	Index int
	Name  string
	Mass  float64
}

// Strategy selects how cores carrying a Drude particle are detected.
type Strategy string

const (
	// AdjacencyBased pairs each Drude particle with the particle
	// immediately preceding it in the topology.
	AdjacencyBased Strategy = "adjacency"
	// MassThresholdBased treats every core heavier than the mass cutoff
	// as carrying a Drude particle.
	MassThresholdBased Strategy = "mass-threshold"
)

// Options configures particle classification.
type Options struct {
	AuxPrefix  byte
	Strategy   Strategy
	MassDelta  float64
	MassCutoff float64
}

func DefaultOptions() Options {
	return Options{
		AuxPrefix:  DefaultAuxPrefix,
		Strategy:   AdjacencyBased,
		MassDelta:  DefaultMassDelta,
		MassCutoff: DefaultMassCutoff,
	}
}

// Classification partitions a topology into core atoms and Drude particles
// and carries the derived mass arrays used for temperature decomposition.
// All slices indexed by particle are length N; ReducedMass and Parent hold
// meaningful values only at Drude indices.
type Classification struct {
	CoreIndices []int
	AuxIndices  []int

	// Mass is the raw engine-reported mass of every particle.
	Mass []float64
	// CoreMass is the effective mass of each core atom, in CoreIndices
	// order, with the Drude mass restored on polarizable cores.
	CoreMass []float64
	// ReducedMass is the two-body reduced mass of each core-Drude pair,
	// indexed by the Drude particle, computed from raw masses.
	ReducedMass []float64
	// Parent maps a Drude index to its core index, -1 elsewhere.
	Parent []int
}

// Classify splits particles into cores and Drude particles by name prefix
// and derives effective and reduced masses. The topology must satisfy the
// adjacency invariant: each Drude particle directly follows its core.
func Classify(particles []Particle, opts Options) (*Classification, error) {
	if opts.Strategy != AdjacencyBased && opts.Strategy != MassThresholdBased {
		return nil, fmt.Errorf("unknown classification strategy %q", opts.Strategy)
	}

	n := len(particles)
	c := &Classification{
		Mass:        make([]float64, n),
		ReducedMass: make([]float64, n),
		Parent:      make([]int, n),
	}

	aux := make([]bool, n)
	for i, p := range particles {
		c.Mass[i] = p.Mass
		c.Parent[i] = -1
		if len(p.Name) > 0 && p.Name[0] == opts.AuxPrefix {
			aux[i] = true
			c.AuxIndices = append(c.AuxIndices, i)
		} else {
			c.CoreIndices = append(c.CoreIndices, i)
		}
	}

	for _, i := range c.AuxIndices {
		if i == 0 || aux[i-1] {
			return nil, fmt.Errorf("drude particle %d (%s) has no preceding core atom", i, particles[i].Name)
		}
		c.Parent[i] = i - 1
		c.ReducedMass[i] = 1.0 / (1.0/c.Mass[i-1] + 1.0/c.Mass[i])
	}

	// Restore the Drude mass on polarizable cores so that core kinetic
	// energies reflect the full atomic mass.
	hasDrude := make([]bool, n)
	switch opts.Strategy {
	case AdjacencyBased:
		for _, i := range c.AuxIndices {
			hasDrude[i-1] = true
		}
	case MassThresholdBased:
		for _, j := range c.CoreIndices {
			hasDrude[j] = c.Mass[j] > opts.MassCutoff
		}
	}

	c.CoreMass = make([]float64, len(c.CoreIndices))
	for k, j := range c.CoreIndices {
		c.CoreMass[k] = c.Mass[j]
		if hasDrude[j] {
			c.CoreMass[k] += opts.MassDelta
		}
	}

	return c, nil
}

// NumParticles returns the total particle count of the classified topology.
func (c *Classification) NumParticles() int {
	return len(c.CoreIndices) + len(c.AuxIndices)
}
