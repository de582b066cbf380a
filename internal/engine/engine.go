// Package engine defines the simulation engine contract the driver consumes
// and a built-in Langevin reference engine of independent polarizable sites.
//
// The driver only needs what the temperature bookkeeping reads: an ordered
// topology with names and masses, a constraint count, a blocking step
// operation, and velocity/energy snapshots. Heavy force-field work lives
// behind this interface.
package engine

import (
	"context"

	"github.com/avolkov/drudemd/internal/topology"
)

// State is one snapshot of the simulated system. Velocities are in nm/ps,
// positions in nm, energies in kJ/mol.
type State struct {
	Positions  [][3]float64
	Velocities [][3]float64
	Potential  float64
	Kinetic    float64
	Box        [3]float64
}

// Engine is the external collaborator advancing the system. Step blocks
// until the whole block completes, so a State taken afterwards is never an
// interleaved partial view.
type Engine interface {
	Particles() []topology.Particle
	NumConstraints() int
	Step(ctx context.Context, n int) error
	State() State
	StepCount() int64
}
