package topology

import "fmt"

// DOF holds the translational degrees of freedom of each temperature
// subsystem after constraint correction.
type DOF struct {
	All  int
	Core int
	Aux  int
}

// DegreesOfFreedom computes per-subsystem degrees of freedom. Bond
// constraints are assumed to act only among core atoms, so they are charged
// against the all-particle and core subsystems but never the Drude one.
// With countConstraints false the correction is omitted entirely, matching
// setups that do not track constraints.
func (c *Classification) DegreesOfFreedom(constraints int, countConstraints bool) (DOF, error) {
	if constraints < 0 {
		return DOF{}, fmt.Errorf("negative constraint count %d", constraints)
	}
	if !countConstraints {
		constraints = 0
	}

	n := c.NumParticles()
	nc := len(c.CoreIndices)
	nd := len(c.AuxIndices)

	d := DOF{
		All:  3*n - constraints,
		Core: 3*nc - constraints,
		Aux:  3 * nd,
	}
	if d.All <= 0 || d.Core <= 0 {
		return DOF{}, fmt.Errorf("degenerate system: %d particles, %d cores, %d constraints leave no degrees of freedom", n, nc, constraints)
	}
	return d, nil
}
