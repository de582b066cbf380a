// Package thermo derives instantaneous subsystem temperatures from
// velocities and masses of a Drude-polarizable system.
//
// Three temperatures are reported per sample:
//
//   - All: every particle with its raw mass
//   - Atoms: core atoms only, with the Drude mass restored
//   - Drude: core-Drude relative motion, with the pair reduced mass
//
// The Drude temperature uses relative velocities because the lab-frame
// velocity of a Drude particle is dominated by the translation of its
// parent atom; only the internal motion measures polarization heating.
package thermo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/avolkov/drudemd/internal/topology"
)

// Physical constants, CODATA 2018 exact values.
const (
	Boltzmann = 1.380649e-23     // J/K
	Avogadro  = 6.02214076e23    // 1/mol
	MolarGas  = 8.31446261815324 // J/(mol K), kB*NA
)

// kelvinPerMassVel2 converts a mass-weighted squared-velocity sum in
// u (nm/ps)^2 into kelvin per degree of freedom: u (nm/ps)^2 equals
// 1 kJ/mol, and T = sum(m v^2) / (dof kB) with the conventional 1/2 of the
// kinetic energy cancelling against dof/2.
const kelvinPerMassVel2 = 1000.0 / (Boltzmann * Avogadro)

// Report carries the decomposed temperatures of one sample, in kelvin.
// Drude is meaningful only when HasDrude is set; a topology without Drude
// particles reports core temperatures only.
type Report struct {
	All      float64
	Atoms    float64
	Drude    float64
	HasDrude bool
}

// Decomposer computes subsystem temperatures for a fixed classification and
// constraint count. It holds scratch buffers so that per-sample computation
// does not allocate.
type Decomposer struct {
	class *topology.Classification
	dof   topology.DOF

	vsqAll  []float64
	vsqCore []float64
	vsqRel  []float64
	muAux   []float64
}

// NewDecomposer validates degrees of freedom up front; a non-positive DOF
// count indicates a wrong classification or constraint count and is a
// configuration error, not a per-sample condition.
func NewDecomposer(class *topology.Classification, constraints int, countConstraints bool) (*Decomposer, error) {
	dof, err := class.DegreesOfFreedom(constraints, countConstraints)
	if err != nil {
		return nil, err
	}

	d := &Decomposer{
		class:   class,
		dof:     dof,
		vsqAll:  make([]float64, class.NumParticles()),
		vsqCore: make([]float64, len(class.CoreIndices)),
		vsqRel:  make([]float64, len(class.AuxIndices)),
		muAux:   make([]float64, len(class.AuxIndices)),
	}
	for k, i := range class.AuxIndices {
		d.muAux[k] = class.ReducedMass[i]
	}
	return d, nil
}

// DOF exposes the degrees of freedom the decomposer charges each subsystem.
func (d *Decomposer) DOF() topology.DOF { return d.dof }

// Decompose computes the subsystem temperatures for one velocity snapshot,
// in nm/ps. It is a pure function of the snapshot: no internal state
// survives between calls apart from reused scratch buffers.
func (d *Decomposer) Decompose(vel [][3]float64) (Report, error) {
	n := d.class.NumParticles()
	if len(vel) != n {
		return Report{}, fmt.Errorf("velocity snapshot has %d particles, topology has %d", len(vel), n)
	}

	for i := range vel {
		d.vsqAll[i] = speedSq(vel[i])
	}
	for k, i := range d.class.CoreIndices {
		d.vsqCore[k] = d.vsqAll[i]
	}

	rep := Report{
		All:   floats.Dot(d.class.Mass, d.vsqAll) / float64(d.dof.All) * kelvinPerMassVel2,
		Atoms: floats.Dot(d.class.CoreMass, d.vsqCore) / float64(d.dof.Core) * kelvinPerMassVel2,
	}

	if len(d.class.AuxIndices) > 0 {
		for k, i := range d.class.AuxIndices {
			p := d.class.Parent[i]
			rel := [3]float64{vel[i][0] - vel[p][0], vel[i][1] - vel[p][1], vel[i][2] - vel[p][2]}
			d.vsqRel[k] = speedSq(rel)
		}
		rep.Drude = floats.Dot(d.muAux, d.vsqRel) / float64(d.dof.Aux) * kelvinPerMassVel2
		rep.HasDrude = true
	}

	if err := rep.validate(); err != nil {
		return Report{}, err
	}
	return rep, nil
}

func (r Report) validate() error {
	for _, t := range []struct {
		name string
		val  float64
	}{{"Tall", r.All}, {"Tatoms", r.Atoms}, {"Tdrude", r.Drude}} {
		if t.val < 0 || math.IsNaN(t.val) || math.IsInf(t.val, 0) {
			return fmt.Errorf("unphysical temperature %s = %v", t.name, t.val)
		}
	}
	return nil
}

func speedSq(v [3]float64) float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}
