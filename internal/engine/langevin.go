package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/avolkov/drudemd/internal/topology"
)

// kB in kJ/(mol K); with masses in u, lengths in nm and times in ps,
// u (nm/ps)^2 is exactly 1 kJ/mol.
const kB = 8.31446261815324e-3

// Site describes one atom of the molecular template. Mass is the full
// atomic mass; for polarizable sites the engine splits the Drude mass off
// the core, mirroring how polarizable force fields report masses.
type Site struct {
	Name        string
	Mass        float64
	Polarizable bool
}

// LangevinConfig parameterizes the reference engine.
type LangevinConfig struct {
	Temperature      float64    // K, core thermostat
	DrudeTemperature float64    // K, relative-motion thermostat
	Friction         float64    // 1/ps
	DrudeFriction    float64    // 1/ps
	Timestep         float64    // ps
	SpringK          float64    // kJ/(mol nm^2), core-Drude bond
	DrudeMass        float64    // u
	Box              [3]float64 // nm
	Seed             int64
}

// Langevin integrates independent molecules whose only interaction is the
// harmonic core-Drude spring, under a dual Langevin thermostat: pair
// center-of-mass motion is coupled to the main bath and relative motion to
// a cold bath, the scheme used for Drude oscillators to keep polarization
// degrees of freedom near their self-consistent minimum.
type Langevin struct {
	cfg   LangevinConfig
	parts []topology.Particle

	pos, vel, frc [][3]float64
	parent        []int // drude index -> core index, -1 elsewhere
	paired        []bool
	steps         int64
	rng           *rand.Rand
}

// NewLangevin replicates the site template nmol times, placing molecules on
// a cubic lattice inside the box and drawing initial velocities from
// Maxwell-Boltzmann distributions at the two thermostat temperatures.
func NewLangevin(cfg LangevinConfig, sites []Site, nmol int) (*Langevin, error) {
	if nmol <= 0 || len(sites) == 0 {
		return nil, fmt.Errorf("empty topology: %d molecules of %d sites", nmol, len(sites))
	}
	if cfg.Timestep <= 0 {
		return nil, fmt.Errorf("timestep must be positive, got %v ps", cfg.Timestep)
	}
	if cfg.Temperature < 0 || cfg.DrudeTemperature < 0 {
		return nil, fmt.Errorf("negative thermostat temperature")
	}
	for _, s := range sites {
		if s.Polarizable && s.Mass <= cfg.DrudeMass {
			return nil, fmt.Errorf("site %s mass %v cannot carry drude mass %v", s.Name, s.Mass, cfg.DrudeMass)
		}
	}

	e := &Langevin{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}

	for m := 0; m < nmol; m++ {
		for _, s := range sites {
			core := topology.Particle{Index: len(e.parts), Name: s.Name, Mass: s.Mass}
			if s.Polarizable {
				core.Mass -= cfg.DrudeMass
			}
			e.parts = append(e.parts, core)
			if s.Polarizable {
				e.parts = append(e.parts, topology.Particle{
					Index: len(e.parts),
					Name:  "D" + s.Name,
					Mass:  cfg.DrudeMass,
				})
			}
		}
	}

	n := len(e.parts)
	e.pos = make([][3]float64, n)
	e.vel = make([][3]float64, n)
	e.frc = make([][3]float64, n)
	e.parent = make([]int, n)
	e.paired = make([]bool, n)
	for i := range e.parent {
		e.parent[i] = -1
	}
	for i := 1; i < n; i++ {
		if e.parts[i].Name[0] == 'D' {
			e.parent[i] = i - 1
			e.paired[i-1] = true
		}
	}

	e.placeLattice(nmol, len(sites))
	e.seedVelocities()
	e.computeForces()
	return e, nil
}

func (e *Langevin) placeLattice(nmol, sitesPerMol int) {
	cells := int(math.Ceil(math.Cbrt(float64(nmol))))
	dx := e.cfg.Box[0] / float64(cells)
	dy := e.cfg.Box[1] / float64(cells)
	dz := e.cfg.Box[2] / float64(cells)

	i := 0
	for m := 0; m < nmol; m++ {
		cx := float64(m%cells) * dx
		cy := float64((m/cells)%cells) * dy
		cz := float64(m/(cells*cells)) * dz
		for s := 0; s < sitesPerMol; s++ {
			e.pos[i] = [3]float64{cx + 0.1*float64(s), cy, cz}
			if i+1 < len(e.parts) && e.parent[i+1] == i {
				i++
				e.pos[i] = e.pos[i-1]
			}
			i++
		}
	}
}

func (e *Langevin) seedVelocities() {
	for i := range e.parts {
		if e.parent[i] >= 0 {
			continue // set together with the core below
		}
		if !e.paired[i] {
			sigma := math.Sqrt(kB * e.cfg.Temperature / e.parts[i].Mass)
			e.vel[i] = e.gauss3(sigma)
			continue
		}
		// Pair: center of mass at the bath temperature, relative motion
		// at the Drude temperature.
		mc, md := e.parts[i].Mass, e.parts[i+1].Mass
		mTot := mc + md
		mu := mc * md / mTot
		vcom := e.gauss3(math.Sqrt(kB * e.cfg.Temperature / mTot))
		vrel := e.gauss3(math.Sqrt(kB * e.cfg.DrudeTemperature / mu))
		for k := 0; k < 3; k++ {
			e.vel[i][k] = vcom[k] - md/mTot*vrel[k]
			e.vel[i+1][k] = vcom[k] + mc/mTot*vrel[k]
		}
	}
}

func (e *Langevin) gauss3(sigma float64) [3]float64 {
	return [3]float64{sigma * e.rng.NormFloat64(), sigma * e.rng.NormFloat64(), sigma * e.rng.NormFloat64()}
}

func (e *Langevin) computeForces() {
	for i := range e.frc {
		e.frc[i] = [3]float64{}
	}
	for d, p := range e.parent {
		if p < 0 {
			continue
		}
		for k := 0; k < 3; k++ {
			f := -e.cfg.SpringK * (e.pos[d][k] - e.pos[p][k])
			e.frc[d][k] += f
			e.frc[p][k] -= f
		}
	}
}

// Step advances the system n timesteps with a BAOAB splitting: half kicks
// and drifts around an exact Ornstein-Uhlenbeck update applied separately
// to pair center-of-mass and relative velocities.
func (e *Langevin) Step(ctx context.Context, n int) error {
	dt := e.cfg.Timestep
	cCom := math.Exp(-e.cfg.Friction * dt)
	cRel := math.Exp(-e.cfg.DrudeFriction * dt)

	for s := 0; s < n; s++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := range e.parts {
			m := e.parts[i].Mass
			for k := 0; k < 3; k++ {
				e.vel[i][k] += e.frc[i][k] / m * dt / 2
				e.pos[i][k] += e.vel[i][k] * dt / 2
			}
		}

		e.thermostat(cCom, cRel)

		for i := range e.parts {
			for k := 0; k < 3; k++ {
				e.pos[i][k] += e.vel[i][k] * dt / 2
			}
		}
		e.computeForces()
		for i := range e.parts {
			m := e.parts[i].Mass
			for k := 0; k < 3; k++ {
				e.vel[i][k] += e.frc[i][k] / m * dt / 2
			}
		}
		e.steps++
	}
	return nil
}

func (e *Langevin) thermostat(cCom, cRel float64) {
	nCom := math.Sqrt(1 - cCom*cCom)
	nRel := math.Sqrt(1 - cRel*cRel)

	for i := range e.parts {
		if e.parent[i] >= 0 {
			continue
		}
		if !e.paired[i] {
			m := e.parts[i].Mass
			sigma := math.Sqrt(kB * e.cfg.Temperature / m)
			for k := 0; k < 3; k++ {
				e.vel[i][k] = cCom*e.vel[i][k] + nCom*sigma*e.rng.NormFloat64()
			}
			continue
		}
		mc, md := e.parts[i].Mass, e.parts[i+1].Mass
		mTot := mc + md
		mu := mc * md / mTot
		sCom := math.Sqrt(kB * e.cfg.Temperature / mTot)
		sRel := math.Sqrt(kB * e.cfg.DrudeTemperature / mu)
		for k := 0; k < 3; k++ {
			vcom := (mc*e.vel[i][k] + md*e.vel[i+1][k]) / mTot
			vrel := e.vel[i+1][k] - e.vel[i][k]
			vcom = cCom*vcom + nCom*sCom*e.rng.NormFloat64()
			vrel = cRel*vrel + nRel*sRel*e.rng.NormFloat64()
			e.vel[i][k] = vcom - md/mTot*vrel
			e.vel[i+1][k] = vcom + mc/mTot*vrel
		}
	}
}

func (e *Langevin) Particles() []topology.Particle { return e.parts }

// NumConstraints is zero: the reference engine has no constrained bonds.
func (e *Langevin) NumConstraints() int { return 0 }

func (e *Langevin) StepCount() int64 { return e.steps }

// State returns a deep copy so callers never observe a later step mutating
// the snapshot.
func (e *Langevin) State() State {
	st := State{
		Positions:  make([][3]float64, len(e.pos)),
		Velocities: make([][3]float64, len(e.vel)),
		Box:        e.cfg.Box,
	}
	copy(st.Positions, e.pos)
	copy(st.Velocities, e.vel)

	for d, p := range e.parent {
		if p < 0 {
			continue
		}
		dr2 := 0.0
		for k := 0; k < 3; k++ {
			dr := e.pos[d][k] - e.pos[p][k]
			dr2 += dr * dr
		}
		st.Potential += 0.5 * e.cfg.SpringK * dr2
	}
	for i := range e.parts {
		m := e.parts[i].Mass
		for k := 0; k < 3; k++ {
			st.Kinetic += 0.5 * m * e.vel[i][k] * e.vel[i][k]
		}
	}
	return st
}
