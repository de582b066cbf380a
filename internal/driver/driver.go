// Package driver runs the block-step sampling loop: advance the engine one
// block, snapshot its state, decompose temperatures, and hand one record to
// every attached reporter. Numerics stay pure; presentation lives in the
// reporters.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/drudemd/internal/engine"
	"github.com/avolkov/drudemd/internal/thermo"
)

// uPerNm3ToGramPerMl converts a u/nm^3 mass density to g/mL.
const uPerNm3ToGramPerMl = 1.66053906660e-3

// Extra is one annotated scalar attached to a record, rendered as a
// "# label value unit" line in the textual log.
type Extra struct {
	Label string
	Value float64
	Unit  string
}

// Record is the sampled system state at the end of one block.
type Record struct {
	Step        int64
	Potential   float64 // kJ/mol
	Kinetic     float64 // kJ/mol
	Total       float64 // kJ/mol
	Temperature float64 // K, all particles
	Density     float64 // g/mL
	Speed       float64 // ns/day
	Extras      []Extra
}

// Reporter consumes one record per sampling interval.
type Reporter interface {
	Append(rec Record) error
}

// Driver owns the step loop configuration.
type Driver struct {
	eng       engine.Engine
	dec       *thermo.Decomposer
	reporters []Reporter

	blocks        int
	stepsPerBlock int
	timestep      float64 // ps
	totalMass     float64 // u
}

// New validates the loop configuration against the engine topology.
func New(eng engine.Engine, dec *thermo.Decomposer, blocks, stepsPerBlock int, timestep float64) (*Driver, error) {
	if blocks <= 0 || stepsPerBlock <= 0 {
		return nil, fmt.Errorf("loop needs positive blocks and steps per block, got %d x %d", blocks, stepsPerBlock)
	}
	d := &Driver{
		eng:           eng,
		dec:           dec,
		blocks:        blocks,
		stepsPerBlock: stepsPerBlock,
		timestep:      timestep,
	}
	for _, p := range eng.Particles() {
		d.totalMass += p.Mass
	}
	return d, nil
}

// AddReporter attaches a sink for sampled records.
func (d *Driver) AddReporter(r Reporter) { d.reporters = append(d.reporters, r) }

// Run executes the block loop. Each block is a blocking engine call; the
// state sampled afterwards is exactly the state the block produced. The
// final Report of the run is returned for the caller's summary output.
func (d *Driver) Run(ctx context.Context) (thermo.Report, error) {
	var last thermo.Report

	for b := 0; b < d.blocks; b++ {
		start := time.Now()
		if err := d.eng.Step(ctx, d.stepsPerBlock); err != nil {
			return last, err
		}
		elapsed := time.Since(start)

		st := d.eng.State()
		rep, err := d.dec.Decompose(st.Velocities)
		if err != nil {
			return last, err
		}
		last = rep

		rec := Record{
			Step:        d.eng.StepCount(),
			Potential:   st.Potential,
			Kinetic:     st.Kinetic,
			Total:       st.Potential + st.Kinetic,
			Temperature: rep.All,
			Density:     d.density(st.Box),
			Speed:       d.speed(elapsed),
			Extras: []Extra{
				{Label: "Tall", Value: rep.All, Unit: "K"},
				{Label: "Tatoms", Value: rep.Atoms, Unit: "K"},
			},
		}
		if rep.HasDrude {
			rec.Extras = append(rec.Extras, Extra{Label: "Tdrude", Value: rep.Drude, Unit: "K"})
		}

		for _, r := range d.reporters {
			if err := r.Append(rec); err != nil {
				return last, err
			}
		}
	}
	return last, nil
}

func (d *Driver) density(box [3]float64) float64 {
	vol := box[0] * box[1] * box[2]
	if vol <= 0 {
		return 0
	}
	return d.totalMass / vol * uPerNm3ToGramPerMl
}

func (d *Driver) speed(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	simNs := float64(d.stepsPerBlock) * d.timestep / 1000.0
	return simNs / elapsed.Hours() * 24.0
}
