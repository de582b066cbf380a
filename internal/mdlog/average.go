package mdlog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientFrames reports a cut fraction that leaves no rows to
// average; the mean of an empty window is undefined and never silently
// reported as NaN.
var ErrInsufficientFrames = errors.New("insufficient frames for requested cut")

// Average is the trailing-window statistics of one column.
type Average struct {
	Column string
	Mean   float64
	Std    float64
}

// AverageReport carries the window statistics of every non-step column,
// plus the step identifiers bounding the window as they appear in the log.
type AverageReport struct {
	Frames    int
	FirstStep string
	LastStep  string
	Averages  []Average
}

// WindowAverage computes mean and population standard deviation of each
// non-step column over the trailing (1-cut) fraction of rows. It is a pure
// function of the table and cut.
func (t *Table) WindowAverage(cut float64) (*AverageReport, error) {
	if cut < 0 || cut >= 1 {
		return nil, fmt.Errorf("cut fraction %v outside [0, 1)", cut)
	}
	stepIdx := t.StepIndex()
	if stepIdx < 0 {
		return nil, fmt.Errorf("table has no %s column", StepColumn)
	}

	frames := int(math.Round((1.0 - cut) * float64(len(t.Rows))))
	if frames <= 0 {
		return nil, fmt.Errorf("%w: %d rows, cut %v", ErrInsufficientFrames, len(t.Rows), cut)
	}
	window := t.Rows[len(t.Rows)-frames:]

	rep := &AverageReport{
		Frames:    frames,
		FirstStep: window[0][stepIdx],
		LastStep:  window[frames-1][stepIdx],
	}

	vals := make([]float64, frames)
	for i, col := range t.Columns {
		if i == stepIdx {
			continue
		}
		for j, row := range window {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			vals[j] = v
		}
		rep.Averages = append(rep.Averages, Average{
			Column: col,
			Mean:   stat.Mean(vals, nil),
			Std:    stat.PopStdDev(vals, nil),
		})
	}
	return rep, nil
}

// Format renders the report in the conventional two-line-plus-rows layout:
// a commented window header followed by one "name mean +/- std" line per
// column, dashes in column names rendered back as spaces.
func (r *AverageReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Averaged over last %d frames (steps %s ... %s)\n", r.Frames, r.FirstStep, r.LastStep)
	for _, a := range r.Averages {
		fmt.Fprintf(&b, "%-30s %15.5f +/- %.5f\n", strings.ReplaceAll(a.Column, "-", " "), a.Mean, a.Std)
	}
	return b.String()
}
