// Package report renders sampled records as the tab-separated textual log
// consumed by the mdlog parser: a quoted-column header on first write, one
// data row per record, and one "# label value unit" annotation line per
// extra scalar.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/avolkov/drudemd/internal/driver"
)

// Columns of the primary row, in emission order.
var Columns = []string{
	"Step",
	"Potential Energy (kJ/mole)",
	"Kinetic Energy (kJ/mole)",
	"Total Energy (kJ/mole)",
	"Temperature (K)",
	"Density (g/mL)",
	"Speed (ns/day)",
}

// LogReporter writes records to a log stream. It is not safe for concurrent
// use; the driver appends from a single goroutine.
type LogReporter struct {
	w           io.Writer
	wroteHeader bool
}

func NewLogReporter(w io.Writer) *LogReporter {
	return &LogReporter{w: w}
}

// Comment writes one "#"-prefixed preamble line. Callers emit preamble and
// the "# running..." sentinel before the first Append.
func (r *LogReporter) Comment(args ...any) error {
	_, err := fmt.Fprintln(r.w, append([]any{"#"}, args...)...)
	return err
}

// Append writes one record, emitting the header first on the initial call.
func (r *LogReporter) Append(rec driver.Record) error {
	if !r.wroteHeader {
		quoted := make([]string, len(Columns))
		for i, c := range Columns {
			quoted[i] = `"` + c + `"`
		}
		if _, err := fmt.Fprintln(r.w, "#"+strings.Join(quoted, "\t")); err != nil {
			return err
		}
		r.wroteHeader = true
	}

	fields := []string{
		strconv.FormatInt(rec.Step, 10),
		formatVal(rec.Potential),
		formatVal(rec.Kinetic),
		formatVal(rec.Total),
		formatVal(rec.Temperature),
		strconv.FormatFloat(rec.Density, 'f', 6, 64),
		strconv.FormatFloat(rec.Speed, 'f', 1, 64),
	}
	if _, err := fmt.Fprintln(r.w, strings.Join(fields, "\t")); err != nil {
		return err
	}

	for _, ex := range rec.Extras {
		if _, err := fmt.Fprintf(r.w, "# %s %s %s\n", ex.Label, formatVal(ex.Value), ex.Unit); err != nil {
			return err
		}
	}
	return nil
}

func formatVal(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
