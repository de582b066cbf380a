package mdlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PlotPath inserts a "plot" component before the final extension of the log
// path: run.log becomes run.plot.log. A path without an extension gets
// ".plot" appended.
func PlotPath(logPath string) string {
	i := strings.LastIndex(logPath, ".")
	if i < 0 {
		return logPath + ".plot"
	}
	return logPath[:i] + ".plot" + logPath[i:]
}

// WritePlot serializes the table in plotting-friendly form: a space-joined
// header line followed by one space-joined line per row.
func (t *Table) WritePlot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, strings.Join(t.Columns, " ")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(bw, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePlotFile writes the plot table next to the source log.
func (t *Table) WritePlotFile(logPath string) (string, error) {
	out := PlotPath(logPath)
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := t.WritePlot(f); err != nil {
		return "", err
	}
	return out, nil
}
