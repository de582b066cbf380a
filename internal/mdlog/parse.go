// Package mdlog parses simulation logs into rectangular tables and computes
// trailing-window statistics over them.
//
// A log mixes three kinds of lines: preamble before a sentinel line
// containing "running", a comment-prefixed header of quoted column names,
// and data rows each optionally followed by comment-prefixed annotation
// lines of the form "# label value units" contributing one extra column.
package mdlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel marks the last preamble line; reportable rows follow it.
const Sentinel = "running"

// StepColumn names the monotonically non-decreasing step counter that every
// log table starts with.
const StepColumn = "Step"

// ErrNoSentinel reports a log with no "running" marker: without it no header
// can be attributed, so the whole parse fails.
var ErrNoSentinel = errors.New("sentinel line containing \"running\" not found")

// ParseError identifies the offending line of a malformed log.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("log line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Table is one parsed log: ordered column names (spaces normalized to
// dashes) and rows of string fields, one per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

type scanner struct {
	s    *bufio.Scanner
	line int
	cur  string
	eof  bool
}

func (sc *scanner) next() bool {
	if sc.eof {
		return false
	}
	if !sc.s.Scan() {
		sc.eof = true
		sc.cur = ""
		return false
	}
	sc.line++
	sc.cur = sc.s.Text()
	return true
}

// Parse reads a log stream into a Table. A blank line or EOF terminates row
// accumulation cleanly, so logs of still-running simulations parse without
// error. Malformed rows abort the parse: averaging misaligned columns would
// silently corrupt results downstream.
func Parse(r io.Reader) (*Table, error) {
	sc := &scanner{s: bufio.NewScanner(r)}

	for {
		if !sc.next() {
			return nil, ErrNoSentinel
		}
		if strings.Contains(sc.cur, Sentinel) {
			break
		}
	}

	if !sc.next() {
		return nil, &ParseError{Line: sc.line, Msg: "header line missing after sentinel"}
	}
	if !strings.HasPrefix(sc.cur, "#") {
		return nil, &ParseError{Line: sc.line, Text: sc.cur, Msg: "expected comment-prefixed header"}
	}
	t := &Table{}
	for _, tok := range strings.Split(strings.ReplaceAll(sc.cur, "#", ""), "\"") {
		if strings.TrimSpace(tok) != "" {
			t.Columns = append(t.Columns, tok)
		}
	}
	if len(t.Columns) == 0 {
		return nil, &ParseError{Line: sc.line, Text: sc.cur, Msg: "header defines no columns"}
	}

	// First data row; its trailing annotation lines define the extra
	// columns every later row must also carry.
	if sc.next() && len(strings.Fields(sc.cur)) > 0 {
		row := strings.Fields(sc.cur)
		rowLine := sc.line
		for sc.next() && strings.HasPrefix(sc.cur, "#") {
			tok := strings.Fields(strings.ReplaceAll(sc.cur, "#", ""))
			if len(tok) < 3 {
				return nil, &ParseError{Line: sc.line, Text: sc.cur, Msg: "annotation needs label, value and units"}
			}
			t.Columns = append(t.Columns, tok[0]+" ("+tok[2]+")")
			row = append(row, tok[1])
		}
		ok, err := t.appendRow(sc, row, rowLine)
		if err != nil {
			return nil, err
		}

		for ok && !sc.eof && len(strings.Fields(sc.cur)) > 0 {
			row := strings.Fields(sc.cur)
			rowLine := sc.line
			for sc.next() && strings.HasPrefix(sc.cur, "#") {
				tok := strings.Fields(strings.ReplaceAll(sc.cur, "#", ""))
				if len(tok) < 2 {
					return nil, &ParseError{Line: sc.line, Text: sc.cur, Msg: "annotation needs label and value"}
				}
				row = append(row, tok[1])
			}
			if ok, err = t.appendRow(sc, row, rowLine); err != nil {
				return nil, err
			}
		}
	}

	if err := sc.s.Err(); err != nil {
		return nil, err
	}

	for i, c := range t.Columns {
		t.Columns[i] = strings.ReplaceAll(c, " ", "-")
	}
	return t, nil
}

// appendRow validates the field count. A short row at end of file is the
// torso of a write in progress and terminates accumulation cleanly; any
// other mismatch is a hard failure.
func (t *Table) appendRow(sc *scanner, row []string, rowLine int) (bool, error) {
	if len(row) != len(t.Columns) {
		if sc.eof && len(row) < len(t.Columns) {
			return false, nil
		}
		return false, &ParseError{Line: rowLine, Msg: fmt.Sprintf("row has %d fields, expected %d", len(row), len(t.Columns))}
	}
	t.Rows = append(t.Rows, row)
	return true, nil
}

// ParseFile parses the log at path.
func ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// StepIndex locates the step column, or -1 when absent.
func (t *Table) StepIndex() int {
	for i, c := range t.Columns {
		if strings.Contains(c, StepColumn) {
			return i
		}
	}
	return -1
}
