package mdlog

import (
	"errors"
	"strings"
	"testing"
)

const sampleLog = `# Tue, 26 Aug 2025 10:04:11 UTC
# 3 atoms 1 DP 0 constraints
# running...
#"Step"	"Potential Energy (kJ/mole)"	"Temperature (K)"
1000	-120.5	301.2
# Tall 301.2 K
# Tatoms 300.8 K
# Tdrude 1.1 K
2000	-119.8	299.4
# Tall 299.4 K
# Tatoms 299.0 K
# Tdrude 0.9 K
`

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	wantCols := []string{
		"Step",
		"Potential-Energy-(kJ/mole)",
		"Temperature-(K)",
		"Tall-(K)",
		"Tatoms-(K)",
		"Tdrude-(K)",
	}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %d: %v", len(wantCols), len(table.Columns), table.Columns)
	}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Errorf("column %d: expected %q, got %q", i, c, table.Columns[i])
		}
	}

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	wantRow := []string{"1000", "-120.5", "301.2", "301.2", "300.8", "1.1"}
	for i, v := range wantRow {
		if table.Rows[0][i] != v {
			t.Errorf("row 0 field %d: expected %q, got %q", i, v, table.Rows[0][i])
		}
	}
	if table.Rows[1][0] != "2000" {
		t.Errorf("expected second step 2000, got %q", table.Rows[1][0])
	}
}

func TestParseNoSentinel(t *testing.T) {
	log := "# preamble only\n# no marker here\n"
	_, err := Parse(strings.NewReader(log))
	if !errors.Is(err, ErrNoSentinel) {
		t.Errorf("expected ErrNoSentinel, got %v", err)
	}
}

func TestParseMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("# running...\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseBlankLineTerminates(t *testing.T) {
	log := sampleLog + "\n3000\t-121.0\t300.0\n"
	table, err := Parse(strings.NewReader(log))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	// The blank line ends accumulation; the row after it is ignored.
	if len(table.Rows) != 2 {
		t.Errorf("expected 2 rows before blank line, got %d", len(table.Rows))
	}
}

func TestParseTruncatedTrailingRow(t *testing.T) {
	// A partially flushed final row of a still-running simulation is
	// dropped, not an error.
	log := sampleLog + "3000\t-121.0"
	table, err := Parse(strings.NewReader(log))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("expected truncated row dropped, got %d rows", len(table.Rows))
	}
}

func TestParseMidFileMismatch(t *testing.T) {
	log := `# running...
#"Step"	"Temperature (K)"
1000	301.2	extra
2000	299.4
`
	_, err := Parse(strings.NewReader(log))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line != 3 {
		t.Errorf("expected error at line 3, got %d", pe.Line)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	log := "# running...\n#\"Step\"\t\"Temperature (K)\"\n"
	table, err := Parse(strings.NewReader(log))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("expected empty table, got %d rows", len(table.Rows))
	}
	if len(table.Columns) != 2 {
		t.Errorf("expected 2 columns, got %v", table.Columns)
	}
}

func TestStepIndex(t *testing.T) {
	table := &Table{Columns: []string{"Temperature-(K)", "Step"}}
	if got := table.StepIndex(); got != 1 {
		t.Errorf("expected step index 1, got %d", got)
	}
	table = &Table{Columns: []string{"Temperature-(K)"}}
	if got := table.StepIndex(); got != -1 {
		t.Errorf("expected -1 for missing step column, got %d", got)
	}
}
