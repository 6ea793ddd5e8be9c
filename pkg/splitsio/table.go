package splitsio

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
)

// Table is a dense attempt × column duration matrix. Rows are indexed
// by attempt number in the order collected, columns by name in segment
// order. Values are seconds; NaN marks a value that could not be
// resolved (only the true_total column of a split table may carry it).
type Table struct {
	Attempts []int
	Columns  []string
	Values   [][]float64
}

// IsMissing reports whether a cell value is unresolved.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// NumRows returns the number of attempts in the table.
func (t *Table) NumRows() int { return len(t.Attempts) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// Row returns the values for an attempt number.
func (t *Table) Row(attempt int) ([]float64, bool) {
	for i, a := range t.Attempts {
		if a == attempt {
			return t.Values[i], true
		}
	}
	return nil, false
}

// Column returns the values of the named column across all attempts.
func (t *Table) Column(name string) ([]float64, bool) {
	for j, col := range t.Columns {
		if col == name {
			out := make([]float64, len(t.Values))
			for i, row := range t.Values {
				out[i] = row[j]
			}
			return out, true
		}
	}
	return nil, false
}

// cumsum returns a new table whose cells are running sums across
// columns, i.e. elapsed time since the run began at each boundary.
func (t *Table) cumsum() *Table {
	out := &Table{
		Attempts: t.Attempts,
		Columns:  t.Columns,
		Values:   make([][]float64, len(t.Values)),
	}
	for i, row := range t.Values {
		sums := make([]float64, len(row))
		var acc float64
		for j, v := range row {
			acc += v
			sums[j] = acc
		}
		out.Values[i] = sums
	}
	return out
}

// String renders the table with an attempt column, durations in
// seconds, and "-" for unresolved cells.
func (t *Table) String() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprint(w, "attempt")
	for _, col := range t.Columns {
		fmt.Fprintf(w, "\t%s", col)
	}
	fmt.Fprintln(w)

	for i, attempt := range t.Attempts {
		fmt.Fprintf(w, "%d", attempt)
		for _, v := range t.Values[i] {
			if IsMissing(v) {
				fmt.Fprint(w, "\t-")
			} else {
				fmt.Fprintf(w, "\t%.3f", v)
			}
		}
		fmt.Fprintln(w)
	}

	w.Flush()
	return sb.String()
}
