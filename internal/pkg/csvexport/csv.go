// Package csvexport writes tabular exports as CSV.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
)

type Table struct {
	Header []string
	Rows   [][]string
}

func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Write renders the table and flushes the writer. Rows shorter or longer than
// the header are rejected.
func Write(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("cw.Write -> %w", err)
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(t.Header))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("cw.Write -> %w", err)
		}
	}
	cw.Flush()

	return cw.Error()
}
