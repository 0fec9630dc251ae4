// Package tabular defines the in-memory representation of 2-D datasets.
//
// A Table is a rectangular grid of string cells with named columns.
// Cells are kept as strings because every supported wire format either
// is text-native (CSV) or round-trips cleanly through strings; typed
// interpretation is left to the caller.
package tabular

import "fmt"

// Table is one named 2-D dataset: a header row plus data rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. The row must have exactly one cell per column;
// Validate reports violations.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.Columns) }

// Validate checks that the table is rectangular and has at least one
// column. Codecs reject tables that fail validation.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Cell returns the value at (row, column name). The second return value
// is false when the row index or column name is out of range.
func (t *Table) Cell(row int, column string) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	for i, c := range t.Columns {
		if c == column {
			return t.Rows[row][i], true
		}
	}
	return "", false
}

// Equal reports whether two tables have identical columns and cells.
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i, c := range t.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	for i, row := range t.Rows {
		for j, cell := range row {
			if other.Rows[i][j] != cell {
				return false
			}
		}
	}
	return true
}

// Sheet pairs an artifact name with its table. Within a TableSet the
// name doubles as the sheet name for workbook formats.
type Sheet struct {
	Name  string
	Table *Table
}

// TableSet is an ordered collection of named tables. Order is preserved
// through workbook saves so sheet order survives a round trip.
type TableSet []Sheet

// Names returns the sheet names in order.
func (s TableSet) Names() []string {
	names := make([]string, len(s))
	for i, sh := range s {
		names[i] = sh.Name
	}
	return names
}

// Get returns the table stored under name.
func (s TableSet) Get(name string) (*Table, bool) {
	for _, sh := range s {
		if sh.Name == name {
			return sh.Table, true
		}
	}
	return nil, false
}

// Validate checks every sheet for a usable name and a rectangular table.
func (s TableSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("table set is empty")
	}
	seen := make(map[string]bool, len(s))
	for _, sh := range s {
		if sh.Name == "" {
			return fmt.Errorf("sheet has empty name")
		}
		if seen[sh.Name] {
			return fmt.Errorf("duplicate sheet name %q", sh.Name)
		}
		seen[sh.Name] = true
		if sh.Table == nil {
			return fmt.Errorf("sheet %q has no table", sh.Name)
		}
		if err := sh.Table.Validate(); err != nil {
			return fmt.Errorf("sheet %q: %w", sh.Name, err)
		}
	}
	return nil
}
