// Package table provides the in-memory tabular model shared by the loader,
// validator, and joiner.
//
// A Table is an ordered set of named columns plus rows of typed values.
// Invariant: every row has exactly len(Columns) cells, in column order.
// Tables are treated as read-only by every component that did not create
// them; operations that need a derived table copy rather than alias.
package table

import "fmt"

// Row is one record, positionally aligned with Table.Columns.
type Row []Value

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	cp := make(Row, len(r))
	for i, v := range r {
		cp[i] = v.Clone()
	}
	return cp
}

// Table is an ordered sequence of named columns and rows.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given column order.
func New(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// AppendRow adds a row. It returns an error if the row width does not
// match the declared columns, preserving the structural invariant.
func (t *Table) AppendRow(r Row) error {
	if len(r) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d cells, want %d", t.Name, len(r), len(t.Columns))
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// ColumnIndex returns the position of a column, or -1 if not present.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy that shares no memory with the receiver.
func (t *Table) Clone() *Table {
	cp := New(t.Name, t.Columns)
	cp.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		cp.Rows[i] = r.Clone()
	}
	return cp
}

// Value returns the cell at (row, column name). The second return is false
// when the column does not exist or the row index is out of range.
func (t *Table) Value(row int, column string) (Value, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[row][idx], true
}
