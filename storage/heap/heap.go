// Package heap is the record store behind one table: an ordered slice
// of rows plus the schema that describes them. Grounded on the single
// table-store-plus-schema shape common to small embedded SQL engines
// in the retrieved examples (mist's Database/Table split, namyohDB's
// demo engine) rather than any one of them verbatim.
package heap

import (
	"fmt"

	"github.com/k0kubun/flyql/sql/engine"
)

// Table is one heap file: a schema plus its rows, in insertion order.
// Deletes punch holes (zero out a slot) rather than shifting records,
// so live index positions stay valid; live rows are nil-filtered on
// read.
type Table struct {
	Name       string
	PrimaryKey string
	Columns    []engine.ColumnSpec
	rows       []*engine.Record
}

func NewTable(name, pk string, columns []engine.ColumnSpec) *Table {
	return &Table{Name: name, PrimaryKey: pk, Columns: columns}
}

// AttributeNames returns column names in schema order.
func (t *Table) AttributeNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the schema position of a column name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Append adds a new row in schema order and returns its row id (slot
// index), stable for the lifetime of the table.
func (t *Table) Append(values []string) (int, error) {
	if len(values) != len(t.Columns) {
		return 0, fmt.Errorf("table %s expects %d values, got %d", t.Name, len(t.Columns), len(values))
	}
	rec := engine.NewRecord(values)
	t.rows = append(t.rows, &rec)
	return len(t.rows) - 1, nil
}

// Row returns the live record at rowID, or nil if it was deleted.
func (t *Table) Row(rowID int) *engine.Record {
	if rowID < 0 || rowID >= len(t.rows) {
		return nil
	}
	return t.rows[rowID]
}

// Delete punches a hole at rowID.
func (t *Table) Delete(rowID int) {
	if rowID >= 0 && rowID < len(t.rows) {
		t.rows[rowID] = nil
	}
}

// Scan calls visit for every live row, in heap order, stopping early
// if visit returns false.
func (t *Table) Scan(visit func(rowID int, rec engine.Record) bool) {
	for i, r := range t.rows {
		if r == nil {
			continue
		}
		if !visit(i, *r) {
			return
		}
	}
}

// Project returns a copy of rec restricted to cols, in the order given.
func (t *Table) Project(rec engine.Record, cols []string) engine.Record {
	values := make([]string, len(cols))
	for i, col := range cols {
		idx := t.ColumnIndex(col)
		if idx >= 0 {
			values[i] = rec.Values[idx]
		}
	}
	return engine.NewRecord(values)
}
