// Package engine is the one concrete sql/engine.Engine this repository
// ships: an in-memory heap of records per table, plus btree/hash
// indexes, behind the sql/engine.Engine contract. The SQL front-end
// never imports this package directly except to construct one; the
// executor only ever sees the interface.
package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/predicate"
	"github.com/k0kubun/flyql/storage/heap"
	"github.com/k0kubun/flyql/storage/index"
	"github.com/k0kubun/flyql/util"
)

// Engine is the default, in-memory sql/engine.Engine implementation.
type Engine struct {
	mu      sync.Mutex
	tables  map[string]*heap.Table
	indexes map[string]map[string]index.Index // table -> column -> index
}

func New() *Engine {
	return &Engine{
		tables:  map[string]*heap.Table{},
		indexes: map[string]map[string]index.Index{},
	}
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) IsTable(table string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.tables[table]
	return ok
}

func (e *Engine) TableNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.tables))
	for name := range util.CanonicalMapIter(e.tables) {
		names = append(names, name)
	}
	return names
}

func (e *Engine) TableAttributes(table string) ([]string, error) {
	t, err := e.table(table)
	if err != nil {
		return nil, err
	}
	return t.AttributeNames(), nil
}

// SortAttributes reorders cols into the table's schema order,
// regardless of the order the caller asked for them in.
func (e *Engine) SortAttributes(table string, cols []string) ([]string, error) {
	t, err := e.table(table)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(cols))
	for _, c := range cols {
		want[c] = true
	}
	sorted := make([]string, 0, len(cols))
	for _, name := range t.AttributeNames() {
		if want[name] {
			sorted = append(sorted, name)
		}
	}
	return sorted, nil
}

func (e *Engine) IndexedColumns(table string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	cols := make([]string, 0, len(e.indexes[table]))
	for col := range util.CanonicalMapIter(e.indexes[table]) {
		cols = append(cols, col)
	}
	return cols
}

// IndexKind reports whether column is indexed and, if so, the kind of
// index backing it (btree vs. hash).
func (e *Engine) IndexKind(table, column string) (engine.IndexKind, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.indexes[table][column]
	if !ok {
		return 0, false
	}
	if _, isHash := idx.(*index.HashIndex); isHash {
		return engine.IndexHash, true
	}
	return engine.IndexBTree, true
}

func (e *Engine) Comparator(table string, op predicate.CompOp, column, value string) (engine.RowPredicate, error) {
	t, err := e.table(table)
	if err != nil {
		return nil, err
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found in table %s", column, table)
	}
	colType := t.Columns[idx].Type
	return func(r engine.Record) bool {
		return compare(colType, r.Values[idx], op, value)
	}, nil
}

func compare(colType engine.ColumnType, fieldValue string, op predicate.CompOp, target string) bool {
	if colType == engine.TypeInt || colType == engine.TypeFloat {
		fv, ferr := strconv.ParseFloat(fieldValue, 64)
		tv, terr := strconv.ParseFloat(target, 64)
		if ferr == nil && terr == nil {
			switch op {
			case predicate.EQ:
				return fv == tv
			case predicate.LT:
				return fv < tv
			case predicate.LE:
				return fv <= tv
			case predicate.GT:
				return fv > tv
			case predicate.GE:
				return fv >= tv
			}
		}
	}
	switch op {
	case predicate.EQ:
		return fieldValue == target
	case predicate.LT:
		return fieldValue < target
	case predicate.LE:
		return fieldValue <= target
	case predicate.GT:
		return fieldValue > target
	case predicate.GE:
		return fieldValue >= target
	}
	return false
}

func (e *Engine) CreateTable(table string, pk string, columns []engine.ColumnSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[table]; ok {
		return fmt.Errorf("table %s already exists", table)
	}
	e.tables[table] = heap.NewTable(table, pk, columns)
	e.indexes[table] = map[string]index.Index{}
	if pk != "" {
		e.createIndexLocked(table, pk, engine.IndexBTree)
	}
	return nil
}

func (e *Engine) CreateIndex(table, column string, kind engine.IndexKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[table]; !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	e.createIndexLocked(table, column, kind)
	return nil
}

func (e *Engine) createIndexLocked(table, column string, kind engine.IndexKind) {
	t := e.tables[table]
	colIdx := t.ColumnIndex(column)
	if colIdx < 0 {
		return
	}
	var idx index.Index
	if kind == engine.IndexHash {
		idx = index.NewHashIndex()
	} else {
		idx = index.NewBTreeIndex(t.Columns[colIdx].Type)
	}
	t.Scan(func(rowID int, rec engine.Record) bool {
		idx.Insert(rec.Values[colIdx], rowID)
		return true
	})
	e.indexes[table][column] = idx
}

func (e *Engine) DropTable(table string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[table]; !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	delete(e.tables, table)
	delete(e.indexes, table)
	return nil
}

func (e *Engine) Add(table string, values []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table]
	if !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	rowID, err := t.Append(values)
	if err != nil {
		return err
	}
	rec := t.Row(rowID)
	for col, idx := range e.indexes[table] {
		colIdx := t.ColumnIndex(col)
		idx.Insert(rec.Values[colIdx], rowID)
	}
	return nil
}

// CSVInsert reads path as CSV, one row per table row in schema order,
// and adds every row via Add. It stops at the first malformed row,
// leaving already-inserted rows in place. Bulk load gives no
// atomicity across rows, consistent with this engine never rolling
// back a statement's partial effects.
func (e *Engine) CSVInsert(table string, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("csv read %s: %w", path, err)
		}
		if err := e.Add(table, record); err != nil {
			return fmt.Errorf("csv row in %s: %w", path, err)
		}
	}
	return nil
}

func (e *Engine) Remove(table string, key predicate.Attribute) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[table]
	if !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	colIdx := t.ColumnIndex(key.Name)
	if colIdx < 0 {
		return fmt.Errorf("column %s not found in table %s", key.Name, table)
	}

	var toDelete []int
	t.Scan(func(rowID int, rec engine.Record) bool {
		if rec.Values[colIdx] == key.Value {
			toDelete = append(toDelete, rowID)
		}
		return true
	})
	for _, rowID := range toDelete {
		rec := t.Row(rowID)
		for col, idx := range e.indexes[table] {
			ci := t.ColumnIndex(col)
			idx.Delete(rec.Values[ci], rowID)
		}
		t.Delete(rowID)
	}
	return nil
}

func (e *Engine) Load(table string, cols []string, pred engine.RowPredicate) (engine.QueryResponse, error) {
	start := time.Now()
	e.mu.Lock()
	t, ok := e.tables[table]
	e.mu.Unlock()
	if !ok {
		return engine.QueryResponse{}, fmt.Errorf("table %s does not exist", table)
	}

	var out []engine.Record
	t.Scan(func(_ int, rec engine.Record) bool {
		if pred == nil || pred(rec) {
			out = append(out, t.Project(rec, cols))
		}
		return true
	})
	slog.Debug("load", "table", table, "rows", len(out))
	return engine.QueryResponse{
		Records:    out,
		QueryTimes: map[string]time.Duration{"load": time.Since(start)},
	}, nil
}

func (e *Engine) Search(table string, key predicate.Attribute, pred engine.RowPredicate, cols []string) (engine.QueryResponse, error) {
	start := time.Now()
	e.mu.Lock()
	t, ok := e.tables[table]
	idx, hasIdx := e.indexes[table][key.Name]
	e.mu.Unlock()
	if !ok {
		return engine.QueryResponse{}, fmt.Errorf("table %s does not exist", table)
	}
	if !hasIdx {
		return engine.QueryResponse{}, fmt.Errorf("no index on %s.%s", table, key.Name)
	}

	var out []engine.Record
	for _, rowID := range idx.Get(key.Value) {
		rec := t.Row(rowID)
		if rec == nil {
			continue
		}
		if pred == nil || pred(*rec) {
			out = append(out, t.Project(*rec, cols))
		}
	}
	return engine.QueryResponse{
		Records:    out,
		QueryTimes: map[string]time.Duration{"search": time.Since(start)},
	}, nil
}

func (e *Engine) RangeSearch(table string, lo, hi predicate.Attribute, pred engine.RowPredicate, cols []string) (engine.QueryResponse, error) {
	start := time.Now()
	column := lo.Name
	if column == "" {
		column = hi.Name
	}

	e.mu.Lock()
	t, ok := e.tables[table]
	idx, hasIdx := e.indexes[table][column]
	e.mu.Unlock()
	if !ok {
		return engine.QueryResponse{}, fmt.Errorf("table %s does not exist", table)
	}
	if !hasIdx {
		return engine.QueryResponse{}, fmt.Errorf("no index on %s.%s", table, column)
	}

	var out []engine.Record
	for _, rowID := range idx.Range(lo.Value, hi.Value) {
		rec := t.Row(rowID)
		if rec == nil {
			continue
		}
		if pred == nil || pred(*rec) {
			out = append(out, t.Project(*rec, cols))
		}
	}
	return engine.QueryResponse{
		Records:    out,
		QueryTimes: map[string]time.Duration{"range_search": time.Since(start)},
	}, nil
}

func (e *Engine) table(name string) (*heap.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", name)
	}
	return t, nil
}
