package executor

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/predicate"
)

// mockEngine is a hand-rolled fake of sql/engine.Engine: it keeps just
// enough in-memory state to answer the narrow interface, and records
// every call so executor tests can assert on what got planned rather
// than just on the final rows.
type mockEngine struct {
	tables  map[string][]string // table -> columns in schema order
	indexed map[string]map[string]engine.IndexKind
	rows    map[string][]engine.Record

	loadCalls        []loadCall
	searchCalls      []searchCall
	rangeSearchCalls []rangeSearchCall
}

type loadCall struct {
	table string
	cols  []string
}

type searchCall struct {
	table string
	key   predicate.Attribute
	cols  []string
}

type rangeSearchCall struct {
	table  string
	lo, hi predicate.Attribute
	cols   []string
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		tables:  map[string][]string{},
		indexed: map[string]map[string]engine.IndexKind{},
		rows:    map[string][]engine.Record{},
	}
}

func (m *mockEngine) IsTable(table string) bool {
	_, ok := m.tables[table]
	return ok
}

func (m *mockEngine) TableNames() []string {
	var names []string
	for t := range m.tables {
		names = append(names, t)
	}
	return names
}

func (m *mockEngine) TableAttributes(table string) ([]string, error) {
	cols, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return cols, nil
}

func (m *mockEngine) SortAttributes(table string, cols []string) ([]string, error) {
	schema, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	want := make(map[string]bool, len(cols))
	for _, c := range cols {
		want[c] = true
	}
	var sorted []string
	for _, c := range schema {
		if want[c] {
			sorted = append(sorted, c)
		}
	}
	return sorted, nil
}

func (m *mockEngine) IndexedColumns(table string) []string {
	var cols []string
	for c := range m.indexed[table] {
		cols = append(cols, c)
	}
	return cols
}

func (m *mockEngine) IndexKind(table, column string) (engine.IndexKind, bool) {
	kind, ok := m.indexed[table][column]
	return kind, ok
}

func (m *mockEngine) Comparator(table string, op predicate.CompOp, column, value string) (engine.RowPredicate, error) {
	cols := m.tables[table]
	idx := -1
	for i, c := range cols {
		if c == column {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found", column)
	}
	return func(r engine.Record) bool {
		v := r.Values[idx]
		c := strings.Compare(v, value)
		fv, ferr := strconv.ParseFloat(v, 64)
		tv, terr := strconv.ParseFloat(value, 64)
		if ferr == nil && terr == nil {
			c = cmp.Compare(fv, tv)
		}
		switch op {
		case predicate.EQ:
			return c == 0
		case predicate.LT:
			return c < 0
		case predicate.LE:
			return c <= 0
		case predicate.GT:
			return c > 0
		case predicate.GE:
			return c >= 0
		}
		return false
	}, nil
}

func (m *mockEngine) CreateTable(table string, pkColumn string, specs []engine.ColumnSpec) error {
	cols := make([]string, len(specs))
	for i, s := range specs {
		cols[i] = s.Name
	}
	m.tables[table] = cols
	m.indexed[table] = map[string]engine.IndexKind{}
	if pkColumn != "" {
		m.indexed[table][pkColumn] = engine.IndexBTree
	}
	return nil
}

func (m *mockEngine) CreateIndex(table, column string, kind engine.IndexKind) error {
	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	m.indexed[table][column] = kind
	return nil
}

func (m *mockEngine) DropTable(table string) error {
	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	delete(m.tables, table)
	delete(m.indexed, table)
	delete(m.rows, table)
	return nil
}

func (m *mockEngine) Load(table string, cols []string, pred engine.RowPredicate) (engine.QueryResponse, error) {
	m.loadCalls = append(m.loadCalls, loadCall{table: table, cols: cols})
	var out []engine.Record
	for _, r := range m.rows[table] {
		if pred == nil || pred(r) {
			out = append(out, project(m.tables[table], r, cols))
		}
	}
	return engine.QueryResponse{Records: out, QueryTimes: map[string]time.Duration{"load": 0}}, nil
}

func (m *mockEngine) Search(table string, key predicate.Attribute, pred engine.RowPredicate, cols []string) (engine.QueryResponse, error) {
	m.searchCalls = append(m.searchCalls, searchCall{table: table, key: key, cols: cols})
	idx := colIndex(m.tables[table], key.Name)
	var out []engine.Record
	for _, r := range m.rows[table] {
		if idx >= 0 && r.Values[idx] == key.Value && (pred == nil || pred(r)) {
			out = append(out, project(m.tables[table], r, cols))
		}
	}
	return engine.QueryResponse{Records: out}, nil
}

func (m *mockEngine) RangeSearch(table string, lo, hi predicate.Attribute, pred engine.RowPredicate, cols []string) (engine.QueryResponse, error) {
	m.rangeSearchCalls = append(m.rangeSearchCalls, rangeSearchCall{table: table, lo: lo, hi: hi, cols: cols})
	name := lo.Name
	if name == "" {
		name = hi.Name
	}
	idx := colIndex(m.tables[table], name)
	var out []engine.Record
	for _, r := range m.rows[table] {
		if idx < 0 {
			continue
		}
		v := r.Values[idx]
		if lo.Value != predicate.KeyMin && v < lo.Value {
			continue
		}
		if hi.Value != predicate.KeyMax && v > hi.Value {
			continue
		}
		if pred == nil || pred(r) {
			out = append(out, project(m.tables[table], r, cols))
		}
	}
	return engine.QueryResponse{Records: out}, nil
}

func (m *mockEngine) Add(table string, values []string) error {
	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	m.rows[table] = append(m.rows[table], engine.NewRecord(append([]string{}, values...)))
	return nil
}

func (m *mockEngine) CSVInsert(table string, path string) error {
	return m.Add(table, []string{path})
}

func (m *mockEngine) Remove(table string, key predicate.Attribute) error {
	idx := colIndex(m.tables[table], key.Name)
	if idx < 0 {
		return fmt.Errorf("column %s not found", key.Name)
	}
	var kept []engine.Record
	for _, r := range m.rows[table] {
		if r.Values[idx] != key.Value {
			kept = append(kept, r)
		}
	}
	m.rows[table] = kept
	return nil
}

func colIndex(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func project(cols []string, r engine.Record, want []string) engine.Record {
	values := make([]string, len(want))
	for i, w := range want {
		if idx := colIndex(cols, w); idx >= 0 {
			values[i] = r.Values[idx]
		}
	}
	return engine.NewRecord(values)
}

var _ engine.Engine = (*mockEngine)(nil)
