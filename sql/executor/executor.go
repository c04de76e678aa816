// Package executor is the statement-level dispatcher: it validates
// names, plans each SELECT disjunct over the engine, and composes
// partial result sets. It never recovers from an error; everything
// propagates to the session façade.
package executor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/k0kubun/flyql/sql/apierr"
	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/parser"
	"github.com/k0kubun/flyql/sql/predicate"
	"github.com/k0kubun/flyql/sql/response"
)

// Executor drives a single engine.Engine on behalf of a session. It
// holds no state of its own beyond the engine reference and the
// configured default index kind CREATE INDEX falls back to when the
// statement names neither "btree" nor "hash".
type Executor struct {
	Engine           engine.Engine
	DefaultIndexKind engine.IndexKind
}

func New(eng engine.Engine) *Executor {
	return &Executor{Engine: eng, DefaultIndexKind: engine.IndexBTree}
}

// Execute dispatches a single parsed statement to the matching
// callback and returns the response to surface to the caller.
func (e *Executor) Execute(stmt parser.Statement) (*response.ParserResponse, error) {
	resp := response.New()

	var err error
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		err = e.createTable(s)
	case *parser.CreateIndexStmt:
		err = e.createIndex(s)
	case *parser.SelectStmt:
		err = e.selectStmt(s, resp)
	case *parser.SelectBetweenStmt:
		err = e.selectBetween(s, resp)
	case *parser.InsertStmt:
		err = e.insert(s)
	case *parser.InsertFromFileStmt:
		err = e.insertFromFile(s)
	case *parser.DeleteStmt:
		err = e.remove(s)
	case *parser.DropTableStmt:
		err = e.dropTable(s)
	default:
		err = fmt.Errorf("unsupported statement type %T", stmt)
	}

	if err != nil {
		resp.SetError(err)
		return resp, err
	}
	resp.TableNames = e.Engine.TableNames()
	return resp, nil
}

// checkTableName raises TableNotFound if table isn't known to the
// engine. Every callback below except createTable calls this first.
func (e *Executor) checkTableName(table string) error {
	if !e.Engine.IsTable(table) {
		return &apierr.TableNotFound{Table: table}
	}
	return nil
}

func (e *Executor) createTable(s *parser.CreateTableStmt) error {
	var pk string
	specs := make([]engine.ColumnSpec, 0, len(s.Columns))
	for _, c := range s.Columns {
		spec := engine.ColumnSpec{
			Name:         c.Name,
			Type:         columnType(c.Type),
			VarcharLen:   c.VarcharLen,
			IsPrimaryKey: c.IsPrimaryKey,
		}
		if c.IsPrimaryKey {
			pk = c.Name
		}
		specs = append(specs, spec)
	}
	if err := e.Engine.CreateTable(s.Table, pk, specs); err != nil {
		return &apierr.EngineError{Err: err}
	}
	return nil
}

func columnType(name string) engine.ColumnType {
	switch name {
	case "int":
		return engine.TypeInt
	case "float":
		return engine.TypeFloat
	case "bool":
		return engine.TypeBool
	default:
		return engine.TypeVarchar
	}
}

func (e *Executor) createIndex(s *parser.CreateIndexStmt) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	attrs, err := e.Engine.TableAttributes(s.Table)
	if err != nil {
		return &apierr.EngineError{Err: err}
	}
	if !containsString(attrs, s.Column) {
		return &apierr.ColumnNotFound{Table: s.Table, Column: s.Column}
	}
	kind := e.DefaultIndexKind
	switch s.Kind {
	case "btree":
		kind = engine.IndexBTree
	case "hash":
		kind = engine.IndexHash
	}
	if err := e.Engine.CreateIndex(s.Table, s.Column, kind); err != nil {
		return &apierr.EngineError{Err: err}
	}
	return nil
}

func (e *Executor) dropTable(s *parser.DropTableStmt) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	if err := e.Engine.DropTable(s.Table); err != nil {
		return &apierr.EngineError{Err: err}
	}
	return nil
}

// insert forwards values in SCHEMA order by reversing what the parser
// handed it, undoing the grammar's left-recursive reverse emission.
// This reversal-of-a-reversal is a deliberate part of the parser/
// executor contract (§4.2), not incidental.
func (e *Executor) insert(s *parser.InsertStmt) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	values := make([]string, len(s.Values))
	for i, v := range s.Values {
		values[len(s.Values)-1-i] = v
	}
	if err := e.Engine.Add(s.Table, values); err != nil {
		return &apierr.EngineError{Err: err}
	}
	return nil
}

// insertFromFile strips exactly one leading and one trailing byte from
// the quoted path. Behavior on an unquoted path is undefined, matching
// the source.
func (e *Executor) insertFromFile(s *parser.InsertFromFileStmt) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	path := s.QuotedPath
	if len(path) >= 2 {
		path = path[1 : len(path)-1]
	}
	if err := e.Engine.CSVInsert(s.Table, path); err != nil {
		return &apierr.EngineError{Err: err}
	}
	return nil
}

// remove uses only the first condition of the first disjunct as the
// deletion key; every other condition in the WHERE clause is ignored.
// This is a deliberate restriction of the current design (§9): the
// engine's Remove takes a single key attribute and deletes every row
// whose value in that column equals it.
func (e *Executor) remove(s *parser.DeleteStmt) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	if len(s.Where) == 0 || len(s.Where[0]) == 0 {
		return fmt.Errorf("DELETE requires at least one condition")
	}
	cond := s.Where[0][0]
	key := predicate.Attribute{Name: cond.Column, Value: cond.Value}
	if err := e.Engine.Remove(s.Table, key); err != nil {
		return &apierr.EngineError{Err: err}
	}
	return nil
}

func containsString(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func validateColumns(table string, attrs, requested []string) error {
	for _, col := range requested {
		if !containsString(attrs, col) {
			return &apierr.ColumnNotFound{Table: table, Column: col}
		}
	}
	return nil
}

// selectBetween plans SELECT ... BETWEEN a AND b ON id: a single
// range_search with no disjunction and no residual filter (§4.5).
func (e *Executor) selectBetween(s *parser.SelectBetweenStmt, resp *response.ParserResponse) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	attrs, err := e.Engine.TableAttributes(s.Table)
	if err != nil {
		return &apierr.EngineError{Err: err}
	}
	if err := validateColumns(s.Table, attrs, s.Columns); err != nil {
		return err
	}
	sorted, err := e.Engine.SortAttributes(s.Table, s.Columns)
	if err != nil {
		return &apierr.EngineError{Err: err}
	}

	lo := predicate.Attribute{Name: s.IDColumn, Value: s.Lo}
	hi := predicate.Attribute{Name: s.IDColumn, Value: s.Hi}
	qr, err := e.Engine.RangeSearch(s.Table, lo, hi, engine.AlwaysTrue, sorted)
	if err != nil {
		return &apierr.EngineError{Err: err}
	}

	resp.Records = qr.Records
	resp.ColumnNames = sorted
	resp.QueryTimes = qr.QueryTimes
	return nil
}

// selectStmt plans a full DNF SELECT (§4.4): column validation and
// reordering, then per-disjunct index-or-scan planning with merge
// across disjuncts.
func (e *Executor) selectStmt(s *parser.SelectStmt, resp *response.ParserResponse) error {
	if err := e.checkTableName(s.Table); err != nil {
		return err
	}
	attrs, err := e.Engine.TableAttributes(s.Table)
	if err != nil {
		return &apierr.EngineError{Err: err}
	}
	requested := s.Columns
	if requested == nil {
		requested = attrs
	}
	if err := validateColumns(s.Table, attrs, requested); err != nil {
		return err
	}
	sorted, err := e.Engine.SortAttributes(s.Table, requested)
	if err != nil {
		return &apierr.EngineError{Err: err}
	}
	resp.ColumnNames = sorted
	logPlan(s.Table, len(s.Where))

	if s.Where.Empty() {
		qr, err := e.Engine.Load(s.Table, sorted, nil)
		if err != nil {
			return &apierr.EngineError{Err: err}
		}
		resp.Records = qr.Records
		resp.QueryTimes = qr.QueryTimes
		return nil
	}

	indexedCols := e.Engine.IndexedColumns(s.Table)
	indexKinds := make(map[string]engine.IndexKind, len(indexedCols))
	for _, c := range indexedCols {
		if kind, ok := e.Engine.IndexKind(s.Table, c); ok {
			indexKinds[c] = kind
		}
	}

	var records []engine.Record
	times := map[string]time.Duration{}

	for _, conj := range s.Where {
		if len(conj) == 0 {
			return fmt.Errorf("empty conjunct in WHERE clause")
		}
		compiled, err := compileConjunct(e.Engine, s.Table, conj, indexKinds)
		if err != nil {
			return &apierr.EngineError{Err: err}
		}

		var qr engine.QueryResponse
		if !compiled.hasIndexKey {
			// No indexable column in this disjunct: fall back to a
			// full scan with the whole conjunct as residual, and stop.
			// The full scan subsumes whatever the remaining disjuncts
			// would have contributed. This is current, intentional
			// behavior (§4.4 step 4, §9 open question), not something
			// to "fix" here: it makes the OR loop inconsistent with a
			// true OR whenever any branch lacks an index, and callers
			// should plan around that.
			fullResidual, err := compileConjunct(e.Engine, s.Table, conj, map[string]engine.IndexKind{})
			if err != nil {
				return &apierr.EngineError{Err: err}
			}
			qr, err = e.Engine.Load(s.Table, sorted, fullResidual.residual)
			if err != nil {
				return &apierr.EngineError{Err: err}
			}
			records = qr.Records
			times = mergeTimes(times, qr.QueryTimes)
			break
		}

		switch compiled.indexKey.Op {
		case predicate.EQ:
			key := predicate.Attribute{Name: compiled.indexKey.Column, Value: compiled.indexKey.Value}
			qr, err = e.Engine.Search(s.Table, key, compiled.residual, sorted)
		case predicate.LT, predicate.LE:
			hi := predicate.Attribute{Name: compiled.indexKey.Column, Value: compiled.indexKey.Value}
			lo := predicate.Attribute{Name: compiled.indexKey.Column, Value: predicate.KeyMin}
			qr, err = e.Engine.RangeSearch(s.Table, lo, hi, compiled.residual, sorted)
		case predicate.GT, predicate.GE:
			lo := predicate.Attribute{Name: compiled.indexKey.Column, Value: compiled.indexKey.Value}
			hi := predicate.Attribute{Name: compiled.indexKey.Column, Value: predicate.KeyMax}
			qr, err = e.Engine.RangeSearch(s.Table, lo, hi, compiled.residual, sorted)
		}
		if err != nil {
			return &apierr.EngineError{Err: err}
		}

		records = mergeRecords(records, qr.Records)
		times = mergeTimes(times, qr.QueryTimes)
	}

	resp.Records = records
	resp.QueryTimes = times
	return nil
}

// logPlan is a debug-only diagnostic, not part of the functional
// contract.
func logPlan(table string, disjuncts int) {
	slog.Debug("planned select", "table", table, "disjuncts", disjuncts)
}
