package parser

import (
	"testing"

	"github.com/k0kubun/flyql/sql/predicate"
)

func parseOneStmt(t *testing.T, sql string) Statement {
	t.Helper()
	stmts, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse(%q): %v", sql, err)
	}
	if len(stmts) != 1 {
		t.Fatalf("Parse(%q) returned %d statements, want 1", sql, len(stmts))
	}
	return stmts[0]
}

func TestParse_MultipleStatements(t *testing.T) {
	stmts, err := Parse("CREATE TABLE t (id INT); SELECT * FROM t;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(stmts))
	}
	if _, ok := stmts[0].(*CreateTableStmt); !ok {
		t.Fatalf("stmts[0] = %T, want *CreateTableStmt", stmts[0])
	}
	if _, ok := stmts[1].(*SelectStmt); !ok {
		t.Fatalf("stmts[1] = %T, want *SelectStmt", stmts[1])
	}
}

func TestParse_CreateTableWithPrimaryKeyAndVarchar(t *testing.T) {
	stmt := parseOneStmt(t, "CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(32));")
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("got %T, want *CreateTableStmt", stmt)
	}
	if ct.Table != "users" {
		t.Fatalf("table = %q, want users", ct.Table)
	}
	if len(ct.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(ct.Columns))
	}
	if !ct.Columns[0].IsPrimaryKey {
		t.Fatal("id should be primary key")
	}
	if ct.Columns[1].Type != "varchar" || ct.Columns[1].VarcharLen != 32 {
		t.Fatalf("name column = %+v, want varchar(32)", ct.Columns[1])
	}
}

func TestParse_SelectStar(t *testing.T) {
	stmt := parseOneStmt(t, "SELECT * FROM t;")
	s, ok := stmt.(*SelectStmt)
	if !ok {
		t.Fatalf("got %T, want *SelectStmt", stmt)
	}
	if s.Columns != nil {
		t.Fatalf("columns = %v, want nil for *", s.Columns)
	}
}

func TestParse_SelectDNFWhere(t *testing.T) {
	stmt := parseOneStmt(t, "SELECT a FROM t WHERE a = 1 AND b = 2 OR c = 3;")
	s := stmt.(*SelectStmt)
	if len(s.Where) != 2 {
		t.Fatalf("disjuncts = %d, want 2 (AND binds tighter than OR)", len(s.Where))
	}
	if len(s.Where[0]) != 2 {
		t.Fatalf("first disjunct conditions = %d, want 2", len(s.Where[0]))
	}
	if len(s.Where[1]) != 1 {
		t.Fatalf("second disjunct conditions = %d, want 1", len(s.Where[1]))
	}
	if s.Where[0][0].Op != predicate.EQ {
		t.Fatalf("op = %v, want EQ", s.Where[0][0].Op)
	}
}

func TestParse_SelectBetween(t *testing.T) {
	stmt := parseOneStmt(t, "SELECT * FROM t WHERE id BETWEEN 3 AND 9;")
	bt, ok := stmt.(*SelectBetweenStmt)
	if !ok {
		t.Fatalf("got %T, want *SelectBetweenStmt", stmt)
	}
	if bt.IDColumn != "id" || bt.Lo != "3" || bt.Hi != "9" {
		t.Fatalf("between = %+v, want id in [3,9]", bt)
	}
}

func TestParse_WhereWithoutBetweenStillWorks(t *testing.T) {
	// Regression for tryParseBetween's backtracking: an identifier
	// immediately followed by a comparison (not BETWEEN) must restore
	// parser state for parseConstraint to consume normally.
	stmt := parseOneStmt(t, "SELECT * FROM t WHERE id = 5;")
	s, ok := stmt.(*SelectStmt)
	if !ok {
		t.Fatalf("got %T, want *SelectStmt", stmt)
	}
	if len(s.Where) != 1 || len(s.Where[0]) != 1 || s.Where[0][0].Value != "5" {
		t.Fatalf("where = %+v, want single condition id=5", s.Where)
	}
}

// Values arrive reversed from the parser; the executor is the one that
// restores schema order. This is the parser half of property 7.
func TestParse_InsertValuesAreReversed(t *testing.T) {
	stmt := parseOneStmt(t, "INSERT INTO t VALUES (1,2,3);")
	ins, ok := stmt.(*InsertStmt)
	if !ok {
		t.Fatalf("got %T, want *InsertStmt", stmt)
	}
	want := []string{"3", "2", "1"}
	for i, v := range want {
		if ins.Values[i] != v {
			t.Fatalf("values = %v, want %v (reversed)", ins.Values, want)
		}
	}
}

// The parser hands the executor the still-quoted literal; quote
// stripping is the executor's job (property 8, other half).
func TestParse_InsertFromFileKeepsQuotes(t *testing.T) {
	stmt := parseOneStmt(t, "INSERT INTO t FILE '/tmp/data.csv';")
	f, ok := stmt.(*InsertFromFileStmt)
	if !ok {
		t.Fatalf("got %T, want *InsertFromFileStmt", stmt)
	}
	if f.QuotedPath != "'/tmp/data.csv'" {
		t.Fatalf("quoted path = %q, want %q", f.QuotedPath, "'/tmp/data.csv'")
	}
}

func TestParse_DeleteWithoutWhere(t *testing.T) {
	stmt := parseOneStmt(t, "DELETE FROM t;")
	d, ok := stmt.(*DeleteStmt)
	if !ok {
		t.Fatalf("got %T, want *DeleteStmt", stmt)
	}
	if !d.Where.Empty() {
		t.Fatalf("where = %v, want empty", d.Where)
	}
}

func TestParse_CreateIndexWithNoKindLeavesItUnspecified(t *testing.T) {
	stmt := parseOneStmt(t, "CREATE INDEX ON t (col);")
	ci, ok := stmt.(*CreateIndexStmt)
	if !ok {
		t.Fatalf("got %T, want *CreateIndexStmt", stmt)
	}
	if ci.Kind != "" {
		t.Fatalf("kind = %q, want \"\" (the engine-wide default applies downstream)", ci.Kind)
	}
}

func TestParse_CreateIndexHash(t *testing.T) {
	stmt := parseOneStmt(t, "CREATE INDEX HASH ON t (col);")
	ci := stmt.(*CreateIndexStmt)
	if ci.Kind != "hash" {
		t.Fatalf("kind = %q, want hash", ci.Kind)
	}
}

func TestParse_DropTable(t *testing.T) {
	stmt := parseOneStmt(t, "DROP TABLE t;")
	d, ok := stmt.(*DropTableStmt)
	if !ok || d.Table != "t" {
		t.Fatalf("got %+v (%T), want DropTableStmt{t}", stmt, stmt)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	if _, err := Parse("SELECT FROM FROM;"); err == nil {
		t.Fatal("expected a parse error for malformed input")
	}
}

func TestParse_CommentsAreSkipped(t *testing.T) {
	stmt := parseOneStmt(t, "SELECT * FROM t -- trailing comment\n;")
	if _, ok := stmt.(*SelectStmt); !ok {
		t.Fatalf("got %T, want *SelectStmt", stmt)
	}
}
