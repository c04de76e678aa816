package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/k0kubun/flyql/sql/predicate"
)

// Parse splits sql into ';'-terminated statements and parses each one.
// It stops and returns the error (and whatever statements parsed
// cleanly before it) on the first rejection, a split-then-parse-one-
// statement-at-a-time approach.
func Parse(sql string) ([]Statement, error) {
	var stmts []Statement
	for _, piece := range splitStatements(sql) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		stmt, err := parseOne(piece)
		if err != nil {
			return stmts, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func splitStatements(sql string) []string {
	return strings.Split(sql, ";")
}

type parser struct {
	tz   *tokenizer
	cur  token
}

func parseOne(sql string) (Statement, error) {
	p := &parser{tz: newTokenizer(sql)}
	p.advance()

	if p.cur.kind != tokKeyword {
		return nil, fmt.Errorf("expected statement keyword, got %q", p.cur.text)
	}
	switch p.cur.text {
	case "select":
		return p.parseSelect()
	case "insert":
		return p.parseInsert()
	case "delete":
		return p.parseDelete()
	case "create":
		return p.parseCreate()
	case "drop":
		return p.parseDrop()
	default:
		return nil, fmt.Errorf("unsupported statement: %q", p.cur.text)
	}
}

func (p *parser) advance() {
	p.cur = p.tz.next()
}

func (p *parser) expectKeyword(kw string) error {
	if p.cur.kind != tokKeyword || p.cur.text != kw {
		return fmt.Errorf("expected %q, got %q", kw, p.cur.text)
	}
	p.advance()
	return nil
}

func (p *parser) expectPunct(s string) error {
	if p.cur.kind != tokPunct || p.cur.text != s {
		return fmt.Errorf("expected %q, got %q", s, p.cur.text)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if p.cur.kind != tokIdent {
		return "", fmt.Errorf("expected identifier, got %q", p.cur.text)
	}
	name := p.cur.text
	p.advance()
	return name, nil
}

// ---- SELECT ----

func (p *parser) parseSelect() (Statement, error) {
	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}
	cols, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if p.cur.kind == tokEOF {
		return &SelectStmt{Table: table, Columns: cols}, nil
	}

	if p.cur.kind == tokKeyword && p.cur.text == "where" {
		p.advance()
		if bt, ok, err := p.tryParseBetween(); err != nil {
			return nil, err
		} else if ok {
			return &SelectBetweenStmt{Table: table, Columns: cols, IDColumn: bt.idCol, Lo: bt.lo, Hi: bt.hi}, nil
		}
		constraint, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		return &SelectStmt{Table: table, Columns: cols, Where: constraint}, nil
	}

	return nil, fmt.Errorf("unexpected token after table name: %q", p.cur.text)
}

func (p *parser) parseColumnList() ([]string, error) {
	if p.cur.kind == tokPunct && p.cur.text == "*" {
		p.advance()
		return nil, nil
	}
	var cols []string
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		cols = append(cols, name)
		if p.cur.kind == tokPunct && p.cur.text == "," {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

type betweenClause struct {
	idCol  string
	lo, hi string
}

// tryParseBetween peeks for "col BETWEEN a AND b" right after WHERE.
// It only commits (ok=true) once it has seen the BETWEEN keyword;
// anything else is left for parseConstraint to retry from p's state
// at entry, since this is always called before any condition is
// consumed.
func (p *parser) tryParseBetween() (betweenClause, bool, error) {
	if p.cur.kind != tokIdent {
		return betweenClause{}, false, nil
	}
	col := p.cur.text
	save := *p.tz
	saveCur := p.cur
	p.advance()
	if p.cur.kind != tokKeyword || p.cur.text != "between" {
		*p.tz = save
		p.cur = saveCur
		return betweenClause{}, false, nil
	}
	p.advance()
	lo, err := p.parseValue()
	if err != nil {
		return betweenClause{}, false, err
	}
	if err := p.expectKeyword("and"); err != nil {
		return betweenClause{}, false, err
	}
	hi, err := p.parseValue()
	if err != nil {
		return betweenClause{}, false, err
	}
	return betweenClause{idCol: col, lo: lo, hi: hi}, true, nil
}

// parseConstraint parses a DNF predicate: AND binds tighter than OR.
func (p *parser) parseConstraint() (predicate.Constraint, error) {
	var constraint predicate.Constraint
	for {
		conj, err := p.parseConjunct()
		if err != nil {
			return nil, err
		}
		constraint = append(constraint, conj)
		if p.cur.kind == tokKeyword && p.cur.text == "or" {
			p.advance()
			continue
		}
		break
	}
	return constraint, nil
}

func (p *parser) parseConjunct() (predicate.Conjunct, error) {
	var conj predicate.Conjunct
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conj = append(conj, cond)
		if p.cur.kind == tokKeyword && p.cur.text == "and" {
			p.advance()
			continue
		}
		break
	}
	return conj, nil
}

func (p *parser) parseCondition() (predicate.Condition, error) {
	col, err := p.expectIdent()
	if err != nil {
		return predicate.Condition{}, err
	}
	op, err := p.parseCompOp()
	if err != nil {
		return predicate.Condition{}, err
	}
	val, err := p.parseValue()
	if err != nil {
		return predicate.Condition{}, err
	}
	return predicate.Condition{Column: col, Op: op, Value: val}, nil
}

func (p *parser) parseCompOp() (predicate.CompOp, error) {
	if p.cur.kind != tokPunct {
		return 0, fmt.Errorf("expected comparison operator, got %q", p.cur.text)
	}
	var op predicate.CompOp
	switch p.cur.text {
	case "=":
		op = predicate.EQ
	case "<":
		op = predicate.LT
	case "<=":
		op = predicate.LE
	case ">":
		op = predicate.GT
	case ">=":
		op = predicate.GE
	default:
		return 0, fmt.Errorf("unsupported comparison operator: %q", p.cur.text)
	}
	p.advance()
	return op, nil
}

func (p *parser) parseValue() (string, error) {
	switch p.cur.kind {
	case tokString, tokNumber, tokIdent:
		v := p.cur.text
		p.advance()
		return v, nil
	default:
		return "", fmt.Errorf("expected value, got %q", p.cur.text)
	}
}

// ---- INSERT ----

func (p *parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword("insert"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("into"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if p.cur.kind == tokKeyword && p.cur.text == "file" {
		path, err := p.rawQuotedPath()
		if err != nil {
			return nil, err
		}
		return &InsertFromFileStmt{Table: table, QuotedPath: path}, nil
	}

	if err := p.expectKeyword("values"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var values []string
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.cur.kind == tokPunct && p.cur.text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	// The grammar this front-end emulates builds the value list by
	// left recursion, so it hands the executor the values in reverse
	// of their textual order. Preserve that contract here rather than
	// in the executor so Executor.insert's reversal is visibly
	// restoring, not introducing, the order.
	reversed := make([]string, len(values))
	for i, v := range values {
		reversed[len(values)-1-i] = v
	}
	return &InsertStmt{Table: table, Values: reversed}, nil
}

// rawQuotedPath reads the still-quoted literal following FILE straight
// from the tokenizer (p.cur is still the FILE keyword, so the literal
// has not been scanned yet), so the executor (not the parser) is the
// one that strips the quotes, per the callback contract in §4.2.
func (p *parser) rawQuotedPath() (string, error) {
	p.tz.skipSpace()
	if p.tz.peekChar() != '\'' {
		return "", fmt.Errorf("expected quoted file path")
	}
	start := p.tz.pos
	p.tz.pos++
	for p.tz.pos < len(p.tz.src) && p.tz.src[p.tz.pos] != '\'' {
		p.tz.pos++
	}
	if p.tz.pos < len(p.tz.src) {
		p.tz.pos++
	}
	raw := string(p.tz.src[start:p.tz.pos])
	p.advance()
	return raw, nil
}

func (p *parser) parseDelete() (Statement, error) {
	if err := p.expectKeyword("delete"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokEOF {
		return &DeleteStmt{Table: table}, nil
	}
	if err := p.expectKeyword("where"); err != nil {
		return nil, err
	}
	constraint, err := p.parseConstraint()
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Table: table, Where: constraint}, nil
}

// ---- CREATE / DROP ----

func (p *parser) parseCreate() (Statement, error) {
	if err := p.expectKeyword("create"); err != nil {
		return nil, err
	}
	switch {
	case p.cur.kind == tokKeyword && p.cur.text == "table":
		return p.parseCreateTable()
	case p.cur.kind == tokKeyword && p.cur.text == "index":
		return p.parseCreateIndex()
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX after CREATE, got %q", p.cur.text)
	}
}

func (p *parser) parseCreateTable() (Statement, error) {
	if err := p.expectKeyword("table"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var cols []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.cur.kind == tokPunct && p.cur.text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &CreateTableStmt{Table: table, Columns: cols}, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, err
	}
	if p.cur.kind != tokKeyword {
		return ColumnDef{}, fmt.Errorf("expected column type, got %q", p.cur.text)
	}
	typeName := p.cur.text
	p.advance()

	col := ColumnDef{Name: name, Type: typeName}
	if typeName == "varchar" {
		if err := p.expectPunct("("); err != nil {
			return ColumnDef{}, err
		}
		if p.cur.kind != tokNumber {
			return ColumnDef{}, fmt.Errorf("expected varchar length, got %q", p.cur.text)
		}
		n, err := strconv.Atoi(p.cur.text)
		if err != nil {
			return ColumnDef{}, err
		}
		col.VarcharLen = n
		p.advance()
		if err := p.expectPunct(")"); err != nil {
			return ColumnDef{}, err
		}
	}

	for p.cur.kind == tokKeyword && (p.cur.text == "primary" || p.cur.text == "not" || p.cur.text == "null" || p.cur.text == "key") {
		if p.cur.text == "primary" {
			p.advance()
			if err := p.expectKeyword("key"); err != nil {
				return ColumnDef{}, err
			}
			col.IsPrimaryKey = true
			continue
		}
		// NOT NULL / NULL have no representation in this subset's
		// ColumnSpec; consume and ignore them.
		p.advance()
	}
	return col, nil
}

func (p *parser) parseCreateIndex() (Statement, error) {
	if err := p.expectKeyword("index"); err != nil {
		return nil, err
	}
	// An unspecified kind is left "" here; the engine-wide default is
	// applied downstream, not baked into the grammar.
	var kind string
	if p.cur.kind == tokKeyword && (p.cur.text == "btree" || p.cur.text == "hash") {
		kind = p.cur.text
		p.advance()
	}
	if err := p.expectKeyword("on"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	col, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &CreateIndexStmt{Table: table, Column: col, Kind: kind}, nil
}

func (p *parser) parseDrop() (Statement, error) {
	if err := p.expectKeyword("drop"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("table"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &DropTableStmt{Table: table}, nil
}
