package parser

import "github.com/k0kubun/flyql/sql/predicate"

// ColumnDef is one column of a CREATE TABLE statement, in source order.
type ColumnDef struct {
	Name         string
	Type         string // "int", "float", "varchar", "bool"
	VarcharLen   int
	IsPrimaryKey bool
}

// Statement is the sum type every parsed statement implements.
// Executor.Execute type-switches over it and dispatches to the matching
// executor callback (§4.2 of the callback contract).
type Statement interface {
	statement()
}

type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

type CreateIndexStmt struct {
	Table  string
	Column string
	Kind   string // "btree", "hash", or "" if the statement named neither
}

// SelectStmt is a plain SELECT with an optional DNF WHERE clause. An
// empty Where means "no WHERE clause" (full scan).
type SelectStmt struct {
	Table   string
	Columns []string
	Where   predicate.Constraint
}

// SelectBetweenStmt is SELECT ... BETWEEN a AND b ON id, a single
// range query with no disjunction and no residual filter.
type SelectBetweenStmt struct {
	Table    string
	Columns  []string
	IDColumn string
	Lo, Hi   string
}

// InsertStmt carries Values in REVERSE of their textual order. This
// mirrors the grammar's left-recursive value-list construction; the
// executor reverses the list again to restore schema order before
// forwarding to the engine. See Executor.insert.
type InsertStmt struct {
	Table  string
	Values []string
}

// InsertFromFileStmt carries the path exactly as it appeared in the
// source, quote characters included; the executor strips exactly one
// leading and one trailing byte before calling engine.CSVInsert.
type InsertFromFileStmt struct {
	Table      string
	QuotedPath string
}

// DeleteStmt's Where is parsed as full DNF for grammar uniformity, but
// only Where[0][0] is ever honored by the executor (single-key delete,
// §4.2 "remove").
type DeleteStmt struct {
	Table string
	Where predicate.Constraint
}

type DropTableStmt struct {
	Table string
}

func (*CreateTableStmt) statement()     {}
func (*CreateIndexStmt) statement()     {}
func (*SelectStmt) statement()          {}
func (*SelectBetweenStmt) statement()   {}
func (*InsertStmt) statement()          {}
func (*InsertFromFileStmt) statement()  {}
func (*DeleteStmt) statement()          {}
func (*DropTableStmt) statement()       {}
