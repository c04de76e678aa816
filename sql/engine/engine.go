// Package engine declares the narrow contract the executor requires
// from a storage engine. Nothing in this package touches SQL syntax;
// it only knows about tables, columns, records and search keys.
package engine

import (
	"hash/fnv"
	"time"

	"github.com/k0kubun/flyql/sql/predicate"
)

// ColumnType is the declared type of a column.
type ColumnType int

const (
	TypeInt ColumnType = iota
	TypeFloat
	TypeVarchar
	TypeBool
)

// ColumnSpec describes one column of a CREATE TABLE statement.
type ColumnSpec struct {
	Name         string
	Type         ColumnType
	VarcharLen   int
	IsPrimaryKey bool
}

// IndexKind is the storage structure backing an index.
type IndexKind int

const (
	IndexBTree IndexKind = iota
	IndexHash
)

// Record is an ordered tuple of field values plus a hash stable under
// field-wise equality, used by the result merger for de-duplication.
type Record struct {
	Values []string
	hash   uint64
}

// NewRecord builds a Record and computes its stable hash up front so
// merge_records can de-duplicate by value without rehashing per compare.
func NewRecord(values []string) Record {
	h := fnv.New64a()
	for _, v := range values {
		h.Write([]byte(v))
		h.Write([]byte{0}) // field separator so {"ab","c"} != {"a","bc"}
	}
	return Record{Values: values, hash: h.Sum64()}
}

// Hash returns the record's stable hash, consistent with Equal.
func (r Record) Hash() uint64 { return r.hash }

// Equal is field-wise equality, independent of the cached hash.
func (r Record) Equal(other Record) bool {
	if len(r.Values) != len(other.Values) {
		return false
	}
	for i, v := range r.Values {
		if other.Values[i] != v {
			return false
		}
	}
	return true
}

// RowPredicate is a residual filter applied row-by-row by the engine
// after an index lookup or full scan has produced candidate records.
type RowPredicate func(Record) bool

// AlwaysTrue is the residual used when a conjunct has no remaining
// conditions after the index driver is chosen.
func AlwaysTrue(Record) bool { return true }

// QueryResponse is what every read operation on the engine returns:
// the records it found, plus named per-stage timings.
type QueryResponse struct {
	Records    []Record
	QueryTimes map[string]time.Duration
}

// Engine is the storage collaborator the executor drives. Out of
// scope for this front-end: the concrete heap/index/CSV machinery
// behind it lives under storage/.
type Engine interface {
	IsTable(table string) bool
	TableNames() []string
	TableAttributes(table string) ([]string, error)
	SortAttributes(table string, cols []string) ([]string, error)
	IndexedColumns(table string) []string
	// IndexKind reports the structure backing the index on column, and
	// whether one exists at all. Callers use this to decide whether an
	// index can serve a non-equality comparison: only IndexBTree is
	// ordered.
	IndexKind(table, column string) (IndexKind, bool)

	Comparator(table string, op predicate.CompOp, column, value string) (RowPredicate, error)

	CreateTable(table string, pkColumn string, columns []ColumnSpec) error
	CreateIndex(table, column string, kind IndexKind) error
	DropTable(table string) error

	Load(table string, cols []string, pred RowPredicate) (QueryResponse, error)
	Search(table string, key predicate.Attribute, pred RowPredicate, cols []string) (QueryResponse, error)
	RangeSearch(table string, lo, hi predicate.Attribute, pred RowPredicate, cols []string) (QueryResponse, error)

	Add(table string, values []string) error
	CSVInsert(table string, path string) error
	Remove(table string, key predicate.Attribute) error
}
