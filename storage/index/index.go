// Package index implements the two index structures the storage
// engine offers: an ordered index over github.com/google/btree for
// point and range lookups, and a plain hash index for equality-only
// lookups. google/btree is the in-pack ecosystem choice for an
// ordered, pure-Go index structure (it shows up across several of the
// retrieved storage-engine manifests), used here instead of a
// hand-rolled B+-tree.
package index

import (
	"strconv"

	"github.com/google/btree"

	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/predicate"
)

// Index is what the storage engine needs from either structure:
// insert, delete, point lookup and (for ordered indexes) range lookup.
type Index interface {
	Insert(value string, rowID int)
	Delete(value string, rowID int)
	Get(value string) []int
	// Range returns every rowID whose key falls in [lo, hi], treating
	// predicate.KeyMin/KeyMax as open bounds. Unordered (hash)
	// indexes don't support this and return nil.
	Range(lo, hi string) []int
}

// entry is a single (key, rowID) pair stored in the B-tree, ordered by
// key and, for equal keys, by rowID so repeated inserts of the same
// value remain stable and distinct.
type entry struct {
	key   string
	rowID int
	less  func(a, b string) bool
}

func (e entry) Less(than btree.Item) bool {
	other := than.(entry)
	if e.key == other.key {
		return e.rowID < other.rowID
	}
	return e.less(e.key, other.key)
}

// BTreeIndex is the ordered index used for point and range queries.
type BTreeIndex struct {
	tree *btree.BTree
	less func(a, b string) bool
}

// NewBTreeIndex builds an ordered index over values of the given
// column type: numeric comparison for INT/FLOAT columns, lexical
// otherwise.
func NewBTreeIndex(colType engine.ColumnType) *BTreeIndex {
	return &BTreeIndex{
		tree: btree.New(32),
		less: lessFuncFor(colType),
	}
}

func lessFuncFor(colType engine.ColumnType) func(a, b string) bool {
	switch colType {
	case engine.TypeInt, engine.TypeFloat:
		return func(a, b string) bool {
			af, aerr := strconv.ParseFloat(a, 64)
			bf, berr := strconv.ParseFloat(b, 64)
			if aerr != nil || berr != nil {
				return a < b
			}
			return af < bf
		}
	default:
		return func(a, b string) bool { return a < b }
	}
}

func (idx *BTreeIndex) Insert(value string, rowID int) {
	idx.tree.ReplaceOrInsert(entry{key: value, rowID: rowID, less: idx.less})
}

func (idx *BTreeIndex) Delete(value string, rowID int) {
	idx.tree.Delete(entry{key: value, rowID: rowID, less: idx.less})
}

func (idx *BTreeIndex) Get(value string) []int {
	var ids []int
	pivot := entry{key: value, rowID: -1, less: idx.less}
	idx.tree.AscendGreaterOrEqual(pivot, func(item btree.Item) bool {
		e := item.(entry)
		if e.key != value {
			return false
		}
		ids = append(ids, e.rowID)
		return true
	})
	return ids
}

// Range returns every rowID whose key is within [lo, hi]. lo ==
// predicate.KeyMin and hi == predicate.KeyMax (sentinels) mean an open
// bound on that side.
func (idx *BTreeIndex) Range(lo, hi string) []int {
	var ids []int
	visit := func(item btree.Item) bool {
		e := item.(entry)
		if !isOpenMax(hi) && idx.less(hi, e.key) {
			return false
		}
		ids = append(ids, e.rowID)
		return true
	}
	if isOpenMin(lo) {
		idx.tree.Ascend(visit)
	} else {
		idx.tree.AscendGreaterOrEqual(entry{key: lo, rowID: -1, less: idx.less}, visit)
	}
	return ids
}

func isOpenMin(v string) bool { return v == predicate.KeyMin }
func isOpenMax(v string) bool { return v == predicate.KeyMax }

// HashIndex is the equality-only index: a plain Go map from value to
// the rowIDs holding it.
type HashIndex struct {
	buckets map[string][]int
}

func NewHashIndex() *HashIndex {
	return &HashIndex{buckets: map[string][]int{}}
}

func (idx *HashIndex) Insert(value string, rowID int) {
	idx.buckets[value] = append(idx.buckets[value], rowID)
}

func (idx *HashIndex) Delete(value string, rowID int) {
	ids := idx.buckets[value]
	for i, id := range ids {
		if id == rowID {
			idx.buckets[value] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (idx *HashIndex) Get(value string) []int {
	return idx.buckets[value]
}

func (idx *HashIndex) Range(lo, hi string) []int {
	return nil
}
