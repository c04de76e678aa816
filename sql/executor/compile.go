package executor

import (
	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/predicate"
)

// compiledConjunct is the output of the predicate compiler for one
// AND-group: the single condition chosen to drive an index lookup (if
// any), and the residual row predicate covering every other condition
// (plus the driver itself when its operator is strict).
type compiledConjunct struct {
	hasIndexKey bool
	indexKey    predicate.Condition
	residual    engine.RowPredicate
}

// indexCapable reports whether an index of the given kind can drive a
// comparison using op. Hash indexes only support equality; a non-EQ
// condition on a hash-indexed column must fall back to a scan.
func indexCapable(kind engine.IndexKind, op predicate.CompOp) bool {
	if op == predicate.EQ {
		return true
	}
	return kind == engine.IndexBTree
}

// compileConjunct picks the first indexed condition in source order
// whose operator the index can serve as the index driver (ties broken
// by source order; "first" is unambiguous since order is stable), and
// composes every other condition into an AND'd residual predicate via
// the engine's comparators. A strict `<`/`>` driver is kept in the
// residual as well: a btree range search is always inclusive on both
// ends, so the driver's own check is what excludes the boundary value.
// An `=`, `<=` or `>=` driver is already satisfied exactly by the
// index lookup and is left out. With no conditions left, residual is
// the constant-true predicate.
func compileConjunct(eng engine.Engine, table string, conj predicate.Conjunct, indexKinds map[string]engine.IndexKind) (compiledConjunct, error) {
	var out compiledConjunct
	residualConds := make([]predicate.Condition, 0, len(conj))

	for _, cond := range conj {
		if !out.hasIndexKey {
			if kind, ok := indexKinds[cond.Column]; ok && indexCapable(kind, cond.Op) {
				out.hasIndexKey = true
				out.indexKey = cond
				if cond.Op != predicate.LT && cond.Op != predicate.GT {
					continue
				}
			}
		}
		residualConds = append(residualConds, cond)
	}

	if len(residualConds) == 0 {
		out.residual = engine.AlwaysTrue
		return out, nil
	}

	comparators := make([]engine.RowPredicate, 0, len(residualConds))
	for _, cond := range residualConds {
		cmp, err := eng.Comparator(table, cond.Op, cond.Column, cond.Value)
		if err != nil {
			return compiledConjunct{}, err
		}
		comparators = append(comparators, cmp)
	}

	out.residual = func(r engine.Record) bool {
		for _, cmp := range comparators {
			if !cmp(r) {
				return false
			}
		}
		return true
	}
	return out, nil
}
