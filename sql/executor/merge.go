package executor

import (
	"time"

	"github.com/k0kubun/flyql/sql/engine"
)

// mergeRecords returns a vector containing all of a in order, followed
// by the elements of b not already present in a (by record-value
// equality), preserving b's relative order. a is never mutated.
func mergeRecords(a, b []engine.Record) []engine.Record {
	seen := make(map[uint64][]engine.Record, len(a))
	for _, r := range a {
		seen[r.Hash()] = append(seen[r.Hash()], r)
	}

	out := make([]engine.Record, len(a), len(a)+len(b))
	copy(out, a)

	for _, r := range b {
		if containsEqual(seen, r) {
			continue
		}
		out = append(out, r)
		seen[r.Hash()] = append(seen[r.Hash()], r)
	}
	return out
}

func containsEqual(seen map[uint64][]engine.Record, r engine.Record) bool {
	for _, candidate := range seen[r.Hash()] {
		if candidate.Equal(r) {
			return true
		}
	}
	return false
}

// mergeTimes folds every entry of b into a (mutating and returning a).
// On key collision b's value wins, matching Go's own map-insert
// semantics; callers must not depend on collision behavior beyond
// that, since the engine is expected to hand out unique stage keys
// per call.
func mergeTimes(a, b map[string]time.Duration) map[string]time.Duration {
	if a == nil {
		a = map[string]time.Duration{}
	}
	for k, v := range b {
		a[k] = v
	}
	return a
}
