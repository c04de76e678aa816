package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/k0kubun/flyql/sql/engine"
)

// Property 3 / 9: merging two result sets preserves a's order, then
// appends only the records from b not already present by value, and
// merging two vectors of equal records collapses to one copy.
func TestMergeRecords_DedupPreservesOrder(t *testing.T) {
	a := []engine.Record{engine.NewRecord([]string{"1", "x"}), engine.NewRecord([]string{"2", "y"})}
	b := []engine.Record{engine.NewRecord([]string{"2", "y"}), engine.NewRecord([]string{"3", "z"})}

	got := mergeRecords(a, b)
	want := [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}}
	if assert.Len(t, got, len(want)) {
		for i, w := range want {
			assert.Equal(t, w, got[i].Values)
		}
	}
}

func TestMergeRecords_AllEqualCollapsesToOne(t *testing.T) {
	a := []engine.Record{engine.NewRecord([]string{"1", "x"})}
	b := []engine.Record{engine.NewRecord([]string{"1", "x"})}

	got := mergeRecords(a, b)
	assert.Len(t, got, 1)
}

func TestMergeRecords_ANotMutated(t *testing.T) {
	a := []engine.Record{engine.NewRecord([]string{"1"})}
	aCopy := append([]engine.Record{}, a...)
	b := []engine.Record{engine.NewRecord([]string{"2"})}

	mergeRecords(a, b)
	assert.Len(t, a, len(aCopy))
	assert.True(t, a[0].Equal(aCopy[0]), "mergeRecords mutated its first argument")
}

// §9: merge_times is last-writer-wins on key collision.
func TestMergeTimes_LastWriterWins(t *testing.T) {
	a := map[string]time.Duration{"search": 10}
	b := map[string]time.Duration{"search": 20, "load": 5}

	got := mergeTimes(a, b)
	assert.Equal(t, time.Duration(20), got["search"], "b wins on collision")
	assert.Equal(t, time.Duration(5), got["load"])
}

func TestMergeTimes_NilBase(t *testing.T) {
	got := mergeTimes(nil, map[string]time.Duration{"load": 1})
	assert.Equal(t, time.Duration(1), got["load"])
}
