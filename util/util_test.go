package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformSlice(t *testing.T) {
	in := []int{1, 2, 3}
	got := TransformSlice(in, func(n int) string {
		return string(rune('a' + n - 1))
	})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestCanonicalMapIter_SortedKeyOrder(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	var keys []string
	for k := range CanonicalMapIter(m) {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestCanonicalMapIter_EarlyStop(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2, "c": 3}
	count := 0
	for range CanonicalMapIter(m) {
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(t, 1, count, "range-over-func should honor an early break")
}
