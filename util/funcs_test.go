package util

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(sets [][]int) [][]int {
	var all [][]int
	for combination := range Product(sets) {
		all = append(all, slices.Clone(combination))
	}
	return all
}

func TestProduct(t *testing.T) {
	assert.Equal(t, [][]int{{1, 3}, {1, 4}, {2, 3}, {2, 4}}, collect([][]int{{1, 2}, {3, 4}}))
	assert.Equal(t, [][]int{{}}, collect(nil))
	assert.Empty(t, collect([][]int{{1}, {}}))
	assert.Equal(t, [][]int{{5}}, collect([][]int{{5}}))
}

func TestProductStopsEarly(t *testing.T) {
	n := 0
	for range Product([][]int{{1, 2, 3}, {1, 2, 3}}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
