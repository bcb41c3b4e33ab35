package util

import (
	"fmt"
	"iter"
	"strings"
)

// Product yields the cartesian product of sets, one element from each set, in order.
//
// An empty sets yields exactly one empty combination, while a single empty set
// among sets yields nothing. The yielded slice is reused between iterations
func Product[A any](sets [][]A) iter.Seq[[]A] {
	return func(yield func([]A) bool) {
		for _, set := range sets {
			if len(set) == 0 {
				return
			}
		}
		indices := make([]int, len(sets))
		current := make([]A, len(sets))
		for {
			for i, set := range sets {
				current[i] = set[indices[i]]
			}
			if !yield(current) {
				return
			}
			// advance like an odometer, last set spinning fastest
			i := len(sets) - 1
			for ; i >= 0; i-- {
				indices[i]++
				if indices[i] < len(sets[i]) {
					break
				}
				indices[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

func JoinString[S fmt.Stringer](elems []S, sep string) string {
	sb := strings.Builder{}
	for i, elem := range elems {
		if i != 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(elem.String())
	}
	return sb.String()
}

func MapSlice[A, B any](slice []A, f func(A) B) []B {
	mapped := make([]B, len(slice))
	for i, elem := range slice {
		mapped[i] = f(elem)
	}
	return mapped
}
