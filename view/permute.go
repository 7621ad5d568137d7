package view

import (
	"iter"
)

// Count returns the number of combinations in the cartesian product of
// lists.
func Count(lists [][]any) int {
	if len(lists) == 0 {
		return 0
	}

	n := 1
	for _, l := range lists {
		n *= len(l)
	}

	return n
}

// Combination returns the n'th tuple of the cartesian product of lists,
// with the first list varying slowest.
func Combination(lists [][]any, n int) ([]any, bool) {
	if n < 0 || n >= Count(lists) {
		return nil, false
	}

	tuple := make([]any, len(lists))

	for i := len(lists) - 1; i >= 0; i-- {
		size := len(lists[i])
		tuple[i] = lists[i][n%size]
		n /= size
	}

	return tuple, true
}

// Product yields every tuple of the cartesian product of lists in order,
// with the first list varying slowest.
func Product(lists [][]any) iter.Seq2[int, []any] {
	return func(yield func(int, []any) bool) {
		total := Count(lists)
		if total == 0 {
			return
		}

		idx := make([]int, len(lists))

		for n := range total {
			tuple := make([]any, len(lists))
			for i, l := range lists {
				tuple[i] = l[idx[i]]
			}

			if !yield(n, tuple) {
				return
			}

			for i := len(idx) - 1; i >= 0; i-- {
				if idx[i]++; idx[i] < len(lists[i]) {
					break
				}

				idx[i] = 0
			}
		}
	}
}
