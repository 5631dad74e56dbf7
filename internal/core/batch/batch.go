// Package batch splits a slice into consecutive fixed-size batches
package batch

import "slices"

// Partition returns consecutive sub-slices of items of length size, the last one possibly shorter.
// Order is preserved, an empty input yields no batches and size < 1 is treated as 1.
// The batches alias items
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	size = max(size, 1)
	out := make([][]T, 0, Count(len(items), size))
	for c := range slices.Chunk(items, size) {
		out = append(out, c)
	}
	return out
}

// Count is the number of batches Partition yields for n items
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	size = max(size, 1)
	return (n + size - 1) / size
}
