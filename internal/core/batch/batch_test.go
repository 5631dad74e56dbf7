package batch

import (
	"slices"
	"testing"
)

func TestPartition(t *testing.T) {
	seq := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	cases := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"empty", 0, 50, nil},
		{"exact", 100, 50, []int{50, 50}},
		{"remainder", 120, 50, []int{50, 50, 20}},
		{"smaller than batch", 3, 50, []int{3}},
		{"size one", 3, 1, []int{1, 1, 1}},
		{"zero size clamps to one", 2, 0, []int{1, 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := seq(c.n)
			got := Partition(in, c.size)
			if len(got) != len(c.sizes) || len(got) != Count(c.n, c.size) {
				t.Fatalf("batches = %d, want %d", len(got), len(c.sizes))
			}
			var flat []int
			for i, b := range got {
				if len(b) != c.sizes[i] {
					t.Fatalf("batch %d size = %d, want %d", i, len(b), c.sizes[i])
				}
				flat = append(flat, b...)
			}
			if c.n > 0 && !slices.Equal(flat, in) {
				t.Fatalf("order not preserved")
			}
		})
	}
}
