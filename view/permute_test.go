package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]any
		want  int
	}{
		{"none", nil, 0},
		{"single", [][]any{{1, 2, 3}}, 3},
		{"product", [][]any{{1, 2, 3}, {"a", "b"}}, 6},
		{"empty list", [][]any{{1, 2}, {}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.lists); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProduct(t *testing.T) {
	lists := [][]any{{1, 2, 3}, {"a", "b"}}

	var got [][]any

	for n, tuple := range Product(lists) {
		if n != len(got) {
			t.Fatalf("index %d out of order", n)
		}

		got = append(got, tuple)

		c, ok := Combination(lists, n)
		if !ok {
			t.Fatalf("Combination(%d) not found", n)
		}

		if diff := cmp.Diff(tuple, c); diff != "" {
			t.Errorf("Combination(%d) disagrees with Product (-product +combination):\n%s", n, diff)
		}
	}

	want := [][]any{{1, "a"}, {1, "b"}, {2, "a"}, {2, "b"}, {3, "a"}, {3, "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Product mismatch (-want +got):\n%s", diff)
	}

	if _, ok := Combination(lists, 6); ok {
		t.Error("Combination(6) should be out of range")
	}

	if _, ok := Combination(lists, -1); ok {
		t.Error("Combination(-1) should be out of range")
	}

	var n int
	for range Product(lists) {
		if n++; n == 2 {
			break
		}
	}

	if n != 2 {
		t.Errorf("Product did not stop early: %d", n)
	}

	for range Product([][]any{{1}, {}}) {
		t.Error("product with an empty list yielded a tuple")
	}
}
