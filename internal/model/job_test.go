package model

import (
	"math"
	"testing"
)

func TestJobFilterOffset(t *testing.T) {
	cases := []struct {
		page, perPage, want int
	}{
		{page: 1, perPage: 10, want: 0},
		{page: 3, perPage: 10, want: 20},
		{page: 0, perPage: 10, want: 0},
		{page: -4, perPage: 10, want: 0},
		{page: 5, perPage: 0, want: 0},
		{page: 922337203685477582, perPage: 10, want: math.MaxInt},
		{page: math.MaxInt, perPage: 25, want: math.MaxInt},
	}
	for _, tc := range cases {
		got := JobFilter{Page: tc.page, PerPage: tc.perPage}.Offset()
		if got != tc.want {
			t.Fatalf("page %d per %d: expected offset %d, got %d", tc.page, tc.perPage, tc.want, got)
		}
	}
}
