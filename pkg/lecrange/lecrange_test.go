package lecrange_test

import (
	"errors"
	"reflect"
	"testing"

	"tgcdl/pkg/lecrange"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		total int
		want  []int
	}{
		{
			name:  "single index",
			expr:  "3",
			total: 10,
			want:  []int{3},
		},
		{
			name:  "span",
			expr:  "1-5",
			total: 10,
			want:  []int{1, 2, 3, 4, 5},
		},
		{
			name:  "list",
			expr:  "1,3,5",
			total: 10,
			want:  []int{1, 3, 5},
		},
		{
			name:  "span and index",
			expr:  "1-3,5",
			total: 10,
			want:  []int{1, 2, 3, 5},
		},
		{
			name:  "overlap deduplicated",
			expr:  "1-4,3,4",
			total: 10,
			want:  []int{1, 2, 3, 4},
		},
		{
			name:  "expression order does not matter",
			expr:  "5,1-2",
			total: 10,
			want:  []int{1, 2, 5},
		},
		{
			name:  "whitespace tolerated",
			expr:  " 2 , 4-5 ",
			total: 10,
			want:  []int{2, 4, 5},
		},
		{
			name:  "full course",
			expr:  "1-4",
			total: 4,
			want:  []int{1, 2, 3, 4},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := lecrange.Parse(tc.expr, tc.total)
			if err != nil {
				t.Fatalf("Parse(%q, %d): %v", tc.expr, tc.total, err)
			}

			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Parse(%q, %d) = %v, want %v", tc.expr, tc.total, got, tc.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		total int
	}{
		{name: "empty expression", expr: "", total: 10},
		{name: "empty segment", expr: "1,,3", total: 10},
		{name: "non-numeric", expr: "one", total: 10},
		{name: "zero index", expr: "0", total: 10},
		{name: "negative index", expr: "-2", total: 10},
		{name: "index above total", expr: "11", total: 10},
		{name: "span above total", expr: "8-12", total: 10},
		{name: "descending span", expr: "5-1", total: 10},
		{name: "no lectures", expr: "1", total: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lecrange.Parse(tc.expr, tc.total)
			if !errors.Is(err, lecrange.ErrInvalidRange) {
				t.Errorf("Parse(%q, %d) error = %v, want ErrInvalidRange", tc.expr, tc.total, err)
			}
		})
	}
}
