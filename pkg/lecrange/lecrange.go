// Package lecrange expands lecture range expressions like "1-3,5" into
// ordered index sets.
package lecrange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidRange indicates a malformed or out-of-bounds range expression.
var ErrInvalidRange = errors.New("invalid lecture range")

// Parse expands expr against a course with total lectures into a sorted,
// duplicate-free slice of 1-based indices. Accepted forms are a single index
// ("3"), a span ("1-5") and comma-separated combinations ("1-3,5").
func Parse(expr string, total int) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: course has no lectures", ErrInvalidRange)
	}

	seen := make(map[int]struct{})

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidRange, expr)
		}

		lo, hi, err := parseSegment(part)
		if err != nil {
			return nil, err
		}

		if lo < 1 || hi > total {
			return nil, fmt.Errorf("%w: %q outside 1-%d", ErrInvalidRange, part, total)
		}

		for i := lo; i <= hi; i++ {
			seen[i] = struct{}{}
		}
	}

	indices := make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}

	// Course order, not expression order.
	sort.Ints(indices)

	return indices, nil
}

func parseSegment(part string) (lo, hi int, err error) {
	before, after, spanned := strings.Cut(part, "-")
	if !spanned {
		n, err := parseIndex(part)
		if err != nil {
			return 0, 0, err
		}

		return n, n, nil
	}

	if lo, err = parseIndex(before); err != nil {
		return 0, 0, err
	}

	if hi, err = parseIndex(after); err != nil {
		return 0, 0, err
	}

	if hi < lo {
		return 0, 0, fmt.Errorf("%w: descending span %q", ErrInvalidRange, part)
	}

	return lo, hi, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidRange, s)
	}

	if n < 1 {
		return 0, fmt.Errorf("%w: index %d is not positive", ErrInvalidRange, n)
	}

	return n, nil
}
