// Package buf holds overflow-checked size arithmetic shared by the allocators
// and the codecs built on top of them.
package buf

import "math"

// Alignment is the granularity every arena allocation is rounded to.
const Alignment = 8

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative sizes, returning ok = false when
// either is negative or the product would overflow int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// Align8 rounds size up to the next multiple of 8.
// Negative sizes and sizes within 7 of MaxInt are returned unchanged;
// callers validate those before reaching here.
func Align8(size int) int {
	if size < 0 || size > math.MaxInt-(Alignment-1) {
		return size
	}
	return (size + Alignment - 1) &^ (Alignment - 1)
}

// AlignUp rounds size up to a multiple of align, which must be a power of two.
// ok is false on overflow or invalid input.
func AlignUp(size, align int) (int, bool) {
	if size < 0 || align <= 0 || align&(align-1) != 0 {
		return 0, false
	}
	n, ok := AddOverflowSafe(size, align-1)
	if !ok {
		return 0, false
	}
	return n &^ (align - 1), true
}
