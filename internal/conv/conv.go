// Package conv provides safe integer conversion helpers.
//
// These functions perform bounds checking before narrowing integer conversions
// to prevent silent overflow. They panic on overflow since this indicates a
// programming error (e.g. a dictionary with more distinct patterns or tree
// nodes than fit in the narrower id type).
package conv

import "math"

// IntToInt32 safely converts an int to int32.
// Panics if n < math.MinInt32 or n > math.MaxInt32.
//
//go:inline
func IntToInt32(n int) int32 {
	if n < math.MinInt32 || n > math.MaxInt32 {
		panic("integer overflow: int value out of int32 range")
	}
	return int32(n)
}
