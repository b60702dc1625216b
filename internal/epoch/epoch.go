// Package epoch defines the progress coordinate shared by every operator,
// endpoint, and driver in streambench. An epoch is a totally ordered,
// monotonically non-decreasing integer; records carry one, and operators
// are triggered when the runtime's input frontier moves past it.
package epoch

import "math"

// T is the epoch coordinate. It is deliberately a single concrete integer
// type rather than a generic timestamp parameter: every query pipeline in
// this harness (HiBench, YSB, NEXMark) keys its windows off plain integer
// progress, and a concrete type keeps the operator library free of an
// extra type parameter threaded through every combinator.
type T uint64

// Infinity is a frontier value past every epoch any source will ever
// produce; advancing the input to Infinity closes all outstanding epochs.
const Infinity T = math.MaxUint64

// Min returns the smaller of a and b.
func Min(a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b T) T {
	if a > b {
		return a
	}
	return b
}
