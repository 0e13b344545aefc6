// Package bignum defines the arbitrary-precision number API used for scores.
//
// Scores routinely grow past 1e15, where float64 stops representing integers
// exactly. Everything that touches an accumulator goes through [Number] so the
// concrete representation can be swapped without touching the engines.
package bignum

import "errors"

// ErrNotFinite is returned when a NaN or infinite float is converted.
var ErrNotFinite = errors.New("bignum: value is not finite")

// Number is an immutable arbitrary-precision decimal.
type Number interface {
	Add(other Number) Number
	Sub(other Number) Number
	Mul(other Number) Number
	// Cmp returns -1, 0 or +1.
	Cmp(other Number) int
	Sign() int
	// Log10 returns the base-10 logarithm. It is -Inf for zero and NaN for
	// negative values.
	Log10() float64
	Float64() float64
	// String returns a lossless decimal encoding accepted by Arithmetic.Parse.
	String() string
}

// Arithmetic constructs numbers of one concrete representation.
type Arithmetic interface {
	Zero() Number
	FromInt(v int64) Number
	FromFloat(v float64) (Number, error)
	Parse(s string) (Number, error)
}

// Sum adds all values to start.
func Sum(start Number, values ...Number) Number {
	out := start
	for _, v := range values {
		out = out.Add(v)
	}
	return out
}
