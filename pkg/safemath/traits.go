// Package safemath implements overflow-, rounding-, and domain-safe
// arithmetic and comparison over mixed integer and IEEE-754 floating-point
// operands.
//
// Every exported function returns a plain Go value or a (value, error) pair;
// nothing here panics on bad arithmetic input. See [ArithError] for the
// error taxonomy shared by [Cast] and the Arith family ([Add], [Sub], [Mul],
// [Divide], [Negate], [Abs]).
package safemath

import "math"

// SignedInteger is the set of built-in signed integer types this package
// operates over.
type SignedInteger interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInteger is the set of built-in unsigned integer types this package
// operates over.
type UnsignedInteger interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integer is any supported signed or unsigned integer type.
type Integer interface {
	SignedInteger | UnsignedInteger
}

// Float is either IEC 559 (IEEE-754) floating-point type Go has.
type Float interface {
	~float32 | ~float64
}

// Scalar is the full closed set of operand/result types this package
// supports: the eight integer widths plus float32/float64.
type Scalar interface {
	Integer | Float
}

// bitSize returns the bit width of T. It is used to pick the "bigger" of two
// same-category operands, the Go-generics rendition of the original
// template metaprogram's bigger_type_t trait (which is only ever invoked on
// two same-category operands — mixing categories is a distinct code path in
// Cmp/Cast/Arith, not something bitSize is asked to adjudicate).
func bitSize[T Scalar](v T) int {
	switch any(v).(type) {
	case int8, uint8:
		return 8
	case int16, uint16:
		return 16
	case int32, uint32, float32:
		return 32
	case int64, uint64, float64:
		return 64
	default:
		panic("safemath: unreachable scalar type")
	}
}

// isSigned reports whether T is a signed integer type.
func isSigned[T Scalar](v T) bool {
	switch any(v).(type) {
	case int8, int16, int32, int64:
		return true
	default:
		return false
	}
}

// isFloat reports whether T is float32 or float64.
func isFloat[T Scalar](v T) bool {
	switch any(v).(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}

// toF64 widens any scalar to float64 for range/classification arithmetic.
// Used only by Cmp's mixed float/integer paths and Cast's bounds checks,
// never for the final result of an integer-only operation (which must stay
// exact).
func toF64[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		panic("safemath: unreachable scalar type")
	}
}

// toI64 converts an integer scalar to int64. Only safe when the caller has
// already established the value fits (e.g. after a range classification).
func toI64[T Integer](v T) int64 {
	switch x := any(v).(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x) //nolint:gosec // caller has range-checked
	default:
		panic("safemath: unreachable integer type")
	}
}

// toU64 converts an integer scalar to uint64. Only meaningful for
// non-negative values; callers on the signed path must check sign first.
func toU64[T Integer](v T) uint64 {
	switch x := any(v).(type) {
	case int8:
		return uint64(x)
	case int16:
		return uint64(x)
	case int32:
		return uint64(x)
	case int64:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	default:
		panic("safemath: unreachable integer type")
	}
}

// isNaN reports whether v is a NaN float. Always false for integer T.
func isNaN[T Scalar](v T) bool {
	switch x := any(v).(type) {
	case float32:
		return math.IsNaN(float64(x))
	case float64:
		return math.IsNaN(x)
	default:
		return false
	}
}

// isInf reports whether v is +/-Inf, and if so its sign (+1 or -1).
func isInf[T Scalar](v T) (inf bool, sign int) {
	switch x := any(v).(type) {
	case float32:
		if math.IsInf(float64(x), 1) {
			return true, 1
		}

		if math.IsInf(float64(x), -1) {
			return true, -1
		}
	case float64:
		if math.IsInf(x, 1) {
			return true, 1
		}

		if math.IsInf(x, -1) {
			return true, -1
		}
	}

	return false, 0
}
