package safemath

import "math"

// Magic float64 bounds used to classify a float value against the 64-bit
// integer container (int64 or uint64) a mixed int/float comparison widens
// the integer side to. Narrower integer types (int8..int32, uint8..uint32)
// can never reach these extremes, so they always classify in-range.
const (
	aboveU64Bound = 18446744073709549568.0
	aboveI64Bound = 9223372036854774784.0
	belowI64Bound = -9223372036854775808.0
)

// CmpEq reports whether a equals b, treating float operands as equal within
// tolerance ULP steps (0 means bit-exact after NaN handling). Any NaN
// operand makes this false.
func CmpEq[T1 Scalar, T2 Scalar](a T1, b T2, tolerance int32) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}

	switch {
	case !isFloat(a) && !isFloat(b):
		return intEqual(a, b)
	case isFloat(a) && isFloat(b):
		return floatEqual(toF64(a), toF64(b), tolerance)
	case isFloat(a):
		return floatIntEqual(toF64(a), b, tolerance)
	default:
		return floatIntEqual(toF64(b), a, tolerance)
	}
}

// CmpNe is the negation of CmpEq, except that (per the universal property in
// §8) it is also true whenever either operand is NaN.
func CmpNe[T1 Scalar, T2 Scalar](a T1, b T2, tolerance int32) bool {
	if isNaN(a) || isNaN(b) {
		return true
	}

	return !CmpEq(a, b, tolerance)
}

// CmpLt reports whether a < b. NaN operands always yield false. No
// tolerance is applied; ordering is exact.
func CmpLt[T1 Scalar, T2 Scalar](a T1, b T2) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}

	switch {
	case !isFloat(a) && !isFloat(b):
		return intLess(a, b)
	case isFloat(a) && isFloat(b):
		return toF64(a) < toF64(b)
	case isFloat(a):
		return floatLtInt(toF64(a), b)
	default:
		return intLtFloat(a, toF64(b))
	}
}

// CmpGt reports whether a > b, implemented as the mirror of CmpLt.
func CmpGt[T1 Scalar, T2 Scalar](a T1, b T2) bool {
	return CmpLt(b, a)
}

// CmpLe reports whether a <= b. NaN operands always yield false.
func CmpLe[T1 Scalar, T2 Scalar](a T1, b T2) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}

	return !CmpGt(a, b)
}

// CmpGe reports whether a >= b. NaN operands always yield false.
func CmpGe[T1 Scalar, T2 Scalar](a T1, b T2) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}

	return !CmpLt(a, b)
}

func intEqual[T1 Integer, T2 Integer](a T1, b T2) bool {
	aSigned, bSigned := isSigned(a), isSigned(b)

	switch {
	case aSigned == bSigned && aSigned:
		return toI64(a) == toI64(b)
	case aSigned == bSigned:
		return toU64(a) == toU64(b)
	case aSigned:
		return toI64(a) >= 0 && toU64FromI64(toI64(a)) == toU64(b)
	default:
		return toI64(b) >= 0 && toU64(a) == toU64FromI64(toI64(b))
	}
}

func intLess[T1 Integer, T2 Integer](a T1, b T2) bool {
	aSigned, bSigned := isSigned(a), isSigned(b)

	switch {
	case aSigned == bSigned && aSigned:
		return toI64(a) < toI64(b)
	case aSigned == bSigned:
		return toU64(a) < toU64(b)
	case aSigned:
		// a is signed, b is unsigned.
		ai := toI64(a)
		if ai < 0 {
			return true
		}

		return toU64FromI64(ai) < toU64(b)
	default:
		// a is unsigned, b is signed.
		bi := toI64(b)
		if bi < 0 {
			return false
		}

		return toU64(a) < toU64FromI64(bi)
	}
}

func toU64FromI64(v int64) uint64 {
	return uint64(v) //nolint:gosec // caller has already verified v >= 0
}

func floatEqual(a, b float64, tolerance int32) bool {
	lo := stepULP(b, -tolerance)
	hi := stepULP(b, tolerance)

	return a >= lo && a <= hi
}

func stepULP(f float64, n int32) float64 {
	if n == 0 {
		return f
	}

	dir := math.Inf(1)
	steps := n

	if n < 0 {
		dir = math.Inf(-1)
		steps = -n
	}

	for range steps {
		f = math.Nextafter(f, dir)
	}

	return f
}

// floatIntEqual reports whether f equals integer i within tolerance ULPs,
// per the two-sided window rule in spec §4.2.
func floatIntEqual[T Integer](f float64, i T, tolerance int32) bool {
	if inf, _ := isInf(f); inf {
		return false
	}

	lo := stepULP(f, -tolerance)
	hi := stepULP(f, tolerance)

	return !intLtFloat(i, lo) && !floatLtInt(hi, i)
}

// floatLtInt reports whether f < i (float on the left of <), coercing f via
// floor per spec §4.2's floor/ceil asymmetry.
func floatLtInt[T Integer](f float64, i T) bool {
	if inf, sign := isInf(f); inf {
		return sign < 0
	}

	if isSigned(i) {
		below, above := classifyToInt64(f)
		if below {
			return true
		}

		if above {
			return false
		}

		return int64(math.Floor(f)) < toI64(i)
	}

	below, above := classifyToUint64(f)
	if below {
		return true
	}

	if above {
		return false
	}

	return uint64(math.Floor(f)) < toU64(i)
}

// intLtFloat reports whether i < f (float on the right of <), coercing f via
// ceil per spec §4.2's floor/ceil asymmetry.
func intLtFloat[T Integer](i T, f float64) bool {
	if inf, sign := isInf(f); inf {
		return sign > 0
	}

	if isSigned(i) {
		below, above := classifyToInt64(f)
		if below {
			return false
		}

		if above {
			return true
		}

		return toI64(i) < int64(math.Ceil(f))
	}

	below, above := classifyToUint64(f)
	if below {
		return false
	}

	if above {
		return true
	}

	return toU64(i) < uint64(math.Ceil(f))
}

func classifyToInt64(f float64) (below, above bool) {
	if f >= aboveI64Bound {
		return false, true
	}

	if f < belowI64Bound {
		return true, false
	}

	return false, false
}

func classifyToUint64(f float64) (below, above bool) {
	if f >= aboveU64Bound {
		return false, true
	}

	if f < 0 {
		return true, false
	}

	return false, false
}
