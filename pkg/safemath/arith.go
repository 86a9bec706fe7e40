package safemath

import (
	"math"
	"math/big"
)

// Add returns a+b in T, overflow-checked. Both operands and the result share
// one type — the common case, and exactly "integer/float ⊕ same type" from
// the default-result-type table. For mixed operand types, or to pick a
// result type other than the operands' own, use [AddAs].
func Add[T Scalar](a, b T) (T, error) { return AddAs[T](a, b) }

// Sub is [Sub] for same-type operands; see [SubAs] for mixed types.
func Sub[T Scalar](a, b T) (T, error) { return SubAs[T](a, b) }

// Mul is [Mul] for same-type operands; see [MulAs] for mixed types.
func Mul[T Scalar](a, b T) (T, error) { return MulAs[T](a, b) }

// Divide is [Divide] for same-type operands; see [DivideAs] for mixed types.
func Divide[T Scalar](a, b T) (T, error) { return DivideAs[T](a, b) }

// AddAs returns a+b with the result produced in R, reporting
// ErrExceedsNumericLimits if the sum overflows R.
//
// R, A and B may differ freely (e.g. AddAs[uint16](uint8(1), uint16(2))), the
// general mixed-operand form the default-result-type table in spec.md §3
// describes: integer⊕integer defaults to the first operand's type except
// Add(unsigned,unsigned), which widens to the wider of the two; float⊕float
// defaults to the wider of the two; integer⊕float defaults to the float
// operand's type. Go cannot synthesize "whichever of A and B is wider" as a
// type parameter the caller didn't name, so that default is realized as
// ordinary Go call sites choosing R per the table (this is the structural
// substitution §9 documents for Go's lack of associated types), not as
// hidden inference inside AddAs itself.
func AddAs[R, A, B Scalar](a A, b B) (R, error) {
	if isFloat(a) || isFloat(b) {
		return floatArith[R]("add", a, b, func(x, y float64) float64 { return x + y })
	}

	return intCombine[R]("add", a, b, (*big.Int).Add)
}

// SubAs is [AddAs] for subtraction.
func SubAs[R, A, B Scalar](a A, b B) (R, error) {
	if isFloat(a) || isFloat(b) {
		return floatArith[R]("sub", a, b, func(x, y float64) float64 { return x - y })
	}

	return intCombine[R]("sub", a, b, (*big.Int).Sub)
}

// MulAs is [AddAs] for multiplication.
func MulAs[R, A, B Scalar](a A, b B) (R, error) {
	if isFloat(a) || isFloat(b) {
		return floatArith[R]("mul", a, b, func(x, y float64) float64 { return x * y })
	}

	return intCombine[R]("mul", a, b, (*big.Int).Mul)
}

// DivideAs returns a/b in R. Integer division that doesn't divide evenly
// reports ErrImplicitRounding alongside the truncated quotient; division by
// zero reports ErrDivideByZero; a result outside R's range reports
// ErrExceedsNumericLimits (this also catches signed MinInt/-1).
func DivideAs[R, A, B Scalar](a A, b B) (R, error) {
	var zero R

	if isFloat(a) || isFloat(b) {
		fa, err := asFloatOperand[R](a)
		if err != nil {
			return zero, err
		}

		fb, err := asFloatOperand[R](b)
		if err != nil {
			return zero, err
		}

		if fb == 0 {
			return zero, newArithError("divide", ErrDivideByZero)
		}

		fp := NewFpEnv()

		resultF, ferr := CalculateAndVerify(fp, func() float64 { return fa / fb })
		result := fromF64[R](resultF)

		if ferr != nil {
			return result, newArithError("divide", ferr)
		}

		return result, nil
	}

	return intDivideCombine[R](a, b)
}

// Negate returns -a in T, or ErrExceedsNumericLimits for the one signed
// integer value (T's minimum) that has no positive counterpart. Float
// operands never error: NaN and ±Inf pass through with sign flipped, per
// §4.4's "preserves NaN/±Inf" rule — Negate never runs inside an FpEnv
// scope, since sign-flip can neither overflow nor raise an FPU exception.
func Negate[T Scalar](a T) (T, error) { return NegateAs[T](a) }

// NegateAs is [Negate] with an explicit result type.
func NegateAs[R, T Scalar](a T) (R, error) {
	if isFloat(a) {
		return fromF64[R](-toF64(a)), nil
	}

	return bigIntToR[R]("negate", new(big.Int).Neg(bigIntValue(a)))
}

// Abs returns the absolute value of a in T, or ErrExceedsNumericLimits for
// signed T's minimum value (whose magnitude doesn't fit T). Float operands
// never error: NaN is preserved, ±Inf's magnitude (+Inf) is preserved, and
// the sign of ±0 is cleared — Abs never runs inside an FpEnv scope, for the
// same reason as Negate.
func Abs[T Scalar](a T) (T, error) { return AbsAs[T](a) }

// AbsAs is [Abs] with an explicit result type.
func AbsAs[R, T Scalar](a T) (R, error) {
	if isFloat(a) {
		return fromF64[R](math.Abs(toF64(a))), nil
	}

	return bigIntToR[R]("abs", new(big.Int).Abs(bigIntValue(a)))
}

// floatArith executes fn(toF64(a), toF64(b)) inside an FpEnv scope and casts
// the result into R, per §4.4: "for every float ⊕ float, the operation is
// executed inside an FpEnv scope." Integer operands are routed through
// asFloatOperand first, which reduces them to float⊕float.
func floatArith[R, A, B Scalar](op string, a A, b B, fn func(x, y float64) float64) (R, error) {
	var zero R

	fa, err := asFloatOperand[R](a)
	if err != nil {
		return zero, err
	}

	fb, err := asFloatOperand[R](b)
	if err != nil {
		return zero, err
	}

	fp := NewFpEnv()

	resultF, ferr := CalculateAndVerify(fp, func() float64 { return fn(fa, fb) })
	result := fromF64[R](resultF)

	if ferr != nil {
		return result, newArithError(op, ferr)
	}

	return result, nil
}

// asFloatOperand converts v to float64 for a float-producing operation
// whose result type is R. Float operands pass through unchanged. Integer
// operands are first passed through Cast[R] — the "integer is first passed
// through Cast[Float], with the full ImplicitRounding check" reduction
// §4.4 specifies for integer⊕float and float⊕integer — so an integer too
// wide to represent exactly in R (e.g. a large uint64 cast to float32) is
// flagged rather than silently rounded.
func asFloatOperand[R, T Scalar](v T) (float64, error) {
	if isFloat(v) {
		return toF64(v), nil
	}

	casted, err := Cast[R](v)

	return toF64(casted), err
}

// bigIntValue widens any integer scalar to an arbitrary-precision integer,
// the common representation intCombine/bigIntToR use to detect overflow
// across mixed operand widths and signedness without hand-written
// sign-splitting bit tricks for every (signed,unsigned) combination.
func bigIntValue[T Scalar](v T) *big.Int {
	switch x := any(v).(type) {
	case int8:
		return big.NewInt(int64(x))
	case int16:
		return big.NewInt(int64(x))
	case int32:
		return big.NewInt(int64(x))
	case int64:
		return big.NewInt(x)
	case uint8:
		return new(big.Int).SetUint64(uint64(x))
	case uint16:
		return new(big.Int).SetUint64(uint64(x))
	case uint32:
		return new(big.Int).SetUint64(uint64(x))
	case uint64:
		return new(big.Int).SetUint64(x)
	default:
		panic("safemath: bigIntValue called with a non-integer scalar")
	}
}

// bigIntToR range-checks v against R's bounds and narrows it, reporting
// ErrExceedsNumericLimits if v doesn't fit.
func bigIntToR[R Scalar](op string, v *big.Int) (R, error) {
	var zero R

	if isSigned(zero) {
		bitWidth := bitSize(zero)
		if v.Cmp(big.NewInt(minForBits(bitWidth))) < 0 || v.Cmp(big.NewInt(maxForBits(bitWidth))) > 0 {
			return zero, newArithError(op, ErrExceedsNumericLimits)
		}

		return fromI64[R](v.Int64()), nil
	}

	if v.Sign() < 0 || v.Cmp(new(big.Int).SetUint64(maxUnsignedForBits(bitSize(zero)))) > 0 {
		return zero, newArithError(op, ErrExceedsNumericLimits)
	}

	return fromU64[R](v.Uint64()), nil
}

func intCombine[R, A, B Scalar](op string, a A, b B, combine func(z, x, y *big.Int) *big.Int) (R, error) {
	return bigIntToR[R](op, combine(new(big.Int), bigIntValue(a), bigIntValue(b)))
}

func intDivideCombine[R, A, B Scalar](a A, b B) (R, error) {
	var zero R

	bv := bigIntValue(b)
	if bv.Sign() == 0 {
		return zero, newArithError("divide", ErrDivideByZero)
	}

	q, r := new(big.Int), new(big.Int)
	q.QuoRem(bigIntValue(a), bv, r)

	result, err := bigIntToR[R]("divide", q)
	if err != nil {
		return result, err
	}

	if r.Sign() != 0 {
		return result, newArithError("divide", ErrImplicitRounding)
	}

	return result, nil
}

func minForBits(bits int) int64 {
	switch bits {
	case 8:
		return math.MinInt8
	case 16:
		return math.MinInt16
	case 32:
		return math.MinInt32
	default:
		return math.MinInt64
	}
}

func maxForBits(bits int) int64 {
	switch bits {
	case 8:
		return math.MaxInt8
	case 16:
		return math.MaxInt16
	case 32:
		return math.MaxInt32
	default:
		return math.MaxInt64
	}
}

func maxUnsignedForBits(bits int) uint64 {
	switch bits {
	case 8:
		return math.MaxUint8
	case 16:
		return math.MaxUint16
	case 32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}
