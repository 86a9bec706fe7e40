package safemath

import "math"

// Cast converts value of type T to type R, reporting when the conversion
// exceeds R's numeric range or silently rounds. It never panics.
//
// Four source/destination category pairs are handled:
//
//   - int -> int: bounds check only, no rounding is possible.
//   - float -> float: range check against R's finite bounds, then a
//     tolerance-0 round trip to catch narrowing (e.g. float64 -> float32)
//     that silently rounds a value R cannot represent exactly.
//   - float -> int: NaN/Inf reported as ErrExceedsNumericLimits, then the
//     same range classification CmpLt uses, then a round trip at a 4-ULP
//     tolerance (mirroring the original FPU-inexact-flag check, which the
//     round trip already makes redundant; see FpEnv) to catch truncation.
//   - int -> float: bounds check (relevant only for int64/uint64 -> float32,
//     where R's finite range can be smaller than T's), then a tolerance-0
//     round trip to catch precision loss on wide integers.
func Cast[R Scalar, T Scalar](value T) (R, error) {
	var zero R

	switch {
	case !isFloat(value) && !isFloat(zero):
		return castIntToInt[R](value)
	case isFloat(value) && isFloat(zero):
		return castFloatToFloat[R](value)
	case isFloat(value):
		return castFloatToInt[R](value)
	default:
		return castIntToFloat[R](value)
	}
}

func castIntToInt[R Scalar, T Scalar](value T) (R, error) {
	var zero R

	if isSigned(value) {
		v := toI64(value)
		if inRangeSignedToR(v, zero) {
			return fromI64[R](v), nil
		}

		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	v := toU64(value)
	if inRangeUnsignedToR(v, zero) {
		return fromU64[R](v), nil
	}

	return zero, newArithError("cast", ErrExceedsNumericLimits)
}

func castFloatToFloat[R Scalar, T Scalar](value T) (R, error) {
	var zero R

	f := toF64(value)
	if math.IsNaN(f) {
		return fromF64[R](f), nil
	}

	if inf, sign := isInf(value); inf {
		return fromF64[R](math.Inf(sign)), nil
	}

	if bitSize(zero) >= bitSize(value) {
		return fromF64[R](f), nil
	}

	// Narrowing (float64 -> float32): range check, then round-trip at
	// tolerance 0 to detect silent precision loss.
	if f > math.MaxFloat32 || f < -math.MaxFloat32 {
		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	narrowed := float32(f)
	result := fromF64[R](float64(narrowed))

	if !CmpEq(float64(narrowed), f, 0) {
		return result, newArithError("cast", ErrImplicitRounding)
	}

	return result, nil
}

func castFloatToInt[R Scalar, T Scalar](value T) (R, error) {
	var zero R

	f := toF64(value)
	if math.IsNaN(f) {
		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	if inf, _ := isInf(value); inf {
		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	if isSigned(zero) {
		below, above := classifyToInt64(f)
		if below || above {
			return zero, newArithError("cast", ErrExceedsNumericLimits)
		}

		rounded := int64(math.Round(f))
		if !inRangeSignedToR(rounded, zero) {
			return zero, newArithError("cast", ErrExceedsNumericLimits)
		}

		result := fromI64[R](rounded)

		if !CmpEq(f, rounded, 4) {
			return result, newArithError("cast", ErrImplicitRounding)
		}

		return result, nil
	}

	below, above := classifyToUint64(f)
	if below || above {
		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	rounded := uint64(math.Round(f))
	if !inRangeUnsignedToR(rounded, zero) {
		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	result := fromU64[R](rounded)

	if !CmpEq(f, rounded, 4) {
		return result, newArithError("cast", ErrImplicitRounding)
	}

	return result, nil
}

func castIntToFloat[R Scalar, T Scalar](value T) (R, error) {
	var zero R

	f := toF64(value)

	if bitSize(zero) >= 64 {
		result := fromF64[R](f)

		if !CmpEq(f, value, 0) {
			return result, newArithError("cast", ErrImplicitRounding)
		}

		return result, nil
	}

	// R is float32: range check against its finite bounds, then round trip.
	if f > math.MaxFloat32 || f < -math.MaxFloat32 {
		return zero, newArithError("cast", ErrExceedsNumericLimits)
	}

	narrowed := float32(f)
	result := fromF64[R](float64(narrowed))

	if !CmpEq(float64(narrowed), value, 0) {
		return result, newArithError("cast", ErrImplicitRounding)
	}

	return result, nil
}

func inRangeSignedToR[R Scalar](v int64, _ R) bool {
	var zero R

	switch bitSize(zero) {
	case 8:
		if isSigned(zero) {
			return v >= math.MinInt8 && v <= math.MaxInt8
		}

		return v >= 0 && v <= math.MaxUint8
	case 16:
		if isSigned(zero) {
			return v >= math.MinInt16 && v <= math.MaxInt16
		}

		return v >= 0 && v <= math.MaxUint16
	case 32:
		if isSigned(zero) {
			return v >= math.MinInt32 && v <= math.MaxInt32
		}

		return v >= 0 && v <= math.MaxUint32
	default:
		if isSigned(zero) {
			return true
		}

		return v >= 0
	}
}

func inRangeUnsignedToR[R Scalar](v uint64, _ R) bool {
	var zero R

	switch bitSize(zero) {
	case 8:
		if isSigned(zero) {
			return v <= math.MaxInt8
		}

		return v <= math.MaxUint8
	case 16:
		if isSigned(zero) {
			return v <= math.MaxInt16
		}

		return v <= math.MaxUint16
	case 32:
		if isSigned(zero) {
			return v <= math.MaxInt32
		}

		return v <= math.MaxUint32
	default:
		if isSigned(zero) {
			return v <= math.MaxInt64
		}

		return true
	}
}

func fromI64[R Scalar](v int64) R {
	var zero R

	switch any(zero).(type) {
	case int8:
		return any(int8(v)).(R)
	case int16:
		return any(int16(v)).(R)
	case int32:
		return any(int32(v)).(R)
	case int64:
		return any(v).(R)
	case uint8:
		return any(uint8(v)).(R) //nolint:gosec // range-checked by caller
	case uint16:
		return any(uint16(v)).(R) //nolint:gosec // range-checked by caller
	case uint32:
		return any(uint32(v)).(R) //nolint:gosec // range-checked by caller
	case uint64:
		return any(uint64(v)).(R) //nolint:gosec // range-checked by caller
	default:
		panic("safemath: unreachable integer type")
	}
}

func fromU64[R Scalar](v uint64) R {
	var zero R

	switch any(zero).(type) {
	case int8:
		return any(int8(v)).(R) //nolint:gosec // range-checked by caller
	case int16:
		return any(int16(v)).(R) //nolint:gosec // range-checked by caller
	case int32:
		return any(int32(v)).(R) //nolint:gosec // range-checked by caller
	case int64:
		return any(int64(v)).(R) //nolint:gosec // range-checked by caller
	case uint8:
		return any(uint8(v)).(R)
	case uint16:
		return any(uint16(v)).(R)
	case uint32:
		return any(uint32(v)).(R)
	case uint64:
		return any(v).(R)
	default:
		panic("safemath: unreachable integer type")
	}
}

func fromF64[R Scalar](v float64) R {
	var zero R

	switch any(zero).(type) {
	case float32:
		return any(float32(v)).(R)
	case float64:
		return any(v).(R)
	default:
		panic("safemath: unreachable float type")
	}
}
