package safemath_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-score/corelibs-go/pkg/safemath"
)

func Test_Add_Unsigned_Overflow(t *testing.T) {
	_, err := safemath.Add(uint8(200), uint8(100))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Add_Signed_Within_Range(t *testing.T) {
	got, err := safemath.Add(int8(100), int8(20))
	require.NoError(t, err)
	require.Equal(t, int8(120), got)
}

func Test_Sub_Signed_Min_Overflows(t *testing.T) {
	_, err := safemath.Sub(int8(math.MinInt8), int8(1))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Sub_Unsigned_Underflow(t *testing.T) {
	_, err := safemath.Sub(uint8(1), uint8(2))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Mul_Signed_Overflow(t *testing.T) {
	_, err := safemath.Mul(int32(math.MaxInt32), int32(2))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Mul_Unsigned_Overflow(t *testing.T) {
	_, err := safemath.Mul(uint64(math.MaxUint64), uint64(2))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Mul_Negative_Times_Positive(t *testing.T) {
	got, err := safemath.Mul(int32(-5), int32(4))
	require.NoError(t, err)
	require.Equal(t, int32(-20), got)
}

func Test_Divide_NonExact_Reports_Implicit_Rounding(t *testing.T) {
	got, err := safemath.Divide(int32(7), int32(2))
	require.ErrorIs(t, err, safemath.ErrImplicitRounding)
	require.Equal(t, int32(3), got)
}

func Test_Divide_By_Zero(t *testing.T) {
	_, err := safemath.Divide(int32(1), int32(0))
	require.ErrorIs(t, err, safemath.ErrDivideByZero)
}

func Test_Divide_Float_By_Zero(t *testing.T) {
	_, err := safemath.Divide(1.0, 0.0)
	require.ErrorIs(t, err, safemath.ErrDivideByZero)
}

func Test_Divide_MinInt_By_Minus_One_Overflows(t *testing.T) {
	_, err := safemath.Divide(int32(math.MinInt32), int32(-1))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Negate_MinInt_Overflows(t *testing.T) {
	_, err := safemath.Negate(int8(math.MinInt8))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Negate_Unsigned_Zero_Is_Zero(t *testing.T) {
	got, err := safemath.Negate(uint8(0))
	require.NoError(t, err)
	require.Equal(t, uint8(0), got)
}

func Test_Negate_Unsigned_Nonzero_Overflows(t *testing.T) {
	_, err := safemath.Negate(uint8(5))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Abs_MinInt_Overflows(t *testing.T) {
	_, err := safemath.Abs(int16(math.MinInt16))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_Abs_Negative_Value(t *testing.T) {
	got, err := safemath.Abs(int16(-5))
	require.NoError(t, err)
	require.Equal(t, int16(5), got)
}

func Test_Abs_Float_Preserves_NaN(t *testing.T) {
	got, err := safemath.Abs(math.NaN())
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}

func Test_Abs_Float_Preserves_Inf_Magnitude(t *testing.T) {
	got, err := safemath.Abs(math.Inf(-1))
	require.NoError(t, err)
	require.Equal(t, math.Inf(1), got)
}

func Test_Abs_Float_Clears_Sign_Of_Negative_Zero(t *testing.T) {
	got, err := safemath.Abs(math.Copysign(0, -1))
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
	require.False(t, math.Signbit(got))
}

func Test_Negate_Float_Preserves_NaN(t *testing.T) {
	got, err := safemath.Negate(math.NaN())
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}

func Test_Negate_Float_Preserves_Inf(t *testing.T) {
	got, err := safemath.Negate(math.Inf(1))
	require.NoError(t, err)
	require.Equal(t, math.Inf(-1), got)
}

func Test_AddAs_Mixed_Unsigned_Widths_Widens_To_Wider(t *testing.T) {
	got, err := safemath.AddAs[uint16](uint8(200), uint16(100))
	require.NoError(t, err)
	require.Equal(t, uint16(300), got)
}

func Test_AddAs_Mixed_Unsigned_Overflows_Narrow_Result(t *testing.T) {
	_, err := safemath.AddAs[uint8](uint8(200), uint16(100))
	require.ErrorIs(t, err, safemath.ErrExceedsNumericLimits)
}

func Test_AddAs_Float_And_Int_Reduces_To_Float(t *testing.T) {
	got, err := safemath.AddAs[float64](1.5, int32(2))
	require.NoError(t, err)
	require.InDelta(t, 3.5, got, 0)
}

func Test_AddAs_Wide_Uint_Cast_Through_Float32_Reports_Implicit_Rounding(t *testing.T) {
	_, err := safemath.AddAs[float32](uint64(1<<33+1), float32(0))
	require.ErrorIs(t, err, safemath.ErrImplicitRounding)
}

func Test_SubAs_Mixed_Signed_Unsigned(t *testing.T) {
	got, err := safemath.SubAs[int32](int32(5), uint8(10))
	require.NoError(t, err)
	require.Equal(t, int32(-5), got)
}

func Test_MulAs_Mixed_Widths(t *testing.T) {
	got, err := safemath.MulAs[int32](int8(-5), int16(4))
	require.NoError(t, err)
	require.Equal(t, int32(-20), got)
}

func Test_DivideAs_Mixed_Widths_NonExact(t *testing.T) {
	got, err := safemath.DivideAs[int32](int32(7), int8(2))
	require.ErrorIs(t, err, safemath.ErrImplicitRounding)
	require.Equal(t, int32(3), got)
}
