package safemath_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-score/corelibs-go/pkg/safemath"
)

func Test_CmpEq_Mixed_Signed_And_Unsigned_Integers(t *testing.T) {
	require.True(t, safemath.CmpEq(int64(5), uint32(5), 0))
	require.False(t, safemath.CmpEq(int64(-1), uint32(1), 0))
}

func Test_CmpEq_Float_And_Integer_Exact(t *testing.T) {
	require.True(t, safemath.CmpEq(1.0, int64(1), 0))
	require.False(t, safemath.CmpEq(1.5, int64(1), 0))
}

func Test_CmpEq_Float_And_Integer_Within_Tolerance(t *testing.T) {
	nearOne := math.Nextafter(1.0, 0)
	require.False(t, safemath.CmpEq(nearOne, int64(1), 0))
	require.True(t, safemath.CmpEq(nearOne, int64(1), 1))
}

func Test_CmpEq_NaN_Is_Always_False(t *testing.T) {
	require.False(t, safemath.CmpEq(math.NaN(), 1.0, 0))
	require.True(t, safemath.CmpNe(math.NaN(), 1.0, 0))
}

func Test_CmpLt_Float_Vs_Signed_Integer(t *testing.T) {
	require.True(t, safemath.CmpLt(-1.1, int32(-1)))
	require.False(t, safemath.CmpLt(int32(-1), -1.1))
}

func Test_CmpLt_Handles_Floor_Ceil_Asymmetry(t *testing.T) {
	require.True(t, safemath.CmpLt(2.5, int64(3)))
	require.False(t, safemath.CmpLt(int64(3), 2.5))
	require.True(t, safemath.CmpLt(int64(2), 2.5))
}

func Test_CmpLt_Unsigned_Cannot_Be_Less_Than_Negative_Signed(t *testing.T) {
	require.False(t, safemath.CmpLt(uint8(0), int8(-1)))
	require.True(t, safemath.CmpLt(int8(-1), uint8(0)))
}

func Test_CmpGt_Is_Mirror_Of_CmpLt(t *testing.T) {
	require.True(t, safemath.CmpGt(int64(5), int64(3)))
	require.False(t, safemath.CmpGt(int64(3), int64(5)))
}

func Test_CmpGe_And_CmpLe_Agree_With_CmpEq_On_Equal_Values(t *testing.T) {
	require.True(t, safemath.CmpGe(int64(5), int64(5)))
	require.True(t, safemath.CmpLe(int64(5), int64(5)))
}

func Test_CmpLt_Float_Beyond_Int64_Range_Classifies_As_Above(t *testing.T) {
	huge := 1.0e20
	require.False(t, safemath.CmpLt(huge, int64(math.MaxInt64)))
	require.True(t, safemath.CmpLt(int64(math.MaxInt64), huge))
}
