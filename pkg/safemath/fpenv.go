package safemath

import "math"

// FpEnv scopes a single floating-point calculation so its caller can ask
// afterward whether the result silently overflowed, underflowed, or hit a
// domain error (e.g. 0/0), the way the original's FE_* exception flags did.
//
// Go has no cgo-free, portable way to read the hardware FPU exception flags
// (no fetestexcept/feclearexcept equivalent in the standard library). Rather
// than reach for cgo, FpEnv derives the same facts from values already in
// hand: Go's math package returns NaN/Inf for domain errors and overflow
// instead of raising a trap, so a scoped check of the result against those
// sentinels stands in for the hardware flags. Only the final result is
// inspected: a NaN or ±Inf result sets a flag even when an operand already
// was NaN or ±Inf, and an intermediate step inside fn that overflows or
// underflows goes unseen unless the result shows it.
// CalculateAndVerify is the single entry point that performs this check;
// Clear/Test exist so call sites that want the original's
// clear-then-calculate-then-test shape can still write it that way.
type FpEnv struct {
	overflow  bool
	underflow bool
	invalid   bool
}

// NewFpEnv returns a clear environment.
func NewFpEnv() *FpEnv {
	return &FpEnv{}
}

// Clear resets all flags.
func (e *FpEnv) Clear() {
	e.overflow = false
	e.underflow = false
	e.invalid = false
}

// Test returns the sentinel error matching whichever flag is set, in
// invalid/overflow/underflow priority order, or nil if none are set. The
// caller wraps the result in an [ArithError] naming its own operation.
func (e *FpEnv) Test() error {
	switch {
	case e.invalid:
		return ErrExceedsNumericLimits
	case e.overflow:
		return ErrExceedsNumericLimits
	case e.underflow:
		return ErrImplicitRounding
	default:
		return nil
	}
}

// observe inspects result and sets the matching flag(s).
func (e *FpEnv) observe(result float64) {
	if math.IsNaN(result) {
		e.invalid = true

		return
	}

	if math.IsInf(result, 0) {
		e.overflow = true

		return
	}

	if result != 0 && math.Abs(result) < math.SmallestNonzeroFloat64*(1<<52) {
		e.underflow = true
	}
}

// CalculateAndVerify clears the environment, runs fn, records what fn's
// result implies about overflow/underflow/invalid, and returns (fn's
// result, Test()).
func CalculateAndVerify[F Float](e *FpEnv, fn func() F) (F, error) {
	e.Clear()

	result := fn()
	e.observe(toF64(result))

	return result, e.Test()
}
