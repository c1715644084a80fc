// Package safe provides overflow-checked int64 arithmetic for monetary values.
// Violations panic with a tagged message rather than returning errors: an
// arithmetic overflow in the accounting hotpath is a corruption, not a
// recoverable condition.
package safe

import (
	"math"
	"math/bits"
)

// Add performs int64 addition and panics on overflow/underflow.
func Add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic("CORE_SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// Sub performs int64 subtraction and panics on overflow/underflow.
func Sub(a, b int64) int64 {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		panic("CORE_SAFE_SUB_OVERFLOW")
	}
	return a - b
}

// Mul performs int64 multiplication and panics on overflow/underflow.
func Mul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	res := a * b
	if res/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		panic("CORE_SAFE_MUL_OVERFLOW")
	}
	return res
}

// Div performs int64 division and panics on division by zero.
func Div(a, b int64) int64 {
	if b == 0 {
		panic("CORE_SAFE_DIV_BY_ZERO")
	}
	// int64 MinInt64 / -1 also overflows.
	if a == math.MinInt64 && b == -1 {
		panic("CORE_SAFE_DIV_OVERFLOW")
	}
	return a / b
}

// MulDiv computes a*b/den for non-negative a, b with a 128-bit intermediate,
// truncating toward zero. The quote path needs the widened multiply: position
// sizes in sats times strike in micros exceeds int64 long before the final
// quotient does.
func MulDiv(a, b, den int64) int64 {
	if a < 0 || b < 0 {
		panic("CORE_SAFE_MULDIV_NEGATIVE")
	}
	if den <= 0 {
		panic("CORE_SAFE_MULDIV_DENOMINATOR")
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(den) {
		panic("CORE_SAFE_MULDIV_OVERFLOW")
	}
	quo, _ := bits.Div64(hi, lo, uint64(den))
	if quo > math.MaxInt64 {
		panic("CORE_SAFE_MULDIV_OVERFLOW")
	}
	return int64(quo)
}
