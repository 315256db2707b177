package types

import "github.com/holiman/uint256"

// SaturatingSub returns a-b, clamped at zero on underflow. The settlement
// path never wraps: a cost larger than the gain yields zero, not a huge
// wrapped value.
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return uint256.NewInt(0)
	}
	return z
}

// Fraction returns x*num/den using full-width intermediate math.
// Used for slippage allowances on the integer path.
func Fraction(x *uint256.Int, num, den uint64) *uint256.Int {
	if den == 0 {
		return uint256.NewInt(0)
	}
	z := new(uint256.Int).Mul(x, uint256.NewInt(num))
	return z.Div(z, uint256.NewInt(den))
}
