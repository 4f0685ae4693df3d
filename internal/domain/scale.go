package domain

import "github.com/holiman/uint256"

var ten = uint256.NewInt(10)

// pow10 returns 10^n. Overflows wrap for n > 77, but precisions are
// validated to at most MaxDecimals at configuration time.
func pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(ten, uint256.NewInt(uint64(n)))
}

// MaxDecimals is the largest decimal precision accepted for an asset or
// price feed. 10^77 still fits in a 256-bit word.
const MaxDecimals = 77

// Scale converts an integer amount expressed with fromDecimals fractional
// digits into the equivalent amount with toDecimals fractional digits.
//
// Downscaling uses truncating integer division, so information below the
// target precision is discarded and the result never over-credits.
// Upscaling is exact unless the result exceeds 256 bits, in which case
// ErrArithmeticOverflow is returned.
func Scale(amount *uint256.Int, fromDecimals, toDecimals uint8) (*uint256.Int, error) {
	if fromDecimals > toDecimals {
		return new(uint256.Int).Div(amount, pow10(fromDecimals-toDecimals)), nil
	}

	scaled, overflow := new(uint256.Int).MulOverflow(amount, pow10(toDecimals-fromDecimals))
	if overflow {
		return nil, ErrArithmeticOverflow
	}

	return scaled, nil
}
