// Package binmath converts between discrete bin indices and Q64.64
// fixed-point prices for DLMM pools. price(bin, step) = (1 + step/10000)^bin,
// scaled by 2^64.
package binmath

import (
	"math"
	"math/big"

	"lukechampine.com/uint128"

	"dlmmroute/pkg"
)

const (
	// BasisPointMax is the denominator for bin steps (1 bps = 1/10000).
	BasisPointMax = 10000

	// ScaleOffset is the Q64.64 fractional bit count.
	ScaleOffset = 64

	// priceBits is the working mantissa precision. 256 bits keeps the
	// relative error of the exponentiation far below one bin even at
	// |bin| = 100000.
	priceBits = 256
)

// Scale is 2^64 as a big integer; the Q64.64 "1.0".
var Scale = new(big.Int).Lsh(big.NewInt(1), ScaleOffset)

// PriceFromBin computes the Q64.64 price of a bin as an integer string.
// Defined for negative, zero and positive bin ids. For bins deep enough
// below zero the scaled price underflows the integer encoding to "0";
// such prices cannot be inverted by BinFromPrice.
func PriceFromBin(binID int32, binStepBps uint16) (string, error) {
	if err := checkBinStep(binStepBps); err != nil {
		return "", err
	}

	// base = 1 + step/10000, exact in decimal but not in binary, so all
	// arithmetic stays in 256-bit floats until the final rounding.
	base := new(big.Float).SetPrec(priceBits).Quo(
		new(big.Float).SetPrec(priceBits).SetInt64(int64(BasisPointMax)+int64(binStepBps)),
		new(big.Float).SetPrec(priceBits).SetInt64(BasisPointMax),
	)

	price := pow(base, int(binID))
	price.Mul(price, new(big.Float).SetPrec(priceBits).SetInt(Scale))

	// Round half up to the nearest integer.
	price.Add(price, big.NewFloat(0.5))
	scaled, _ := price.Int(nil)
	if scaled.Sign() < 0 {
		scaled.SetInt64(0)
	}
	return scaled.String(), nil
}

// BinFromPrice recovers the bin id of a Q64.64 price string:
// round(log(price / 2^64) / log(1 + step/10000)).
//
// The logarithm goes through a float64 mantissa, so a round-trip through
// PriceFromBin can drift by at most one bin across the supported step
// set; callers needing the exact neighbor must probe bin±1.
func BinFromPrice(price string, binStepBps uint16) (int32, error) {
	if err := checkBinStep(binStepBps); err != nil {
		return 0, err
	}

	p, ok := new(big.Float).SetPrec(priceBits).SetString(price)
	if !ok {
		return 0, pkg.NewDomainError("binmath: malformed price %q", price)
	}
	if p.Sign() <= 0 {
		return 0, pkg.NewDomainError("binmath: price must be positive, got %q", price)
	}

	// ln(p) via mantissa/exponent split: p = mant * 2^exp, mant in [0.5, 1).
	mant := new(big.Float)
	exp := p.MantExp(mant)
	m, _ := mant.Float64()
	lnPrice := math.Log(m) + float64(exp)*math.Ln2

	// Un-scale: ln(price / 2^64) = ln(price) - 64*ln(2).
	lnPrice -= ScaleOffset * math.Ln2

	lnStep := math.Log1p(float64(binStepBps) / BasisPointMax)
	bin := math.Round(lnPrice / lnStep)
	if bin > math.MaxInt32 || bin < math.MinInt32 {
		return 0, pkg.NewDomainError("binmath: price %q outside bin range", price)
	}
	return int32(bin), nil
}

// BinFromQ64Price recovers the bin id from the on-chain u128 price form.
func BinFromQ64Price(price uint128.Uint128, binStepBps uint16) (int32, error) {
	return BinFromPrice(price.String(), binStepBps)
}

func checkBinStep(binStepBps uint16) error {
	if binStepBps == 0 || binStepBps > BasisPointMax {
		return pkg.NewDomainError("binmath: bin step must be in (0, %d], got %d", BasisPointMax, binStepBps)
	}
	return nil
}

// pow raises base to an integer power by squaring. Negative exponents
// invert the positive power once at the end.
func pow(base *big.Float, n int) *big.Float {
	result := new(big.Float).SetPrec(priceBits).SetInt64(1)
	neg := n < 0
	if neg {
		n = -n
	}
	sq := new(big.Float).SetPrec(priceBits).Copy(base)
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, sq)
		}
		sq.Mul(sq, sq)
		n >>= 1
	}
	if neg {
		one := new(big.Float).SetPrec(priceBits).SetInt64(1)
		result.Quo(one, result)
	}
	return result
}
