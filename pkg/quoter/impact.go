package quoter

import (
	"fmt"
	"math"

	cosmath "cosmossdk.io/math"

	"dlmmroute/pkg"
)

// ImpactLevel is a severity tier for a quote's price impact.
type ImpactLevel string

const (
	ImpactLow     ImpactLevel = "low"
	ImpactMedium  ImpactLevel = "medium"
	ImpactHigh    ImpactLevel = "high"
	ImpactExtreme ImpactLevel = "extreme"
)

// PriceImpactWarning classifies a quote's price impact.
type PriceImpactWarning struct {
	Level      ImpactLevel `json:"level"`
	Percentage float64     `json:"percentage"`
	Message    string      `json:"message"`
	ShouldWarn bool        `json:"shouldWarn"`
}

// SlippageConfig is a recommended slippage setting for a quote.
type SlippageConfig struct {
	ToleranceBps int  `json:"toleranceBps"`
	Auto         bool `json:"autoSlippage"`
	MaxBps       int  `json:"maxSlippageBps"`
}

const (
	baseSlippageBps = 50
	capSlippageBps  = 500
	maxSlippageBps  = 1000

	warnImpactPct  = 5.0
	blockImpactPct = 15.0
)

// ClassifyImpact buckets a quote's price impact:
// <0.1% low, <1% medium, <5% high, otherwise extreme.
func ClassifyImpact(q *pkg.Quote) PriceImpactWarning {
	pct := q.PriceImpactPct()

	var level ImpactLevel
	var message string
	switch {
	case pct < 0.1:
		level = ImpactLow
		message = "price impact within normal range"
	case pct < 1:
		level = ImpactMedium
		message = fmt.Sprintf("moderate price impact: %.2f%%", pct)
	case pct < 5:
		level = ImpactHigh
		message = fmt.Sprintf("high price impact: %.2f%%", pct)
	default:
		level = ImpactExtreme
		message = fmt.Sprintf("extreme price impact: %.2f%%, consider reducing trade size", pct)
	}

	return PriceImpactWarning{
		Level:      level,
		Percentage: pct,
		Message:    message,
		ShouldWarn: level != ImpactLow,
	}
}

// RecommendSlippage derives a slippage tolerance from price impact.
// Within a single bin DLMM swaps have negligible slippage, so the base
// 50 bps only grows once impact shows the trade crossing multiple bins.
func RecommendSlippage(q *pkg.Quote) SlippageConfig {
	pct := q.PriceImpactPct()

	tolerance := baseSlippageBps
	auto := false
	if pct > 1 {
		tolerance = int(math.Min(baseSlippageBps+pct*10, capSlippageBps))
		auto = true
	}

	return SlippageConfig{
		ToleranceBps: tolerance,
		Auto:         auto,
		MaxBps:       maxSlippageBps,
	}
}

// MinimumOutput floors the guaranteed output for a slippage tolerance:
// floor(amountOut * (10000 - slippageBps) / 10000). Equal to amountOut
// at zero slippage, strictly below it for any positive tolerance on a
// positive amount.
func MinimumOutput(q *pkg.Quote, slippageBps int) cosmath.Int {
	if slippageBps < 0 {
		slippageBps = 0
	}
	if slippageBps > 10000 {
		slippageBps = 10000
	}
	return q.AmountOutInt().
		Mul(cosmath.NewInt(int64(10000 - slippageBps))).
		Quo(cosmath.NewInt(10000))
}
