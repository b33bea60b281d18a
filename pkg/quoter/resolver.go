// Package quoter implements route discovery and quoting for DLMM pools:
// direct quotes through the contract's quoting entry point, two-hop route
// enumeration through intermediate tokens, route scoring, price-impact
// analysis and a TTL quote cache behind a single engine facade.
package quoter

import (
	"context"
	"fmt"
	"log"
	"strconv"

	cosmath "cosmossdk.io/math"

	"dlmmroute/pkg"
)

const (
	// QuoteEntryPoint is the contract entry point answering exact-in
	// pricing queries.
	QuoteEntryPoint = "quote_exact_in"

	// DefaultGasEstimate is the preset per-hop gas figure used when the
	// gateway does not report one.
	DefaultGasEstimate uint64 = 100_000

	// DefaultSlippageBps is the baseline slippage tolerance attached to
	// quotes (50 bps = 0.5%).
	DefaultSlippageBps = 50
)

// Positional layout of a quoting entry point's return values. Positions
// 4 and 5 are optional extensions; everything absent or malformed falls
// back to a default instead of failing the quote.
const (
	posAmountOut = iota
	posImpactBps
	posFeeAmount
	posGasEstimate
	posPoolID
	posBinStep
)

// DirectQuoter resolves single-hop quotes against the ledger gateway.
// All "trust but verify" parsing of raw gateway values lives here; the
// rest of the package only ever sees validated quotes.
type DirectQuoter struct {
	gateway  pkg.Gateway
	registry string
	logger   *log.Logger
}

// NewDirectQuoter creates a resolver quoting against the given pool
// registry object.
func NewDirectQuoter(gateway pkg.Gateway, registry string, logger *log.Logger) *DirectQuoter {
	if logger == nil {
		logger = log.Default()
	}
	return &DirectQuoter{gateway: gateway, registry: registry, logger: logger}
}

// QuoteDirect obtains a single-hop quote for the pair. A malformed or
// empty gateway response produces an invalid quote (IsValid == false),
// never an error: "no route" is an expected market condition. The error
// return is reserved for transport failures, where the query may never
// have run at all.
func (d *DirectQuoter) QuoteDirect(ctx context.Context, tokenIn, tokenOut string, amountIn cosmath.Int) (*pkg.Quote, error) {
	res, err := d.gateway.SimulateCall(ctx,
		QuoteEntryPoint,
		[]string{tokenIn, tokenOut},
		[]string{d.registry, amountIn.String()},
	)
	if err != nil {
		return nil, err
	}

	amountOut, ok := cosmath.NewIntFromString(res.Value(posAmountOut, "0"))
	if !ok || !amountOut.IsPositive() {
		return pkg.InvalidQuote(tokenIn, tokenOut, amountIn.String()), nil
	}

	fee, ok := cosmath.NewIntFromString(res.Value(posFeeAmount, "0"))
	if !ok {
		fee = cosmath.ZeroInt()
	}

	// Impact arrives in basis points; quotes carry percent.
	impactBps, err := strconv.ParseInt(res.Value(posImpactBps, "0"), 10, 64)
	if err != nil || impactBps < 0 {
		impactBps = 0
	}
	impact := formatImpactPct(float64(impactBps) / 100)

	gas, err := strconv.ParseUint(res.Value(posGasEstimate, ""), 10, 64)
	if err != nil {
		gas = DefaultGasEstimate
	}

	poolID := res.Value(posPoolID, fmt.Sprintf("%s/%s", shortToken(tokenIn), shortToken(tokenOut)))

	binStep64, err := strconv.ParseUint(res.Value(posBinStep, "0"), 10, 16)
	if err != nil {
		binStep64 = 0 // unreported
	}

	return &pkg.Quote{
		AmountIn:    amountIn.String(),
		AmountOut:   amountOut.String(),
		FeeAmount:   fee.String(),
		PriceImpact: impact,
		GasEstimate: gas,
		Route: pkg.Route{
			Type: pkg.RouteTypeDirect,
			Hops: []pkg.RouteHop{{
				PoolID:      poolID,
				TokenIn:     tokenIn,
				TokenOut:    tokenOut,
				BinStep:     uint16(binStep64),
				AmountIn:    amountIn.String(),
				AmountOut:   amountOut.String(),
				Fee:         fee.String(),
				PriceImpact: impact,
			}},
		},
		IsValid:     true,
		SlippageBps: DefaultSlippageBps,
	}, nil
}

func formatImpactPct(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64)
}

func shortToken(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:8]
}
