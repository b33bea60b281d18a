package quoter

import (
	"context"
	"log"
	"sort"
	"sync"

	"dlmmroute/pkg"

	cosmath "cosmossdk.io/math"
)

// Well-known routing hubs used as default intermediates.
var DefaultIntermediates = []string{
	"So11111111111111111111111111111111111111112",  // WSOL
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", // USDT
}

// MultiHopQuoter composes two direct quotes through a fixed candidate
// set of intermediate tokens.
type MultiHopQuoter struct {
	direct        *DirectQuoter
	intermediates []string
	logger        *log.Logger
}

// NewMultiHopQuoter creates an enumerator over the given intermediates
// (DefaultIntermediates when empty).
func NewMultiHopQuoter(direct *DirectQuoter, intermediates []string, logger *log.Logger) *MultiHopQuoter {
	if len(intermediates) == 0 {
		intermediates = DefaultIntermediates
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MultiHopQuoter{direct: direct, intermediates: intermediates, logger: logger}
}

// QuoteSingleHop evaluates every candidate intermediate concurrently and
// returns the resulting two-hop quotes sorted by descending output.
// Candidates are independent: an invalid hop, zero output, or even a
// transport failure on one intermediate never aborts the others. The
// returned list may be empty.
func (m *MultiHopQuoter) QuoteSingleHop(ctx context.Context, tokenIn, tokenOut string, amountIn cosmath.Int) []*pkg.Quote {
	resultChan := make(chan *pkg.Quote, len(m.intermediates))
	var wg sync.WaitGroup

	for _, mint := range m.intermediates {
		if mint == tokenIn || mint == tokenOut {
			continue
		}
		wg.Add(1)
		go func(via string) {
			defer wg.Done()
			if q := m.quoteVia(ctx, tokenIn, tokenOut, via, amountIn); q != nil {
				resultChan <- q
			}
		}(mint)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var quotes []*pkg.Quote
	for q := range resultChan {
		quotes = append(quotes, q)
	}

	sortQuotesByOutput(quotes)
	return quotes
}

// quoteVia evaluates one intermediate: tokenIn -> via -> tokenOut, the
// second hop fed by the first hop's output. Returns nil when the
// intermediate yields no executable two-hop route.
func (m *MultiHopQuoter) quoteVia(ctx context.Context, tokenIn, tokenOut, via string, amountIn cosmath.Int) *pkg.Quote {
	first, err := m.direct.QuoteDirect(ctx, tokenIn, via, amountIn)
	if err != nil {
		m.logger.Printf("intermediate %s unavailable (%s leg): %v", shortToken(via), shortToken(tokenIn), err)
		return nil
	}
	if !first.IsValid || first.AmountOutInt().IsZero() {
		return nil
	}

	second, err := m.direct.QuoteDirect(ctx, via, tokenOut, first.AmountOutInt())
	if err != nil {
		m.logger.Printf("intermediate %s unavailable (%s leg): %v", shortToken(via), shortToken(tokenOut), err)
		return nil
	}
	if !second.IsValid || second.AmountOutInt().IsZero() {
		return nil
	}

	return combineHops(first, second)
}

// combineHops merges two direct quotes into one multi-hop quote.
//
// Price impact is combined additively. The compounding form
// 1-(1-i1)*(1-i2) would be more exact, but the additive figure is the
// established contract with downstream consumers and errs conservative.
func combineHops(first, second *pkg.Quote) *pkg.Quote {
	fee := first.FeeAmountInt().Add(second.FeeAmountInt())
	impact := formatImpactPct(first.PriceImpactPct() + second.PriceImpactPct())

	slippage := first.SlippageBps
	if second.SlippageBps > slippage {
		slippage = second.SlippageBps
	}

	hops := make([]pkg.RouteHop, 0, len(first.Route.Hops)+len(second.Route.Hops))
	hops = append(hops, first.Route.Hops...)
	hops = append(hops, second.Route.Hops...)

	return &pkg.Quote{
		AmountIn:    first.AmountIn,
		AmountOut:   second.AmountOut,
		FeeAmount:   fee.String(),
		PriceImpact: impact,
		GasEstimate: first.GasEstimate + second.GasEstimate,
		Route: pkg.Route{
			Type: pkg.RouteTypeMultiHop,
			Hops: hops,
		},
		IsValid:     true,
		SlippageBps: slippage,
	}
}

// sortQuotesByOutput orders quotes by descending output amount. Ties
// break on the first hop's output token so repeated enumerations of the
// same market state produce the same ordering regardless of goroutine
// completion order.
func sortQuotesByOutput(quotes []*pkg.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		oi, oj := quotes[i].AmountOutInt(), quotes[j].AmountOutInt()
		if !oi.Equal(oj) {
			return oi.GT(oj)
		}
		return firstHopOut(quotes[i]) < firstHopOut(quotes[j])
	})
}

func firstHopOut(q *pkg.Quote) string {
	if len(q.Route.Hops) == 0 {
		return ""
	}
	return q.Route.Hops[0].TokenOut
}
