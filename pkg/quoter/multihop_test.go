package quoter

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlmmroute/pkg"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestMultiHop(gw pkg.Gateway, intermediates []string) *MultiHopQuoter {
	direct := NewDirectQuoter(gw, DefaultRegistry, quietLogger())
	return NewMultiHopQuoter(direct, intermediates, quietLogger())
}

func TestQuoteSingleHopComposesRoute(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenX, "90", "25", "1")
	gw.set(tokenX, tokenB, "80", "50", "1")

	m := newTestMultiHop(gw, []string{tokenX})
	quotes := m.QuoteSingleHop(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.True(t, q.IsValid)
	assert.Equal(t, "100", q.AmountIn)
	assert.Equal(t, "80", q.AmountOut)
	assert.Equal(t, "2", q.FeeAmount)
	assert.Equal(t, "0.75", q.PriceImpact)
	assert.Equal(t, 2*DefaultGasEstimate, q.GasEstimate)
	assert.Equal(t, DefaultSlippageBps, q.SlippageBps)

	require.Equal(t, pkg.RouteTypeMultiHop, q.Route.Type)
	require.Len(t, q.Route.Hops, 2)
	assert.Equal(t, tokenA, q.Route.Hops[0].TokenIn)
	assert.Equal(t, tokenX, q.Route.Hops[0].TokenOut)
	assert.Equal(t, tokenX, q.Route.Hops[1].TokenIn)
	assert.Equal(t, tokenB, q.Route.Hops[1].TokenOut)

	// The second leg is fed the first leg's output.
	assert.Equal(t, "90", q.Route.Hops[1].AmountIn)
}

func TestQuoteSingleHopSortsByOutput(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenX, "90", "25", "1")
	gw.set(tokenX, tokenB, "80", "25", "1")
	gw.set(tokenA, tokenY, "95", "25", "1")
	gw.set(tokenY, tokenB, "85", "25", "1")

	m := newTestMultiHop(gw, []string{tokenX, tokenY})
	quotes := m.QuoteSingleHop(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.Len(t, quotes, 2)

	assert.Equal(t, "85", quotes[0].AmountOut)
	assert.Equal(t, "80", quotes[1].AmountOut)
}

func TestQuoteSingleHopTieBreakIsDeterministic(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenX, "90", "25", "1")
	gw.set(tokenX, tokenB, "80", "25", "1")
	gw.set(tokenA, tokenY, "90", "25", "1")
	gw.set(tokenY, tokenB, "80", "25", "1")

	m := newTestMultiHop(gw, []string{tokenY, tokenX})
	for i := 0; i < 10; i++ {
		quotes := m.QuoteSingleHop(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
		require.Len(t, quotes, 2)
		assert.Equal(t, tokenX, quotes[0].Route.Hops[0].TokenOut)
		assert.Equal(t, tokenY, quotes[1].Route.Hops[0].TokenOut)
	}
}

func TestQuoteSingleHopIsolatesFailingIntermediate(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenX, "90", "25", "1")
	gw.set(tokenX, tokenB, "80", "25", "1")
	gw.fail(tokenA, tokenY, &pkg.TransportError{Endpoint: "rpc-1", Err: errors.New("timeout")})

	m := newTestMultiHop(gw, []string{tokenX, tokenY})
	quotes := m.QuoteSingleHop(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.Len(t, quotes, 1)
	assert.Equal(t, "80", quotes[0].AmountOut)
}

func TestQuoteSingleHopSkipsInvalidLegs(t *testing.T) {
	gw := newFakeGateway()
	// First leg quotes fine but the second leg has no liquidity.
	gw.set(tokenA, tokenX, "90", "25", "1")

	m := newTestMultiHop(gw, []string{tokenX})
	quotes := m.QuoteSingleHop(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	assert.Empty(t, quotes)
}

func TestQuoteSingleHopSkipsEndpointTokens(t *testing.T) {
	gw := newFakeGateway()

	m := newTestMultiHop(gw, []string{tokenA, tokenB})
	quotes := m.QuoteSingleHop(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	assert.Empty(t, quotes)
	assert.Equal(t, 0, gw.callCount())
}
