package quoter

import (
	"context"
	"errors"
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlmmroute/pkg"
)

const (
	tokenA = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1"
	tokenB = "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2"
	tokenX = "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX3"
	tokenY = "YYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYYY4"
)

func TestQuoteDirectParsesAllPositions(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenB, "90", "25", "1", "5000", "POOL1", "25")

	d := NewDirectQuoter(gw, DefaultRegistry, nil)
	q, err := d.QuoteDirect(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.NoError(t, err)

	assert.True(t, q.IsValid)
	assert.Equal(t, "100", q.AmountIn)
	assert.Equal(t, "90", q.AmountOut)
	assert.Equal(t, "1", q.FeeAmount)
	assert.Equal(t, "0.25", q.PriceImpact)
	assert.Equal(t, uint64(5000), q.GasEstimate)
	assert.Equal(t, DefaultSlippageBps, q.SlippageBps)

	require.Equal(t, pkg.RouteTypeDirect, q.Route.Type)
	require.Len(t, q.Route.Hops, 1)
	hop := q.Route.Hops[0]
	assert.Equal(t, "POOL1", hop.PoolID)
	assert.Equal(t, tokenA, hop.TokenIn)
	assert.Equal(t, tokenB, hop.TokenOut)
	assert.Equal(t, uint16(25), hop.BinStep)
	assert.Equal(t, "90", hop.AmountOut)
}

func TestQuoteDirectDefaultsMissingPositions(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenB, "90")

	d := NewDirectQuoter(gw, DefaultRegistry, nil)
	q, err := d.QuoteDirect(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.NoError(t, err)

	assert.True(t, q.IsValid)
	assert.Equal(t, "0", q.FeeAmount)
	assert.Equal(t, "0", q.PriceImpact)
	assert.Equal(t, DefaultGasEstimate, q.GasEstimate)
	assert.Equal(t, uint16(0), q.Route.Hops[0].BinStep)
	assert.NotEmpty(t, q.Route.Hops[0].PoolID)
}

func TestQuoteDirectEmptyResultIsInvalid(t *testing.T) {
	gw := newFakeGateway()

	d := NewDirectQuoter(gw, DefaultRegistry, nil)
	q, err := d.QuoteDirect(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.NoError(t, err)

	assert.False(t, q.IsValid)
	assert.Equal(t, "0", q.AmountOut)
}

func TestQuoteDirectMalformedAmountIsInvalid(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenB, "not-a-number", "25", "1")

	d := NewDirectQuoter(gw, DefaultRegistry, nil)
	q, err := d.QuoteDirect(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.NoError(t, err)
	assert.False(t, q.IsValid)
}

func TestQuoteDirectZeroOutputIsInvalid(t *testing.T) {
	gw := newFakeGateway()
	gw.set(tokenA, tokenB, "0", "0", "0")

	d := NewDirectQuoter(gw, DefaultRegistry, nil)
	q, err := d.QuoteDirect(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.NoError(t, err)
	assert.False(t, q.IsValid)
}

func TestQuoteDirectPropagatesTransportError(t *testing.T) {
	gw := newFakeGateway()
	gw.fail(tokenA, tokenB, &pkg.TransportError{Endpoint: "rpc-1", Err: errors.New("timeout")})

	d := NewDirectQuoter(gw, DefaultRegistry, nil)
	_, err := d.QuoteDirect(context.Background(), tokenA, tokenB, cosmath.NewInt(100))
	require.Error(t, err)
	assert.True(t, pkg.IsTransport(err))
}
