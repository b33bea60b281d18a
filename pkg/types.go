package pkg

import (
	"context"
	"strconv"

	cosmath "cosmossdk.io/math"
)

// RouteType tags how a route reaches the output token.
type RouteType string

const (
	RouteTypeDirect   RouteType = "direct"
	RouteTypeMultiHop RouteType = "multi-hop"
)

// RouteHop is one token-to-token exchange through a single pool.
type RouteHop struct {
	PoolID      string `json:"poolId"`
	TokenIn     string `json:"tokenIn"`
	TokenOut    string `json:"tokenOut"`
	BinStep     uint16 `json:"binStep"`
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	Fee         string `json:"fee"`
	PriceImpact string `json:"priceImpact"`
}

// Route is an ordered hop sequence. Invariant: hops[i].TokenOut ==
// hops[i+1].TokenIn, hops[0].TokenIn is the caller's input token and
// hops[last].TokenOut is the caller's output token.
type Route struct {
	Type RouteType  `json:"routeType"`
	Hops []RouteHop `json:"hops"`
}

// Quote is an immutable quoting result. All monetary amounts are decimal
// integer strings in the smallest token unit; PriceImpact is a percentage
// string. IsValid == false means "no executable route", not an error.
type Quote struct {
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	FeeAmount   string `json:"feeAmount"`
	PriceImpact string `json:"priceImpact"`
	GasEstimate uint64 `json:"gasEstimate"`
	Route       Route  `json:"route"`
	IsValid     bool   `json:"isValid"`
	SlippageBps int    `json:"slippageBps"`
}

// InvalidQuote returns the canonical "no route" quote for a request.
func InvalidQuote(tokenIn, tokenOut, amountIn string) *Quote {
	return &Quote{
		AmountIn:    amountIn,
		AmountOut:   "0",
		FeeAmount:   "0",
		PriceImpact: "0",
		Route: Route{
			Type: RouteTypeDirect,
			Hops: []RouteHop{},
		},
		IsValid: false,
	}
}

// AmountOutInt parses the output amount; zero on any malformed value.
func (q *Quote) AmountOutInt() cosmath.Int {
	v, ok := cosmath.NewIntFromString(q.AmountOut)
	if !ok {
		return cosmath.ZeroInt()
	}
	return v
}

// FeeAmountInt parses the fee amount; zero on any malformed value.
func (q *Quote) FeeAmountInt() cosmath.Int {
	v, ok := cosmath.NewIntFromString(q.FeeAmount)
	if !ok {
		return cosmath.ZeroInt()
	}
	return v
}

// PriceImpactPct parses the price impact percentage; zero on any
// malformed value.
func (q *Quote) PriceImpactPct() float64 {
	v, err := strconv.ParseFloat(q.PriceImpact, 64)
	if err != nil {
		return 0
	}
	return v
}

// RawCallResult is the ordered value list returned by a simulated
// contract call. Positions are a fixed convention between the contract
// and the resolver; absent positions fall back to caller defaults.
type RawCallResult struct {
	Values []string `json:"values"`
}

// Value returns the value at position i, or def when the position is
// absent or empty.
func (r *RawCallResult) Value(i int, def string) string {
	if r == nil || i < 0 || i >= len(r.Values) || r.Values[i] == "" {
		return def
	}
	return r.Values[i]
}

// Gateway is the ledger boundary: a read-only simulated invocation of a
// contract entry point. Implementations return *TransportError when the
// query could not be executed at all; a call that ran but produced no
// usable result returns an empty RawCallResult and no error.
type Gateway interface {
	SimulateCall(ctx context.Context, entry string, typeArgs, args []string) (*RawCallResult, error)
}
