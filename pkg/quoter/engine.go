package quoter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	cosmath "cosmossdk.io/math"

	"dlmmroute/pkg"
)

// DefaultRegistry is the mainnet pool registry object passed to the
// quoting entry point.
const DefaultRegistry = "DLMMRegstry1111111111111111111111111111111111"

// QuoteParams identifies one quote request.
type QuoteParams struct {
	TokenIn  string
	TokenOut string
	AmountIn string
}

// QuoteOptions tunes a single request. MaxHops of 1 quotes direct only;
// 2 also enumerates two-hop routes (the only multi-hop depth currently
// implemented). SlippageBps overrides the quote's slippage tolerance
// when positive. IncludeGas controls whether a missing gas estimate is
// backfilled.
type QuoteOptions struct {
	MaxHops     int
	SlippageBps int
	IncludeGas  bool
}

// DefaultQuoteOptions returns the standard per-request options.
func DefaultQuoteOptions() QuoteOptions {
	return QuoteOptions{MaxHops: 2, IncludeGas: true}
}

// DetailedQuote bundles the selected quote with its analysis and the
// alternative routes that lost the selection.
type DetailedQuote struct {
	Quote             *pkg.Quote         `json:"quote"`
	PriceImpact       PriceImpactWarning `json:"priceImpactAnalysis"`
	Slippage          SlippageConfig     `json:"slippageRecommendation"`
	AlternativeRoutes []*pkg.Quote       `json:"alternativeRoutes"`
}

// SimulationResult is the outcome of a pre-flight feasibility check.
// Warnings are non-blocking; any entry in Errors blocks execution.
type SimulationResult struct {
	CanExecute bool       `json:"canExecute"`
	Quote      *pkg.Quote `json:"quote"`
	Warnings   []string   `json:"warnings"`
	Errors     []string   `json:"errors"`
}

// Engine is the quoting facade: cache, direct resolver, multi-hop
// enumerator and scorer behind four request/response operations. It is
// stateless across calls except for the quote cache it owns; every call
// is a complete, independent cycle. Independent requests may run
// concurrently.
type Engine struct {
	cache  *Cache
	direct *DirectQuoter
	multi  *MultiHopQuoter
	scorer *Scorer
	logger *log.Logger

	registry      string
	cacheTTL      time.Duration
	intermediates []string
	weights       ScoreWeights
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the pool registry object passed to quoting calls.
func WithRegistry(registry string) Option {
	return func(e *Engine) { e.registry = registry }
}

// WithIntermediates sets the candidate intermediate tokens for two-hop
// routes.
func WithIntermediates(mints []string) Option {
	return func(e *Engine) { e.intermediates = mints }
}

// WithCacheTTL sets the quote cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.cacheTTL = ttl }
}

// WithScoreWeights sets the route-scoring policy.
func WithScoreWeights(w ScoreWeights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a quoting engine over the given gateway. The quote
// cache is created here and torn down with the engine; engines never
// share cache state, so one engine per network can coexist with others.
func NewEngine(gateway pkg.Gateway, opts ...Option) *Engine {
	e := &Engine{
		registry: DefaultRegistry,
		cacheTTL: DefaultCacheTTL,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.cache = NewCache(e.cacheTTL)
	e.direct = NewDirectQuoter(gateway, e.registry, e.logger)
	e.multi = NewMultiHopQuoter(e.direct, e.intermediates, e.logger)
	e.scorer = NewScorer(e.weights)
	return e
}

// Cache exposes the engine's quote cache, e.g. for an invalidation
// watcher.
func (e *Engine) Cache() *Cache { return e.cache }

// GetBestQuote returns the best route for the request: cached when
// fresh, otherwise enumerated (direct plus two-hop when allowed),
// scored and selected. Only valid quotes are cached; "no route" is
// cheap to recompute and caching it would pin the miss for a full TTL.
func (e *Engine) GetBestQuote(ctx context.Context, params QuoteParams, opts *QuoteOptions) (*pkg.Quote, error) {
	o := normalizeOptions(opts)

	amountIn, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	if cached, ok := e.cache.Get(params.TokenIn, params.TokenOut, params.AmountIn); ok {
		return applySlippageOverride(cached, o.SlippageBps), nil
	}

	best, _, err := e.collectQuotes(ctx, params, amountIn, o)
	if err != nil {
		return nil, err
	}

	if best.IsValid {
		e.cache.Put(params.TokenIn, params.TokenOut, params.AmountIn, best)
	}
	return applySlippageOverride(best, o.SlippageBps), nil
}

// GetDetailedQuote returns the best quote with impact analysis, a
// slippage recommendation and the valid alternatives sorted by
// descending output.
func (e *Engine) GetDetailedQuote(ctx context.Context, params QuoteParams) (*DetailedQuote, error) {
	o := normalizeOptions(nil)

	amountIn, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	best, rest, err := e.collectQuotes(ctx, params, amountIn, o)
	if err != nil {
		return nil, err
	}

	if best.IsValid {
		e.cache.Put(params.TokenIn, params.TokenOut, params.AmountIn, best)
	}

	alternatives := []*pkg.Quote{}
	for _, q := range rest {
		if q.IsValid {
			alternatives = append(alternatives, q)
		}
	}
	sortQuotesByOutput(alternatives)

	return &DetailedQuote{
		Quote:             best,
		PriceImpact:       ClassifyImpact(best),
		Slippage:          RecommendSlippage(best),
		AlternativeRoutes: alternatives,
	}, nil
}

// GetQuoteComparison quotes the pair independently for each amount and
// returns the results sorted by descending output, for studying impact
// as a function of trade size.
func (e *Engine) GetQuoteComparison(ctx context.Context, tokenIn, tokenOut string, amounts []string) ([]*pkg.Quote, error) {
	quotes := make([]*pkg.Quote, 0, len(amounts))
	for _, amount := range amounts {
		q, err := e.GetBestQuote(ctx, QuoteParams{TokenIn: tokenIn, TokenOut: tokenOut, AmountIn: amount}, nil)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].AmountOutInt().GT(quotes[j].AmountOutInt())
	})
	return quotes, nil
}

// SimulateSwap runs a pre-flight feasibility check. No executable route
// or price impact above 15% blocks execution; impact above 5% passes
// with a warning.
func (e *Engine) SimulateSwap(ctx context.Context, params QuoteParams) (*SimulationResult, error) {
	quote, err := e.GetBestQuote(ctx, params, nil)
	if err != nil {
		return nil, err
	}

	result := &SimulationResult{
		Quote:    quote,
		Warnings: []string{},
		Errors:   []string{},
	}

	if !quote.IsValid || quote.AmountOutInt().IsZero() {
		result.Errors = append(result.Errors, "no valid route found for swap")
	}

	impact := quote.PriceImpactPct()
	switch {
	case impact > blockImpactPct:
		result.Errors = append(result.Errors,
			fmt.Sprintf("price impact too high: %.2f%% exceeds the %.0f%% ceiling", impact, blockImpactPct))
	case impact > warnImpactPct:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("high price impact: %.2f%%", impact))
	}

	result.CanExecute = len(result.Errors) == 0
	return result, nil
}

// collectQuotes enumerates candidate routes, picks the best and returns
// it with the non-selected candidates. The direct leg's transport errors
// propagate; the enumerator isolates its own. A best with
// IsValid == false carries the request's identifiers.
func (e *Engine) collectQuotes(ctx context.Context, params QuoteParams, amountIn cosmath.Int, o QuoteOptions) (*pkg.Quote, []*pkg.Quote, error) {
	direct, err := e.direct.QuoteDirect(ctx, params.TokenIn, params.TokenOut, amountIn)
	if err != nil {
		return nil, nil, err
	}

	candidates := []*pkg.Quote{direct}
	if o.MaxHops >= 2 {
		candidates = append(candidates, e.multi.QuoteSingleHop(ctx, params.TokenIn, params.TokenOut, amountIn)...)
	}

	best := e.scorer.SelectBest(candidates)
	rest := make([]*pkg.Quote, 0, len(candidates))
	for _, q := range candidates {
		if q != best {
			rest = append(rest, q)
		}
	}

	if !best.IsValid {
		return pkg.InvalidQuote(params.TokenIn, params.TokenOut, params.AmountIn), rest, nil
	}

	if o.IncludeGas && best.GasEstimate == 0 {
		best = cloneQuote(best)
		best.GasEstimate = DefaultGasEstimate * uint64(len(best.Route.Hops))
	}
	return best, rest, nil
}

func normalizeOptions(opts *QuoteOptions) QuoteOptions {
	if opts == nil {
		return DefaultQuoteOptions()
	}
	o := *opts
	if o.MaxHops <= 0 {
		o.MaxHops = 2
	}
	return o
}

func parseParams(params QuoteParams) (cosmath.Int, error) {
	if params.TokenIn == "" || params.TokenOut == "" || params.TokenIn == params.TokenOut {
		return cosmath.Int{}, pkg.NewDomainError("quoter: invalid token pair %q -> %q", params.TokenIn, params.TokenOut)
	}
	amountIn, ok := cosmath.NewIntFromString(params.AmountIn)
	if !ok || !amountIn.IsPositive() {
		return cosmath.Int{}, pkg.NewDomainError("quoter: invalid amount %q", params.AmountIn)
	}
	return amountIn, nil
}

// applySlippageOverride returns the quote as-is, or a copy with the
// caller's tolerance. Cached quotes are shared, so never mutated in
// place.
func applySlippageOverride(q *pkg.Quote, slippageBps int) *pkg.Quote {
	if slippageBps <= 0 || slippageBps > 10000 || q.SlippageBps == slippageBps {
		return q
	}
	out := cloneQuote(q)
	out.SlippageBps = slippageBps
	return out
}

func cloneQuote(q *pkg.Quote) *pkg.Quote {
	out := *q
	out.Route.Hops = append([]pkg.RouteHop(nil), q.Route.Hops...)
	return &out
}
