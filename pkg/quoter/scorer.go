package quoter

import (
	"strconv"

	"dlmmroute/pkg"
)

// ScoreWeights is the route-scoring policy. The defaults weight gas far
// below fees (it is a secondary cost signal) and price impact heavily,
// to strongly penalize routes with material market impact. Tunable
// policy, not a physical law.
type ScoreWeights struct {
	Fee    float64
	Gas    float64
	Impact float64
}

// DefaultScoreWeights returns the standard scoring policy.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Fee: 1, Gas: 0.001, Impact: 1000}
}

// Scorer ranks candidate quotes by a single scalar score.
type Scorer struct {
	weights ScoreWeights
}

// NewScorer creates a scorer; zero-valued weights fall back to defaults.
func NewScorer(weights ScoreWeights) *Scorer {
	if weights == (ScoreWeights{}) {
		weights = DefaultScoreWeights()
	}
	return &Scorer{weights: weights}
}

// Score computes amountOut - w.Fee*fee - w.Gas*gas - w.Impact*impactPct.
func (s *Scorer) Score(q *pkg.Quote) float64 {
	amountOut := parseAmountFloat(q.AmountOut)
	fee := parseAmountFloat(q.FeeAmount)
	return amountOut -
		s.weights.Fee*fee -
		s.weights.Gas*float64(q.GasEstimate) -
		s.weights.Impact*q.PriceImpactPct()
}

// SelectBest filters to valid quotes and returns the highest-scoring
// one; ties keep the first-seen entry, so selection is deterministic for
// a given input order. With no valid candidates it returns the canonical
// invalid quote.
func (s *Scorer) SelectBest(quotes []*pkg.Quote) *pkg.Quote {
	var best *pkg.Quote
	var bestScore float64

	for _, q := range quotes {
		if q == nil || !q.IsValid {
			continue
		}
		score := s.Score(q)
		if best == nil || score > bestScore {
			best = q
			bestScore = score
		}
	}

	if best == nil {
		return pkg.InvalidQuote("", "", "0")
	}
	return best
}

func parseAmountFloat(amount string) float64 {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return v
}
