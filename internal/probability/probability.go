// Package probability computes breakevens and lognormal probability-of-profit
// estimates for option leg sets.
package probability

import (
	"fmt"
	"math"
	"sort"

	"options-risk/internal/errors"
	"options-risk/internal/models"
	"options-risk/internal/pricing"
)

// FallbackProbability is reported for breakeven shapes the model does not cover.
const FallbackProbability = 0.5

// Breakevens returns the breakeven prices of the legs.
//
// A single leg breaks even at strike ± premium per share. For multi-leg sets
// the distinct strikes stand in for breakevens (an approximation: solving
// total P&L = 0 is not attempted). More than two distinct strikes collapse to
// the outermost pair so range strategies always yield [lo, hi].
func Breakevens(legs []models.OptionPosition) ([]float64, error) {
	if len(legs) == 0 {
		return nil, errors.ErrNoLegs
	}

	if len(legs) == 1 {
		leg := legs[0]
		perShare := leg.Premium / models.ContractMultiplier
		if leg.Kind == models.Put {
			return []float64{leg.Strike - perShare}, nil
		}
		return []float64{leg.Strike + perShare}, nil
	}

	seen := make(map[float64]struct{}, len(legs))
	strikes := make([]float64, 0, len(legs))
	for _, leg := range legs {
		if _, ok := seen[leg.Strike]; ok {
			continue
		}
		seen[leg.Strike] = struct{}{}
		strikes = append(strikes, leg.Strike)
	}
	sort.Float64s(strikes)

	if len(strikes) > 2 {
		strikes = []float64{strikes[0], strikes[len(strikes)-1]}
	}
	return strikes, nil
}

// ProbabilityOfProfit estimates the chance the position is profitable at
// expiration, assuming a lognormal terminal price centred on the current price.
//
// One breakeven above the current price is bullish (P(S > b)); at or below it
// is bearish (P(S < b)). Two breakevens give the probability of finishing
// between them. Any other count returns FallbackProbability.
func ProbabilityOfProfit(currentPrice float64, breakevens []float64, volatility float64, daysToExpiry int) (float64, error) {
	if volatility <= 0 || math.IsNaN(volatility) || math.IsInf(volatility, 0) {
		return 0, fmt.Errorf("%w: got %v", errors.ErrInvalidVolatility, volatility)
	}
	if currentPrice <= 0 || math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) {
		return 0, errors.NewValidationError("current_price", currentPrice, "must be positive")
	}
	if daysToExpiry < 1 {
		daysToExpiry = 1
	}

	mu := math.Log(currentPrice)
	sigma := volatility * math.Sqrt(float64(daysToExpiry)/365)
	z := func(b float64) float64 {
		if b <= 0 {
			return math.Inf(-1)
		}
		return (math.Log(b) - mu) / sigma
	}

	var pop float64
	switch len(breakevens) {
	case 1:
		b := breakevens[0]
		if b > currentPrice {
			pop = 1 - pricing.NormCDF(z(b))
		} else {
			pop = pricing.NormCDF(z(b))
		}
	case 2:
		lo, hi := breakevens[0], breakevens[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		pop = pricing.NormCDF(z(hi)) - pricing.NormCDF(z(lo))
	default:
		pop = FallbackProbability
	}

	return Clamp(pop), nil
}

// Clamp bounds p to [0, 1], mapping NaN to 0.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// EarlyExitEstimator estimates the probability of reaching a profit target
// before expiration.
type EarlyExitEstimator interface {
	EarlyExit(legs []models.OptionPosition) (models.EarlyExitProbabilities, error)
}

// PlaceholderEarlyExit reports a fixed probability for every profit target.
// It marks where a Monte-Carlo estimator belongs; the value is not modelled.
type PlaceholderEarlyExit struct {
	Probability float64
}

// EarlyExit implements EarlyExitEstimator.
func (p PlaceholderEarlyExit) EarlyExit(legs []models.OptionPosition) (models.EarlyExitProbabilities, error) {
	v := Clamp(p.Probability)
	return models.EarlyExitProbabilities{
		ProfitTarget25: v,
		ProfitTarget50: v,
	}, nil
}
