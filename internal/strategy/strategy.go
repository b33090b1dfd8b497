// Package strategy classifies option leg sets into named strategies and
// estimates their cost and payoff bounds.
package strategy

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"options-risk/internal/models"
)

// Classify maps an ordered set of legs to a strategy type. It is total:
// unrecognised shapes resolve to CUSTOM.
func Classify(legs []models.OptionPosition) models.StrategyType {
	switch len(legs) {
	case 1:
		return classifySingle(legs[0])
	case 2:
		return classifyPair(legs[0], legs[1])
	case 4:
		return classifyFour(legs)
	default:
		return models.Custom
	}
}

func classifySingle(leg models.OptionPosition) models.StrategyType {
	switch {
	case leg.Action == models.Buy && leg.Kind == models.Call:
		return models.LongCall
	case leg.Action == models.Buy && leg.Kind == models.Put:
		return models.LongPut
	case leg.Action == models.Sell && leg.Kind == models.Call:
		return models.ShortCall
	case leg.Action == models.Sell && leg.Kind == models.Put:
		return models.ShortPut
	default:
		return models.Custom
	}
}

// classifyPair does not distinguish debit from credit verticals.
func classifyPair(a, b models.OptionPosition) models.StrategyType {
	switch {
	case a.Kind == b.Kind && a.Kind == models.Call:
		return models.CallSpread
	case a.Kind == b.Kind && a.Kind == models.Put:
		return models.PutSpread
	case a.Kind == b.Kind:
		return models.Custom
	case a.Strike == b.Strike:
		return models.Straddle
	default:
		return models.Strangle
	}
}

func classifyFour(legs []models.OptionPosition) models.StrategyType {
	calls := 0
	for _, leg := range legs {
		if leg.Kind == models.Call {
			calls++
		}
	}
	if calls != 2 {
		return models.Custom
	}

	strikes := sortedStrikes(legs)
	if strikes[1] == strikes[2] {
		return models.IronButterfly
	}
	return models.IronCondor
}

func sortedStrikes(legs []models.OptionPosition) []float64 {
	strikes := make([]float64, len(legs))
	for i, leg := range legs {
		strikes[i] = leg.Strike
	}
	sort.Float64s(strikes)
	return strikes
}

// NetCost returns the net premium of the legs: positive is a debit paid,
// negative a credit received.
func NetCost(legs []models.OptionPosition) float64 {
	total := decimal.Zero
	for _, leg := range legs {
		amount := decimal.NewFromFloat(leg.Premium).Mul(decimal.NewFromInt(int64(leg.Quantity)))
		if leg.Action == models.Sell {
			total = total.Sub(amount)
		} else {
			total = total.Add(amount)
		}
	}
	return total.InexactFloat64()
}

// Analyze classifies the legs and estimates cost, max loss and max profit.
// Unbounded outcomes are flagged rather than reported as infinities.
func Analyze(legs []models.OptionPosition) models.StrategyInfo {
	kind := Classify(legs)
	cost := NetCost(legs)
	info := models.StrategyInfo{
		Type:          kind,
		LegCount:      len(legs),
		EstimatedCost: cost,
	}

	debit := cost > 0
	premium := math.Abs(cost)

	switch kind {
	case models.CallSpread, models.PutSpread, models.IronCondor, models.IronButterfly:
		width := spreadWidth(legs)
		if debit {
			info.MaxLoss = premium
			info.MaxProfit = width - premium
		} else {
			info.MaxProfit = premium
			info.MaxLoss = width - premium
		}
	case models.LongCall:
		info.MaxLoss = premium
		info.MaxProfitUnlimited = true
	case models.LongPut:
		info.MaxLoss = premium
		info.MaxProfit = intrinsicFloor(legs[0]) - premium
	case models.ShortCall:
		info.MaxProfit = premium
		info.MaxLossUnlimited = true
	case models.ShortPut:
		info.MaxProfit = premium
		info.MaxLoss = intrinsicFloor(legs[0]) - premium
	default:
		if debit {
			info.MaxLoss = premium
			info.MaxProfitUnlimited = true
		} else {
			info.MaxProfit = premium
			info.MaxLossUnlimited = true
		}
	}

	info.MaxLoss = math.Max(info.MaxLoss, 0)
	info.MaxProfit = math.Max(info.MaxProfit, 0)
	return info
}

// spreadWidth is the widest same-kind strike gap in dollars, sized by the
// smallest leg quantity.
func spreadWidth(legs []models.OptionPosition) float64 {
	var width float64
	for _, kind := range []models.OptionKind{models.Call, models.Put} {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, leg := range legs {
			if leg.Kind != kind {
				continue
			}
			lo = math.Min(lo, leg.Strike)
			hi = math.Max(hi, leg.Strike)
		}
		if hi > lo {
			width = math.Max(width, hi-lo)
		}
	}
	return width * models.ContractMultiplier * float64(minQuantity(legs))
}

func minQuantity(legs []models.OptionPosition) int {
	qty := 0
	for i, leg := range legs {
		if i == 0 || leg.Quantity < qty {
			qty = leg.Quantity
		}
	}
	return qty
}

// intrinsicFloor is the payoff of a put if the underlying goes to zero.
func intrinsicFloor(leg models.OptionPosition) float64 {
	return leg.Strike * models.ContractMultiplier * float64(leg.Quantity)
}
