package probability

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property 6: For a single bullish breakeven, PoP is non-decreasing as the
// current price approaches it from below, holding volatility and time fixed.
func TestProperty_BullishPoPMonotoneInMoneyness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("higher price below a bullish breakeven never lowers PoP", prop.ForAll(
		func(breakeven, lowFrac, highFrac, vol float64, days int) bool {
			if lowFrac > highFrac {
				lowFrac, highFrac = highFrac, lowFrac
			}
			low := breakeven * lowFrac
			high := breakeven * highFrac

			popLow, err := ProbabilityOfProfit(low, []float64{breakeven}, vol, days)
			if err != nil {
				return false
			}
			popHigh, err := ProbabilityOfProfit(high, []float64{breakeven}, vol, days)
			if err != nil {
				return false
			}
			return popHigh >= popLow
		},
		gen.Float64Range(10, 1000),
		gen.Float64Range(0.5, 0.999),
		gen.Float64Range(0.5, 0.999),
		gen.Float64Range(0.05, 1.5),
		gen.IntRange(0, 365),
	))

	properties.TestingRun(t)
}

// Property 7: Probabilities always lie in [0, 1].
func TestProperty_ProbabilityBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("0 <= PoP <= 1", prop.ForAll(
		func(price float64, breakevens []float64, vol float64, days int) bool {
			pop, err := ProbabilityOfProfit(price, breakevens, vol, days)
			return err == nil && pop >= 0 && pop <= 1
		},
		gen.Float64Range(1, 1000),
		gen.SliceOfN(2, gen.Float64Range(-50, 1500)),
		gen.Float64Range(0.01, 3),
		gen.IntRange(-10, 730),
	))

	properties.TestingRun(t)
}
