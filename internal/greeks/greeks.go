// Package greeks aggregates per-leg option Greeks into portfolio Greeks.
package greeks

import (
	"math"
	"time"

	"options-risk/internal/models"
	"options-risk/internal/pricing"
)

// DefaultRiskFreeRate is the annual rate handed to the oracle when none is configured.
const DefaultRiskFreeRate = 0.05

// Aggregator sums oracle Greeks across positions, signed by action and
// scaled by quantity.
type Aggregator struct {
	oracle       pricing.Oracle
	riskFreeRate float64
	now          func() time.Time
}

// NewAggregator creates an aggregator. A nil clock uses time.Now.
func NewAggregator(oracle pricing.Oracle, riskFreeRate float64, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		oracle:       oracle,
		riskFreeRate: riskFreeRate,
		now:          now,
	}
}

// Aggregate returns the signed, quantity-weighted sum of the positions' Greeks.
// Oracle errors are returned unchanged.
func (a *Aggregator) Aggregate(positions []models.OptionPosition) (models.Greeks, error) {
	var total models.Greeks
	now := a.now()

	for _, pos := range positions {
		g, err := a.oracle.CalculateGreeks(
			pos.UnderlyingPrice,
			pos.Strike,
			YearsToExpiry(pos.Expiry, now),
			a.riskFreeRate,
			pos.ImpliedVolatility,
			pos.Kind,
		)
		if err != nil {
			return models.Greeks{}, err
		}
		total = total.Add(g.Scale(float64(pos.Quantity) * pos.Action.Sign()))
	}

	return total, nil
}

// Combine adds two Greeks vectors field-wise.
func Combine(a, b models.Greeks) models.Greeks {
	return a.Add(b)
}

// DaysToExpiry counts whole calendar days from now until expiry. It is zero on
// the expiry date and negative afterwards.
func DaysToExpiry(expiry, now time.Time) int {
	diff := models.CalendarDate(expiry).Sub(models.CalendarDate(now))
	return int(math.Round(diff.Hours() / 24))
}

// YearsToExpiry converts days to expiry into years, floored at one day.
func YearsToExpiry(expiry, now time.Time) float64 {
	days := DaysToExpiry(expiry, now)
	if days < 1 {
		days = 1
	}
	return float64(days) / 365
}
