// Package pricing defines the pricing oracle consumed by the risk engine and a
// Black-Scholes implementation of it.
package pricing

import (
	"fmt"
	"math"

	"options-risk/internal/errors"
	"options-risk/internal/models"
)

// Oracle turns one leg's market parameters into per-contract Greeks.
// Implementations must be deterministic and free of side effects.
type Oracle interface {
	CalculateGreeks(spot, strike, years, rate, vol float64, kind models.OptionKind) (models.Greeks, error)
}

// BlackScholes prices European options. Greeks are per contract: delta in
// share equivalents, vega per volatility point, theta per calendar day and
// rho per rate point, all scaled by Multiplier.
type BlackScholes struct {
	Multiplier float64
}

// NewBlackScholes creates a Black-Scholes oracle for the given contract multiplier.
func NewBlackScholes(multiplier float64) *BlackScholes {
	if multiplier <= 0 {
		multiplier = models.ContractMultiplier
	}
	return &BlackScholes{Multiplier: multiplier}
}

// CalculateGreeks implements Oracle.
func (b *BlackScholes) CalculateGreeks(spot, strike, years, rate, vol float64, kind models.OptionKind) (models.Greeks, error) {
	switch {
	case spot <= 0:
		return models.Greeks{}, errors.NewValidationError("spot", spot, "must be positive")
	case strike <= 0:
		return models.Greeks{}, errors.NewValidationError("strike", strike, "must be positive")
	case years <= 0:
		return models.Greeks{}, errors.NewValidationError("years", years, "must be positive")
	case vol <= 0 || math.IsNaN(vol):
		return models.Greeks{}, fmt.Errorf("%w: got %v", errors.ErrInvalidVolatility, vol)
	case !kind.Valid():
		return models.Greeks{}, errors.NewValidationError("kind", kind, "must be CALL or PUT")
	}

	sqrtT := math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*years) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	pdf := NormPDF(d1)
	discount := math.Exp(-rate * years)

	var g models.Greeks
	g.Gamma = pdf / (spot * vol * sqrtT)
	g.Vega = spot * sqrtT * pdf / 100

	decay := -(spot * pdf * vol) / (2 * sqrtT)
	if kind == models.Call {
		g.Delta = NormCDF(d1)
		g.Theta = (decay - rate*strike*discount*NormCDF(d2)) / 365
		g.Rho = strike * years * discount * NormCDF(d2) / 100
	} else {
		g.Delta = NormCDF(d1) - 1
		g.Theta = (decay + rate*strike*discount*NormCDF(-d2)) / 365
		g.Rho = -strike * years * discount * NormCDF(-d2) / 100
	}

	return g.Scale(b.Multiplier), nil
}

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// NormPDF is the standard normal probability density function.
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
