package models

import (
	"fmt"
	"strings"
	"time"
)

// ExpiryLayout is the calendar-date layout used for option expiries.
const ExpiryLayout = "2006-01-02"

// ContractMultiplier is the number of shares one option contract controls.
const ContractMultiplier = 100

// OptionPosition represents one option leg, either proposed or already held.
type OptionPosition struct {
	Symbol            string       `json:"symbol"`
	Kind              OptionKind   `json:"kind"`
	Action            OptionAction `json:"action"`
	Strike            float64      `json:"strike"`
	Expiry            time.Time    `json:"expiry"`
	Quantity          int          `json:"quantity"`
	Premium           float64      `json:"premium"` // per contract, already x100
	ImpliedVolatility float64      `json:"implied_volatility"`
	UnderlyingPrice   float64      `json:"underlying_price"`
}

// ExpiryDate returns the expiry truncated to a UTC calendar date.
func (p OptionPosition) ExpiryDate() time.Time {
	return CalendarDate(p.Expiry)
}

// String returns a compact description of the leg, e.g. "BUY 1 TSLA 250 CALL 2024-01-19".
func (p OptionPosition) String() string {
	return fmt.Sprintf("%s %d %s %g %s %s",
		p.Action, p.Quantity, p.Symbol, p.Strike, p.Kind, p.ExpiryDate().Format(ExpiryLayout))
}

// ParseExpiry parses a YYYY-MM-DD expiry date.
func ParseExpiry(s string) (time.Time, error) {
	t, err := time.Parse(ExpiryLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed expiry %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// CalendarDate truncates t to midnight UTC of its calendar date.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Greeks holds option sensitivities. Produced per contract by a pricing oracle
// and summed across legs for portfolio views.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add returns the field-wise sum of g and o.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale returns g with every field multiplied by f.
func (g Greeks) Scale(f float64) Greeks {
	return Greeks{
		Delta: g.Delta * f,
		Gamma: g.Gamma * f,
		Theta: g.Theta * f,
		Vega:  g.Vega * f,
		Rho:   g.Rho * f,
	}
}

// GreeksLimits bounds the combined portfolio Greeks.
type GreeksLimits struct {
	MaxDelta float64 `json:"max_delta" mapstructure:"max_delta"`
	MaxGamma float64 `json:"max_gamma" mapstructure:"max_gamma"`
	MaxVega  float64 `json:"max_vega" mapstructure:"max_vega"`   // dollars
	MaxTheta float64 `json:"max_theta" mapstructure:"max_theta"` // dollars per day
}

// DefaultGreeksLimits returns the standard portfolio limits.
func DefaultGreeksLimits() GreeksLimits {
	return GreeksLimits{
		MaxDelta: 200,
		MaxGamma: 20,
		MaxVega:  500,
		MaxTheta: 100,
	}
}

// GreeksImpact reports the portfolio Greeks before and after a trade.
type GreeksImpact struct {
	Current  Greeks `json:"current"`
	New      Greeks `json:"new"`
	Combined Greeks `json:"combined"`
}
