package validation

import (
	"fmt"
	"math"
	"strings"

	"options-risk/internal/errors"
	"options-risk/internal/models"
)

// checkInputs rejects malformed requests before any computation runs.
func checkInputs(newPositions, existing []models.OptionPosition, cash float64, profile models.RiskProfile) error {
	if len(newPositions) == 0 {
		return errors.ErrNoLegs
	}
	if math.IsNaN(cash) || math.IsInf(cash, 0) {
		return errors.NewValidationError("cash", cash, "must be a finite number")
	}
	if _, ok := profile.MinProbability(); !ok {
		return errors.NewValidationError("risk_profile", string(profile), "unknown risk profile")
	}

	for i, pos := range newPositions {
		if err := checkPosition(fmt.Sprintf("new_positions[%d]", i), pos); err != nil {
			return err
		}
	}
	for i, pos := range existing {
		if err := checkPosition(fmt.Sprintf("existing_positions[%d]", i), pos); err != nil {
			return err
		}
	}
	return nil
}

func checkPosition(prefix string, pos models.OptionPosition) error {
	field := func(name string) string { return prefix + "." + name }

	switch {
	case strings.TrimSpace(pos.Symbol) == "":
		return errors.NewValidationError(field("symbol"), pos.Symbol, "is required")
	case !pos.Kind.Valid():
		return errors.NewValidationError(field("kind"), string(pos.Kind), "must be CALL or PUT")
	case !pos.Action.Valid():
		return errors.NewValidationError(field("action"), string(pos.Action), "must be BUY or SELL")
	case !positive(pos.Strike):
		return errors.NewValidationError(field("strike"), pos.Strike, "must be positive")
	case pos.Premium < 0 || math.IsNaN(pos.Premium) || math.IsInf(pos.Premium, 0):
		return errors.NewValidationError(field("premium"), pos.Premium, "must be zero or positive")
	case pos.Quantity <= 0:
		return errors.NewValidationError(field("quantity"), pos.Quantity, "must be positive")
	case !positive(pos.ImpliedVolatility):
		return errors.Wrapf(errors.ErrInvalidVolatility, "%s %v", field("implied_volatility"), pos.ImpliedVolatility)
	case !positive(pos.UnderlyingPrice):
		return errors.NewValidationError(field("underlying_price"), pos.UnderlyingPrice, "must be positive")
	case pos.Expiry.IsZero():
		return errors.NewValidationError(field("expiry"), nil, "is required")
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
