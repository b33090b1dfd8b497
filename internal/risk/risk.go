// Package risk implements the options risk-check pipeline. Every check is
// independent: it reads trade facts and configuration and returns a RiskCheck.
package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"options-risk/internal/config"
	"options-risk/internal/greeks"
	"options-risk/internal/marketdata"
	"options-risk/internal/models"
)

// Check names, in canonical pipeline order.
const (
	NameDeltaLimit          = "delta_limit"
	NameGammaLimit          = "gamma_limit"
	NameVegaLimit           = "vega_limit"
	NameThetaLimit          = "theta_limit"
	NameCapital             = "capital"
	NameProbabilityOfProfit = "probability_of_profit"
	NameIVRank              = "iv_rank"
	NameConcentration       = "symbol_concentration"
	NameEarlyAssignment     = "early_assignment"
	NameExpirationCluster   = "expiration_clustering"
	NameStrikeCluster       = "strike_clustering"
)

// Checker runs risk checks against fixed limits and thresholds.
type Checker struct {
	limits          models.GreeksLimits
	cfg             config.RiskConfig
	ivRankThreshold float64
}

// NewChecker creates a checker. Its fields are never modified afterwards.
func NewChecker(limits models.GreeksLimits, cfg config.RiskConfig, ivRankThreshold float64) *Checker {
	return &Checker{
		limits:          limits,
		cfg:             cfg,
		ivRankThreshold: ivRankThreshold,
	}
}

// GreeksLimits checks the combined portfolio Greeks. Delta, gamma and vega
// breaches block; delta also warns when close to its limit. Theta only warns.
func (c *Checker) GreeksLimits(combined models.Greeks) []models.RiskCheck {
	checks := []models.RiskCheck{
		c.blockingLimit(NameDeltaLimit, "delta", combined.Delta, c.limits.MaxDelta, c.cfg.DeltaWarningFraction),
		c.blockingLimit(NameGammaLimit, "gamma", combined.Gamma, c.limits.MaxGamma, 0),
		c.blockingLimit(NameVegaLimit, "vega", combined.Vega, c.limits.MaxVega, 0),
	}

	theta := math.Abs(combined.Theta)
	thetaCheck := models.NewRiskCheck(NameThetaLimit, models.RiskPass,
		fmt.Sprintf("Portfolio theta %.2f within limit %.2f", combined.Theta, c.limits.MaxTheta))
	if theta > c.limits.MaxTheta {
		thetaCheck = models.NewRiskCheck(NameThetaLimit, models.RiskWarning,
			fmt.Sprintf("Portfolio theta %.2f/day exceeds %.2f; time decay is large", combined.Theta, c.limits.MaxTheta))
	}
	checks = append(checks, thetaCheck.WithValues(theta, c.limits.MaxTheta))

	return checks
}

// blockingLimit blocks when |value| > limit and, for warnFraction > 0, warns
// when |value| > warnFraction*limit.
func (c *Checker) blockingLimit(name, greek string, value, limit, warnFraction float64) models.RiskCheck {
	abs := math.Abs(value)
	var check models.RiskCheck
	switch {
	case abs > limit:
		check = models.NewRiskCheck(name, models.RiskBlocker,
			fmt.Sprintf("Portfolio %s %.2f exceeds limit %.2f", greek, value, limit))
	case warnFraction > 0 && abs > warnFraction*limit:
		check = models.NewRiskCheck(name, models.RiskWarning,
			fmt.Sprintf("Portfolio %s %.2f approaching limit %.2f", greek, value, limit))
	default:
		check = models.NewRiskCheck(name, models.RiskPass,
			fmt.Sprintf("Portfolio %s %.2f within limit %.2f", greek, value, limit))
	}
	return check.WithValues(abs, limit)
}

// Capital checks that a debit fits the available cash. Credits always pass.
func (c *Checker) Capital(cost, cash float64) models.RiskCheck {
	if cost <= 0 {
		return models.NewRiskCheck(NameCapital, models.RiskPass,
			fmt.Sprintf("Net credit of $%.2f received", -cost)).WithValues(cost, cash)
	}

	warnAt := c.cfg.CapitalWarningFraction * cash
	switch {
	case cost > cash:
		return models.NewRiskCheck(NameCapital, models.RiskBlocker,
			fmt.Sprintf("Insufficient capital: trade costs $%.2f, available $%.2f", cost, cash)).WithValues(cost, cash)
	case cost > warnAt:
		return models.NewRiskCheck(NameCapital, models.RiskWarning,
			fmt.Sprintf("Trade uses $%.2f, more than %.0f%% of available $%.2f", cost, c.cfg.CapitalWarningFraction*100, cash)).WithValues(cost, cash)
	default:
		return models.NewRiskCheck(NameCapital, models.RiskPass,
			fmt.Sprintf("Trade costs $%.2f of available $%.2f", cost, cash)).WithValues(cost, cash)
	}
}

// Probability compares the probability of profit with the profile's minimum.
// It warns but never blocks.
func (c *Checker) Probability(pop float64, profile models.RiskProfile) models.RiskCheck {
	minPop, _ := profile.MinProbability()
	if pop < minPop {
		return models.NewRiskCheck(NameProbabilityOfProfit, models.RiskWarning,
			fmt.Sprintf("Probability of profit %.1f%% below %.0f%% minimum for %s profile", pop*100, minPop*100, profile)).
			WithValues(pop, minPop)
	}
	return models.NewRiskCheck(NameProbabilityOfProfit, models.RiskPass,
		fmt.Sprintf("Probability of profit %.1f%% meets %.0f%% minimum", pop*100, minPop*100)).
		WithValues(pop, minPop)
}

// IVRank looks up the symbol's IV rank; credit trades in low-IV regimes warn.
// Provider errors are returned unchanged.
func (c *Checker) IVRank(ctx context.Context, provider marketdata.IVRankProvider, symbol string) (models.RiskCheck, error) {
	rank, err := provider.IVRank(ctx, symbol)
	if err != nil {
		return models.RiskCheck{}, err
	}

	check := models.NewRiskCheck(NameIVRank, models.RiskPass,
		fmt.Sprintf("IV rank %.0f supports selling premium in %s", rank, symbol))
	if rank < c.ivRankThreshold {
		check = models.NewRiskCheck(NameIVRank, models.RiskWarning,
			fmt.Sprintf("IV rank %.0f below %.0f: premium in %s is cheap to sell", rank, c.ivRankThreshold, symbol))
	}
	return check.WithValues(rank, c.ivRankThreshold).WithDetail("symbol", symbol), nil
}

// Concentration emits one check per distinct symbol in the new trade, counting
// only positions already held in that symbol.
func (c *Checker) Concentration(newLegs, existing []models.OptionPosition) []models.RiskCheck {
	held := make(map[string]int)
	for _, pos := range existing {
		held[pos.Symbol]++
	}

	var checks []models.RiskCheck
	seen := make(map[string]bool)
	limit := c.cfg.MaxPositionsPerSymbol
	for _, leg := range newLegs {
		if seen[leg.Symbol] {
			continue
		}
		seen[leg.Symbol] = true

		count := held[leg.Symbol]
		check := models.NewRiskCheck(NameConcentration, models.RiskPass,
			fmt.Sprintf("%d existing positions in %s", count, leg.Symbol))
		if count >= limit {
			check = models.NewRiskCheck(NameConcentration, models.RiskWarning,
				fmt.Sprintf("Already holding %d positions in %s (limit %d)", count, leg.Symbol, limit))
		}
		checks = append(checks, check.WithValues(float64(count), float64(limit)).WithDetail("symbol", leg.Symbol))
	}
	return checks
}

// EarlyAssignment looks at short in-the-money legs close to expiry. It returns
// nil when no leg qualifies; otherwise one check for the riskiest leg.
func (c *Checker) EarlyAssignment(newLegs []models.OptionPosition, now time.Time) *models.RiskCheck {
	var (
		worst     *models.OptionPosition
		worstProb float64
		worstDays int
	)

	for i := range newLegs {
		leg := newLegs[i]
		if leg.Action != models.Sell || leg.UnderlyingPrice <= 0 {
			continue
		}
		days := greeks.DaysToExpiry(leg.Expiry, now)
		if days >= c.cfg.AssignmentDTEDays {
			continue
		}
		itm := intrinsic(leg)
		if itm <= 0 {
			continue
		}
		prob := math.Min(itm/leg.UnderlyingPrice*100, c.cfg.AssignmentProbabilityCap)
		if worst == nil || prob > worstProb {
			worst, worstProb, worstDays = &newLegs[i], prob, days
		}
	}

	if worst == nil {
		return nil
	}

	check := models.NewRiskCheck(NameEarlyAssignment, models.RiskInfo,
		fmt.Sprintf("Short %s is in the money with %d days left; assignment risk %.0f%%", worst, worstDays, worstProb))
	if worstProb > c.cfg.AssignmentWarningProbability {
		check.Level = models.RiskWarning
		check.Message = fmt.Sprintf("High early assignment risk %.0f%% on short %s (%d days left)", worstProb, worst, worstDays)
	}
	check = check.WithValues(worstProb, c.cfg.AssignmentWarningProbability).
		WithDetail("leg", worst.String()).
		WithDetail("days_to_expiry", worstDays)
	return &check
}

func intrinsic(leg models.OptionPosition) float64 {
	if leg.Kind == models.Call {
		return leg.UnderlyingPrice - leg.Strike
	}
	return leg.Strike - leg.UnderlyingPrice
}

// ExpirationClustering warns when too many positions share an expiry date.
func (c *Checker) ExpirationClustering(all []models.OptionPosition) models.RiskCheck {
	key, count := largestGroup(all, func(p models.OptionPosition) string {
		return p.ExpiryDate().Format(models.ExpiryLayout)
	})
	limit := c.cfg.MaxPositionsPerExpiry

	check := models.NewRiskCheck(NameExpirationCluster, models.RiskPass,
		fmt.Sprintf("At most %d positions share an expiry", count))
	if count > limit {
		check = models.NewRiskCheck(NameExpirationCluster, models.RiskWarning,
			fmt.Sprintf("%d positions expire on %s (limit %d)", count, key, limit))
	}
	check = check.WithValues(float64(count), float64(limit))
	if key != "" {
		check = check.WithDetail("expiry", key)
	}
	return check
}

// StrikeClustering warns when too many positions share a symbol and strike.
func (c *Checker) StrikeClustering(all []models.OptionPosition) models.RiskCheck {
	key, count := largestGroup(all, func(p models.OptionPosition) string {
		return fmt.Sprintf("%s@%g", p.Symbol, p.Strike)
	})
	limit := c.cfg.MaxPositionsPerStrike

	check := models.NewRiskCheck(NameStrikeCluster, models.RiskPass,
		fmt.Sprintf("At most %d positions share a strike", count))
	if count > limit {
		check = models.NewRiskCheck(NameStrikeCluster, models.RiskWarning,
			fmt.Sprintf("%d positions at %s (limit %d)", count, key, limit))
	}
	check = check.WithValues(float64(count), float64(limit))
	if key != "" {
		check = check.WithDetail("strike", key)
	}
	return check
}

// largestGroup returns the most populated group; ties go to the group seen first.
func largestGroup(positions []models.OptionPosition, keyOf func(models.OptionPosition) string) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, p := range positions {
		k := keyOf(p)
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	var best string
	bestCount := 0
	for _, k := range order {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best, bestCount
}
