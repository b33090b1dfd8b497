// Package validation orchestrates a full pre-trade risk validation: it
// classifies the strategy, aggregates Greeks, estimates probabilities and runs
// every risk check in a fixed order.
package validation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"options-risk/internal/config"
	"options-risk/internal/greeks"
	"options-risk/internal/logging"
	"options-risk/internal/marketdata"
	"options-risk/internal/models"
	"options-risk/internal/pricing"
	"options-risk/internal/probability"
	"options-risk/internal/risk"
	"options-risk/internal/strategy"
)

// Engine validates proposed option trades. It holds no mutable state, so one
// engine may serve concurrent validations.
type Engine struct {
	limits          models.GreeksLimits
	oracle          pricing.Oracle
	ivRanks         marketdata.IVRankProvider
	earlyExit       probability.EarlyExitEstimator
	riskCfg         config.RiskConfig
	riskFreeRate    float64
	ivRankThreshold float64
	now             func() time.Time
	logger          zerolog.Logger
	checker         *risk.Checker
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for days-to-expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRiskConfig overrides the risk-check thresholds.
func WithRiskConfig(cfg config.RiskConfig) Option {
	return func(e *Engine) {
		e.riskCfg = cfg
	}
}

// WithRiskFreeRate sets the annual rate passed to the pricing oracle.
func WithRiskFreeRate(rate float64) Option {
	return func(e *Engine) {
		e.riskFreeRate = rate
	}
}

// WithIVRankThreshold sets the IV rank below which credit trades warn.
func WithIVRankThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.ivRankThreshold = threshold
	}
}

// NewEngine creates a validation engine.
func NewEngine(
	limits models.GreeksLimits,
	oracle pricing.Oracle,
	ivRanks marketdata.IVRankProvider,
	earlyExit probability.EarlyExitEstimator,
	opts ...Option,
) *Engine {
	e := &Engine{
		limits:          limits,
		oracle:          oracle,
		ivRanks:         ivRanks,
		earlyExit:       earlyExit,
		riskCfg:         config.DefaultRiskConfig(),
		riskFreeRate:    greeks.DefaultRiskFreeRate,
		ivRankThreshold: 50,
		now:             time.Now,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.checker = risk.NewChecker(e.limits, e.riskCfg, e.ivRankThreshold)
	return e
}

// NewEngineFromConfig wires an engine from loaded configuration using the
// Black-Scholes oracle and the placeholder early-exit estimator.
func NewEngineFromConfig(cfg *config.Config, ivRanks marketdata.IVRankProvider, logger zerolog.Logger) *Engine {
	return NewEngine(
		cfg.GreeksLimits,
		pricing.NewBlackScholes(cfg.Pricing.ContractMultiplier),
		ivRanks,
		probability.PlaceholderEarlyExit{Probability: cfg.Probability.EarlyExitPlaceholder},
		WithLogger(logger),
		WithRiskConfig(cfg.Risk),
		WithRiskFreeRate(cfg.Pricing.RiskFreeRate),
		WithIVRankThreshold(cfg.MarketData.IVRankThreshold),
	)
}

// ValidateOptionsTrade runs the full validation of newPositions against the
// existing portfolio. It returns either a complete result or an error.
// BLOCKER checks fail the trade but are not errors. A logger carried by ctx
// takes precedence over the engine logger.
func (e *Engine) ValidateOptionsTrade(
	ctx context.Context,
	newPositions []models.OptionPosition,
	existingPositions []models.OptionPosition,
	cash float64,
	profile models.RiskProfile,
) (*models.OptionsTradeValidation, error) {
	if err := checkInputs(newPositions, existingPositions, cash, profile); err != nil {
		return nil, err
	}

	now := e.now()
	first := newPositions[0]
	base := e.logger
	if ctxLogger := logging.FromContext(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		base = ctxLogger
	}
	log := logging.WithSymbol(logging.WithOperation(base, "validate_options_trade"), first.Symbol)

	strategyType := strategy.Classify(newPositions)
	log.Debug().Str("strategy", string(strategyType)).Int("legs", len(newPositions)).Msg("Strategy classified")

	agg := greeks.NewAggregator(e.oracle, e.riskFreeRate, func() time.Time { return now })
	current, err := agg.Aggregate(existingPositions)
	if err != nil {
		return nil, err
	}
	added, err := agg.Aggregate(newPositions)
	if err != nil {
		return nil, err
	}
	impact := models.GreeksImpact{
		Current:  current,
		New:      added,
		Combined: greeks.Combine(current, added),
	}
	log.Debug().
		Float64("delta", impact.Combined.Delta).
		Float64("gamma", impact.Combined.Gamma).
		Float64("theta", impact.Combined.Theta).
		Float64("vega", impact.Combined.Vega).
		Msg("Greeks aggregated")

	checks := e.checker.GreeksLimits(impact.Combined)

	info := strategy.Analyze(newPositions)
	cost := info.EstimatedCost
	checks = append(checks, e.checker.Capital(cost, cash))

	breakevens, err := probability.Breakevens(newPositions)
	if err != nil {
		return nil, err
	}
	pop, err := probability.ProbabilityOfProfit(
		first.UnderlyingPrice,
		breakevens,
		first.ImpliedVolatility,
		greeks.DaysToExpiry(first.Expiry, now),
	)
	if err != nil {
		return nil, err
	}
	exits, err := e.earlyExit.EarlyExit(newPositions)
	if err != nil {
		return nil, err
	}
	log.Debug().Floats64("breakevens", breakevens).Float64("pop", pop).Msg("Probability estimated")

	checks = append(checks, e.checker.Probability(pop, profile))

	if cost < 0 {
		ivCheck, err := e.checker.IVRank(ctx, e.ivRanks, first.Symbol)
		if err != nil {
			return nil, err
		}
		checks = append(checks, ivCheck)
	}

	checks = append(checks, e.checker.Concentration(newPositions, existingPositions)...)

	if assignment := e.checker.EarlyAssignment(newPositions, now); assignment != nil {
		checks = append(checks, *assignment)
	}

	all := make([]models.OptionPosition, 0, len(existingPositions)+len(newPositions))
	all = append(all, existingPositions...)
	all = append(all, newPositions...)
	checks = append(checks,
		e.checker.ExpirationClustering(all),
		e.checker.StrikeClustering(all),
	)

	for _, c := range checks {
		logging.LogRiskCheck(log, c.Name, string(c.Level), c.Message)
	}

	result := &models.OptionsTradeValidation{
		Passed:   models.Passed(checks),
		Checks:   checks,
		Strategy: info,
		Greeks:   impact,
		Probability: models.ProbabilityAnalysis{
			Breakevens:          breakevens,
			ProbabilityOfProfit: pop,
			EarlyExit:           exits,
		},
		Backtest:      nil,
		EstimatedCost: cost,
	}

	logging.LogValidation(log, string(strategyType), result.Passed,
		len(result.Blockers()), len(result.Warnings()), cost)

	return result, nil
}
