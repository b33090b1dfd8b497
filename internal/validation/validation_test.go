package validation

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-risk/internal/errors"
	"options-risk/internal/logging"
	"options-risk/internal/marketdata"
	"options-risk/internal/models"
	"options-risk/internal/pricing"
	"options-risk/internal/probability"
	"options-risk/internal/risk"
)

var fixedNow = time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newEngine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewEngine(
		models.DefaultGreeksLimits(),
		pricing.NewBlackScholes(models.ContractMultiplier),
		marketdata.StaticIVRank{Value: 50},
		probability.PlaceholderEarlyExit{Probability: 0.70},
		opts...,
	)
}

func expiryIn(days int) time.Time {
	return models.CalendarDate(fixedNow).AddDate(0, 0, days)
}

func tslaLongCall() models.OptionPosition {
	return models.OptionPosition{
		Symbol:            "TSLA",
		Kind:              models.Call,
		Action:            models.Buy,
		Strike:            250,
		Expiry:            expiryIn(30),
		Quantity:          1,
		Premium:           500,
		ImpliedVolatility: 0.40,
		UnderlyingPrice:   240,
	}
}

func spyLeg(kind models.OptionKind, action models.OptionAction, strike, premium float64) models.OptionPosition {
	return models.OptionPosition{
		Symbol:            "SPY",
		Kind:              kind,
		Action:            action,
		Strike:            strike,
		Expiry:            expiryIn(45),
		Quantity:          1,
		Premium:           premium,
		ImpliedVolatility: 0.20,
		UnderlyingPrice:   100,
	}
}

func ironCondor() []models.OptionPosition {
	return []models.OptionPosition{
		spyLeg(models.Put, models.Buy, 90, 100),
		spyLeg(models.Put, models.Sell, 95, 250),
		spyLeg(models.Call, models.Sell, 105, 250),
		spyLeg(models.Call, models.Buy, 110, 100),
	}
}

func findCheck(t *testing.T, v *models.OptionsTradeValidation, name string) models.RiskCheck {
	t.Helper()
	for _, c := range v.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return models.RiskCheck{}
}

func checkNames(v *models.OptionsTradeValidation) []string {
	names := make([]string, len(v.Checks))
	for i, c := range v.Checks {
		names[i] = c.Name
	}
	return names
}

func TestValidateLongCall(t *testing.T) {
	e := newEngine()

	v, err := e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{tslaLongCall()}, nil, 10000, models.Moderate)
	require.NoError(t, err)

	assert.Equal(t, models.LongCall, v.Strategy.Type)
	assert.Equal(t, 1, v.Strategy.LegCount)
	assert.Equal(t, 500.0, v.EstimatedCost)
	assert.Equal(t, 500.0, v.Strategy.MaxLoss)
	assert.True(t, v.Strategy.MaxProfitUnlimited)

	assert.Equal(t, models.RiskPass, findCheck(t, v, risk.NameCapital).Level)

	assert.Greater(t, v.Greeks.New.Delta, 0.0)
	assert.Greater(t, v.Greeks.New.Gamma, 0.0)
	assert.Greater(t, v.Greeks.New.Vega, 0.0)
	assert.Less(t, v.Greeks.New.Theta, 0.0)
	assert.Equal(t, models.Greeks{}, v.Greeks.Current)
	assert.Equal(t, v.Greeks.New, v.Greeks.Combined)

	require.Len(t, v.Probability.Breakevens, 1)
	assert.InDelta(t, 255.0, v.Probability.Breakevens[0], 1e-9)
	assert.Greater(t, v.Probability.ProbabilityOfProfit, 0.0)
	assert.Less(t, v.Probability.ProbabilityOfProfit, 0.5)
	assert.Equal(t, 0.70, v.Probability.EarlyExit.ProfitTarget50)

	assert.Equal(t, []string{
		risk.NameDeltaLimit, risk.NameGammaLimit, risk.NameVegaLimit, risk.NameThetaLimit,
		risk.NameCapital, risk.NameProbabilityOfProfit,
		risk.NameConcentration, risk.NameExpirationCluster, risk.NameStrikeCluster,
	}, checkNames(v), "debit trades skip the IV rank check")

	assert.Nil(t, v.Backtest)
	assert.True(t, v.Passed)
	assert.Empty(t, v.Blockers())
}

func TestValidateIronCondorCredit(t *testing.T) {
	e := newEngine()

	v, err := e.ValidateOptionsTrade(context.Background(), ironCondor(), nil, 1000, models.Moderate)
	require.NoError(t, err)

	assert.Equal(t, models.IronCondor, v.Strategy.Type)
	assert.Equal(t, -300.0, v.EstimatedCost)
	assert.Equal(t, 300.0, v.Strategy.MaxProfit)
	assert.Equal(t, 200.0, v.Strategy.MaxLoss)

	capital := findCheck(t, v, risk.NameCapital)
	assert.Equal(t, models.RiskPass, capital.Level)
	assert.Contains(t, capital.Message, "credit")

	iv := findCheck(t, v, risk.NameIVRank)
	assert.Equal(t, models.RiskPass, iv.Level)

	assert.Equal(t, []float64{90, 110}, v.Probability.Breakevens)
	assert.Greater(t, v.Probability.ProbabilityOfProfit, 0.5)

	assert.Equal(t, []string{
		risk.NameDeltaLimit, risk.NameGammaLimit, risk.NameVegaLimit, risk.NameThetaLimit,
		risk.NameCapital, risk.NameProbabilityOfProfit, risk.NameIVRank,
		risk.NameConcentration, risk.NameExpirationCluster, risk.NameStrikeCluster,
	}, checkNames(v))
	assert.True(t, v.Passed)
}

func TestValidateLowIVRankCreditWarns(t *testing.T) {
	e := NewEngine(
		models.DefaultGreeksLimits(),
		pricing.NewBlackScholes(models.ContractMultiplier),
		marketdata.StaticIVRank{Value: 20},
		probability.PlaceholderEarlyExit{Probability: 0.70},
		WithClock(clock),
	)

	v, err := e.ValidateOptionsTrade(context.Background(), ironCondor(), nil, 1000, models.Moderate)
	require.NoError(t, err)
	assert.Equal(t, models.RiskWarning, findCheck(t, v, risk.NameIVRank).Level)
	assert.True(t, v.Passed, "warnings never fail a trade")
}

func TestValidateInsufficientCapitalBlocks(t *testing.T) {
	e := newEngine()

	v, err := e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{tslaLongCall()}, nil, 400, models.Moderate)
	require.NoError(t, err)

	assert.Equal(t, models.RiskBlocker, findCheck(t, v, risk.NameCapital).Level)
	assert.False(t, v.Passed)
	assert.Len(t, v.Blockers(), 1)
}

func TestSyntheticBlockerFlipsVerdictOnly(t *testing.T) {
	e := newEngine()

	v, err := e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{tslaLongCall()}, nil, 10000, models.Moderate)
	require.NoError(t, err)
	require.True(t, v.Passed)

	original := append([]models.RiskCheck(nil), v.Checks...)
	withBlocker := append(append([]models.RiskCheck(nil), original...),
		models.NewRiskCheck("synthetic", models.RiskBlocker, "forced"))

	assert.False(t, models.Passed(withBlocker))
	assert.Equal(t, original, withBlocker[:len(original)])
	assert.True(t, models.Passed(original))
}

type fixedOracle struct {
	greeks models.Greeks
	err    error
}

func (f fixedOracle) CalculateGreeks(spot, strike, years, rate, vol float64, kind models.OptionKind) (models.Greeks, error) {
	return f.greeks, f.err
}

func TestValidateExistingPortfolioPushesDeltaOverLimit(t *testing.T) {
	e := NewEngine(
		models.DefaultGreeksLimits(),
		fixedOracle{greeks: models.Greeks{Delta: 60, Gamma: 1, Theta: -5, Vega: 10}},
		marketdata.StaticIVRank{Value: 50},
		probability.PlaceholderEarlyExit{Probability: 0.70},
		WithClock(clock),
	)

	existing := []models.OptionPosition{tslaLongCall(), tslaLongCall(), tslaLongCall()}
	existing[0].Strike, existing[1].Strike, existing[2].Strike = 200, 210, 220

	v, err := e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{tslaLongCall()}, existing, 10000, models.Moderate)
	require.NoError(t, err)

	assert.Equal(t, 180.0, v.Greeks.Current.Delta)
	assert.Equal(t, 60.0, v.Greeks.New.Delta)
	assert.Equal(t, 240.0, v.Greeks.Combined.Delta)
	assert.Equal(t, models.RiskBlocker, findCheck(t, v, risk.NameDeltaLimit).Level)
	assert.Equal(t, models.RiskWarning, findCheck(t, v, risk.NameConcentration).Level)
	assert.False(t, v.Passed)
}

func TestValidateShortNearExpiryAddsAssignmentCheck(t *testing.T) {
	e := newEngine()

	short := spyLeg(models.Put, models.Sell, 130, 3000)
	short.Expiry = expiryIn(3)

	v, err := e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{short}, nil, 50000, models.Aggressive)
	require.NoError(t, err)

	check := findCheck(t, v, risk.NameEarlyAssignment)
	assert.Equal(t, models.RiskInfo, check.Level)
	assert.Equal(t, models.ShortPut, v.Strategy.Type)
}

func TestValidatePropagatesCollaboratorErrors(t *testing.T) {
	boom := stderrors.New("oracle unavailable")
	e := NewEngine(
		models.DefaultGreeksLimits(),
		fixedOracle{err: boom},
		marketdata.StaticIVRank{Value: 50},
		probability.PlaceholderEarlyExit{Probability: 0.70},
		WithClock(clock),
	)
	v, err := e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{tslaLongCall()}, nil, 10000, models.Moderate)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, v)

	feedDown := stderrors.New("iv feed down")
	e = NewEngine(
		models.DefaultGreeksLimits(),
		pricing.NewBlackScholes(models.ContractMultiplier),
		failingIVRank{err: feedDown},
		probability.PlaceholderEarlyExit{Probability: 0.70},
		WithClock(clock),
	)
	v, err = e.ValidateOptionsTrade(context.Background(), ironCondor(), nil, 1000, models.Moderate)
	assert.ErrorIs(t, err, feedDown)
	assert.Nil(t, v)

	// Debit trades never consult the provider.
	v, err = e.ValidateOptionsTrade(context.Background(),
		[]models.OptionPosition{tslaLongCall()}, nil, 10000, models.Moderate)
	require.NoError(t, err)
	assert.NotNil(t, v)
}

type failingIVRank struct{ err error }

func (f failingIVRank) IVRank(ctx context.Context, symbol string) (float64, error) {
	return 0, f.err
}

func TestValidateCancelledContext(t *testing.T) {
	e := newEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ValidateOptionsTrade(ctx, ironCondor(), nil, 1000, models.Moderate)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateRejectsBadInput(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	_, err := e.ValidateOptionsTrade(ctx, nil, nil, 1000, models.Moderate)
	assert.ErrorIs(t, err, errors.ErrNoLegs)

	tests := []struct {
		name   string
		mutate func(*models.OptionPosition)
		target error
	}{
		{"empty symbol", func(p *models.OptionPosition) { p.Symbol = " " }, errors.ErrInvalidInput},
		{"bad kind", func(p *models.OptionPosition) { p.Kind = "FUTURE" }, errors.ErrInvalidInput},
		{"bad action", func(p *models.OptionPosition) { p.Action = "HOLD" }, errors.ErrInvalidInput},
		{"zero strike", func(p *models.OptionPosition) { p.Strike = 0 }, errors.ErrInvalidInput},
		{"negative premium", func(p *models.OptionPosition) { p.Premium = -1 }, errors.ErrInvalidInput},
		{"zero quantity", func(p *models.OptionPosition) { p.Quantity = 0 }, errors.ErrInvalidInput},
		{"zero volatility", func(p *models.OptionPosition) { p.ImpliedVolatility = 0 }, errors.ErrInvalidVolatility},
		{"zero underlying", func(p *models.OptionPosition) { p.UnderlyingPrice = 0 }, errors.ErrInvalidInput},
		{"missing expiry", func(p *models.OptionPosition) { p.Expiry = time.Time{} }, errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg := tslaLongCall()
			tt.mutate(&leg)
			v, err := e.ValidateOptionsTrade(ctx, []models.OptionPosition{leg}, nil, 1000, models.Moderate)
			assert.ErrorIs(t, err, tt.target)
			assert.Nil(t, v)

			// The same defect in an existing position is also rejected.
			_, err = e.ValidateOptionsTrade(ctx, []models.OptionPosition{tslaLongCall()},
				[]models.OptionPosition{leg}, 1000, models.Moderate)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err = e.ValidateOptionsTrade(ctx, []models.OptionPosition{tslaLongCall()}, nil, math.NaN(), models.Moderate)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = e.ValidateOptionsTrade(ctx, []models.OptionPosition{tslaLongCall()}, nil, 1000, "RECKLESS")
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "risk_profile", verr.Field)
}

func TestValidationJSONShape(t *testing.T) {
	e := newEngine()
	v, err := e.ValidateOptionsTrade(context.Background(), ironCondor(), nil, 1000, models.Moderate)
	require.NoError(t, err)

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "backtest")
	assert.Nil(t, decoded["backtest"])
	assert.Equal(t, "IRON_CONDOR", decoded["strategy"].(map[string]interface{})["type"])
}

func TestValidateUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	e := newEngine()

	ctx := logging.WithLogger(context.Background(), logger)
	_, err := e.ValidateOptionsTrade(ctx, []models.OptionPosition{tslaLongCall()}, nil, 10000, models.Moderate)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"operation":"validate_options_trade"`)
	assert.Contains(t, out, `"symbol":"TSLA"`)
	assert.Contains(t, out, `"event":"validation"`)
	assert.Contains(t, out, `"check":"capital"`)
}
