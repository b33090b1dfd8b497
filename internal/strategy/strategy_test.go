package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"options-risk/internal/models"
)

var expiry = time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)

func leg(kind models.OptionKind, action models.OptionAction, strike, premium float64) models.OptionPosition {
	return models.OptionPosition{
		Symbol:            "SPY",
		Kind:              kind,
		Action:            action,
		Strike:            strike,
		Expiry:            expiry,
		Quantity:          1,
		Premium:           premium,
		ImpliedVolatility: 0.2,
		UnderlyingPrice:   100,
	}
}

func ironCondor() []models.OptionPosition {
	return []models.OptionPosition{
		leg(models.Put, models.Buy, 90, 100),
		leg(models.Put, models.Sell, 95, 250),
		leg(models.Call, models.Sell, 105, 250),
		leg(models.Call, models.Buy, 110, 100),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		legs []models.OptionPosition
		want models.StrategyType
	}{
		{"long call", []models.OptionPosition{leg(models.Call, models.Buy, 100, 0)}, models.LongCall},
		{"long put", []models.OptionPosition{leg(models.Put, models.Buy, 100, 0)}, models.LongPut},
		{"short call", []models.OptionPosition{leg(models.Call, models.Sell, 100, 0)}, models.ShortCall},
		{"short put", []models.OptionPosition{leg(models.Put, models.Sell, 90, 0)}, models.ShortPut},
		{"call spread", []models.OptionPosition{
			leg(models.Call, models.Buy, 100, 0), leg(models.Call, models.Sell, 110, 0),
		}, models.CallSpread},
		{"put spread", []models.OptionPosition{
			leg(models.Put, models.Sell, 95, 0), leg(models.Put, models.Buy, 90, 0),
		}, models.PutSpread},
		{"straddle", []models.OptionPosition{
			leg(models.Call, models.Buy, 100, 0), leg(models.Put, models.Buy, 100, 0),
		}, models.Straddle},
		{"strangle", []models.OptionPosition{
			leg(models.Call, models.Sell, 110, 0), leg(models.Put, models.Sell, 90, 0),
		}, models.Strangle},
		{"iron condor", ironCondor(), models.IronCondor},
		{"iron butterfly", []models.OptionPosition{
			leg(models.Put, models.Buy, 90, 0), leg(models.Put, models.Sell, 100, 0),
			leg(models.Call, models.Sell, 100, 0), leg(models.Call, models.Buy, 110, 0),
		}, models.IronButterfly},
		{"four calls", []models.OptionPosition{
			leg(models.Call, models.Buy, 90, 0), leg(models.Call, models.Sell, 100, 0),
			leg(models.Call, models.Sell, 100, 0), leg(models.Call, models.Buy, 110, 0),
		}, models.Custom},
		{"one call three puts", []models.OptionPosition{
			leg(models.Put, models.Buy, 90, 0), leg(models.Put, models.Sell, 95, 0),
			leg(models.Put, models.Sell, 97, 0), leg(models.Call, models.Buy, 110, 0),
		}, models.Custom},
		{"three legs", []models.OptionPosition{
			leg(models.Call, models.Buy, 90, 0), leg(models.Call, models.Sell, 100, 0), leg(models.Call, models.Buy, 110, 0),
		}, models.Custom},
		{"no legs", nil, models.Custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.legs))
		})
	}
}

func TestNetCost(t *testing.T) {
	assert.Equal(t, -300.0, NetCost(ironCondor()))

	debit := []models.OptionPosition{leg(models.Call, models.Buy, 250, 500)}
	debit[0].Quantity = 3
	assert.Equal(t, 1500.0, NetCost(debit))

	// Decimal arithmetic keeps cents exact.
	cents := []models.OptionPosition{
		leg(models.Call, models.Buy, 100, 0.1),
		leg(models.Call, models.Buy, 100, 0.2),
	}
	assert.Equal(t, 0.3, NetCost(cents))
}

func TestAnalyzeIronCondor(t *testing.T) {
	info := Analyze(ironCondor())

	assert.Equal(t, models.IronCondor, info.Type)
	assert.Equal(t, 4, info.LegCount)
	assert.Equal(t, -300.0, info.EstimatedCost)
	assert.Equal(t, 300.0, info.MaxProfit)
	assert.Equal(t, 200.0, info.MaxLoss) // 5-wide wings: 500 - 300 credit
	assert.False(t, info.MaxLossUnlimited)
	assert.False(t, info.MaxProfitUnlimited)
}

func TestAnalyzeDebitCallSpread(t *testing.T) {
	info := Analyze([]models.OptionPosition{
		leg(models.Call, models.Buy, 100, 600),
		leg(models.Call, models.Sell, 110, 250),
	})

	assert.Equal(t, 350.0, info.EstimatedCost)
	assert.Equal(t, 350.0, info.MaxLoss)
	assert.Equal(t, 650.0, info.MaxProfit)
}

func TestAnalyzeSingleLegs(t *testing.T) {
	longCall := Analyze([]models.OptionPosition{leg(models.Call, models.Buy, 250, 500)})
	assert.Equal(t, 500.0, longCall.MaxLoss)
	assert.True(t, longCall.MaxProfitUnlimited)

	longPut := Analyze([]models.OptionPosition{leg(models.Put, models.Buy, 50, 200)})
	assert.Equal(t, 200.0, longPut.MaxLoss)
	assert.Equal(t, 4800.0, longPut.MaxProfit)

	shortCall := Analyze([]models.OptionPosition{leg(models.Call, models.Sell, 110, 300)})
	assert.Equal(t, 300.0, shortCall.MaxProfit)
	assert.True(t, shortCall.MaxLossUnlimited)

	shortPut := Analyze([]models.OptionPosition{leg(models.Put, models.Sell, 90, 300)})
	assert.Equal(t, 300.0, shortPut.MaxProfit)
	assert.Equal(t, 8700.0, shortPut.MaxLoss)
}

func TestAnalyzeShortStrangleIsUnbounded(t *testing.T) {
	info := Analyze([]models.OptionPosition{
		leg(models.Call, models.Sell, 110, 200),
		leg(models.Put, models.Sell, 90, 200),
	})
	assert.Equal(t, models.Strangle, info.Type)
	assert.Equal(t, 400.0, info.MaxProfit)
	assert.True(t, info.MaxLossUnlimited)
}
