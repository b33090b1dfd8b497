package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-risk/internal/models"
)

// Property 11: Journal round-trip consistency.
//
// Saving a validation record and reading it back by ID preserves its summary
// fields and its legs.
func TestProperty_ValidationRoundTripConsistency(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "validations.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"SPY", "QQQ", "TSLA", "AAPL", "NVDA", "IWM"}

	properties.Property("save then get by ID produces equivalent data", prop.ForAll(
		func(symbolIdx int, cash, premium float64, qty int, passed bool, profile models.RiskProfile) bool {
			ctx := context.Background()
			leg := sampleLeg(symbols[symbolIdx%len(symbols)])
			leg.Premium = premium
			leg.Quantity = qty

			result := sampleResult(passed)
			rec := NewRecord([]models.OptionPosition{leg}, []models.OptionPosition{leg}, cash, profile, result)
			if err := s.SaveValidation(ctx, rec); err != nil {
				t.Logf("Failed to save validation: %v", err)
				return false
			}

			got, err := s.GetValidationByID(ctx, rec.ID)
			if err != nil {
				t.Logf("Failed to get validation: %v", err)
				return false
			}

			if got.Symbol != leg.Symbol || got.Cash != cash || got.Passed != passed || got.RiskProfile != profile {
				t.Logf("summary mismatch: %+v", got)
				return false
			}
			if len(got.NewPositions) != 1 || len(got.ExistingPositions) != 1 {
				return false
			}
			back := got.NewPositions[0]
			return back.Premium == premium && back.Quantity == qty &&
				fmt.Sprint(back) == fmt.Sprint(leg)
		},
		gen.IntRange(0, 100),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 5000),
		gen.IntRange(1, 50),
		gen.Bool(),
		gen.OneConstOf(models.Conservative, models.Moderate, models.Aggressive),
	))

	properties.TestingRun(t)
}
