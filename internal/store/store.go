// Package store provides the validation journal: persistence for completed
// trade validations so they can be reviewed later.
package store

import (
	"context"
	"time"

	"options-risk/internal/models"
)

// ValidationStore defines the interface for journal persistence.
type ValidationStore interface {
	SaveValidation(ctx context.Context, record *ValidationRecord) error
	GetValidations(ctx context.Context, filter ValidationFilter) ([]ValidationRecord, error)
	GetValidationByID(ctx context.Context, id string) (*ValidationRecord, error)

	// Lifecycle
	Close() error
}

// ValidationRecord is one journaled validation with the request that produced it.
type ValidationRecord struct {
	ID                string                         `json:"id"`
	Timestamp         time.Time                      `json:"timestamp"`
	Symbol            string                         `json:"symbol"`
	Strategy          models.StrategyType            `json:"strategy"`
	RiskProfile       models.RiskProfile             `json:"risk_profile"`
	Cash              float64                        `json:"cash"`
	EstimatedCost     float64                        `json:"estimated_cost"`
	Passed            bool                           `json:"passed"`
	Blockers          int                            `json:"blockers"`
	Warnings          int                            `json:"warnings"`
	NewPositions      []models.OptionPosition        `json:"new_positions"`
	ExistingPositions []models.OptionPosition        `json:"existing_positions"`
	Result            *models.OptionsTradeValidation `json:"result"`
}

// NewRecord builds a journal record from a request and its validation result.
func NewRecord(
	newPositions, existing []models.OptionPosition,
	cash float64,
	profile models.RiskProfile,
	result *models.OptionsTradeValidation,
) *ValidationRecord {
	rec := &ValidationRecord{
		RiskProfile:       profile,
		Cash:              cash,
		NewPositions:      newPositions,
		ExistingPositions: existing,
		Result:            result,
	}
	if len(newPositions) > 0 {
		rec.Symbol = newPositions[0].Symbol
	}
	if result != nil {
		rec.Strategy = result.Strategy.Type
		rec.EstimatedCost = result.EstimatedCost
		rec.Passed = result.Passed
		rec.Blockers = len(result.Blockers())
		rec.Warnings = len(result.Warnings())
	}
	return rec
}

// ValidationFilter represents filters for querying the journal.
type ValidationFilter struct {
	Symbol    string
	Strategy  models.StrategyType
	Passed    *bool
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
