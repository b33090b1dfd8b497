// Package models provides domain models for the options risk engine.
package models

import (
	"fmt"
	"strings"
)

// OptionKind represents the type of an option contract.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// Valid reports whether k is a known option kind.
func (k OptionKind) Valid() bool {
	return k == Call || k == Put
}

// OptionAction represents the side of an option leg.
type OptionAction string

const (
	Buy  OptionAction = "BUY"
	Sell OptionAction = "SELL"
)

// Valid reports whether a is a known action.
func (a OptionAction) Valid() bool {
	return a == Buy || a == Sell
}

// Sign returns +1 for BUY and -1 for SELL.
func (a OptionAction) Sign() float64 {
	if a == Sell {
		return -1
	}
	return 1
}

// RiskLevel is the severity of a single risk check.
type RiskLevel string

const (
	RiskPass    RiskLevel = "PASS"
	RiskInfo    RiskLevel = "INFO"
	RiskWarning RiskLevel = "WARNING"
	RiskBlocker RiskLevel = "BLOCKER"
)

// Severity orders risk levels: PASS < INFO < WARNING < BLOCKER.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskPass:
		return 0
	case RiskInfo:
		return 1
	case RiskWarning:
		return 2
	case RiskBlocker:
		return 3
	default:
		return -1
	}
}

// RiskProfile selects the minimum probability of profit a trader accepts.
type RiskProfile string

const (
	Conservative RiskProfile = "CONSERVATIVE"
	Moderate     RiskProfile = "MODERATE"
	Aggressive   RiskProfile = "AGGRESSIVE"
)

// MinProbability returns the minimum acceptable probability of profit.
func (p RiskProfile) MinProbability() (float64, bool) {
	switch p {
	case Conservative:
		return 0.70, true
	case Moderate:
		return 0.60, true
	case Aggressive:
		return 0.50, true
	default:
		return 0, false
	}
}

// ParseRiskProfile parses a risk profile name, case-insensitively.
func ParseRiskProfile(s string) (RiskProfile, error) {
	p := RiskProfile(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := p.MinProbability(); !ok {
		return "", fmt.Errorf("unknown risk profile %q", s)
	}
	return p, nil
}

// StrategyType is the named shape of a set of option legs.
type StrategyType string

const (
	LongCall       StrategyType = "LONG_CALL"
	LongPut        StrategyType = "LONG_PUT"
	ShortCall      StrategyType = "SHORT_CALL"
	ShortPut       StrategyType = "SHORT_PUT"
	CallSpread     StrategyType = "CALL_SPREAD"
	PutSpread      StrategyType = "PUT_SPREAD"
	Straddle       StrategyType = "STRADDLE"
	Strangle       StrategyType = "STRANGLE"
	IronCondor     StrategyType = "IRON_CONDOR"
	IronButterfly  StrategyType = "IRON_BUTTERFLY"
	Butterfly      StrategyType = "BUTTERFLY"
	CalendarSpread StrategyType = "CALENDAR_SPREAD"
	DiagonalSpread StrategyType = "DIAGONAL_SPREAD"
	RatioSpread    StrategyType = "RATIO_SPREAD"
	Custom         StrategyType = "CUSTOM"
)
