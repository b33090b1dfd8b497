package models

// RiskCheck is the outcome of one risk check. The ordered list of checks on an
// OptionsTradeValidation is the audit trail for a verdict.
type RiskCheck struct {
	Name    string                 `json:"name"`
	Level   RiskLevel              `json:"level"`
	Message string                 `json:"message"`
	Current *float64               `json:"current,omitempty"`
	Limit   *float64               `json:"limit,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewRiskCheck creates a check without numeric values.
func NewRiskCheck(name string, level RiskLevel, message string) RiskCheck {
	return RiskCheck{Name: name, Level: level, Message: message}
}

// WithValues returns a copy of c carrying current and limit values.
func (c RiskCheck) WithValues(current, limit float64) RiskCheck {
	c.Current = &current
	c.Limit = &limit
	return c
}

// WithDetail returns a copy of c with key set in its details.
func (c RiskCheck) WithDetail(key string, value interface{}) RiskCheck {
	details := make(map[string]interface{}, len(c.Details)+1)
	for k, v := range c.Details {
		details[k] = v
	}
	details[key] = value
	c.Details = details
	return c
}

// StrategyInfo describes the classified strategy and its economics.
type StrategyInfo struct {
	Type               StrategyType `json:"type"`
	LegCount           int          `json:"leg_count"`
	EstimatedCost      float64      `json:"estimated_cost"`
	MaxLoss            float64      `json:"max_loss"`
	MaxProfit          float64      `json:"max_profit"`
	MaxLossUnlimited   bool         `json:"max_loss_unlimited"`
	MaxProfitUnlimited bool         `json:"max_profit_unlimited"`
}

// EarlyExitProbabilities estimates the chance of hitting a profit target
// before expiration.
type EarlyExitProbabilities struct {
	ProfitTarget25 float64 `json:"profit_target_25"`
	ProfitTarget50 float64 `json:"profit_target_50"`
}

// ProbabilityAnalysis holds breakevens and probability estimates for a trade.
type ProbabilityAnalysis struct {
	Breakevens          []float64              `json:"breakevens"`
	ProbabilityOfProfit float64                `json:"probability_of_profit"`
	EarlyExit           EarlyExitProbabilities `json:"early_exit"`
}

// BacktestResult summarises a historical backtest of the strategy.
// Validations currently never carry one.
type BacktestResult struct {
	Years       int     `json:"years"`
	Trades      int     `json:"trades"`
	WinRate     float64 `json:"win_rate"`
	AvgReturn   float64 `json:"avg_return"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// OptionsTradeValidation is the complete result of validating one trade.
type OptionsTradeValidation struct {
	Passed        bool                `json:"passed"`
	Checks        []RiskCheck         `json:"checks"`
	Strategy      StrategyInfo        `json:"strategy"`
	Greeks        GreeksImpact        `json:"greeks"`
	Probability   ProbabilityAnalysis `json:"probability"`
	Backtest      *BacktestResult     `json:"backtest"`
	EstimatedCost float64             `json:"estimated_cost"`
}

// Blockers returns the checks at BLOCKER level.
func (v *OptionsTradeValidation) Blockers() []RiskCheck {
	return v.filter(RiskBlocker)
}

// Warnings returns the checks at WARNING level.
func (v *OptionsTradeValidation) Warnings() []RiskCheck {
	return v.filter(RiskWarning)
}

func (v *OptionsTradeValidation) filter(level RiskLevel) []RiskCheck {
	var out []RiskCheck
	for _, c := range v.Checks {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// Passed reports whether no check is a BLOCKER.
func Passed(checks []RiskCheck) bool {
	for _, c := range checks {
		if c.Level == RiskBlocker {
			return false
		}
	}
	return true
}
