package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Risk Engine Configuration

[greeks_limits]
# Absolute limits on combined portfolio Greeks (per-contract units)
max_delta = 200.0
max_gamma = 20.0
# Dollars per volatility point
max_vega = 500.0
# Dollars per day; exceeding it only warns
max_theta = 100.0

[pricing]
# Annual risk-free rate handed to the pricing oracle
risk_free_rate = 0.05
# Shares per contract
contract_multiplier = 100.0

[probability]
# Reported for the 25% and 50% profit targets
early_exit_placeholder = 0.70

[market_data]
# IV rank source: "static" or "redis"
provider = "static"
# Value returned by the static provider
default_iv_rank = 50.0
# Credit trades below this IV rank get a warning
iv_rank_threshold = 50.0
# Used when provider = "redis", e.g. "redis://localhost:6379/0"
redis_url = ""
redis_key_prefix = "ivrank:"

[risk]
# Debits above this fraction of cash warn
capital_warning_fraction = 0.5
# Delta above this fraction of its limit warns
delta_warning_fraction = 0.8
# Warn when this many positions already exist in a symbol
max_positions_per_symbol = 3
# Warn when more positions than this share an expiry
max_positions_per_expiry = 5
# Warn when more positions than this share a symbol and strike
max_positions_per_strike = 3
# Short ITM legs expiring within this many days are checked for assignment
assignment_dte_days = 7
assignment_warning_probability = 50.0
assignment_probability_cap = 95.0

[store]
# Validation journal (SQLite); empty uses ~/.config/options-risk/validations.db
path = ""

[logging]
level = "info"
console = true
file = false
max_size = 100
max_backups = 7
max_age = 30
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
