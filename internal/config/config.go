// Package config provides configuration management for the options risk engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"options-risk/internal/errors"
	"options-risk/internal/logging"
	"options-risk/internal/models"
)

// Config holds all application configuration.
type Config struct {
	GreeksLimits models.GreeksLimits `mapstructure:"greeks_limits"`
	Pricing      PricingConfig       `mapstructure:"pricing"`
	Probability  ProbabilityConfig   `mapstructure:"probability"`
	MarketData   MarketDataConfig    `mapstructure:"market_data"`
	Risk         RiskConfig          `mapstructure:"risk"`
	Store        StoreConfig         `mapstructure:"store"`
	Logging      logging.LogConfig   `mapstructure:"logging"`
}

// PricingConfig holds inputs handed to the pricing oracle.
type PricingConfig struct {
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`
	ContractMultiplier float64 `mapstructure:"contract_multiplier"`
}

// ProbabilityConfig holds probability-engine settings.
type ProbabilityConfig struct {
	// EarlyExitPlaceholder is reported for both profit targets until a
	// simulation-based estimator replaces it.
	EarlyExitPlaceholder float64 `mapstructure:"early_exit_placeholder"`
}

// MarketDataConfig selects and configures the IV-rank provider.
type MarketDataConfig struct {
	Provider        string  `mapstructure:"provider"` // static, redis
	DefaultIVRank   float64 `mapstructure:"default_iv_rank"`
	IVRankThreshold float64 `mapstructure:"iv_rank_threshold"`
	RedisURL        string  `mapstructure:"redis_url"`
	RedisKeyPrefix  string  `mapstructure:"redis_key_prefix"`
}

// RiskConfig holds thresholds for the risk-check pipeline.
type RiskConfig struct {
	CapitalWarningFraction       float64 `mapstructure:"capital_warning_fraction"`
	DeltaWarningFraction         float64 `mapstructure:"delta_warning_fraction"`
	MaxPositionsPerSymbol        int     `mapstructure:"max_positions_per_symbol"`
	MaxPositionsPerExpiry        int     `mapstructure:"max_positions_per_expiry"`
	MaxPositionsPerStrike        int     `mapstructure:"max_positions_per_strike"`
	AssignmentDTEDays            int     `mapstructure:"assignment_dte_days"`
	AssignmentWarningProbability float64 `mapstructure:"assignment_warning_probability"`
	AssignmentProbabilityCap     float64 `mapstructure:"assignment_probability_cap"`
}

// StoreConfig holds validation journal settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultRiskConfig returns the standard risk thresholds.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		CapitalWarningFraction:       0.5,
		DeltaWarningFraction:         0.8,
		MaxPositionsPerSymbol:        3,
		MaxPositionsPerExpiry:        5,
		MaxPositionsPerStrike:        3,
		AssignmentDTEDays:            7,
		AssignmentWarningProbability: 50,
		AssignmentProbabilityCap:     95,
	}
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		GreeksLimits: models.DefaultGreeksLimits(),
		Pricing: PricingConfig{
			RiskFreeRate:       0.05,
			ContractMultiplier: models.ContractMultiplier,
		},
		Probability: ProbabilityConfig{EarlyExitPlaceholder: 0.70},
		MarketData: MarketDataConfig{
			Provider:        "static",
			DefaultIVRank:   50,
			IVRankThreshold: 50,
			RedisKeyPrefix:  "ivrank:",
		},
		Risk:    DefaultRiskConfig(),
		Store:   StoreConfig{Path: filepath.Join(DefaultConfigDir(), "validations.db")},
		Logging: logging.DefaultLogConfig(),
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-risk"
	}
	return filepath.Join(home, ".config", "options-risk")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(configDir, "validations.db")
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("greeks_limits.max_delta", d.GreeksLimits.MaxDelta)
	v.SetDefault("greeks_limits.max_gamma", d.GreeksLimits.MaxGamma)
	v.SetDefault("greeks_limits.max_vega", d.GreeksLimits.MaxVega)
	v.SetDefault("greeks_limits.max_theta", d.GreeksLimits.MaxTheta)

	v.SetDefault("pricing.risk_free_rate", d.Pricing.RiskFreeRate)
	v.SetDefault("pricing.contract_multiplier", d.Pricing.ContractMultiplier)

	v.SetDefault("probability.early_exit_placeholder", d.Probability.EarlyExitPlaceholder)

	v.SetDefault("market_data.provider", d.MarketData.Provider)
	v.SetDefault("market_data.default_iv_rank", d.MarketData.DefaultIVRank)
	v.SetDefault("market_data.iv_rank_threshold", d.MarketData.IVRankThreshold)
	v.SetDefault("market_data.redis_url", d.MarketData.RedisURL)
	v.SetDefault("market_data.redis_key_prefix", d.MarketData.RedisKeyPrefix)

	v.SetDefault("risk.capital_warning_fraction", d.Risk.CapitalWarningFraction)
	v.SetDefault("risk.delta_warning_fraction", d.Risk.DeltaWarningFraction)
	v.SetDefault("risk.max_positions_per_symbol", d.Risk.MaxPositionsPerSymbol)
	v.SetDefault("risk.max_positions_per_expiry", d.Risk.MaxPositionsPerExpiry)
	v.SetDefault("risk.max_positions_per_strike", d.Risk.MaxPositionsPerStrike)
	v.SetDefault("risk.assignment_dte_days", d.Risk.AssignmentDTEDays)
	v.SetDefault("risk.assignment_warning_probability", d.Risk.AssignmentWarningProbability)
	v.SetDefault("risk.assignment_probability_cap", d.Risk.AssignmentProbabilityCap)

	// Empty so Load places the journal in the config directory.
	v.SetDefault("store.path", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("OPTRISK_IV_PROVIDER"); v != "" {
		cfg.MarketData.Provider = v
	}
	if v := os.Getenv("OPTRISK_REDIS_URL"); v != "" {
		cfg.MarketData.RedisURL = v
	}
	if v := os.Getenv("OPTRISK_RISK_FREE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(errors.ErrConfigInvalid, "OPTRISK_RISK_FREE_RATE %q is not a number", v)
		}
		cfg.Pricing.RiskFreeRate = rate
	}
	if v := os.Getenv("OPTRISK_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("OPTRISK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	l := c.GreeksLimits
	if l.MaxDelta <= 0 || l.MaxGamma <= 0 || l.MaxVega <= 0 || l.MaxTheta <= 0 {
		return fmt.Errorf("greeks limits must be positive")
	}

	if c.Pricing.ContractMultiplier <= 0 {
		return fmt.Errorf("contract_multiplier must be positive")
	}

	if c.Probability.EarlyExitPlaceholder < 0 || c.Probability.EarlyExitPlaceholder > 1 {
		return fmt.Errorf("early_exit_placeholder must be between 0 and 1")
	}

	switch c.MarketData.Provider {
	case "static":
	case "redis":
		if c.MarketData.RedisURL == "" {
			return fmt.Errorf("redis_url is required when market_data.provider is redis")
		}
	default:
		return fmt.Errorf("invalid market_data.provider: %s (must be 'static' or 'redis')", c.MarketData.Provider)
	}
	if c.MarketData.DefaultIVRank < 0 || c.MarketData.DefaultIVRank > 100 {
		return fmt.Errorf("default_iv_rank must be between 0 and 100")
	}
	if c.MarketData.IVRankThreshold < 0 || c.MarketData.IVRankThreshold > 100 {
		return fmt.Errorf("iv_rank_threshold must be between 0 and 100")
	}

	r := c.Risk
	if r.CapitalWarningFraction <= 0 || r.CapitalWarningFraction > 1 {
		return fmt.Errorf("capital_warning_fraction must be in (0, 1]")
	}
	if r.DeltaWarningFraction <= 0 || r.DeltaWarningFraction > 1 {
		return fmt.Errorf("delta_warning_fraction must be in (0, 1]")
	}
	if r.MaxPositionsPerSymbol < 1 || r.MaxPositionsPerExpiry < 1 || r.MaxPositionsPerStrike < 1 {
		return fmt.Errorf("position clustering limits must be at least 1")
	}
	if r.AssignmentProbabilityCap <= 0 || r.AssignmentProbabilityCap > 100 {
		return fmt.Errorf("assignment_probability_cap must be in (0, 100]")
	}

	return nil
}
