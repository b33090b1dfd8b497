package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-risk/internal/config"
	"options-risk/internal/logging"
	"options-risk/internal/marketdata"
	"options-risk/internal/store"
	"options-risk/internal/validation"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-16"
)

// App holds the application dependencies. Config is loaded before any command
// runs; the engine and journal are opened on first use.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Engine    *validation.Engine
	IVRanks   marketdata.IVRankProvider
	Store     store.ValidationStore
}

// NewRootCmd creates the root command for the CLI. A nil cfg is loaded from
// the --config directory when a command runs.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return newRootCmd(&App{
		Config: cfg,
		Logger: logger,
	})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "optrisk",
		Short: "Options Risk Engine - pre-trade risk validation for option strategies",
		Long: `optrisk validates proposed option trades before they are placed.

It classifies the strategy, aggregates portfolio Greeks, estimates the
probability of profit and runs a fixed sequence of risk checks. Any BLOCKER
check fails the trade.

Use 'optrisk validate -f trade.yaml' to validate a trade request file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				if dir == "" {
					dir = config.DefaultConfigDir()
				}
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.ConfigDir = dir
				app.Logger = logging.NewLoggerWithConfig(loaded.Logging)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-risk)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addOptionsCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)

	return rootCmd
}

// engine returns the validation engine, building it on first use.
func (a *App) engine() (*validation.Engine, error) {
	if a.Engine != nil {
		return a.Engine, nil
	}
	if a.IVRanks == nil {
		provider, err := marketdata.NewProvider(a.Config.MarketData)
		if err != nil {
			return nil, err
		}
		a.IVRanks = provider
		a.Logger.Debug().Str("provider", a.Config.MarketData.Provider).Msg("IV rank provider initialized")
	}
	a.Engine = validation.NewEngineFromConfig(a.Config, a.IVRanks, a.Logger)
	return a.Engine, nil
}

// journal returns the validation journal, opening it on first use.
func (a *App) journal() (store.ValidationStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open validation journal: %w", err)
	}
	a.Store = s
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
	return s, nil
}

// closing wraps a command so the journal and provider are released even
// when the command fails. Cobra skips post-run hooks after a RunE error.
func (a *App) closing(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
}

// Close releases the journal and any provider connection.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
		a.Store = nil
	}
	if closer, ok := a.IVRanks.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.IVRanks = nil
		a.Engine = nil
	}
	return firstErr
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Options Risk Engine v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := app.ConfigDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": dir})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Greeks Limits")
	output.Printf("  Max Delta:        %.2f\n", cfg.GreeksLimits.MaxDelta)
	output.Printf("  Max Gamma:        %.2f\n", cfg.GreeksLimits.MaxGamma)
	output.Printf("  Max Vega:         %s\n", FormatDollars(cfg.GreeksLimits.MaxVega))
	output.Printf("  Max Theta:        %s/day\n", FormatDollars(cfg.GreeksLimits.MaxTheta))
	output.Println()

	output.Bold("Pricing")
	output.Printf("  Risk-free Rate:   %.2f%%\n", cfg.Pricing.RiskFreeRate*100)
	output.Printf("  Multiplier:       %.0f\n", cfg.Pricing.ContractMultiplier)
	output.Printf("  Early Exit Prob:  %s\n", FormatProbability(cfg.Probability.EarlyExitPlaceholder))
	output.Println()

	output.Bold("Market Data")
	output.Printf("  IV Rank Provider: %s\n", cfg.MarketData.Provider)
	if cfg.MarketData.Provider == "redis" {
		output.Printf("  Redis Prefix:     %s\n", cfg.MarketData.RedisKeyPrefix)
	} else {
		output.Printf("  Static IV Rank:   %.0f\n", cfg.MarketData.DefaultIVRank)
	}
	output.Printf("  IV Rank Minimum:  %.0f\n", cfg.MarketData.IVRankThreshold)
	output.Println()

	output.Bold("Risk Checks")
	output.Printf("  Capital Warning:  %.0f%% of cash\n", cfg.Risk.CapitalWarningFraction*100)
	output.Printf("  Delta Warning:    %.0f%% of limit\n", cfg.Risk.DeltaWarningFraction*100)
	output.Printf("  Per Symbol:       %d\n", cfg.Risk.MaxPositionsPerSymbol)
	output.Printf("  Per Expiry:       %d\n", cfg.Risk.MaxPositionsPerExpiry)
	output.Printf("  Per Strike:       %d\n", cfg.Risk.MaxPositionsPerStrike)
	output.Printf("  Assignment DTE:   < %d days\n", cfg.Risk.AssignmentDTEDays)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Journal:          %s\n", cfg.Store.Path)

	return nil
}
