package cli

import (
	"context"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"options-risk/internal/errors"
	"options-risk/internal/logging"
	"options-risk/internal/models"
	"options-risk/internal/probability"
	"options-risk/internal/store"
	"options-risk/internal/strategy"
)

const validateTimeout = 30 * time.Second

// addOptionsCommands adds the trade validation commands.
func addOptionsCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newValidateCmd(app))
	rootCmd.AddCommand(newClassifyCmd(app))
}

// validateResponse is the JSON shape of the validate command.
type validateResponse struct {
	ID         string                         `json:"id,omitempty"`
	Validation *models.OptionsTradeValidation `json:"validation"`
}

func newValidateCmd(app *App) *cobra.Command {
	var (
		file    string
		cash    float64
		profile string
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a proposed options trade",
		Long: `Validate a proposed options trade against the existing portfolio.

The trade request file (YAML or JSON) lists new_positions and
existing_positions. --cash and --profile override the values in the file.`,
		Example: `  optrisk validate -f iron-condor.yaml
  optrisk validate -f trade.json --cash 25000 --profile conservative --save
  cat trade.yaml | optrisk validate -f - --json`,
		RunE: app.closing(func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req, err := LoadTradeRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cash") {
				req.Cash = cash
			}
			if cmd.Flags().Changed("profile") {
				req.RiskProfile = profile
			}

			riskProfile, err := req.Profile()
			if err != nil {
				return err
			}
			newPositions, existing, err := req.Positions()
			if err != nil {
				return err
			}

			engine, err := app.engine()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(logging.WithLogger(cmd.Context(), app.Logger), validateTimeout)
			defer cancel()

			result, err := engine.ValidateOptionsTrade(ctx, newPositions, existing, req.Cash, riskProfile)
			if err != nil {
				return errors.Wrap(err, "validation failed")
			}

			resp := validateResponse{Validation: result}
			if save {
				journal, err := app.journal()
				if err != nil {
					return err
				}
				rec := store.NewRecord(newPositions, existing, req.Cash, riskProfile, result)
				if err := journal.SaveValidation(ctx, rec); err != nil {
					return err
				}
				resp.ID = rec.ID
			}

			if output.IsJSON() {
				if err := output.JSON(resp); err != nil {
					return err
				}
			} else {
				renderValidation(output, result)
				if resp.ID != "" {
					output.Dim("Saved to journal as %s", resp.ID)
				}
			}

			if !result.Passed {
				return errors.ErrTradeBlocked
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "trade request file (YAML or JSON, - for stdin)")
	cmd.Flags().Float64Var(&cash, "cash", 0, "available cash (overrides the request file)")
	cmd.Flags().StringVar(&profile, "profile", "", "risk profile: conservative, moderate, aggressive")
	cmd.Flags().BoolVar(&save, "save", false, "record the result in the validation journal")
	cmd.MarkFlagRequired("file")

	return cmd
}

// classification is the JSON shape of the classify command.
type classification struct {
	Strategy   models.StrategyInfo `json:"strategy"`
	Breakevens []float64           `json:"breakevens"`
}

func newClassifyCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the new legs of a trade request",
		Long:  "Classify the strategy of a trade request and show its cost, max loss, max profit and breakevens without running risk checks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req, err := LoadTradeRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			newPositions, _, err := req.Positions()
			if err != nil {
				return err
			}

			breakevens, err := probability.Breakevens(newPositions)
			if err != nil {
				return err
			}
			result := classification{
				Strategy:   strategy.Analyze(newPositions),
				Breakevens: breakevens,
			}
			app.Logger.Debug().Str("strategy", string(result.Strategy.Type)).Msg("Trade classified")

			if output.IsJSON() {
				return output.JSON(result)
			}
			renderStrategy(output, result.Strategy)
			output.Printf("  Breakevens:   %s\n", formatBreakevens(breakevens))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "trade request file (YAML or JSON, - for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func renderStrategy(output *Output, info models.StrategyInfo) {
	output.Bold("%s (%d legs)", info.Type, info.LegCount)
	output.Printf("  Net premium:  %s\n", FormatCost(info.EstimatedCost))
	output.Printf("  Max loss:     %s\n", FormatBound(info.MaxLoss, info.MaxLossUnlimited))
	output.Printf("  Max profit:   %s\n", FormatBound(info.MaxProfit, info.MaxProfitUnlimited))
}

func renderValidation(output *Output, v *models.OptionsTradeValidation) {
	renderStrategy(output, v.Strategy)
	output.Println()

	checks := output.NewTable("Risk Checks", table.Row{"Check", "Level", "Current", "Limit", "Message"})
	for _, c := range v.Checks {
		checks.AppendRow(table.Row{c.Name, output.FormatLevel(c.Level), FormatOptional(c.Current), FormatOptional(c.Limit), c.Message})
	}
	checks.Render()
	output.Println()

	greeksTable := output.NewTable("Greeks", table.Row{"", "Delta", "Gamma", "Theta", "Vega", "Rho"})
	for _, row := range []struct {
		label string
		g     models.Greeks
	}{
		{"Current", v.Greeks.Current},
		{"New", v.Greeks.New},
		{"Combined", v.Greeks.Combined},
	} {
		greeksTable.AppendRow(table.Row{row.label, FormatGreek(row.g.Delta), FormatGreek(row.g.Gamma),
			FormatGreek(row.g.Theta), FormatGreek(row.g.Vega), FormatGreek(row.g.Rho)})
	}
	greeksTable.Render()
	output.Println()

	output.Printf("  Breakevens:            %s\n", formatBreakevens(v.Probability.Breakevens))
	output.Printf("  Probability of profit: %s\n", FormatProbability(v.Probability.ProbabilityOfProfit))
	output.Printf("  Early exit (25%%/50%%):  %s / %s\n",
		FormatProbability(v.Probability.EarlyExit.ProfitTarget25),
		FormatProbability(v.Probability.EarlyExit.ProfitTarget50))
	output.Println()

	blockers, warnings := len(v.Blockers()), len(v.Warnings())
	if v.Passed {
		output.Success("✓ PASSED (%d warnings)", warnings)
	} else {
		output.Error("✗ BLOCKED (%d blockers, %d warnings)", blockers, warnings)
	}
}

func formatBreakevens(b []float64) string {
	if len(b) == 0 {
		return "-"
	}
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = FormatDollars(v)
	}
	return strings.Join(parts, ", ")
}
