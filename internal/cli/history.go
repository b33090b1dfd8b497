package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"options-risk/internal/models"
	"options-risk/internal/store"
)

// addHistoryCommands adds the validation journal commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newHistoryCmd(app *App) *cobra.Command {
	var (
		symbol       string
		strategyName string
		limit        int
		passedOnly   bool
		blockedOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled validations",
		Long:  "List validations recorded with 'validate --save', newest first.",
		RunE: app.closing(func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			journal, err := app.journal()
			if err != nil {
				return err
			}

			filter := store.ValidationFilter{
				Symbol:   strings.ToUpper(symbol),
				Strategy: models.StrategyType(strings.ToUpper(strategyName)),
				Limit:    limit,
			}
			switch {
			case passedOnly && !blockedOnly:
				passed := true
				filter.Passed = &passed
			case blockedOnly && !passedOnly:
				passed := false
				filter.Passed = &passed
			}

			records, err := journal.GetValidations(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if records == nil {
					records = []store.ValidationRecord{}
				}
				return output.JSON(records)
			}

			if len(records) == 0 {
				output.Dim("No validations recorded")
				return nil
			}

			t := output.NewTable("Validation Journal", table.Row{"ID", "Time", "Symbol", "Strategy", "Net Premium", "Result", "Blockers", "Warnings"})
			for _, r := range records {
				result := output.ColoredString(ColorGreen, "PASSED")
				if !r.Passed {
					result = output.ColoredString(ColorRed, "BLOCKED")
				}
				t.AppendRow(table.Row{
					r.ID,
					r.Timestamp.Local().Format("2006-01-02 15:04"),
					r.Symbol,
					r.Strategy,
					FormatCost(r.EstimatedCost),
					result,
					r.Blockers,
					r.Warnings,
				})
			}
			t.Render()
			return nil
		}),
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by underlying symbol")
	cmd.Flags().StringVar(&strategyName, "strategy", "", "filter by strategy type, e.g. IRON_CONDOR")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records")
	cmd.Flags().BoolVar(&passedOnly, "passed", false, "only passed validations")
	cmd.Flags().BoolVar(&blockedOnly, "blocked", false, "only blocked validations")

	cmd.AddCommand(newHistoryShowCmd(app))

	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journaled validation",
		Args:  cobra.ExactArgs(1),
		RunE: app.closing(func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			journal, err := app.journal()
			if err != nil {
				return err
			}
			rec, err := journal.GetValidationByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(rec)
			}

			output.Info("Validation %s", rec.ID)
			output.Dim("%s  profile %s  cash %s", rec.Timestamp.Local().Format("2006-01-02 15:04:05"), rec.RiskProfile, FormatDollars(rec.Cash))
			for _, leg := range rec.NewPositions {
				output.Printf("  + %s @ %s\n", leg, FormatDollars(leg.Premium))
			}
			output.Println()
			if rec.Result != nil {
				renderValidation(output, rec.Result)
			}
			return nil
		}),
	}
}
