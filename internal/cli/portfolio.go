package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"zerodha-roast/internal/kite"
	"zerodha-roast/internal/portfolio"
)

// addPortfolioCommands adds account views.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHoldingsCmd(app))
	rootCmd.AddCommand(newMarginsCmd(app))
}

func newHoldingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Show holdings with P&L",
		Example: `  roast holdings
  roast holdings --raw --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			creds := credentials(cmd)
			svc := app.Service()

			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				holdings, err := svc.FetchHoldings(cmd.Context(), creds)
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(holdings)
				}
				displayHoldings(output, portfolio.Summarize(holdings))
				return nil
			}

			summary, err := svc.PortfolioSummary(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(summary)
			}
			displayHoldings(output, *summary)
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "print the broker's holdings without derived values")
	return cmd
}

func displayHoldings(output *Output, s portfolio.Summary) {
	if s.Count == 0 {
		output.Info("No holdings")
		return
	}

	output.Bold("Holdings (%d)", s.Count)
	output.Println()

	table := NewTable(output, "Symbol", "Qty", "Avg", "LTP", "Invested", "Current", "P&L", "P&L %")
	for _, p := range s.Positions {
		table.AddRow(
			p.Tradingsymbol,
			FormatQuantity(int64(p.Quantity)),
			FormatPrice(p.AveragePrice),
			FormatPrice(p.LastPrice),
			FormatIndianCurrency(p.InvestedValue),
			FormatIndianCurrency(p.CurrentValue),
			output.PnL(p.PnL),
			output.Percent(p.PnLPercent),
		)
	}
	table.Render()

	output.Println()
	output.Printf("  Invested:   %s\n", FormatIndianCurrency(s.InvestedValue))
	output.Printf("  Current:    %s\n", FormatIndianCurrency(s.CurrentValue))
	output.Printf("  Total P&L:  %s (%s)\n", output.PnL(s.TotalPnL), output.Percent(s.PnLPercent))
	output.Printf("  Day Change: %s\n", output.PnL(s.DayChange))
	output.Dim("  %d up, %d down", s.Gainers, s.Losers)
}

func newMarginsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "margins",
		Short: "Show available and used margin",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			margins, err := app.Service().FetchMargins(cmd.Context(), credentials(cmd))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(margins)
			}
			displayMargins(output, margins)
			return nil
		},
	}
}

func displayMargins(output *Output, m *kite.Margins) {
	table := NewTable(output, "Segment", "Enabled", "Live Balance", "Available", "Used", "Net")
	for _, seg := range []struct {
		name string
		m    kite.SegmentMargin
	}{
		{"Equity", m.Equity},
		{"Commodity", m.Commodity},
	} {
		table.AddRow(
			seg.name,
			strconv.FormatBool(seg.m.Enabled),
			FormatIndianCurrency(seg.m.Available.LiveBalance),
			FormatIndianCurrency(seg.m.AvailableTotal),
			FormatIndianCurrency(seg.m.Used),
			FormatIndianCurrency(seg.m.Net),
		)
	}
	table.Render()
}
