package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"zerodha-roast/internal/kite"
)

// addMarketDataCommands adds quote and instrument commands.
func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newInstrumentsCmd(app))
}

// parseInstrumentArg reads "EXCHANGE:SYMBOL" or a bare symbol, which takes
// the default exchange downstream.
func parseInstrumentArg(arg string) kite.InstrumentKey {
	exchange, symbol, found := strings.Cut(strings.TrimSpace(arg), ":")
	if !found {
		return kite.InstrumentKey{Tradingsymbol: exchange}
	}
	return kite.InstrumentKey{Exchange: exchange, Tradingsymbol: symbol}
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>...",
		Short: "Get quotes for one or more instruments",
		Example: `  roast quote INFY
  roast quote NSE:RELIANCE BSE:TCS`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			keys := make([]kite.InstrumentKey, 0, len(args))
			for _, arg := range args {
				keys = append(keys, parseInstrumentArg(arg))
			}

			quotes, err := app.Service().FetchQuotes(cmd.Context(), credentials(cmd), keys)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(quotes)
			}
			displayQuotes(output, quotes)
			return nil
		},
	}
}

func displayQuotes(output *Output, quotes map[string]kite.Quote) {
	names := make([]string, 0, len(quotes))
	for name := range quotes {
		names = append(names, name)
	}
	sort.Strings(names)

	table := NewTable(output, "Instrument", "LTP", "Change", "Change %", "Volume", "Open", "High", "Low", "Prev Close")
	for _, name := range names {
		q := quotes[name]
		table.AddRow(
			name,
			FormatPrice(q.LastPrice),
			output.paint(PnLColor(q.Change), q.Change.StringFixed(2)),
			output.Percent(q.ChangePercent),
			FormatVolume(q.Volume),
			FormatPrice(q.OHLC.Open),
			FormatPrice(q.OHLC.High),
			FormatPrice(q.OHLC.Low),
			FormatPrice(q.OHLC.Close),
		)
	}
	table.Render()
}

func newInstrumentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instruments",
		Short: "List equity instruments of an exchange",
		Example: `  roast instruments --exchange BSE --limit 50
  roast instruments search INFY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			exchange, _ := cmd.Flags().GetString("exchange")
			limit, _ := cmd.Flags().GetInt("limit")

			list, err := app.Service().ListInstruments(cmd.Context(), exchange)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			total := len(list)
			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
			displayInstruments(output, list)
			output.Dim("%d of %d equity instruments", len(list), total)
			return nil
		},
	}
	cmd.PersistentFlags().StringP("exchange", "e", "", "Exchange (default from config)")
	cmd.Flags().Int("limit", 25, "rows to print (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search equity symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			exchange, _ := cmd.Flags().GetString("exchange")

			results, err := app.Service().SearchInstruments(cmd.Context(), args[0], exchange)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Info("No instruments match %q", args[0])
				return nil
			}
			displayInstruments(output, results)
			return nil
		},
	})

	return cmd
}

func displayInstruments(output *Output, list []kite.Instrument) {
	table := NewTable(output, "Symbol", "Name", "Exchange", "Token", "Lot", "Tick")
	for _, in := range list {
		table.AddRow(in.Tradingsymbol, in.Name, in.Exchange, in.InstrumentToken, in.LotSize, in.TickSize)
	}
	table.Render()
}
