package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"board-tracker/internal/editor"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
	"board-tracker/pkg/utils"
)

func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newInstrumentsCmd(app))
	rootCmd.AddCommand(newTickerCmd(app))
}

func newInstrumentsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "instruments <exchange>",
		Short: "List the instruments of an exchange by 24h volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := models.ParseExchangeName(args[0])
			if err != nil {
				return err
			}
			s, err := app.commandSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := app.timeout(cmd)
			defer cancel()
			instruments, err := s.FetchInstruments(ctx, exchange)
			if err != nil {
				return err
			}
			instruments = market.ByVolume(instruments)
			if limit > 0 && len(instruments) > limit {
				instruments = instruments[:limit]
			}

			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(instruments)
			}
			if len(instruments) == 0 {
				output.Warning("No instruments listed on %s", exchange)
				return nil
			}
			table := NewTable(output, "SYMBOL", "LTP", "VOLUME 24H", "PRICE TICK", "SIZE TICK", "SIZE MIN")
			for _, inst := range instruments {
				table.AddRow(
					inst.Symbol,
					formatFloat(inst.LTP),
					utils.FormatNumber(inst.Volume24h),
					formatFloat(inst.PriceTick),
					formatFloat(inst.SizeTick),
					formatFloat(inst.SizeMin),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many instruments")
	return cmd
}

func newTickerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ticker <exchange> <symbol>",
		Short: "Show a live quote and the board window derived from it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.commandSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Edit(editor.Edit{Field: editor.ExchangeName, Value: args[0]}); err != nil {
				return err
			}
			if err := s.Edit(editor.Edit{Field: editor.OrderSymbol, Value: args[1]}); err != nil {
				return err
			}

			ctx, cancel := app.timeout(cmd)
			defer cancel()
			ticker, err := s.FetchTicker(ctx, s.Draft().Order.Symbol)
			if err != nil {
				return err
			}
			board := s.Draft().Board

			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"ticker": ticker,
					"board":  board,
				})
			}
			output.Box(ticker.Symbol, []string{
				"ltp          " + formatFloat(ticker.LTP),
				"best ask     " + output.Red(formatFloat(ticker.BestAsk)),
				"best bid     " + output.Green(formatFloat(ticker.BestBid)),
				"volume 24h   " + utils.FormatNumber(ticker.Volume24h),
				"",
				"board.hight  " + formatFloat(board.Hight),
				"board.low    " + formatFloat(board.Low),
				"board.size   " + formatFloat(board.Size),
			})
			return nil
		},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
