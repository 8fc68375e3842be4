package cli

import (
	"time"

	"github.com/spf13/cobra"

	"board-tracker/pkg/utils"
)

func newLogsCmd(app *App) *cobra.Command {
	var clearJournal bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Drain and show the agent's journal",
		Long: `Logs drains the agent's journal. Entries are returned once; a second call only
shows what was written since. With --clear the journal is discarded after it
has been shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.commandSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := app.timeout(cmd)
			defer cancel()
			entries, err := s.FetchLogs(ctx)
			if err != nil {
				return err
			}

			output := app.output(cmd)
			if output.IsJSON() {
				if err := output.JSON(entries); err != nil {
					return err
				}
			} else if len(entries) == 0 {
				output.Dim("No new journal entries")
			} else {
				for _, e := range entries {
					output.Printf("%s  %-7s  %s\n",
						output.DimText(utils.FormatClock(e.Timestamp, time.Local)),
						output.Level(e.Level),
						e.Message)
				}
			}

			if clearJournal {
				if err := s.ClearLogs(ctx); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Success("Journal cleared")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearJournal, "clear", false, "clear the journal after showing it")
	return cmd
}
