package cli

import (
	"github.com/spf13/cobra"

	"board-tracker/internal/tui"
)

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive controller editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := tui.NewStatusLine()
			s, err := app.newSession(status)
			if err != nil {
				return err
			}

			m := tui.NewModel(cmd.Context(), s, tui.Options{
				Timeout:         app.Config.Agent.Timeout,
				Status:          status,
				MaskCredentials: app.Config.Security.MaskCredentials,
			})
			return tui.Run(m)
		},
	}
}
