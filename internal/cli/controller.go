package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"board-tracker/internal/editor"
	"board-tracker/internal/models"
	"board-tracker/internal/security"
	"board-tracker/internal/session"
)

func addControllerCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newLifecycleCmd(app, "start", "Start the tracking agent", (*session.Session).Start))
	rootCmd.AddCommand(newLifecycleCmd(app, "stop", "Stop the tracking agent", (*session.Session).Stop))
	rootCmd.AddCommand(newLifecycleCmd(app, "reset", "Reset the agent to the default controller", (*session.Session).Reset))
	rootCmd.AddCommand(newSaveCmd(app))
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the agent's controller and run state",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ag, err := app.connect()
			if err != nil {
				return err
			}
			ctx, cancel := app.timeout(cmd)
			defer cancel()

			if hc, ok := ag.(healthChecker); ok {
				if err := hc.Health(ctx); err != nil {
					output.Error("Agent at %s is not reachable", app.Config.Agent.URL)
					return err
				}
			}

			c, err := ag.GetController(ctx)
			if err != nil {
				return err
			}
			return app.printController(output, *c)
		},
	}
}

func newLifecycleCmd(app *App, use, short string, action func(*session.Session, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.commandSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := app.timeout(cmd)
			defer cancel()
			if err := action(s, ctx); err != nil {
				return err
			}
			return app.printController(app.output(cmd), s.Draft())
		},
	}
}

// fieldFlag is the flag name of an editable field: board.hight -> board-hight.
func fieldFlag(f editor.Field) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(string(f))
}

func newSaveCmd(app *App) *cobra.Command {
	var noEnrich, put bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Edit the agent's controller and submit it",
		Long: `Save loads the agent's current controller, applies the given field flags and
submits the result with post_controller (or put_controller with --put).

Selecting an exchange refreshes its instruments and selecting a symbol derives
the board window from the live ticker, unless --no-enrich is given. Explicit
board flags are applied after the derivation. Missing credentials are taken
from credentials.toml.`,
		Example: `  tracker save --exchange-name bybit --order-symbol BTCUSDT
  tracker save --board-side bid --order-size 0.01 --put`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.commandSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := app.timeout(cmd)
			defer cancel()

			if err := s.Load(ctx); err != nil {
				return err
			}
			if err := app.applyFieldFlags(ctx, cmd, s, !noEnrich); err != nil {
				return err
			}

			submit := s.Save
			if put {
				submit = s.Update
			}
			if err := submit(ctx); err != nil {
				return err
			}
			return app.printController(app.output(cmd), s.Draft())
		},
	}

	for _, f := range editor.AllFields() {
		usage := fmt.Sprintf("set %s", f)
		if opts := editor.Options(f); opts != nil {
			usage = fmt.Sprintf("set %s (%s)", f, strings.Join(opts, ", "))
		}
		cmd.Flags().String(fieldFlag(f), "", usage)
	}
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "do not fetch instruments or ticker")
	cmd.Flags().BoolVar(&put, "put", false, "submit with put_controller")

	return cmd
}

// applyFieldFlags edits the draft from the changed field flags. The exchange
// goes first, then credentials from config, then the symbol, then the rest
// in presentation order.
func (a *App) applyFieldFlags(ctx context.Context, cmd *cobra.Command, s *session.Session, enrich bool) error {
	value := func(f editor.Field) (string, bool) {
		flag := cmd.Flags().Lookup(fieldFlag(f))
		if flag == nil || !flag.Changed {
			return "", false
		}
		return flag.Value.String(), true
	}

	if v, ok := value(editor.ExchangeName); ok {
		var err error
		if enrich {
			err = s.SelectExchange(ctx, v)
		} else {
			err = s.Edit(editor.Edit{Field: editor.ExchangeName, Value: v})
		}
		if err != nil {
			return err
		}
	}

	if err := a.fillCredentials(cmd, s); err != nil {
		return err
	}

	if v, ok := value(editor.OrderSymbol); ok {
		var err error
		if enrich {
			err = s.SelectSymbol(ctx, v)
		} else {
			err = s.Edit(editor.Edit{Field: editor.OrderSymbol, Value: v})
		}
		if err != nil {
			return err
		}
	}

	for _, f := range editor.AllFields() {
		if f == editor.ExchangeName || f == editor.OrderSymbol {
			continue
		}
		if v, ok := value(f); ok {
			if err := s.Edit(editor.Edit{Field: f, Value: v}); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillCredentials copies configured credentials into empty draft fields
// unless the operator passed them as flags.
func (a *App) fillCredentials(cmd *cobra.Command, s *session.Session) error {
	draft := s.Draft()
	if draft.Exchange.Name == "" {
		return nil
	}
	creds := a.Config.Credentials.For(draft.Exchange.Name)

	fill := []struct {
		field   editor.Field
		current string
		value   string
	}{
		{editor.ExchangeKey, draft.Exchange.Key, creds.APIKey},
		{editor.ExchangeSecret, draft.Exchange.Secret, creds.APISecret},
		{editor.ExchangePassphrase, draft.Exchange.Passphrase, creds.Passphrase},
	}
	for _, f := range fill {
		if f.current != "" || f.value == "" || cmd.Flags().Changed(fieldFlag(f.field)) {
			continue
		}
		if err := s.Edit(editor.Edit{Field: f.field, Value: f.value}); err != nil {
			return err
		}
		a.Logger.Debug().Str("field", string(f.field)).Msg("Filled credential from config")
	}
	return nil
}

func (a *App) printController(output *Output, c models.Controller) error {
	mask := a.Config.Security.MaskCredentials
	if output.IsJSON() {
		if mask {
			c = security.RedactController(c)
		}
		return output.JSON(c)
	}

	lines := []string{fmt.Sprintf("%-20s %s", "state", output.RunState(c.IsRunning))}
	for _, f := range editor.Fields(c) {
		v := editor.Value(c, f)
		if editor.Secret(f) && mask {
			v = security.MaskCredential(v)
		}
		if v == "" {
			v = output.DimText("-")
		}
		lines = append(lines, fmt.Sprintf("%-20s %s", f, v))
	}
	lines = append(lines, fmt.Sprintf("%-20s %s", "order.tick_size", formatFloat(c.Order.TickSize)))
	output.Box("Controller", lines)
	return nil
}
