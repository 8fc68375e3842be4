package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"board-tracker/internal/agent"
	"board-tracker/internal/config"
	"board-tracker/internal/market"
	"board-tracker/internal/server"
	"board-tracker/internal/store"
)

func newAgentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run a local tracking agent",
	}
	cmd.AddCommand(newAgentServeCmd(app))
	return cmd
}

func newAgentServeCmd(app *App) *cobra.Command {
	var addr, dbPath string
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the paper agent over HTTP",
		Long: `Serve runs an in-process agent that honours the controller commands and
answers instrument and ticker queries from the [paper] section of config.toml.
No orders are placed. The accepted controller is kept in SQLite unless
--memory is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			if dbPath == "" {
				dbPath = app.Config.Server.DBPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var st store.ControllerStore
			if !memory {
				sqlite, err := store.NewSQLiteStore(dbPath)
				if err != nil {
					return err
				}
				defer sqlite.Close()
				st = sqlite
				app.Logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
			}

			local, err := newPaperAgent(ctx, app.Config, st, app.Logger)
			if err != nil {
				return err
			}

			srv := server.New(local, server.Options{
				Logger:      app.Logger,
				CORSOrigins: app.Config.Server.CORSOrigins,
			})
			output := app.output(cmd)
			if !output.IsJSON() {
				output.Info("Paper agent listening on %s", addr)
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: server.db_path)")
	cmd.Flags().BoolVar(&memory, "memory", false, "keep the controller in memory only")
	return cmd
}

// newPaperAgent builds a Local agent fed by the configured paper instruments.
func newPaperAgent(ctx context.Context, cfg *config.Config, st store.ControllerStore, logger zerolog.Logger) (*agent.Local, error) {
	return agent.NewLocal(ctx, agent.LocalOptions{
		Feed:   market.NewFeed(cfg.Paper.Quotes()),
		Store:  st,
		Logger: logger,
	})
}
