// Package cli provides the command-line interface for the board tracker.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"board-tracker/internal/agent"
	"board-tracker/internal/config"
	"board-tracker/internal/logging"
	"board-tracker/internal/models"
	"board-tracker/internal/notify"
	"board-tracker/internal/resilience"
	"board-tracker/internal/security"
	"board-tracker/internal/session"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger

	// NewAgent connects to the tracking agent. When nil an HTTP client for
	// agent.url is used.
	NewAgent func(cfg *config.Config, logger zerolog.Logger) (agent.Agent, error)
}

// NewRootCmd creates the root command for the CLI. When app.Config is nil the
// configuration is loaded from --config before any command runs.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tracker",
		Short: "Board tracker - operator console for the limit-order tracking agent",
		Long: `Board tracker edits the tracking agent's controller, starts and stops it,
and shows the agent's journal.

Run 'tracker edit' for the interactive editor or 'tracker agent serve' to run a
local paper agent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/board-tracker)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("agent", "", "agent URL (overrides agent.url)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addControllerCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	rootCmd.AddCommand(newLogsCmd(app))
	rootCmd.AddCommand(newEditCmd(app))
	rootCmd.AddCommand(newAgentCmd(app))

	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		if dir == "" {
			dir = config.DefaultConfigDir()
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.Config = cfg
		a.ConfigDir = dir
		a.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	if url, _ := cmd.Flags().GetString("agent"); url != "" {
		a.Config.Agent.URL = url
	}
	return nil
}

func (a *App) connect() (agent.Agent, error) {
	if a.NewAgent != nil {
		return a.NewAgent(a.Config, a.Logger)
	}
	return agent.NewHTTPClient(a.Config.Agent.URL, agent.ClientOptions{
		Timeout:   a.Config.Agent.Timeout,
		RateLimit: a.Config.Agent.RateLimit,
		Burst:     a.Config.Agent.Burst,
		Retries:   a.Config.Agent.Retries,
		Breaker: resilience.Config{
			FailureThreshold: a.Config.Agent.BreakerThreshold,
			Cooldown:         a.Config.Agent.BreakerCooldown,
		},
		Logger: a.Logger,
	})
}

// notifier fans session notifications out to the configured channels. The
// first channel is the operator-facing one.
func (a *App) notifier(primary notify.NotificationChannel) notify.Notifier {
	mn := notify.NewMultiNotifier(notify.Filter(a.Config.Notifications.Level), primary)
	if a.Config.Notifications.Webhook.Enabled {
		mn.AddChannel(notify.NewWebhookNotifier(a.Config.Notifications.Webhook.URL, a.Config.Agent.Timeout))
	}
	return mn
}

func (a *App) newSession(primary notify.NotificationChannel) (*session.Session, error) {
	ag, err := a.connect()
	if err != nil {
		return nil, err
	}
	return session.New(ag, session.Options{
		Logger:   a.Logger,
		Notifier: a.notifier(primary),
		Access:   security.NewAccessController(a.Config.Security.ReadOnlyMode),
	}), nil
}

// commandSession opens a session whose notifications go to the command's
// stderr. Notifications are muted in JSON mode.
func (a *App) commandSession(cmd *cobra.Command) (*session.Session, error) {
	terminal := notify.NewTerminalNotifier(cmd.ErrOrStderr(), a.Config.UI.ColorEnabled && isTerminal(cmd.ErrOrStderr()))
	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		terminal.SetEnabled(false)
	}
	return a.newSession(terminal)
}

// timeout bounds one command against the agent.
func (a *App) timeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.Config.Agent.Timeout)
}

func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil && !a.Config.UI.ColorEnabled {
		out.DisableColor()
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Board Tracker v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
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
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			dir := app.ConfigDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": dir, "file": config.ConfigFile(dir)})
			} else {
				output.Println(dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Agent")
	output.Printf("  URL:             %s\n", cfg.Agent.URL)
	output.Printf("  Timeout:         %s\n", cfg.Agent.Timeout)
	output.Printf("  Rate limit:      %.1f req/s (burst %d)\n", cfg.Agent.RateLimit, cfg.Agent.Burst)
	output.Printf("  Retries:         %d\n", cfg.Agent.Retries)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Database:        %s\n", cfg.Server.DBPath)
	output.Printf("  CORS origins:    %v\n", cfg.Server.CORSOrigins)
	output.Printf("  Paper symbols:   %d\n", len(cfg.Paper.Instruments))
	output.Println()

	output.Bold("Security")
	output.Printf("  Read-only:       %v\n", cfg.Security.ReadOnlyMode)
	output.Printf("  Mask secrets:    %v\n", cfg.Security.MaskCredentials)
	output.Println()

	output.Bold("Credentials")
	for _, name := range models.SupportedExchanges() {
		key := "(none)"
		if creds := cfg.Credentials.For(name); creds.APIKey != "" {
			key = security.MaskCredential(creds.APIKey)
		}
		output.Printf("  %-16s %s\n", string(name)+":", key)
	}
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Level:           %s\n", cfg.Notifications.Level)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)
}
