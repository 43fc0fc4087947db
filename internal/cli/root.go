package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zerodha-roast/internal/config"
	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/gateway"
	"zerodha-roast/internal/kite"
	"zerodha-roast/internal/logging"
	"zerodha-roast/internal/metrics"
	"zerodha-roast/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// Environment variables read when the credential flags are not set.
const (
	EnvAPIKey      = "KITE_API_KEY"
	EnvAPISecret   = "KITE_API_SECRET"
	EnvAccessToken = "KITE_ACCESS_TOKEN"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Metrics   *metrics.Collector // only set by serve

	audit *security.AuditLogger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return newRootCmd(&App{
		Config: cfg,
		Logger: logger,
	})
}

// NewLogger builds the process logger from the [log] config section.
func NewLogger(c config.LogConfig) zerolog.Logger {
	lc := logging.DefaultLogConfig()
	lc.Level = c.Level
	lc.Console = c.Console
	lc.File = c.File
	if c.FilePath != "" {
		lc.FilePath = c.FilePath
	}
	return logging.NewLoggerWithConfig(lc)
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roast",
		Short: "Zerodha Kite gateway",
		Long: `roast is a stateless gateway in front of the Zerodha Kite Connect API.

'roast serve' exposes the JSON API for the browser client. The remaining
commands run the same operations once from the terminal, using --api-key and
--access-token or the KITE_API_KEY and KITE_ACCESS_TOKEN environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.ConfigDir = dir
				app.Logger = NewLogger(loaded.Log)
			}
			if app.Config == nil {
				app.Config = config.Default("")
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/zerodha-roast)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("api-key", "", "Kite API key (env "+EnvAPIKey+")")
	rootCmd.PersistentFlags().String("access-token", "", "Kite access token (env "+EnvAccessToken+")")

	addCoreCommands(rootCmd, app)
	addServeCommands(rootCmd, app)
	addAuthCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)

	return rootCmd
}

// Execute runs the root command and prints any failure. It returns the
// process exit code.
func Execute(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string, stderr io.Writer) int {
	cmd := NewRootCmd(cfg, logger)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, color.RedString("Error: %s", ErrorMessage(err)))
		return 1
	}
	return 0
}

const tokenHint = "; run 'roast login-url' and 'roast session <request-token>' to log in again"

// ErrorMessage renders err the way the HTTP envelope would. A refused access
// token gets a hint on how to log in again.
func ErrorMessage(err error) string {
	msg := err.Error()
	var gwErr *gwerrors.GatewayError
	if gwerrors.As(err, &gwErr) {
		msg = gwErr.Message
		if gwErr.ErrorType != "" {
			msg = fmt.Sprintf("%s (%s)", gwErr.Message, gwErr.ErrorType)
		}
	}
	if kite.IsTokenError(err) {
		msg += tokenHint
	}
	return msg
}

// Close releases the audit log, if one was opened.
func (a *App) Close() error {
	if a.audit == nil {
		return nil
	}
	err := a.audit.Close()
	a.audit = nil
	return err
}

// Client builds the upstream client from the kite configuration.
func (a *App) Client() *kite.Client {
	opts := []kite.Option{
		kite.WithBaseURL(a.Config.Kite.BaseURL),
		kite.WithTimeout(a.Config.Kite.Timeout),
		kite.WithLogger(a.Logger),
	}
	if a.Metrics != nil {
		opts = append(opts, kite.WithObserver(a.Metrics))
	}
	return kite.NewClient(opts...)
}

// Service builds the gateway service, opening the audit log when enabled.
func (a *App) Service() *gateway.Service {
	opts := []gateway.Option{gateway.WithLogger(a.Logger)}

	if a.Config.Security.AuditEnabled && a.audit == nil {
		auditCfg := security.DefaultAuditConfig()
		auditCfg.LogDir = a.Config.Security.AuditDir
		al, err := security.NewAuditLogger(auditCfg)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Audit log unavailable")
		} else {
			a.audit = al
		}
	}
	if a.audit != nil {
		opts = append(opts, gateway.WithAuditLogger(a.audit))
	}
	opts = append(opts, gateway.WithAccessController(
		security.NewAccessController(a.Config.Security.ReadOnlyMode, a.audit)))
	if a.Metrics != nil {
		opts = append(opts, gateway.WithObserver(a.Metrics))
	}

	return gateway.NewService(a.Client(), gateway.Config{
		DefaultExchange:   a.Config.Kite.DefaultExchange,
		StrictInstruments: a.Config.Instruments.Strict,
		SearchLimit:       a.Config.Instruments.SearchLimit,
		MinQueryLength:    a.Config.Instruments.MinQuery,
	}, opts...)
}

// credentials resolves the caller's credentials from flags, then environment.
func credentials(cmd *cobra.Command) gateway.Credentials {
	return gateway.Credentials{
		APIKey:      flagOrEnv(cmd, "api-key", EnvAPIKey),
		AccessToken: flagOrEnv(cmd, "access-token", EnvAccessToken),
	}
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); strings.TrimSpace(v) != "" {
		return v
	}
	return os.Getenv(env)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("roast v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage gateway configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
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
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := app.configDir()
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": dir})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented config.toml if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.WriteTemplate(app.configDir())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Configuration file: %s", path)
			return nil
		},
	})

	return cmd
}

func (a *App) configDir() string {
	if a.ConfigDir != "" {
		return a.ConfigDir
	}
	return config.DefaultConfigDir()
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Read Timeout:    %s\n", cfg.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", cfg.Server.WriteTimeout)
	output.Printf("  CORS Origin:     %s\n", orDash(cfg.Server.CORSOrigin))
	output.Printf("  Metrics:         %v\n", cfg.Server.MetricsEnabled)
	output.Println()

	output.Bold("Kite")
	output.Printf("  Base URL:        %s\n", cfg.Kite.BaseURL)
	output.Printf("  Timeout:         %s\n", cfg.Kite.Timeout)
	output.Printf("  Default Exchange: %s\n", cfg.Kite.DefaultExchange)
	output.Println()

	output.Bold("Instruments")
	output.Printf("  Strict CSV:      %v\n", cfg.Instruments.Strict)
	output.Printf("  Search Limit:    %d\n", cfg.Instruments.SearchLimit)
	output.Printf("  Min Query:       %d\n", cfg.Instruments.MinQuery)
	output.Println()

	output.Bold("Security")
	output.Printf("  Read Only:       %v\n", cfg.Security.ReadOnlyMode)
	output.Printf("  Audit:           %v\n", cfg.Security.AuditEnabled)
	output.Printf("  Audit Dir:       %s\n", cfg.Security.AuditDir)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  File:            %v\n", cfg.Log.File)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
