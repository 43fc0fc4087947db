package cli

import (
	"github.com/spf13/cobra"

	"zerodha-roast/internal/gateway"
)

// addAuthCommands adds the login helpers.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginURLCmd(app))
	rootCmd.AddCommand(newSessionCmd(app))
}

func newLoginURLCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "Print the Kite login page for an API key",
		Example: `  roast login-url --api-key=xxxx
  roast login-url --redirect-params "next=/dashboard"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			redirect, _ := cmd.Flags().GetString("redirect-params")

			u, err := app.Service().LoginURL(cmd.Context(), flagOrEnv(cmd, "api-key", EnvAPIKey), redirect)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"login_url": u})
			}
			output.Println(u)
			output.Dim("After login, pass the request_token to 'roast session'.")
			return nil
		},
	}
	cmd.Flags().String("redirect-params", "", "query string handed back on redirect")
	return cmd
}

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session <request-token>",
		Short: "Exchange a request token for an access token",
		Long: `Exchange the request_token from the login redirect for an access token.

The API secret is read from --api-secret or KITE_API_SECRET and is only used
to sign the exchange.`,
		Example: `  roast session 9Xk2... --api-key=xxxx --api-secret=yyyy`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			session, err := app.Service().ExchangeSession(cmd.Context(), gateway.SessionRequest{
				APIKey:       flagOrEnv(cmd, "api-key", EnvAPIKey),
				APISecret:    flagOrEnv(cmd, "api-secret", EnvAPISecret),
				RequestToken: args[0],
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(session)
			}

			output.Success("✓ Session created")
			output.Printf("  User:         %s (%s)\n", session.UserName, session.UserID)
			output.Printf("  Email:        %s\n", orDash(session.Email))
			output.Printf("  Access Token: %s\n", session.AccessToken)
			output.Println()
			output.Dim("export %s=%s", EnvAccessToken, session.AccessToken)
			return nil
		},
	}
	cmd.Flags().String("api-secret", "", "Kite API secret (env "+EnvAPISecret+")")
	return cmd
}
