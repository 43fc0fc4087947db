// Command roast runs the Zerodha Kite gateway.
package main

import (
	"context"
	"os"

	"zerodha-roast/internal/cli"
	"zerodha-roast/internal/config"
	"zerodha-roast/internal/logging"
)

func main() {
	logger := logging.NewLogger()

	cfg, err := config.Load("")
	if err != nil {
		// --config may still point at a valid directory; the root command
		// reloads from there before running anything.
		logger.Warn().Err(err).Msg("Using built-in configuration")
		cfg = config.Default("")
	} else {
		logger = cli.NewLogger(cfg.Log)
	}

	os.Exit(cli.Execute(context.Background(), cfg, logger, os.Args[1:], os.Stderr))
}
