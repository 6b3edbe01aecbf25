package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/hostledger/internal/config"
	"github.com/mmynk/hostledger/internal/storage/sqlstore"
	"github.com/mmynk/hostledger/pkg/logging"
)

var version = "0.1.0"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "finctl",
	Short: "Property finance tools",
	Long: `finctl records and inspects exchange rates, converts amounts and prices
line items using the same database and settings as the server.

Settings are read from the environment and an optional .env file
(DB_DRIVER, DB_DSN, REPORTING_CURRENCY, RATE_FEED_URL, JWT_SECRET, ...).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		logging.Setup(level, cfg.LogFormat)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// openStore opens the configured database. Callers close it.
func openStore() (*sqlstore.Store, error) {
	store, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.DBDriver, err)
	}
	return store, nil
}
