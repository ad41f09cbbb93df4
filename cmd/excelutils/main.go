// Package main provides the CLI entry point for excelutils.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fanlychie/excelutils/internal/config"
	"github.com/fanlychie/excelutils/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "excelutils",
		Short: "Export and import customer records as Excel workbooks",
		Long: `excelutils streams customer records into paged, sheet-split xlsx workbooks
and decodes them back. Settings come from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Overload overwrites existing env vars
			envErr := godotenv.Overload()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg
			a.logger = logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			if envErr != nil {
				a.logger.Debug("no .env file found, using environment variables")
			}
			a.logger.Debug("configuration loaded", "config", cfg.String())
			return nil
		},
	}

	rootCmd.AddCommand(
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}
