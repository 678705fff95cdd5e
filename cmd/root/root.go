// Package root contains the root command for the application.
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"finbase/txlink/internal/config"
)

// CommonFlags holds flags shared by multiple commands.
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger instance for commands.
	Log = logrus.New()

	// Cfg is the loaded application configuration, populated before any
	// command runs.
	Cfg *config.Config

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "txlink",
		Short: "A CLI tool to import transaction CSVs and link marketplace charges to their line items.",
		Long: `txlink imports bank, credit-card and Amazon order-history CSV exports,
detects their format, and links aggregate marketplace charges to the
individual order line items behind them.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to txlink!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to initialize configuration: %v", err)
			}
			Cfg = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)
		},
	}

	// SharedFlags are accessible to all commands.
	SharedFlags = CommonFlags{}

	// Specific link command flags.
	ParentID string
	ChildIDs []string
	Notes    string
	Score    float64

	// Specific parse command flags.
	LineItems bool
	StorePath string
)

// Init initializes the root command and the persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output CSV file")
	Cmd.PersistentFlags().StringVar(&StorePath, "store", "", "SQLite database path (defaults to store.path from config)")
}
