// ABOUTME: Root cobra command for the pagen insights CLI
// ABOUTME: Loads configuration and builds the engine before engine-backed subcommands run
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/pagen/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.2.0"

	// Global flags
	configPath string
	dbPath     string

	cfg     *config.Config
	current *app
)

// needsEngine marks commands that run against the database.
const needsEngine = "engine"

var rootCmd = &cobra.Command{
	Use:   "pagen",
	Short: "Contact relationship intelligence for your CRM",
	Long: `Pagen classifies each contact by lifecycle stage from their calendar and
email history, writes a short relationship note, and keeps the
classification current as new interactions arrive.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}

		if cmd.Annotations[needsEngine] == "" {
			return nil
		}
		current, err = newApp(cmd.Context(), cfg)
		return err
	},
}

// Execute runs the CLI until it finishes or receives an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if current != nil {
		if cerr := current.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close resources: %v\n", cerr)
		}
		current = nil
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/pagen/insights.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "database path (overrides config)")

	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
}
