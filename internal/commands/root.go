// Package commands implements the bizopsctl command tree.
package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"bizops/internal/backend"
	"bizops/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "bizopsctl",
		Short:   "Administer the bizops ledger from the command line",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", "", "data backend: "+strings.Join(backend.Names(), ", ")+" (default from DATA_BACKEND)")
	flags.StringVar(&opts.seedFile, "seed-file", "", "YAML seed for the memory backend (default from SEED_FILE)")
	flags.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database path (default from SQLITE_DB_PATH)")
	flags.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (default from DATABASE_URL)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(
		newMigrateCommand(opts),
		newAccountCommand(opts),
		newReportCommand(opts),
	)

	return rootCmd
}
