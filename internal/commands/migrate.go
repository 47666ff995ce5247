package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bizops/internal/config"
	"bizops/internal/storage"
	"bizops/internal/storage/postgres"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch cfg.DataBackend {
			case config.BackendSQLite:
				if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0o755); err != nil {
					return fmt.Errorf("create db directory: %w", err)
				}
				if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "sqlite schema up to date: %s\n", cfg.SQLiteDBPath)
			case config.BackendPostgres:
				if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
					return err
				}
				fmt.Fprintln(out, "postgres schema up to date")
			default:
				fmt.Fprintf(out, "%s backend has no schema to migrate\n", cfg.DataBackend)
			}
			return nil
		},
	}
}
