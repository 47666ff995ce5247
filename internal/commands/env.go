package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"bizops/internal/backend"
	"bizops/internal/config"
	applog "bizops/internal/log"
)

type globalOptions struct {
	backend     string
	seedFile    string
	sqlitePath  string
	databaseURL string
	logLevel    string
}

// loadConfig reads the environment and applies non-empty flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if o.backend != "" {
		cfg.DataBackend = o.backend
	}
	if o.seedFile != "" {
		cfg.SeedFile = o.seedFile
	}
	if o.sqlitePath != "" {
		cfg.SQLiteDBPath = o.sqlitePath
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *globalOptions) logger(cmd *cobra.Command) *applog.Logger {
	level, err := applog.ParseLevel(o.logLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
}

// openBackend opens the configured repository. Callers must run Cleanup.
func (o *globalOptions) openBackend(ctx context.Context, cmd *cobra.Command) (*backend.BackendResult, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(o.logger(cmd)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}
	return result, nil
}

// withBackend runs fn against an open repository and closes it afterwards.
func (o *globalOptions) withBackend(cmd *cobra.Command, fn func(ctx context.Context, result *backend.BackendResult) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := o.openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()
	return fn(ctx, result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
