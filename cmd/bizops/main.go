package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bizops/internal/buildinfo"
	"bizops/internal/cli"
	apphttp "bizops/internal/http"
	"bizops/internal/ledger"
	applog "bizops/internal/log"
	"bizops/internal/reporting"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	result := cli.InitBackend(context.Background(), logger, cfg)
	repo := result.Repository

	// A nil *events.Client must not reach the service as a non-nil interface.
	var publisher ledger.EventPublisher
	eventsClient := cli.InitEventsClient(logger, cfg)
	if eventsClient != nil {
		publisher = eventsClient
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReportCacheTTL:     cfg.ReportCacheTTL,
		ReportCacheSize:    cfg.ReportCacheSize,
		Ready:              result.Ping,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	}, apphttp.Services{
		Accounts:     ledger.NewAccountService(repo),
		Transactions: ledger.NewTransactionService(repo, publisher),
		Budgets:      ledger.NewBudgetService(repo),
		Reports:      reporting.NewEngine(repo, repo, repo),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if eventsClient != nil {
			if err := eventsClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", applog.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Failed to close backend", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting bizops server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"version", buildinfo.Version,
		"events", eventsClient != nil,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
