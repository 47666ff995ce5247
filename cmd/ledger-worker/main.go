package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"bizops/internal/buildinfo"
	"bizops/internal/cli"
	"bizops/internal/events"
	applog "bizops/internal/log"
	gsheet "bizops/internal/sheets/google"
	"bizops/internal/worker"
)

func main() {
	backfill := flag.Bool("backfill", false, "append every stored transaction to the ledger sheet before consuming events")
	backfillOnly := flag.Bool("backfill-only", false, "run the backfill and exit without consuming events")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	logger.Info("Starting ledger-worker", "version", buildinfo.Version)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SheetsEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the ledger worker")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" && !*backfillOnly {
		logger.Error("AMQP_URL is required unless -backfill-only is set")
		os.Exit(1)
	}

	result := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	sheetsLogger := logger.WithComponent(applog.ComponentSheets)
	sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		LedgerSheet:     cfg.GoogleLedgerSheet,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		Logger:          sheetsLogger,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(context.Background()); err != nil {
		logger.Error("Failed to prepare ledger sheet", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleLedgerSheet)

	syncWorker := worker.NewLedgerSyncWorker(result.Repository, sheetsClient, cfg.SyncBatchSize, logger.WithComponent(applog.ComponentWorker))

	if *backfill || *backfillOnly {
		n, err := syncWorker.Backfill(context.Background())
		if err != nil {
			logger.Error("Backfill failed", applog.FieldError, err, "rows", n)
			os.Exit(1)
		}
		logger.Info("Backfill complete", "rows", n)
		if *backfillOnly {
			return
		}
	}

	amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", applog.FieldError, err)
		}
	})

	if err := amqpClient.ConsumeTransactionEvents(ctx, syncWorker.HandleTransactionEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		_ = amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("ledger-worker stopped")
}
