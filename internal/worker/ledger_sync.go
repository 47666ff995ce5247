package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"bizops/internal/core"
	"bizops/internal/events"
	applog "bizops/internal/log"
	"bizops/internal/sheets"

	"golang.org/x/sync/errgroup"
)

const maxParallelBatches = 4

// TransactionSource is the read side the worker needs from a repository.
type TransactionSource interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
}

// LedgerSyncWorker mirrors transaction changes into the ledger sheet.
type LedgerSyncWorker struct {
	transactions TransactionSource
	writer       sheets.LedgerWriter
	batchSize    int
	logger       *applog.Logger
}

func NewLedgerSyncWorker(transactions TransactionSource, writer sheets.LedgerWriter, batchSize int, logger *applog.Logger) *LedgerSyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &LedgerSyncWorker{
		transactions: transactions,
		writer:       writer,
		batchSize:    batchSize,
		logger:       logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleTransactionEvent appends the current state of the transaction named
// by evt. Deleted transactions get a tombstone row.
func (w *LedgerSyncWorker) HandleTransactionEvent(ctx context.Context, evt *events.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		applog.FieldTransactionID, evt.ID,
		"action", evt.Action)

	var row sheets.LedgerRow
	if evt.Action == events.ActionDeleted {
		row = sheets.Tombstone(evt.ID, evt.Timestamp)
	} else {
		t, err := w.transactions.GetTransaction(ctx, evt.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Removed before we got to it; the delete event writes the tombstone.
			w.logger.WarnContext(ctx, "Transaction no longer exists, skipping",
				applog.FieldTransactionID, evt.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction %s: %w", evt.ID, err)
		}
		row = sheets.RowFromTransaction(t, evt.Action)
	}

	ref, err := w.writer.AppendRows(ctx, []sheets.LedgerRow{row})
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirrored transaction",
		applog.FieldTransactionID, evt.ID,
		"action", evt.Action,
		"sheets_ref", ref)
	return nil
}

// Backfill writes every stored transaction to the ledger sheet in batches of
// batchSize rows. Batches are appended concurrently, so rows from different
// batches may interleave. It returns the number of rows written.
func (w *LedgerSyncWorker) Backfill(ctx context.Context) (int, error) {
	all, err := w.transactions.ListTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		return 0, fmt.Errorf("list transactions for backfill: %w", err)
	}
	if len(all) == 0 {
		w.logger.InfoContext(ctx, "No transactions to backfill")
		return 0, nil
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)

	for start := 0; start < len(all); start += w.batchSize {
		end := min(start+w.batchSize, len(all))
		batch := all[start:end]
		g.Go(func() error {
			rows := make([]sheets.LedgerRow, 0, len(batch))
			for _, t := range batch {
				rows = append(rows, sheets.RowFromTransaction(t, events.ActionCreated))
			}
			if _, err := w.writer.AppendRows(gctx, rows); err != nil {
				return fmt.Errorf("append backfill batch: %w", err)
			}
			written.Add(int64(len(rows)))
			return nil
		})
	}

	err = g.Wait()
	w.logger.InfoContext(ctx, "Backfill completed",
		"total", len(all),
		"synced", written.Load(),
		"batch_size", w.batchSize)
	return int(written.Load()), err
}
